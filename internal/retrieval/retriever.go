// Package retrieval turns a study question into scored passages from the
// course's embedded materials.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/providers"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/vector"
)

// Scope limits a retrieval to one course, optionally narrowed to a single
// material.
type Scope struct {
	CourseID   string
	MaterialID string
}

type ChunkSearcher interface {
	SearchChunks(ctx context.Context, courseID string, queryVec []float32, topK int, filters vector.SearchFilters) ([]models.PassageResult, error)
}

type Retriever struct {
	searcher         ChunkSearcher
	manager          *providers.Manager
	embedDim         int
	embeddingVersion string
}

func NewRetriever(searcher ChunkSearcher, manager *providers.Manager, embedDim int, embeddingVersion string) *Retriever {
	return &Retriever{
		searcher:         searcher,
		manager:          manager,
		embedDim:         embedDim,
		embeddingVersion: embeddingVersion,
	}
}

// Retrieve embeds the query and returns the k nearest passages in scope.
// A non-positive k or a blank query returns an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, scope Scope, query string, k int) ([]models.PassageResult, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return []models.PassageResult{}, nil
	}

	queryVec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	filters := vector.SearchFilters{EmbeddingVersion: r.embeddingVersion}
	if scope.MaterialID != "" {
		filters.MaterialIDs = []string{scope.MaterialID}
	}
	results, err := r.searcher.SearchChunks(ctx, scope.CourseID, queryVec, k, filters)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return results, nil
}

// embedQuery walks the configured embedding providers in preferred order and
// returns the first successful vector.
func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	var lastErr error
	for _, idx := range r.manager.PreferredEmbedOrder() {
		provider, ref := r.manager.EmbedProviderByIndex(idx)
		vecs, _, err := provider.Embed(ctx, providers.EmbedRequest{
			Operation: "retrieval_query",
			Inputs:    []string{query},
			Dimension: r.embedDim,
		})
		if err != nil {
			lastErr = fmt.Errorf("embed query with %s: %w", ref.Name, err)
			continue
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			lastErr = fmt.Errorf("embed query with %s: empty vector", ref.Name)
			continue
		}
		return vecs[0], nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no embedding providers configured")
	}
	return nil, lastErr
}
