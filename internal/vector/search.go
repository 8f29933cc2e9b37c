package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/util"
)

type SearchFilters struct {
	MaterialIDs      []string
	EmbeddingVersion string
}

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchChunks runs cosine nearest-neighbor search over a course's embedded
// chunks. Ties in distance resolve by chunk index so results are stable.
func (s *Searcher) SearchChunks(ctx context.Context, courseID string, queryVec []float32, topK int, filters SearchFilters) ([]models.PassageResult, error) {
	if topK <= 0 {
		topK = 8
	}
	vecLiteral := ToLiteral(queryVec)
	args := []any{courseID, vecLiteral, topK}

	filterSQL := ""
	if len(filters.MaterialIDs) > 0 {
		filterSQL = fmt.Sprintf(" AND c.material_id = ANY($%d)", len(args)+1)
		args = append(args, filters.MaterialIDs)
	}
	if strings.TrimSpace(filters.EmbeddingVersion) != "" {
		filterSQL += fmt.Sprintf(" AND c.embedding_version = $%d", len(args)+1)
		args = append(args, filters.EmbeddingVersion)
	}

	query := `
SELECT c.material_id,
       COALESCE(m.title, m.filename) AS title,
       m.filename,
       c.chunk_id,
       c.chunk_index,
       LEFT(c.text, 420) AS snippet,
       1 - (c.embedding <=> $2::vector) AS score,
       c.text
FROM chunks c
JOIN materials m ON m.material_id = c.material_id
WHERE c.course_id = $1
  AND c.embedding IS NOT NULL` + filterSQL + `
ORDER BY c.embedding <=> $2::vector, c.chunk_index
LIMIT $3`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w: %w", util.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	results := make([]models.PassageResult, 0, topK)
	for rows.Next() {
		var r models.PassageResult
		if err := rows.Scan(&r.MaterialID, &r.Title, &r.Filename, &r.ChunkID, &r.ChunkIndex, &r.Snippet, &r.Score, &r.ChunkText); err != nil {
			return nil, fmt.Errorf("scan passage result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
