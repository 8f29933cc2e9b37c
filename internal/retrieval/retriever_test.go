package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/config"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/providers"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/vector"
)

type fakeSearcher struct {
	gotCourseID string
	gotTopK     int
	gotFilters  vector.SearchFilters
	gotVecLen   int
	results     []models.PassageResult
	err         error
}

func (f *fakeSearcher) SearchChunks(ctx context.Context, courseID string, queryVec []float32, topK int, filters vector.SearchFilters) ([]models.PassageResult, error) {
	f.gotCourseID = courseID
	f.gotTopK = topK
	f.gotFilters = filters
	f.gotVecLen = len(queryVec)
	return f.results, f.err
}

func newTestManager(t *testing.T) *providers.Manager {
	t.Helper()
	cfg := config.Config{LLMProviders: "mock", EmbedProviders: "mock", EmbedDim: 384}
	m, err := providers.NewManager(cfg)
	require.NoError(t, err)
	return m
}

func TestRetrieveEmbedsAndSearches(t *testing.T) {
	fs := &fakeSearcher{results: []models.PassageResult{
		{MaterialID: "m1", ChunkID: "c1", ChunkIndex: 0, Score: 0.93},
		{MaterialID: "m1", ChunkID: "c2", ChunkIndex: 1, Score: 0.88},
	}}
	r := NewRetriever(fs, newTestManager(t), 384, "v1")

	got, err := r.Retrieve(context.Background(), Scope{CourseID: "course-1"}, "what is backprop", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "course-1", fs.gotCourseID)
	require.Equal(t, 5, fs.gotTopK)
	require.Equal(t, 384, fs.gotVecLen)
	require.Equal(t, "v1", fs.gotFilters.EmbeddingVersion)
	require.Empty(t, fs.gotFilters.MaterialIDs)
}

func TestRetrieveMaterialScope(t *testing.T) {
	fs := &fakeSearcher{}
	r := NewRetriever(fs, newTestManager(t), 384, "v1")

	_, err := r.Retrieve(context.Background(), Scope{CourseID: "course-1", MaterialID: "m9"}, "query", 3)
	require.NoError(t, err)
	require.Equal(t, []string{"m9"}, fs.gotFilters.MaterialIDs)
}

func TestRetrieveEmptyInputs(t *testing.T) {
	fs := &fakeSearcher{results: []models.PassageResult{{ChunkID: "c1"}}}
	r := NewRetriever(fs, newTestManager(t), 384, "v1")

	for _, tc := range []struct {
		name  string
		query string
		k     int
	}{
		{name: "zero k", query: "query", k: 0},
		{name: "negative k", query: "query", k: -3},
		{name: "blank query", query: "   ", k: 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Retrieve(context.Background(), Scope{CourseID: "course-1"}, tc.query, tc.k)
			require.NoError(t, err)
			require.Empty(t, got)
		})
	}
}
