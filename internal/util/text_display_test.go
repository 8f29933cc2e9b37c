package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisplaySnippetTruncates(t *testing.T) {
	long := strings.Repeat("word ", 200)
	out := DisplaySnippet(long, 50)
	require.LessOrEqual(t, len([]rune(out)), 53)
	require.True(t, strings.HasSuffix(out, "..."))
}

func TestEvidenceSnippetPrefersMatchingSentence(t *testing.T) {
	chunk := "Gradient descent minimizes loss. Attention weights every token against every other token. Batching improves throughput."
	out := EvidenceSnippet(chunk, "how does attention work", 200)
	require.Contains(t, out, "Attention weights every token")
	require.NotContains(t, out, "Batching")
}

func TestEvidenceSnippetNoTermsFallsBack(t *testing.T) {
	chunk := "Only one sentence here."
	out := EvidenceSnippet(chunk, "a an of", 200)
	require.Equal(t, "Only one sentence here.", out)
}
