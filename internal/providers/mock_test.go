package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockEmbedDeterministic(t *testing.T) {
	m := NewMockProvider(384)
	a, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"attention is all you need"}})
	require.NoError(t, err)
	b, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"attention is all you need"}})
	require.NoError(t, err)
	require.Len(t, a, 1)
	require.Len(t, a[0], 384)
	require.Equal(t, a, b)

	c, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"a different text"}})
	require.NoError(t, err)
	require.NotEqual(t, a[0], c[0])
}

func TestMockGenerateCitesContext(t *testing.T) {
	m := NewMockProvider(0)
	resp, info, err := m.Generate(context.Background(), GenerateRequest{
		Operation: "ask_answer",
		Prompt:    "explain attention",
		Context:   []string{"snippet one", "snippet two"},
	})
	require.NoError(t, err)
	require.Equal(t, "mock", info.Name)
	require.Contains(t, resp.Text, "[C1]")
	require.Contains(t, resp.Text, "[C2]")
}
