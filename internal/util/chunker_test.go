package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkTextWindows(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	pieces, err := ChunkText(text, 10, 2)
	require.NoError(t, err)
	require.Len(t, pieces, 3)
	require.Equal(t, "abcdefghij", pieces[0].Text)
	require.Equal(t, "ijklmnopqr", pieces[1].Text)
	require.Equal(t, "qrstuvwxyz", pieces[2].Text)
	require.Equal(t, 8, pieces[1].Start)
}

func TestChunkTextCount(t *testing.T) {
	// ceil((L-O)/(C-O)) pieces for L > C, exactly one for L <= C.
	cases := []struct {
		length, size, overlap, want int
	}{
		{length: 26, size: 10, overlap: 2, want: 3},
		{length: 500, size: 500, overlap: 50, want: 1},
		{length: 501, size: 500, overlap: 50, want: 2},
		{length: 1350, size: 500, overlap: 50, want: 3},
		{length: 10, size: 10, overlap: 0, want: 1},
		{length: 3, size: 10, overlap: 2, want: 1},
		{length: 0, size: 10, overlap: 2, want: 1},
	}
	for _, c := range cases {
		pieces, err := ChunkText(strings.Repeat("x", c.length), c.size, c.overlap)
		require.NoError(t, err)
		require.Len(t, pieces, c.want, "length=%d size=%d overlap=%d", c.length, c.size, c.overlap)
	}
}

func TestChunkTextReconstruction(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40)
	overlap := 50
	pieces, err := ChunkText(text, 500, overlap)
	require.NoError(t, err)
	require.Greater(t, len(pieces), 1)

	var b strings.Builder
	for i, p := range pieces {
		if i == 0 {
			b.WriteString(p.Text)
			continue
		}
		b.WriteString(string([]rune(p.Text)[overlap:]))
	}
	require.Equal(t, text, b.String())
}

func TestChunkTextInvalidConfig(t *testing.T) {
	for _, c := range []struct{ size, overlap int }{
		{size: 0, overlap: 0},
		{size: -1, overlap: 0},
		{size: 10, overlap: 10},
		{size: 10, overlap: 11},
		{size: 10, overlap: -1},
	} {
		_, err := ChunkText("some text", c.size, c.overlap)
		require.ErrorIs(t, err, ErrInvalidChunkConfig, "size=%d overlap=%d", c.size, c.overlap)
	}
}
