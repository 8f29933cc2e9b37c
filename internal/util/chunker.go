package util

// Piece is one passage produced by ChunkText. Start is the rune offset of the
// piece within the source text, kept for citation references.
type Piece struct {
	Index int
	Start int
	Text  string
}

// ChunkText splits text into overlapping rune windows of width chunkSize.
// Each window starts chunkSize-overlap runes after the previous one; the final
// window may be shorter. Text no longer than chunkSize yields exactly one
// piece. The pieces are not trimmed or sanitized here so that concatenating
// them, dropping the first overlap runes of every piece after the first,
// reproduces the input exactly.
func ChunkText(text string, chunkSize, overlap int) ([]Piece, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, ErrInvalidChunkConfig
	}
	runes := []rune(text)
	step := chunkSize - overlap
	out := make([]Piece, 0, len(runes)/step+1)
	for i := 0; ; i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, Piece{Index: len(out), Start: i, Text: string(runes[i:end])})
		if end == len(runes) {
			break
		}
	}
	return out, nil
}
