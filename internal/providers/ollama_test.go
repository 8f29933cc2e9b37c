package providers

import "testing"

func TestResolveOllamaEmbedModelDefault(t *testing.T) {
	t.Setenv("STUDYBUDDY_OLLAMA_EMBED_MODEL", "")
	if got := resolveOllamaEmbedModel(""); got != "all-minilm" {
		t.Fatalf("expected default all-minilm, got %q", got)
	}
}

func TestMatchDimension(t *testing.T) {
	src := []float32{1, 2, 3}
	a := matchDimension(src, 2)
	if len(a) != 2 || a[0] != 1 || a[1] != 2 {
		t.Fatalf("truncate failed: %#v", a)
	}
	b := matchDimension(src, 5)
	if len(b) != 5 || b[0] != 1 || b[2] != 3 || b[3] != 0 || b[4] != 0 {
		t.Fatalf("pad failed: %#v", b)
	}
}
