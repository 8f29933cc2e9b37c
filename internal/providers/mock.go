package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MockProvider gives deterministic embeddings and canned, parseable
// generation so every pipeline runs end to end without external services.
type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 384
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	op := strings.ToLower(req.Operation)
	text := "Mock response."
	switch {
	case strings.Contains(op, "concept"):
		text = `{"concepts":[` +
			`{"name":"Mock Concept","definition":"A deterministic placeholder concept.","importance":7,"exam_probability":60},` +
			`{"name":"Second Mock Concept","definition":"Another placeholder for pipeline tests.","importance":5,"exam_probability":40}` +
			`]}`
	case strings.Contains(op, "question"), strings.Contains(op, "quiz"):
		text = `{"questions":[{"prompt":"Which term names the deterministic placeholder concept?",` +
			`"type":"multiple_choice","options":["Mock Concept","Alpha","Beta","Gamma"],` +
			`"correct_answer":"Mock Concept","explanation":"Canned mock question.","difficulty":"medium"}]}`
	case strings.Contains(op, "confusion"):
		text = `{"pattern_type":"partial_understanding","description":"Right category, wrong specific.",` +
			`"confused_with":"a related concept","intervention":"Review the definition and one worked example."}`
	case strings.Contains(op, "equivalence"):
		text = `{"equivalent":false}`
	case strings.Contains(op, "ask"), strings.Contains(op, "answer"):
		b := strings.Builder{}
		b.WriteString("Deterministic answer based on retrieved evidence.")
		for i := range req.Context {
			b.WriteString(" [C")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString("]")
		}
		text = b.String()
	}
	return GenerateResponse{Text: text}, ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}, nil
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)+1e-9))
	for i := range v {
		v[i] *= inv
	}
	return v
}
