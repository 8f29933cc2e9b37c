package study

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/util"
)

func TestParseConceptsJSON(t *testing.T) {
	raw := `{"concepts":[
		{"name":"Backpropagation","definition":"Gradient computation by the chain rule.","importance":9,"exam_probability":80},
		{"name":"  backpropagation ","definition":"","importance":7,"exam_probability":60},
		{"name":"Gradient Descent","definition":"Iterative parameter update.","importance":15,"exam_probability":120},
		{"name":"","definition":"nameless","importance":5,"exam_probability":50}
	]}`
	got, err := ParseConceptsJSON(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "Backpropagation", got[0].Name)
	require.Equal(t, 9, got[0].Importance)
	require.InDelta(t, 70.0, got[0].ExamProbability, 1e-9)
	require.Equal(t, "Gradient computation by the chain rule.", got[0].Definition)

	require.Equal(t, 10, got[1].Importance)
	require.InDelta(t, 100.0, got[1].ExamProbability, 1e-9)
}

func TestParseConceptsJSONBareArrayAndFence(t *testing.T) {
	raw := "```json\n[{\"name\":\"Entropy\",\"definition\":\"Measure of disorder.\",\"importance\":6,\"exam_probability\":40}]\n```"
	got, err := ParseConceptsJSON(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Entropy", got[0].Name)
}

func TestParseConceptsJSONFailures(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "I could not find any concepts, sorry!"},
		{name: "empty list", raw: `{"concepts":[]}`},
		{name: "only nameless", raw: `{"concepts":[{"name":"  ","importance":5}]}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConceptsJSON(tc.raw)
			require.ErrorIs(t, err, util.ErrExtractionFailed)
		})
	}
}

func TestCanonicalName(t *testing.T) {
	require.Equal(t, "gradient descent", CanonicalName("  Gradient   Descent "))
	require.Equal(t, CanonicalName("Bayes' Theorem"), CanonicalName("bayes' theorem"))
}

// Two materials naming the same concept with different casing or spacing must
// share one merge key, even though each keeps its own display name.
func TestCanonicalNameMergesAcrossMaterials(t *testing.T) {
	matA, err := ParseConceptsJSON(`{"concepts":[{"name":"Attention Mechanism","definition":"a","importance":7,"exam_probability":60}]}`)
	require.NoError(t, err)
	matB, err := ParseConceptsJSON(`{"concepts":[{"name":"attention  mechanism","definition":"b","importance":5,"exam_probability":40}]}`)
	require.NoError(t, err)

	require.NotEqual(t, matA[0].Name, matB[0].Name)
	require.Equal(t, CanonicalName(matA[0].Name), CanonicalName(matB[0].Name))
}
