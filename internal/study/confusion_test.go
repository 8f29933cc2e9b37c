package study

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

func TestNormalizePatternType(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{in: "definition_swap", want: PatternDefinitionSwap},
		{in: "Definition Swap", want: PatternDefinitionSwap},
		{in: "sign-confusion", want: PatternSignConfusion},
		{in: "sign/direction confusion", want: PatternSignConfusion},
		{in: "partial understanding", want: PatternPartialUnderstanding},
		{in: "overgeneralisation of the rule", want: PatternOvergeneralization},
		{in: "something else entirely", want: ""},
	} {
		require.Equal(t, tc.want, NormalizePatternType(tc.in), "input %q", tc.in)
	}
}

func TestParseClassification(t *testing.T) {
	got, err := ParseClassification("```json\n" + `{"pattern_type":"Term Confusion","description":"Mixed up precision and recall.","confused_with":"recall","intervention":"Write out both formulas."}` + "\n```")
	require.NoError(t, err)
	require.Equal(t, PatternTermConfusion, got.PatternType)
	require.Equal(t, "recall", got.ConfusedWith)

	_, err = ParseClassification("the student seems confused")
	require.Error(t, err)

	_, err = ParseClassification(`{"pattern_type":"existential dread"}`)
	require.Error(t, err)
}

func TestFallbackClassificationIsStable(t *testing.T) {
	q := models.Question{
		Type:          QuestionMultipleChoice,
		ConceptName:   "Precision",
		Prompt:        "Which metric penalizes false positives?",
		Options:       []string{"Precision", "Recall", "Accuracy", "F1"},
		CorrectAnswer: "Precision",
	}
	first := FallbackClassification(q, "Recall")
	second := FallbackClassification(q, "Recall")
	require.Equal(t, first, second, "identical mistakes must land on the same pattern")
	require.Equal(t, PatternDefinitionSwap, first.PatternType)
	require.Equal(t, "Recall", first.ConfusedWith)
	require.NotEmpty(t, first.Intervention)
}

func TestFallbackClassificationByShape(t *testing.T) {
	tf := models.Question{Type: QuestionTrueFalse, CorrectAnswer: "true"}
	require.Equal(t, PatternSignConfusion, FallbackClassification(tf, "false").PatternType)

	mc := models.Question{Type: QuestionMultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "a"}
	require.Equal(t, PatternTermConfusion, FallbackClassification(mc, "banana").PatternType)

	sa := models.Question{Type: QuestionShortAnswer, CorrectAnswer: "entropy"}
	require.Equal(t, PatternPartialUnderstanding, FallbackClassification(sa, "").PatternType)
	require.Equal(t, PatternMisconception, FallbackClassification(sa, "enthalpy").PatternType)
}
