package study

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

func TestGradeDeterministic(t *testing.T) {
	mcq := models.Question{
		Type:          QuestionMultipleChoice,
		Options:       []string{"Precision", "Recall", "Accuracy", "F1"},
		CorrectAnswer: "Precision",
	}
	for _, tc := range []struct {
		name    string
		answer  string
		correct bool
	}{
		{name: "exact text", answer: "Precision", correct: true},
		{name: "case and space tolerant", answer: "  precision ", correct: true},
		{name: "option index", answer: "0", correct: true},
		{name: "wrong option index", answer: "1", correct: false},
		{name: "wrong text", answer: "Recall", correct: false},
		{name: "index out of range treated as text", answer: "9", correct: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			correct, graded := GradeDeterministic(mcq, tc.answer)
			require.True(t, graded)
			require.Equal(t, tc.correct, correct)
		})
	}

	tf := models.Question{Type: QuestionTrueFalse, Options: []string{"true", "false"}, CorrectAnswer: "true"}
	correct, graded := GradeDeterministic(tf, "TRUE")
	require.True(t, graded)
	require.True(t, correct)

	_, graded = GradeDeterministic(models.Question{Type: QuestionShortAnswer, CorrectAnswer: "x"}, "x")
	require.False(t, graded, "short answers are not graded deterministically here")
}

func TestGradeShortAnswerFallback(t *testing.T) {
	require.True(t, GradeShortAnswerFallback("Gradient Descent", "  gradient descent "))
	require.False(t, GradeShortAnswerFallback("Gradient Descent", "stochastic gradient descent"))
}

func TestParseEquivalenceJudgment(t *testing.T) {
	got, err := ParseEquivalenceJudgment(`{"equivalent":true}`)
	require.NoError(t, err)
	require.True(t, got)

	got, err = ParseEquivalenceJudgment("```json\n{\"equivalent\":false}\n```")
	require.NoError(t, err)
	require.False(t, got)

	_, err = ParseEquivalenceJudgment("yes they match")
	require.Error(t, err)
}
