package study

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

func TestSelectConceptsWeighting(t *testing.T) {
	concepts := []models.ConceptMastery{
		concept("c1", "Mastered", 10, 90, 100),
		concept("c2", "Weak", 8, 70, 10),
		concept("c3", "Medium", 8, 70, 60),
	}
	got := SelectConcepts(concepts, 2)
	require.Len(t, got, 2)
	require.Equal(t, "Weak", got[0].Name)
	require.Equal(t, "Medium", got[1].Name)
}

func TestSelectConceptsWrapsAround(t *testing.T) {
	concepts := []models.ConceptMastery{concept("c1", "Only", 5, 50, 0)}
	got := SelectConcepts(concepts, 3)
	require.Len(t, got, 3)
	for _, c := range got {
		require.Equal(t, "Only", c.Name)
	}
	require.Nil(t, SelectConcepts(nil, 3))
	require.Nil(t, SelectConcepts(concepts, 0))
}

func TestAdaptiveDifficulty(t *testing.T) {
	require.Equal(t, DifficultyEasy, AdaptiveDifficulty(0))
	require.Equal(t, DifficultyEasy, AdaptiveDifficulty(39.9))
	require.Equal(t, DifficultyMedium, AdaptiveDifficulty(40))
	require.Equal(t, DifficultyMedium, AdaptiveDifficulty(69.9))
	require.Equal(t, DifficultyHard, AdaptiveDifficulty(70))
	require.Equal(t, DifficultyHard, AdaptiveDifficulty(100))
}

func TestParseQuestionsJSON(t *testing.T) {
	raw := `{"questions":[
		{"prompt":"Which metric penalizes false positives?","type":"multiple_choice","difficulty":"medium","options":["Precision","Recall","Accuracy","F1"],"correct_answer":"Precision","explanation":"By definition."},
		{"prompt":"Entropy always decreases.","type":"TRUE_FALSE","correct_answer":"False"},
		{"prompt":"Name the optimizer.","type":"short_answer","options":["leftover"],"correct_answer":"gradient descent"},
		{"prompt":"Bad MCQ missing answer in options","type":"multiple_choice","options":["a","b"],"correct_answer":"c"},
		{"prompt":"Bad type","type":"essay","correct_answer":"x"},
		{"prompt":"","type":"short_answer","correct_answer":"empty prompt"}
	]}`
	got, err := ParseQuestionsJSON(raw)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, QuestionMultipleChoice, got[0].Type)
	require.Equal(t, QuestionTrueFalse, got[1].Type)
	require.Equal(t, "false", got[1].CorrectAnswer)
	require.Equal(t, []string{"true", "false"}, got[1].Options)
	require.Equal(t, QuestionShortAnswer, got[2].Type)
	require.Nil(t, got[2].Options)
}

func TestParseQuestionsJSONFailures(t *testing.T) {
	_, err := ParseQuestionsJSON("no json here")
	require.Error(t, err)

	_, err = ParseQuestionsJSON(`{"questions":[{"prompt":"bad","type":"essay","correct_answer":"x"}]}`)
	require.Error(t, err)
}

func TestFallbackQuestions(t *testing.T) {
	pool := []models.ConceptMastery{
		concept("c1", "Precision", 8, 70, 20),
		concept("c2", "Recall", 8, 70, 20),
		concept("c3", "Accuracy", 6, 50, 40),
	}
	pool[0].Definition = "Fraction of positive predictions that are correct."
	pool[1].Definition = "Fraction of actual positives that are found."
	pool[2].Definition = "Fraction of all predictions that are correct."

	got := FallbackQuestions(pool[:2], pool, DifficultyEasy)
	require.Len(t, got, 2)
	for _, q := range got {
		require.Equal(t, QuestionMultipleChoice, q.Type)
		require.GreaterOrEqual(t, len(q.Options), 2)
		require.Contains(t, q.Options, q.CorrectAnswer)
	}
	require.Equal(t, pool[0].Definition, got[0].CorrectAnswer)
	require.Equal(t, "c1", got[0].ConceptID)
}
