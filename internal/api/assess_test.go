package api

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/study"
)

func TestBuildQuizStartsGenerated(t *testing.T) {
	generated := []study.GeneratedQuestion{
		{ConceptID: "c1", Prompt: "p1", Type: study.QuestionMultipleChoice, Difficulty: study.DifficultyEasy, Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{ConceptID: "c2", Prompt: "p2", Type: study.QuestionShortAnswer, Difficulty: study.DifficultyEasy, CorrectAnswer: "x"},
	}
	quiz, questions := buildQuiz("user-1", "course-1", "Midterm prep", generated)

	require.Equal(t, "generated", quiz.Status)
	require.Equal(t, 2, quiz.TotalQuestions)
	require.Equal(t, study.DifficultyEasy, quiz.Difficulty)
	require.Len(t, questions, 2)
	require.Equal(t, quiz.QuizID, questions[0].QuizID)
	require.Equal(t, 1, questions[0].QuestionOrder)
	require.Equal(t, 2, questions[1].QuestionOrder)
}

func TestAnswerFeedbackReflectsFailedPersistence(t *testing.T) {
	question := models.Question{CorrectAnswer: "42", Explanation: "because"}
	quiz := models.Quiz{QuizID: "q1", Status: "in_progress"}

	payload := answerFeedback(question, quiz, false, nil, nil)
	require.Equal(t, false, payload["correct"])
	require.Equal(t, "42", payload["correct_answer"])
	require.Nil(t, payload["mastery"].(*models.MasteryRecord))
	require.Nil(t, payload["confusion"].(*study.Classification))

	mastery := &models.MasteryRecord{UserID: "u1", ConceptID: "c1", Mastery: 30}
	confusion := &study.Classification{PatternType: study.PatternMisconception}
	payload = answerFeedback(question, quiz, false, mastery, confusion)
	require.Equal(t, mastery, payload["mastery"])
	require.Equal(t, confusion, payload["confusion"])
}

func TestRedactQuestionsHidesUnansweredKeys(t *testing.T) {
	answered := time.Now()
	questions := []models.Question{
		{QuestionID: "q1", CorrectAnswer: "a", Explanation: "e1"},
		{QuestionID: "q2", CorrectAnswer: "b", Explanation: "e2", AnsweredAt: &answered},
	}
	out := redactQuestions(questions)

	require.Empty(t, out[0].CorrectAnswer)
	require.Empty(t, out[0].Explanation)
	require.Equal(t, "b", out[1].CorrectAnswer)
	require.Equal(t, "e2", out[1].Explanation)
	require.Equal(t, "a", questions[0].CorrectAnswer, "input left untouched")
}

func TestKeyedLocksSerializesSameKey(t *testing.T) {
	locks := newKeyedLocks()
	var mu sync.Mutex
	order := make([]int, 0, 4)

	unlock := locks.lock("quiz-1")
	done := make(chan struct{})
	go func() {
		inner := locks.lock("quiz-1")
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		inner()
		close(done)
	}()

	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()
	<-done

	require.Equal(t, []int{1, 2}, order)
}
