package storage

import (
	"context"
	"fmt"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

type QuizRepo struct {
	db *DB
}

func NewQuizRepo(db *DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// CreateQuiz stores the quiz and all its questions in one transaction.
func (r *QuizRepo) CreateQuiz(ctx context.Context, q models.Quiz, questions []models.Question) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx create quiz: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
INSERT INTO quizzes (quiz_id, user_id, course_id, title, difficulty, total_questions, status)
VALUES ($1::uuid, $2, $3::uuid, $4, $5, $6, $7)`,
		q.QuizID, q.UserID, q.CourseID, q.Title, q.Difficulty, q.TotalQuestions, q.Status)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}

	for _, question := range questions {
		_, err = tx.Exec(ctx, `
INSERT INTO questions (question_id, quiz_id, concept_id, prompt, question_type, difficulty, options, correct_answer, explanation, question_order)
VALUES ($1::uuid, $2::uuid, NULLIF($3,'')::uuid, $4, $5, $6, $7, $8, $9, $10)`,
			question.QuestionID, q.QuizID, question.ConceptID, question.Prompt, question.Type,
			question.Difficulty, question.Options, question.CorrectAnswer, question.Explanation, question.QuestionOrder)
		if err != nil {
			return fmt.Errorf("insert question %s: %w", question.QuestionID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit quiz tx: %w", err)
	}
	return nil
}

func (r *QuizRepo) GetQuiz(ctx context.Context, quizID string) (models.Quiz, error) {
	var q models.Quiz
	err := r.db.Pool.QueryRow(ctx, `
SELECT quiz_id::text, user_id, course_id::text, title, difficulty, total_questions,
       answered_questions, correct_answers, score, status, created_at, completed_at
FROM quizzes
WHERE quiz_id=$1::uuid`, quizID).
		Scan(&q.QuizID, &q.UserID, &q.CourseID, &q.Title, &q.Difficulty, &q.TotalQuestions,
			&q.AnsweredQuestions, &q.CorrectAnswers, &q.Score, &q.Status, &q.CreatedAt, &q.CompletedAt)
	if err != nil {
		return models.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

const questionColumns = `q.question_id::text, q.quiz_id::text, COALESCE(q.concept_id::text,''), COALESCE(c.name,''),
       q.prompt, q.question_type, q.difficulty, q.options, q.correct_answer, COALESCE(q.explanation,''),
       q.question_order, q.user_answer, q.is_correct, q.answered_at`

func (r *QuizRepo) ListQuestions(ctx context.Context, quizID string) ([]models.Question, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+questionColumns+`
FROM questions q
LEFT JOIN concepts c ON c.concept_id = q.concept_id
WHERE q.quiz_id=$1::uuid
ORDER BY q.question_order ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := make([]models.Question, 0)
	for rows.Next() {
		var question models.Question
		if err := rows.Scan(&question.QuestionID, &question.QuizID, &question.ConceptID, &question.ConceptName,
			&question.Prompt, &question.Type, &question.Difficulty, &question.Options, &question.CorrectAnswer,
			&question.Explanation, &question.QuestionOrder, &question.UserAnswer, &question.IsCorrect, &question.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (r *QuizRepo) GetQuestion(ctx context.Context, quizID, questionID string) (models.Question, error) {
	var question models.Question
	err := r.db.Pool.QueryRow(ctx, `
SELECT `+questionColumns+`
FROM questions q
LEFT JOIN concepts c ON c.concept_id = q.concept_id
WHERE q.quiz_id=$1::uuid AND q.question_id=$2::uuid`, quizID, questionID).
		Scan(&question.QuestionID, &question.QuizID, &question.ConceptID, &question.ConceptName,
			&question.Prompt, &question.Type, &question.Difficulty, &question.Options, &question.CorrectAnswer,
			&question.Explanation, &question.QuestionOrder, &question.UserAnswer, &question.IsCorrect, &question.AnsweredAt)
	if err != nil {
		return models.Question{}, fmt.Errorf("get question: %w", err)
	}
	return question, nil
}

// RecordAnswer stores the graded answer and rolls the quiz counters forward.
// The first answer moves a generated quiz to in_progress, the last one to
// completed with a score. Both writes happen in one transaction.
func (r *QuizRepo) RecordAnswer(ctx context.Context, quizID, questionID, userAnswer string, correct bool) (models.Quiz, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return models.Quiz{}, fmt.Errorf("begin tx record answer: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
UPDATE questions SET user_answer=$3, is_correct=$4, answered_at=NOW()
WHERE quiz_id=$1::uuid AND question_id=$2::uuid`, quizID, questionID, userAnswer, correct)
	if err != nil {
		return models.Quiz{}, fmt.Errorf("update question answer: %w", err)
	}

	var q models.Quiz
	err = tx.QueryRow(ctx, `
UPDATE quizzes SET
  answered_questions = answered_questions + 1,
  correct_answers = correct_answers + CASE WHEN $2 THEN 1 ELSE 0 END,
  status = CASE WHEN answered_questions + 1 >= total_questions THEN 'completed' ELSE 'in_progress' END,
  completed_at = CASE WHEN answered_questions + 1 >= total_questions THEN NOW() ELSE completed_at END,
  score = CASE WHEN answered_questions + 1 >= total_questions
          THEN (correct_answers + CASE WHEN $2 THEN 1 ELSE 0 END)::float8 * 100 / total_questions
          ELSE score END
WHERE quiz_id=$1::uuid
RETURNING quiz_id::text, user_id, course_id::text, title, difficulty, total_questions,
          answered_questions, correct_answers, score, status, created_at, completed_at`,
		quizID, correct).
		Scan(&q.QuizID, &q.UserID, &q.CourseID, &q.Title, &q.Difficulty, &q.TotalQuestions,
			&q.AnsweredQuestions, &q.CorrectAnswers, &q.Score, &q.Status, &q.CreatedAt, &q.CompletedAt)
	if err != nil {
		return models.Quiz{}, fmt.Errorf("update quiz counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Quiz{}, fmt.Errorf("commit answer tx: %w", err)
	}
	return q, nil
}
