package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

type MasteryRepo struct {
	db *DB
}

func NewMasteryRepo(db *DB) *MasteryRepo {
	return &MasteryRepo{db: db}
}

// GetMastery returns the user's record for a concept, or a zero-mastery record
// when the user has never answered on it.
func (r *MasteryRepo) GetMastery(ctx context.Context, userID, conceptID string) (models.MasteryRecord, error) {
	var m models.MasteryRecord
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id, concept_id::text, mastery, times_correct, times_incorrect, last_reviewed_at
FROM concept_mastery
WHERE user_id=$1 AND concept_id=$2::uuid`, userID, conceptID).
		Scan(&m.UserID, &m.ConceptID, &m.Mastery, &m.TimesCorrect, &m.TimesIncorrect, &m.LastReviewedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.MasteryRecord{UserID: userID, ConceptID: conceptID}, nil
	}
	if err != nil {
		return models.MasteryRecord{}, fmt.Errorf("get mastery: %w", err)
	}
	return m, nil
}

func (r *MasteryRepo) UpsertMastery(ctx context.Context, m models.MasteryRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO concept_mastery (user_id, concept_id, mastery, times_correct, times_incorrect, last_reviewed_at)
VALUES ($1, $2::uuid, $3, $4, $5, NOW())
ON CONFLICT (user_id, concept_id)
DO UPDATE SET
  mastery = EXCLUDED.mastery,
  times_correct = EXCLUDED.times_correct,
  times_incorrect = EXCLUDED.times_incorrect,
  last_reviewed_at = NOW()`,
		m.UserID, m.ConceptID, m.Mastery, m.TimesCorrect, m.TimesIncorrect)
	if err != nil {
		return fmt.Errorf("upsert mastery: %w", err)
	}
	return nil
}
