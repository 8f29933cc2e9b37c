package storage

import (
	"context"
	"fmt"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

type ConfusionRepo struct {
	db *DB
}

func NewConfusionRepo(db *DB) *ConfusionRepo {
	return &ConfusionRepo{db: db}
}

// UpsertPattern records a detected confusion. Seeing the same pattern type
// again for the same user and concept bumps the trigger count instead of
// creating a new row.
func (r *ConfusionRepo) UpsertPattern(ctx context.Context, p models.ConfusionPattern) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO confusion_patterns (pattern_id, user_id, concept_id, pattern_type, description, confused_with, intervention, trigger_count, last_triggered_at)
VALUES ($1::uuid, $2, $3::uuid, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), 1, NOW())
ON CONFLICT (user_id, concept_id, pattern_type)
DO UPDATE SET
  description = COALESCE(EXCLUDED.description, confusion_patterns.description),
  confused_with = COALESCE(EXCLUDED.confused_with, confusion_patterns.confused_with),
  intervention = COALESCE(EXCLUDED.intervention, confusion_patterns.intervention),
  trigger_count = confusion_patterns.trigger_count + 1,
  last_triggered_at = NOW()`,
		p.PatternID, p.UserID, p.ConceptID, p.PatternType, p.Description, p.ConfusedWith, p.Intervention)
	if err != nil {
		return fmt.Errorf("upsert confusion pattern: %w", err)
	}
	return nil
}

const confusionColumns = `p.pattern_id::text, p.user_id, p.concept_id::text, COALESCE(c.name,''), p.pattern_type,
       COALESCE(p.description,''), COALESCE(p.confused_with,''), COALESCE(p.intervention,''),
       p.trigger_count, p.last_triggered_at, p.created_at`

func (r *ConfusionRepo) ListByUser(ctx context.Context, userID string) ([]models.ConfusionPattern, error) {
	return r.listPatterns(ctx, `
SELECT `+confusionColumns+`
FROM confusion_patterns p
LEFT JOIN concepts c ON c.concept_id = p.concept_id
WHERE p.user_id=$1
ORDER BY p.last_triggered_at DESC`, userID)
}

func (r *ConfusionRepo) ListByUserAndCourse(ctx context.Context, userID, courseID string) ([]models.ConfusionPattern, error) {
	return r.listPatterns(ctx, `
SELECT `+confusionColumns+`
FROM confusion_patterns p
JOIN concepts c ON c.concept_id = p.concept_id
WHERE p.user_id=$1 AND c.course_id=$2::uuid
ORDER BY p.last_triggered_at DESC`, userID, courseID)
}

func (r *ConfusionRepo) listPatterns(ctx context.Context, query string, args ...any) ([]models.ConfusionPattern, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list confusion patterns: %w", err)
	}
	defer rows.Close()
	out := make([]models.ConfusionPattern, 0)
	for rows.Next() {
		var p models.ConfusionPattern
		if err := rows.Scan(&p.PatternID, &p.UserID, &p.ConceptID, &p.ConceptName, &p.PatternType,
			&p.Description, &p.ConfusedWith, &p.Intervention, &p.TriggerCount, &p.LastTriggeredAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan confusion pattern: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate confusion patterns: %w", err)
	}
	return out, nil
}
