package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

type ConceptRepo struct {
	db *DB
}

func NewConceptRepo(db *DB) *ConceptRepo {
	return &ConceptRepo{db: db}
}

// canonicalNameSQL folds a concept name the same way study.CanonicalName
// does: trimmed, inner whitespace collapsed to single spaces, lowercased.
const canonicalNameSQL = `lower(regexp_replace(btrim(%s), '\s+', ' ', 'g'))`

// UpsertConcept records one extracted concept and links it to the material it
// came from. A concept already known to the course is merged instead of
// duplicated: matching is on the canonical name so "Attention Mechanism" and
// "attention  mechanism" land on one row, importance keeps the maximum seen,
// and exam probability becomes the running mean over contributing materials.
// The material link is idempotent, so re-processing a material does not skew
// the mean.
func (r *ConceptRepo) UpsertConcept(ctx context.Context, c models.Concept, materialID string) (string, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx upsert concept: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var conceptID string
	existing := true
	err = tx.QueryRow(ctx, fmt.Sprintf(`
SELECT concept_id::text FROM concepts
WHERE course_id=$1::uuid AND `+canonicalNameSQL+` = `+canonicalNameSQL,
		"name", "$2"), c.CourseID, c.Name).Scan(&conceptID)
	if errors.Is(err, pgx.ErrNoRows) {
		existing = false
		err = tx.QueryRow(ctx, `
INSERT INTO concepts (concept_id, course_id, name, definition, importance, exam_probability, material_count)
VALUES ($1, $2::uuid, $3, $4, $5, $6, 1)
RETURNING concept_id::text`,
			c.ConceptID, c.CourseID, c.Name, c.Definition, c.Importance, c.ExamProbability).Scan(&conceptID)
	}
	if err != nil {
		return "", fmt.Errorf("upsert concept %q: %w", c.Name, err)
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO concept_materials (concept_id, material_id)
VALUES ($1::uuid, $2)
ON CONFLICT (concept_id, material_id) DO NOTHING`, conceptID, materialID)
	if err != nil {
		return "", fmt.Errorf("link concept material: %w", err)
	}
	linkNew := tag.RowsAffected() > 0

	if existing {
		if linkNew {
			_, err = tx.Exec(ctx, `
UPDATE concepts SET
  definition = CASE WHEN $2 <> '' THEN $2 ELSE definition END,
  importance = GREATEST(importance, $3),
  exam_probability = (exam_probability * material_count + $4) / (material_count + 1),
  material_count = material_count + 1
WHERE concept_id=$1::uuid`, conceptID, c.Definition, c.Importance, c.ExamProbability)
		} else {
			_, err = tx.Exec(ctx, `
UPDATE concepts SET
  definition = CASE WHEN $2 <> '' THEN $2 ELSE definition END,
  importance = GREATEST(importance, $3)
WHERE concept_id=$1::uuid`, conceptID, c.Definition, c.Importance)
		}
		if err != nil {
			return "", fmt.Errorf("merge concept %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit concept tx: %w", err)
	}
	return conceptID, nil
}

const conceptColumns = `concept_id::text, course_id::text, name, COALESCE(definition,''), importance, exam_probability, material_count, created_at`

func (r *ConceptRepo) ListConceptsByCourse(ctx context.Context, courseID string) ([]models.Concept, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+conceptColumns+`
FROM concepts
WHERE course_id=$1::uuid
ORDER BY importance DESC, exam_probability DESC, name ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list concepts by course: %w", err)
	}
	defer rows.Close()
	out := make([]models.Concept, 0)
	for rows.Next() {
		var c models.Concept
		if err := rows.Scan(&c.ConceptID, &c.CourseID, &c.Name, &c.Definition, &c.Importance, &c.ExamProbability, &c.MaterialCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan concept: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concepts: %w", err)
	}
	return out, nil
}

// ListConceptsWithMastery joins each course concept with one user's mastery.
// A concept the user has never been tested on reads as mastery 0.
func (r *ConceptRepo) ListConceptsWithMastery(ctx context.Context, courseID, userID string) ([]models.ConceptMastery, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT c.concept_id::text, c.course_id::text, c.name, COALESCE(c.definition,''), c.importance,
       c.exam_probability, c.material_count, c.created_at, COALESCE(m.mastery, 0)
FROM concepts c
LEFT JOIN concept_mastery m ON m.concept_id = c.concept_id AND m.user_id = $2
WHERE c.course_id=$1::uuid
ORDER BY c.importance DESC, c.exam_probability DESC, c.name ASC`, courseID, userID)
	if err != nil {
		return nil, fmt.Errorf("list concepts with mastery: %w", err)
	}
	defer rows.Close()
	out := make([]models.ConceptMastery, 0)
	for rows.Next() {
		var cm models.ConceptMastery
		if err := rows.Scan(&cm.ConceptID, &cm.CourseID, &cm.Name, &cm.Definition, &cm.Importance,
			&cm.ExamProbability, &cm.MaterialCount, &cm.CreatedAt, &cm.Mastery); err != nil {
			return nil, fmt.Errorf("scan concept with mastery: %w", err)
		}
		out = append(out, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concepts with mastery: %w", err)
	}
	return out, nil
}
