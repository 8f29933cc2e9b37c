package storage

import (
	"context"
	"fmt"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

type MaterialRepo struct {
	db *DB
}

func NewMaterialRepo(db *DB) *MaterialRepo {
	return &MaterialRepo{db: db}
}

func (r *MaterialRepo) UpsertMaterial(ctx context.Context, m models.Material) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO materials (material_id, course_id, filename, title, status, fail_reason)
VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''))
ON CONFLICT (material_id)
DO UPDATE SET
  course_id = EXCLUDED.course_id,
  filename = EXCLUDED.filename,
  title = COALESCE(EXCLUDED.title, materials.title),
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		m.MaterialID, m.CourseID, m.Filename, m.Title, m.Status, m.FailReason,
	)
	if err != nil {
		return fmt.Errorf("upsert material: %w", err)
	}
	return nil
}

// DeleteMaterial removes a material row and its concept links in one
// transaction. Chunks are deleted separately by the chunk repo; merged
// concepts stay, since other materials may still reference them.
func (r *MaterialRepo) DeleteMaterial(ctx context.Context, courseID, materialID string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx delete material: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `
DELETE FROM concept_materials WHERE material_id=$1`, materialID); err != nil {
		return fmt.Errorf("delete concept links: %w", err)
	}
	if _, err := tx.Exec(ctx, `
DELETE FROM materials WHERE course_id=$1::uuid AND material_id=$2`, courseID, materialID); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete material tx: %w", err)
	}
	return nil
}

const materialColumns = `material_id, course_id::text, filename, COALESCE(title,''), status, COALESCE(fail_reason,''), created_at, updated_at`

func (r *MaterialRepo) GetMaterialByID(ctx context.Context, courseID, materialID string) (models.Material, error) {
	var m models.Material
	err := r.db.Pool.QueryRow(ctx, `
SELECT `+materialColumns+`
FROM materials
WHERE course_id=$1::uuid AND material_id=$2`, courseID, materialID).
		Scan(&m.MaterialID, &m.CourseID, &m.Filename, &m.Title, &m.Status, &m.FailReason, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return models.Material{}, fmt.Errorf("get material by id: %w", err)
	}
	return m, nil
}

func (r *MaterialRepo) ListMaterialsByCourse(ctx context.Context, courseID string) ([]models.Material, error) {
	return r.listMaterials(ctx, `
SELECT `+materialColumns+`
FROM materials
WHERE course_id=$1::uuid
ORDER BY created_at DESC`, courseID)
}

func (r *MaterialRepo) ListFailedMaterials(ctx context.Context, courseID string) ([]models.Material, error) {
	return r.listMaterials(ctx, `
SELECT `+materialColumns+`
FROM materials
WHERE course_id=$1::uuid AND status='failed'
ORDER BY updated_at DESC`, courseID)
}

func (r *MaterialRepo) listMaterials(ctx context.Context, query string, args ...any) ([]models.Material, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	out := make([]models.Material, 0)
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(&m.MaterialID, &m.CourseID, &m.Filename, &m.Title, &m.Status, &m.FailReason, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return out, nil
}
