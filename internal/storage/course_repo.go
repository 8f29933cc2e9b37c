package storage

import (
	"context"
	"fmt"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

type CourseRepo struct {
	db *DB
}

func NewCourseRepo(db *DB) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) CreateCourse(ctx context.Context, c models.Course) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO courses (course_id, name) VALUES ($1, $2)`, c.CourseID, c.Name)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

func (r *CourseRepo) GetCourse(ctx context.Context, courseID string) (models.Course, error) {
	var c models.Course
	err := r.db.Pool.QueryRow(ctx, `
SELECT course_id::text, name, created_at FROM courses WHERE course_id=$1::uuid`, courseID).
		Scan(&c.CourseID, &c.Name, &c.CreatedAt)
	if err != nil {
		return models.Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func (r *CourseRepo) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT course_id::text, name, created_at FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	out := make([]models.Course, 0)
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.CourseID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return out, nil
}
