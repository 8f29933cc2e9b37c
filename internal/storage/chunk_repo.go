package storage

import (
	"context"
	"fmt"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

type ChunkRecord struct {
	ChunkID          string
	MaterialID       string
	CourseID         string
	ChunkIndex       int
	StartOffset      int
	Text             string
	EmbeddingVersion string
	EmbeddingVector  *string
}

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// UpsertChunks replaces a material's chunk set in one transaction so readers
// never observe a half-embedded material. Chunk ids derive from content and
// version, so a reprocessed or re-embedded material produces new ids; rows
// not in the incoming set are deleted in the same transaction to keep stale
// text out of retrieval.
func (r *ChunkRepo) UpsertChunks(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx upsert chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	keep := make([]string, 0, len(chunks))
	for _, c := range chunks {
		keep = append(keep, c.ChunkID)
	}
	_, err = tx.Exec(ctx, `
DELETE FROM chunks WHERE course_id=$1::uuid AND material_id=$2 AND NOT (chunk_id = ANY($3))`,
		chunks[0].CourseID, chunks[0].MaterialID, keep)
	if err != nil {
		return fmt.Errorf("prune stale chunks: %w", err)
	}

	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
INSERT INTO chunks (chunk_id, material_id, course_id, chunk_index, start_offset, text, embedding_version, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, CASE WHEN $8::text IS NULL THEN NULL ELSE $8::vector END)
ON CONFLICT (chunk_id)
DO UPDATE SET
  text = EXCLUDED.text,
  start_offset = EXCLUDED.start_offset,
  embedding_version = EXCLUDED.embedding_version,
  embedding = COALESCE(EXCLUDED.embedding, chunks.embedding)`,
			c.ChunkID, c.MaterialID, c.CourseID, c.ChunkIndex, c.StartOffset, c.Text, c.EmbeddingVersion, c.EmbeddingVector,
		)
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ChunkID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepo) ListChunksByMaterial(ctx context.Context, courseID, materialID string) ([]models.Chunk, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT chunk_id, material_id, course_id::text, chunk_index, start_offset, text, embedding_version, created_at
FROM chunks
WHERE course_id=$1::uuid AND material_id=$2
ORDER BY chunk_index ASC`, courseID, materialID)
	if err != nil {
		return nil, fmt.Errorf("list chunks by material: %w", err)
	}
	defer rows.Close()
	out := make([]models.Chunk, 0, 64)
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ChunkID, &c.MaterialID, &c.CourseID, &c.ChunkIndex, &c.StartOffset, &c.Text, &c.EmbeddingVersion, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk by material: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk by material: %w", err)
	}
	return out, nil
}

// DeleteChunksByMaterial removes every chunk of a deleted material.
func (r *ChunkRepo) DeleteChunksByMaterial(ctx context.Context, courseID, materialID string) error {
	_, err := r.db.Pool.Exec(ctx, `
DELETE FROM chunks WHERE course_id=$1::uuid AND material_id=$2`, courseID, materialID)
	if err != nil {
		return fmt.Errorf("delete chunks by material: %w", err)
	}
	return nil
}
