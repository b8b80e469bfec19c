package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"athena/internal/domain/memory"
)

// Compile-time check
var _ memory.Repository = (*LessonRepository)(nil)

// LessonRepository implements memory.Repository using sqlx and pgvector.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// Store inserts a new lesson.
func (r *LessonRepository) Store(ctx context.Context, lesson *memory.Lesson) error {
	query := `
		INSERT INTO lessons (
			id, collection, symbol, situation, recommendation, embedding, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := r.db.ExecContext(ctx, query,
		lesson.ID, lesson.Collection, lesson.Symbol,
		lesson.Situation, lesson.Recommendation, lesson.Embedding, lesson.CreatedAt,
	)

	return err
}

// SearchSimilar performs semantic search using pgvector cosine similarity.
func (r *LessonRepository) SearchSimilar(ctx context.Context, collection string, embedding pgvector.Vector, limit int) ([]*memory.Match, error) {
	var matches []*memory.Match

	query := `
		SELECT *, 1 - (embedding <=> $2) as similarity
		FROM lessons
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3`

	err := r.db.SelectContext(ctx, &matches, query, collection, embedding, limit)
	if err != nil {
		return nil, err
	}

	return matches, nil
}
