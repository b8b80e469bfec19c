package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"athena/internal/adapters/embeddings"
	"athena/pkg/errors"
	"athena/pkg/logger"
)

// Repository persists lessons and searches them by embedding.
type Repository interface {
	Store(ctx context.Context, lesson *Lesson) error
	SearchSimilar(ctx context.Context, collection string, embedding pgvector.Vector, limit int) ([]*Match, error)
}

// Service embeds situations and recalls past lessons for agent prompts.
type Service struct {
	repo     Repository
	embedder embeddings.Service
	log      *logger.Logger
}

// NewService constructs a memory service.
func NewService(repo Repository, embedder embeddings.Service) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		log:      logger.Get().With("component", "memory"),
	}
}

// Remember stores a situation and the recommendation that was made in it.
func (s *Service) Remember(ctx context.Context, collection, symbol, situation, recommendation string) error {
	if collection == "" || situation == "" {
		return errors.ErrInvalidInput
	}

	vector, err := s.embedder.Embed(ctx, situation)
	if err != nil {
		return errors.Wrap(err, "embed situation")
	}

	lesson := &Lesson{
		ID:             uuid.New(),
		Collection:     collection,
		Symbol:         symbol,
		Situation:      situation,
		Recommendation: recommendation,
		Embedding:      pgvector.NewVector(vector),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Store(ctx, lesson); err != nil {
		return errors.Wrap(err, "store lesson")
	}

	return nil
}

// Recall returns the lessons closest to the given situation.
func (s *Service) Recall(ctx context.Context, collection, situation string, limit int) ([]*Match, error) {
	if collection == "" {
		return nil, errors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 2
	}

	vector, err := s.embedder.Embed(ctx, situation)
	if err != nil {
		return nil, errors.Wrap(err, "embed query")
	}

	matches, err := s.repo.SearchSimilar(ctx, collection, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, errors.Wrap(err, "search lessons")
	}

	return matches, nil
}

// RecallText formats recalled lessons for inclusion in a prompt. Recall
// failures degrade to an empty lesson block so a run never stalls on
// the memory store.
func (s *Service) RecallText(ctx context.Context, collection, situation string, limit int) string {
	matches, err := s.Recall(ctx, collection, situation, limit)
	if err != nil {
		s.log.Warnw("lesson recall failed", "collection", collection, "error", err)
		return ""
	}

	return FormatMatches(matches)
}

// FormatMatches renders lessons the way agents quote them.
func FormatMatches(matches []*Match) string {
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, m.Recommendation)
	}

	return b.String()
}
