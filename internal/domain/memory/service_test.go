package memory

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/pkg/errors"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

type fakeRepo struct {
	stored  []*Lesson
	matches []*Match
	err     error
}

func (f *fakeRepo) Store(ctx context.Context, lesson *Lesson) error {
	f.stored = append(f.stored, lesson)
	return f.err
}

func (f *fakeRepo) SearchSimilar(ctx context.Context, collection string, embedding pgvector.Vector, limit int) ([]*Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func TestRemember_StoresEmbeddedLesson(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeEmbedder{vector: []float32{0.1, 0.2}})

	err := svc.Remember(context.Background(), CollectionBull, "AAPL", "earnings beat, price dipped", "buy the dip next time")
	require.NoError(t, err)

	require.Len(t, repo.stored, 1)
	lesson := repo.stored[0]
	assert.Equal(t, CollectionBull, lesson.Collection)
	assert.Equal(t, "AAPL", lesson.Symbol)
	assert.NotZero(t, lesson.ID)
	assert.Equal(t, pgvector.NewVector([]float32{0.1, 0.2}), lesson.Embedding)
}

func TestRemember_RejectsEmptyInput(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeEmbedder{vector: []float32{1}})

	assert.Error(t, svc.Remember(context.Background(), "", "AAPL", "situation", "advice"))
	assert.Error(t, svc.Remember(context.Background(), CollectionBear, "AAPL", "", "advice"))
}

func TestRecallText_FormatsMatches(t *testing.T) {
	repo := &fakeRepo{matches: []*Match{
		{Lesson: Lesson{Recommendation: "do not chase momentum"}, Similarity: 0.91},
		{Lesson: Lesson{Recommendation: "watch the yield curve"}, Similarity: 0.84},
	}}
	svc := NewService(repo, &fakeEmbedder{vector: []float32{1}})

	text := svc.RecallText(context.Background(), CollectionTrader, "a familiar setup", 2)

	assert.Contains(t, text, "1. do not chase momentum")
	assert.Contains(t, text, "2. watch the yield curve")
}

func TestRecallText_DegradesOnError(t *testing.T) {
	repo := &fakeRepo{err: errors.ErrUnavailable}
	svc := NewService(repo, &fakeEmbedder{vector: []float32{1}})

	assert.Equal(t, "", svc.RecallText(context.Background(), CollectionTrader, "anything", 2))
}

func TestFormatMatches_EmptyIsEmpty(t *testing.T) {
	assert.Equal(t, "", FormatMatches(nil))
}
