package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Agent collections. Each debate role keeps its own lesson store so a
// bull's lessons never leak into the bear's recall.
const (
	CollectionBull        = "bull"
	CollectionBear        = "bear"
	CollectionTrader      = "trader"
	CollectionInvestJudge = "invest_judge"
	CollectionRiskManager = "risk_manager"
)

// Lesson is one remembered situation with the advice that followed it.
type Lesson struct {
	ID             uuid.UUID       `db:"id"`
	Collection     string          `db:"collection"`
	Symbol         string          `db:"symbol"`
	Situation      string          `db:"situation"`
	Recommendation string          `db:"recommendation"`
	Embedding      pgvector.Vector `db:"embedding"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Match is a recalled lesson with its cosine similarity to the query.
type Match struct {
	Lesson
	Similarity float64 `db:"similarity"`
}
