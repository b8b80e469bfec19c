package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"athena/internal/adapters/kafka"
	"athena/pkg/logger"
)

// DecisionEvent is emitted after every completed analysis run.
type DecisionEvent struct {
	RunID      string    `json:"run_id"`
	Symbol     string    `json:"symbol"`
	TradeDate  string    `json:"trade_date"`
	Mode       string    `json:"mode"`
	Action     string    `json:"action"`
	Position   string    `json:"position"`
	Transition string    `json:"transition,omitempty"`
	Executed   bool      `json:"executed"`
	Summary    string    `json:"summary,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher emits run outcomes to Kafka. A nil Publisher is a no-op so
// callers do not branch on whether messaging is configured.
type Publisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

// NewPublisher creates a decision publisher for the given topic.
func NewPublisher(producer *kafka.Producer, topic string) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		log:      logger.Get().With("component", "events"),
	}
}

// PublishDecision emits one decision event keyed by symbol. Publishing
// is best effort; a broker outage never fails the run.
func (p *Publisher) PublishDecision(ctx context.Context, event DecisionEvent) {
	if p == nil || p.producer == nil {
		return
	}
	if event.RunID == "" {
		event.RunID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := p.producer.Publish(ctx, p.topic, event.Symbol, event); err != nil {
		p.log.Warnw("decision publish failed", "symbol", event.Symbol, "error", err)
	}
}
