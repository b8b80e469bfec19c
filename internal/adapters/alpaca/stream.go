package alpaca

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"athena/pkg/logger"
	"athena/pkg/reconnect"
)

// TradeUpdate is a fill event from the broker's order stream.
type TradeUpdate struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Order     struct {
		ID             string          `json:"id"`
		Symbol         string          `json:"symbol"`
		Side           string          `json:"side"`
		FilledQty      decimal.Decimal `json:"filled_qty"`
		FilledAvgPrice decimal.Decimal `json:"filled_avg_price"`
		Status         string          `json:"status"`
	} `json:"order"`
}

// Stream maintains a websocket subscription to the trade_updates
// channel and delivers fill events to a handler.
type Stream struct {
	url       string
	apiKey    string
	apiSecret string
	handler   func(TradeUpdate)
	manager   *reconnect.Manager
	log       *logger.Logger
}

// NewStream creates a trade-updates stream. The handler runs on the
// read loop goroutine and must not block.
func NewStream(cfg Config, streamURL string, handler func(TradeUpdate)) *Stream {
	log := logger.Get().With("component", "alpaca_stream")

	return &Stream{
		url:       streamURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		handler:   handler,
		manager:   reconnect.NewManager(reconnect.Config{}, log),
		log:       log,
	}
}

type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// Run connects and reads until the context is cancelled, reconnecting
// with backoff on failures.
func (s *Stream) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warnw("stream disconnected", "error", err)
			s.manager.RecordFailure()
		}

		if !s.manager.Wait(ctx) {
			if ctx.Err() == nil {
				s.log.Errorw("stream circuit open, giving up until next start")
			}
			return
		}
	}
}

func (s *Stream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	auth := map[string]interface{}{
		"action": "auth",
		"key":    s.apiKey,
		"secret": s.apiSecret,
	}
	if err := conn.WriteJSON(auth); err != nil {
		return err
	}

	listen := map[string]interface{}{
		"action": "listen",
		"data":   map[string]interface{}{"streams": []string{"trade_updates"}},
	}
	if err := conn.WriteJSON(listen); err != nil {
		return err
	}

	s.manager.RecordSuccess()
	s.log.Infow("trade updates stream connected")

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.manager.RecordMessage()

		var envelope streamEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			s.log.Debugw("unparseable stream message", "error", err)
			continue
		}
		if !strings.EqualFold(envelope.Stream, "trade_updates") {
			continue
		}

		var update TradeUpdate
		if err := json.Unmarshal(envelope.Data, &update); err != nil {
			s.log.Debugw("unparseable trade update", "error", err)
			continue
		}

		s.log.Infow("trade update",
			"event", update.Event,
			"symbol", update.Order.Symbol,
			"side", update.Order.Side,
			"status", update.Order.Status)

		if s.handler != nil {
			s.handler(update)
		}
	}
}
