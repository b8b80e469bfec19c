package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/adapters/ai"
	"athena/internal/adapters/config"
	"athena/internal/agents"
	"athena/internal/broker"
	"athena/internal/domain/decision"
	"athena/internal/tools"
)

// constantProvider answers every chat request with the same text.
type constantProvider struct {
	content string
	calls   int
}

func (p *constantProvider) Chat(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	p.calls++
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message:      ai.Message{Role: ai.RoleAssistant, Content: p.content},
			FinishReason: ai.FinishReasonStop,
		}},
	}, nil
}

type recordingGateway struct {
	position decision.Position
	orders   []broker.OrderRequest
	closes   int
}

func (g *recordingGateway) CurrentPosition(context.Context, string) decision.Position {
	if g.position == "" {
		return decision.PositionNeutral
	}
	return g.position
}

func (g *recordingGateway) AccountSnapshot(context.Context) (broker.AccountSnapshot, error) {
	return broker.AccountSnapshot{
		BuyingPower: decimal.NewFromInt(10000),
		Cash:        decimal.NewFromInt(5000),
		Equity:      decimal.NewFromInt(15000),
	}, nil
}

func (g *recordingGateway) OpenPosition(context.Context, string) (*broker.PositionDetail, error) {
	return nil, nil
}

func (g *recordingGateway) LatestQuote(context.Context, string) (broker.Quote, error) {
	return broker.Quote{Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(101)}, nil
}

func (g *recordingGateway) PlaceMarketOrder(_ context.Context, req broker.OrderRequest) broker.OrderResult {
	g.orders = append(g.orders, req)
	return broker.OrderResult{Success: true, OrderID: "order-1"}
}

func (g *recordingGateway) ClosePosition(context.Context, string, float64) broker.OrderResult {
	g.closes++
	return broker.OrderResult{Success: true}
}

func pipelineConfig(tradeAfterAnalyze bool) config.TradingConfig {
	return config.TradingConfig{
		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		MaxToolIterations:    3,
		TradeAfterAnalyze:    tradeAfterAnalyze,
		DollarAmount:         1000,
		Analysts:             []string{"market"},
		MemoryMatches:        2,
	}
}

func newPipeline(t *testing.T, provider ai.ChatProvider, gateway broker.Gateway, cfg config.TradingConfig, executor *broker.Executor) *Pipeline {
	t.Helper()
	orch := agents.NewOrchestrator(provider, tools.NewRegistry(), nil, gateway, cfg,
		config.AIConfig{QuickModel: "quick", DeepModel: "deep"})
	return NewPipeline(orch, gateway, executor, nil, nil, nil, cfg)
}

func TestRunOnceReturnsCompletedState(t *testing.T) {
	provider := &constantProvider{content: "Analysis done.\n\nFINAL TRANSACTION PROPOSAL: **BUY**"}
	gateway := &recordingGateway{}
	pipeline := newPipeline(t, provider, gateway, pipelineConfig(false), nil)

	st, err := pipeline.RunOnce(context.Background(), "NVDA", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "NVDA", st.Symbol)
	assert.Equal(t, decision.ActionBuy, st.RecommendedAction)
	assert.NotEmpty(t, st.FinalTradeDecision)
	assert.Empty(t, gateway.orders, "execution disabled, no orders expected")
}

func TestRunOnceExecutesWhenEnabled(t *testing.T) {
	provider := &constantProvider{content: "FINAL TRANSACTION PROPOSAL: **BUY**"}
	gateway := &recordingGateway{}
	cfg := pipelineConfig(true)
	executor := broker.NewExecutor(gateway, cfg.DollarAmount)
	pipeline := newPipeline(t, provider, gateway, cfg, executor)

	st, err := pipeline.RunOnce(context.Background(), "NVDA", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, decision.ActionBuy, st.RecommendedAction)
	require.Len(t, gateway.orders, 1)
	assert.Equal(t, broker.SideBuy, gateway.orders[0].Side)
}

func TestRunOnceSkipsExecutionWithoutRecommendation(t *testing.T) {
	// No proposal marker anywhere; the deterministic extractor misses
	// and the quick-model fallback answers with prose that fails the
	// vocabulary check.
	provider := &constantProvider{content: "The outlook is too uncertain to act on today."}
	gateway := &recordingGateway{}
	cfg := pipelineConfig(true)
	executor := broker.NewExecutor(gateway, cfg.DollarAmount)
	pipeline := newPipeline(t, provider, gateway, cfg, executor)

	st, err := pipeline.RunOnce(context.Background(), "NVDA", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, decision.ActionNone, st.RecommendedAction)
	assert.Empty(t, gateway.orders)
	assert.Zero(t, gateway.closes)
}
