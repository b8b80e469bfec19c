package workers

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
	"athena/internal/marketclock"
	"athena/internal/services"
	"athena/internal/tools"
)

type markerProvider struct{}

func (p *markerProvider) Chat(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message: ai.Message{
				Role:    ai.RoleAssistant,
				Content: "FINAL TRANSACTION PROPOSAL: **BUY**",
			},
			FinishReason: ai.FinishReasonStop,
		}},
	}, nil
}

// orderedGateway records the symbol of every call it receives, in
// arrival order, tagging the mutating ones.
type orderedGateway struct {
	calls  []string
	orders []string
}

func (g *orderedGateway) record(symbol string) {
	g.calls = append(g.calls, symbol)
}

func (g *orderedGateway) CurrentPosition(_ context.Context, symbol string) decision.Position {
	g.record(symbol)
	return decision.PositionNeutral
}

func (g *orderedGateway) AccountSnapshot(context.Context) (broker.AccountSnapshot, error) {
	return broker.AccountSnapshot{
		BuyingPower: decimal.NewFromInt(10000),
		Cash:        decimal.NewFromInt(5000),
	}, nil
}

func (g *orderedGateway) OpenPosition(_ context.Context, symbol string) (*broker.PositionDetail, error) {
	g.record(symbol)
	return nil, nil
}

func (g *orderedGateway) LatestQuote(_ context.Context, symbol string) (broker.Quote, error) {
	g.record(symbol)
	return broker.Quote{Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(101)}, nil
}

func (g *orderedGateway) PlaceMarketOrder(_ context.Context, req broker.OrderRequest) broker.OrderResult {
	g.record(req.Symbol)
	g.orders = append(g.orders, req.Symbol)
	return broker.OrderResult{Success: true}
}

func (g *orderedGateway) ClosePosition(_ context.Context, symbol string, _ float64) broker.OrderResult {
	g.record(symbol)
	g.orders = append(g.orders, symbol)
	return broker.OrderResult{Success: true}
}

func TestAnalysisWorkerProcessesSymbolsSequentially(t *testing.T) {
	gateway := &orderedGateway{}
	tradingCfg := config.TradingConfig{
		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		MaxToolIterations:    3,
		TradeAfterAnalyze:    true,
		DollarAmount:         1000,
		Analysts:             []string{"market"},
		MemoryMatches:        2,
	}

	orch := agents.NewOrchestrator(&markerProvider{}, tools.NewRegistry(), nil, gateway,
		tradingCfg, config.AIConfig{QuickModel: "quick", DeepModel: "deep"})
	executor := broker.NewExecutor(gateway, tradingCfg.DollarAmount)
	pipeline := services.NewPipeline(orch, gateway, executor, nil, nil, nil, tradingCfg)

	clock, err := marketclock.New()
	require.NoError(t, err)

	worker := NewAnalysisWorker(pipeline, clock, config.SchedulerConfig{
		Symbols:          []string{"NVDA", "TSLA"},
		LoopEnabled:      true,
		LoopInterval:     time.Hour,
		MarketHoursCheck: false,
	})

	require.NoError(t, worker.Run(context.Background()))

	// One buy per symbol, in queue order.
	require.Equal(t, []string{"NVDA", "TSLA"}, gateway.orders)

	// The first symbol's run finishes every gateway interaction,
	// including its order, before the second symbol touches the broker.
	firstTSLA := -1
	for i, symbol := range gateway.calls {
		if symbol == "TSLA" {
			firstTSLA = i
			break
		}
	}
	require.GreaterOrEqual(t, firstTSLA, 0)
	for _, symbol := range gateway.calls[firstTSLA:] {
		assert.Equal(t, "TSLA", symbol)
	}

	health := worker.Health()
	assert.Equal(t, int64(2), health.RunCount)
	assert.Zero(t, health.ErrorCount)
}
