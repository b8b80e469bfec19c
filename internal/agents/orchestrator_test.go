package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/adapters/ai"
	"athena/internal/adapters/config"
	"athena/internal/broker"
	"athena/internal/domain/decision"
	"athena/internal/domain/state"
	"athena/internal/tools"
)

// scriptedProvider returns queued responses in order, falling back to
// the final response once the queue is drained.
type scriptedProvider struct {
	responses []*ai.ChatResponse
	calls     []ai.ChatRequest
}

func (p *scriptedProvider) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.calls = append(p.calls, req)
	if len(p.responses) == 0 {
		return textResponse("no script left"), nil
	}
	resp := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	return resp, nil
}

func textResponse(content string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message:      ai.Message{Role: ai.RoleAssistant, Content: content},
			FinishReason: ai.FinishReasonStop,
		}},
	}
}

func toolCallResponse(id, name, args string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message: ai.Message{
				Role: ai.RoleAssistant,
				ToolCalls: []ai.ToolCall{{
					ID:       id,
					Type:     "function",
					Function: ai.FunctionCall{Name: name, Arguments: args},
				}},
			},
			FinishReason: ai.FinishReasonToolCalls,
		}},
	}
}

type stubGateway struct {
	position decision.Position
}

func (g *stubGateway) CurrentPosition(context.Context, string) decision.Position {
	if g.position == "" {
		return decision.PositionNeutral
	}
	return g.position
}

func (g *stubGateway) AccountSnapshot(context.Context) (broker.AccountSnapshot, error) {
	return broker.AccountSnapshot{
		BuyingPower: decimal.NewFromInt(10000),
		Cash:        decimal.NewFromInt(5000),
	}, nil
}

func (g *stubGateway) OpenPosition(context.Context, string) (*broker.PositionDetail, error) {
	return nil, nil
}

func (g *stubGateway) LatestQuote(context.Context, string) (broker.Quote, error) {
	return broker.Quote{Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(101)}, nil
}

func (g *stubGateway) PlaceMarketOrder(context.Context, broker.OrderRequest) broker.OrderResult {
	return broker.OrderResult{Success: true}
}

func (g *stubGateway) ClosePosition(context.Context, string, float64) broker.OrderResult {
	return broker.OrderResult{Success: true}
}

func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		MaxToolIterations:    5,
		Analysts:             []string{"market", "social", "news", "fundamentals", "macro"},
		MemoryMatches:        2,
	}
}

func newTestOrchestrator(provider ai.ChatProvider, cfg config.TradingConfig) *Orchestrator {
	return NewOrchestrator(
		provider,
		tools.NewRegistry(),
		nil,
		&stubGateway{},
		cfg,
		config.AIConfig{QuickModel: "quick", DeepModel: "deep"},
	)
}

func TestRunCompletesAllStages(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*ai.ChatResponse{
			textResponse("Analysis text.\n\nFINAL TRANSACTION PROPOSAL: **BUY**"),
		},
	}
	orch := newTestOrchestrator(provider, testTradingConfig())

	st, err := orch.Run(context.Background(), "AAPL", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.NotEmpty(t, st.MarketReport)
	assert.NotEmpty(t, st.SentimentReport)
	assert.NotEmpty(t, st.NewsReport)
	assert.NotEmpty(t, st.FundamentalsReport)
	assert.NotEmpty(t, st.MacroReport)

	assert.Equal(t, 2, st.InvestDebate.Count)
	assert.NotEmpty(t, st.InvestDebate.BullHistory)
	assert.NotEmpty(t, st.InvestDebate.BearHistory)
	assert.NotEmpty(t, st.InvestmentPlan)

	assert.Equal(t, 3, st.RiskDebate.Count)
	assert.NotEmpty(t, st.RiskDebate.RiskyHistory)
	assert.NotEmpty(t, st.RiskDebate.SafeHistory)
	assert.NotEmpty(t, st.RiskDebate.NeutralHistory)

	assert.NotEmpty(t, st.TraderInvestmentPlan)
	assert.Contains(t, st.FinalTradeDecision, "FINAL TRANSACTION PROPOSAL: **BUY**")
	assert.Equal(t, decision.ActionBuy, st.RecommendedAction)
}

func TestRunDisabledAnalystsLeaveSkipReports(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*ai.ChatResponse{
			textResponse("FINAL TRANSACTION PROPOSAL: **HOLD**"),
		},
	}
	cfg := testTradingConfig()
	cfg.Analysts = []string{"market"}
	orch := newTestOrchestrator(provider, cfg)

	st, err := orch.Run(context.Background(), "MSFT", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.NotContains(t, st.MarketReport, "[ANALYSIS SKIPPED]")
	assert.Contains(t, st.SentimentReport, "[ANALYSIS SKIPPED]")
	assert.Contains(t, st.MacroReport, "[ANALYSIS SKIPPED]")
	assert.Equal(t, decision.ActionHold, st.RecommendedAction)
}

func TestToolLoopDispatchesAndTerminates(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(tools.New("lookup", "test lookup", tools.ObjectSchema(nil, nil),
		func(context.Context, map[string]interface{}) (string, error) {
			return "lookup result", nil
		}))

	provider := &scriptedProvider{
		responses: []*ai.ChatResponse{
			toolCallResponse("call-1", "lookup", `{}`),
			textResponse("done\n\nFINAL TRANSACTION PROPOSAL: **BUY**"),
		},
	}
	orch := NewOrchestrator(provider, registry, nil, &stubGateway{}, testTradingConfig(),
		config.AIConfig{QuickModel: "quick", DeepModel: "deep"})

	st := newRunState(t)
	out, err := orch.runToolLoop(context.Background(), st, "quick", "system", "user", []string{"lookup"})
	require.NoError(t, err)
	assert.Contains(t, out, "done")

	// second request must carry the tool result back to the model
	require.Len(t, provider.calls, 2)
	last := provider.calls[1].Messages[len(provider.calls[1].Messages)-1]
	assert.Equal(t, ai.RoleTool, last.Role)
	assert.Equal(t, "lookup result", last.Content)

	var toolMessages int
	for _, m := range st.Messages {
		if m.Role == "tool" {
			toolMessages++
		}
	}
	assert.Equal(t, 1, toolMessages)
}

func TestToolLoopCapsIterations(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(tools.New("lookup", "test lookup", tools.ObjectSchema(nil, nil),
		func(context.Context, map[string]interface{}) (string, error) {
			return "more data", nil
		}))

	// Model requests the tool forever; the loop must cut it off and ask
	// for a final answer without tools.
	provider := &scriptedProvider{
		responses: []*ai.ChatResponse{
			toolCallResponse("call-x", "lookup", `{}`),
		},
	}
	cfg := testTradingConfig()
	cfg.MaxToolIterations = 3
	orch := NewOrchestrator(provider, registry, nil, &stubGateway{}, cfg,
		config.AIConfig{QuickModel: "quick", DeepModel: "deep"})

	st := newRunState(t)
	out, err := orch.runToolLoop(context.Background(), st, "quick", "system", "user", []string{"lookup"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	// 3 tool iterations plus the closing tool-free pass
	assert.Len(t, provider.calls, 4)
	assert.Empty(t, provider.calls[3].Tools)
}

func TestEnsureMarkerAppendsCorrection(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*ai.ChatResponse{
			textResponse("On reflection: FINAL TRANSACTION PROPOSAL: **SELL**"),
		},
	}
	orch := newTestOrchestrator(provider, testTradingConfig())

	mc := NewModeContext(decision.ModeInvestment, decision.PositionNeutral)
	out := orch.ensureMarker(context.Background(), "quick", "analysis without a conclusion", mc)

	assert.Contains(t, out, "analysis without a conclusion")
	assert.Contains(t, out, "FINAL TRANSACTION PROPOSAL: **SELL**")

	action, ok := decision.Extract(out, decision.ModeInvestment)
	require.True(t, ok)
	assert.Equal(t, decision.ActionSell, action)
}

func TestEnsureMarkerKeepsTextWhenPresent(t *testing.T) {
	provider := &scriptedProvider{}
	orch := newTestOrchestrator(provider, testTradingConfig())

	mc := NewModeContext(decision.ModeInvestment, decision.PositionNeutral)
	text := "done. FINAL TRANSACTION PROPOSAL: **HOLD**"
	out := orch.ensureMarker(context.Background(), "quick", text, mc)

	assert.Equal(t, text, out)
	assert.Empty(t, provider.calls)
}

func newRunState(t *testing.T) *state.AnalysisState {
	t.Helper()
	return state.New("TSLA", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), decision.ModeInvestment)
}

// crashingProvider panics on any request carrying the trigger text and
// delegates everything else.
type crashingProvider struct {
	trigger string
	inner   ai.ChatProvider
}

func (p *crashingProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	for _, m := range req.Messages {
		if strings.Contains(m.Content, p.trigger) {
			panic("model transport crashed")
		}
	}
	return p.inner.Chat(ctx, req)
}

type failingProvider struct{}

func (p *failingProvider) Chat(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return nil, errors.New("provider unavailable")
}

func TestRunBackfillsTraderPlanAfterStagePanic(t *testing.T) {
	inner := &scriptedProvider{
		responses: []*ai.ChatResponse{
			textResponse("Analysis text.\n\nFINAL TRANSACTION PROPOSAL: **BUY**"),
		},
	}
	// The trigger phrase only appears in the trader stage's user message.
	provider := &crashingProvider{trigger: "investment plan tailored", inner: inner}
	orch := newTestOrchestrator(provider, testTradingConfig())

	st, err := orch.Run(context.Background(), "TSLA", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, st.TraderInvestmentPlan, "[ANALYSIS ERROR]")
	assert.Contains(t, st.TraderInvestmentPlan, "trader stage failed")

	// The run continued past the crashed stage.
	assert.Equal(t, 3, st.RiskDebate.Count)
	assert.Equal(t, decision.ActionBuy, st.RecommendedAction)
	assert.NotEmpty(t, st.FinalTradeDecision)
}

func TestRunLeavesEveryReportRenderableWhenProviderFails(t *testing.T) {
	orch := newTestOrchestrator(&failingProvider{}, testTradingConfig())

	st, err := orch.Run(context.Background(), "TSLA", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	reports := map[string]string{
		"market":       st.MarketReport,
		"sentiment":    st.SentimentReport,
		"news":         st.NewsReport,
		"fundamentals": st.FundamentalsReport,
		"macro":        st.MacroReport,
		"plan":         st.InvestmentPlan,
		"trader_plan":  st.TraderInvestmentPlan,
	}
	for name, report := range reports {
		assert.NotEmpty(t, report, name)
		assert.Contains(t, report, "[ANALYSIS ERROR]", name)
	}

	assert.Equal(t, decision.ActionNone, st.RecommendedAction)
	assert.Equal(t, "FINAL DECISION: **NO_RECOMMENDATION**", st.FinalTradeDecision)
}
