package agents

import (
	"context"
	"fmt"
	"time"

	"athena/internal/adapters/ai"
	"athena/internal/adapters/config"
	"athena/internal/broker"
	"athena/internal/domain/decision"
	"athena/internal/domain/memory"
	"athena/internal/domain/state"
	"athena/internal/metrics"
	"athena/internal/tools"
	"athena/pkg/logger"
	"athena/pkg/templates"
)

// Orchestrator runs the full analysis pipeline for one symbol: analyst
// stages, researcher debate, trader, risk debate, and the risk manager
// verdict. Stages run strictly in sequence over a shared state; every
// stage sits behind a fault barrier so a single failure degrades its
// report instead of aborting the run.
type Orchestrator struct {
	provider  ai.ChatProvider
	tools     *tools.Registry
	memory    *memory.Service
	gateway   broker.Gateway
	templates *templates.Registry
	signals   *SignalProcessor

	cfg   config.TradingConfig
	quick string
	deep  string

	log *logger.Logger
}

// NewOrchestrator wires the pipeline. The memory service may be nil
// when no vector store is configured; memory recall then degrades to
// empty reflections.
func NewOrchestrator(
	provider ai.ChatProvider,
	registry *tools.Registry,
	memoryService *memory.Service,
	gateway broker.Gateway,
	cfg config.TradingConfig,
	aiCfg config.AIConfig,
) *Orchestrator {
	return &Orchestrator{
		provider:  provider,
		tools:     registry,
		memory:    memoryService,
		gateway:   gateway,
		templates: templates.Get(),
		signals:   NewSignalProcessor(provider, aiCfg.QuickModel),
		cfg:       cfg,
		quick:     aiCfg.QuickModel,
		deep:      aiCfg.DeepModel,
		log:       logger.Get().With("component", "orchestrator"),
	}
}

// Run executes every stage for one (symbol, trade date) pair and
// returns the completed state. The returned state always carries a
// normalized RecommendedAction and a FinalTradeDecision, degraded or
// not; the error is reserved for context cancellation.
func (o *Orchestrator) Run(ctx context.Context, symbol string, tradeDate time.Time) (*state.AnalysisState, error) {
	mode := decision.ModeFromAllowShorts(o.cfg.AllowShorts)
	st := state.New(symbol, tradeDate, mode)

	o.log.Infow("starting analysis run",
		"run_id", st.RunID,
		"symbol", symbol,
		"trade_date", tradeDate.Format("2006-01-02"),
		"mode", mode)

	for _, stage := range pipelineStages {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		o.runStage(ctx, st, stage)
		st.ClearMessages()
	}

	o.finalize(ctx, st)

	o.log.Infow("analysis run complete",
		"run_id", st.RunID,
		"symbol", symbol,
		"action", st.RecommendedAction,
		"elapsed", time.Since(st.StartedAt).Round(time.Second))

	return st, nil
}

// pipelineStage binds a stage to the state fields it must leave
// non-empty. The fault barrier backfills owned fields that a fatal
// stage failure left blank, so downstream prompts always have text to
// render. The risk manager owns no field here: finalize renders the
// canonical NO_RECOMMENDATION line when its verdict is missing.
type pipelineStage struct {
	name  string
	fn    func(*Orchestrator, context.Context, *state.AnalysisState) error
	owned func(*state.AnalysisState) []*string
}

var pipelineStages = []pipelineStage{
	{
		name: "analysts",
		fn:   (*Orchestrator).runAnalysts,
		owned: func(st *state.AnalysisState) []*string {
			return []*string{
				&st.MarketReport,
				&st.SentimentReport,
				&st.NewsReport,
				&st.FundamentalsReport,
				&st.MacroReport,
			}
		},
	},
	{
		name: "research_debate",
		fn:   (*Orchestrator).runResearchDebate,
		owned: func(st *state.AnalysisState) []*string {
			return []*string{&st.InvestmentPlan}
		},
	},
	{
		name: "trader",
		fn:   (*Orchestrator).runTrader,
		owned: func(st *state.AnalysisState) []*string {
			return []*string{&st.TraderInvestmentPlan}
		},
	},
	{
		name: "risk_debate",
		fn:   (*Orchestrator).runRiskDebate,
	},
	{
		name: "risk_manager",
		fn:   (*Orchestrator).runRiskManager,
	},
}

// runStage is the per-stage fault barrier. Panics and errors are logged
// and swallowed, and any owned field the stage failed to write gets a
// degraded fallback report so the run stays renderable end to end.
func (o *Orchestrator) runStage(ctx context.Context, st *state.AnalysisState, stage pipelineStage) {
	start := time.Now()

	defer func() {
		metrics.RecordStageDuration(stage.name, time.Since(start))
	}()
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorw("stage panicked",
				"stage", stage.name,
				"symbol", st.Symbol,
				"panic", r,
				"elapsed", time.Since(start).Round(time.Millisecond))
			o.fillDegraded(st, stage, start, fmt.Sprintf("%v", r))
		}
	}()

	if err := stage.fn(o, ctx, st); err != nil {
		o.log.Errorw("stage failed",
			"stage", stage.name,
			"symbol", st.Symbol,
			"error", err,
			"elapsed", time.Since(start).Round(time.Millisecond))
		o.fillDegraded(st, stage, start, err.Error())
		return
	}

	o.log.Infow("stage complete",
		"stage", stage.name,
		"symbol", st.Symbol,
		"elapsed", time.Since(start).Round(time.Millisecond))
}

// fillDegraded writes a fallback report into every owned field the
// failed stage left empty.
func (o *Orchestrator) fillDegraded(st *state.AnalysisState, stage pipelineStage, start time.Time, cause string) {
	if stage.owned == nil {
		return
	}
	for _, field := range stage.owned(st) {
		if *field == "" {
			*field = fmt.Sprintf("[ANALYSIS ERROR] %s stage failed after %s: %s",
				stage.name, time.Since(start).Round(time.Millisecond), cause)
		}
	}
}

// finalize normalizes the risk manager's verdict into an action and
// renders the canonical decision line. Extraction falls back to the
// quick-model signal processor; when both fail the action stays
// NO_RECOMMENDATION and nothing downstream trades on it.
func (o *Orchestrator) finalize(ctx context.Context, st *state.AnalysisState) {
	st.RecommendedAction = o.signals.Process(ctx, st.FinalTradeDecision, st.Mode)

	if st.FinalTradeDecision == "" {
		st.FinalTradeDecision = decision.FormatFinalDecision(st.RecommendedAction, st.Mode)
	}

	o.storeLessons(ctx, st)
}

// storeLessons archives each stage's conclusion against the situation
// that produced it, so later runs can recall what this configuration of
// reports led to. Best effort: memory being down never fails a run.
func (o *Orchestrator) storeLessons(ctx context.Context, st *state.AnalysisState) {
	if o.memory == nil {
		return
	}

	situation := st.Reports()
	lessons := []struct {
		collection     string
		recommendation string
	}{
		{memory.CollectionBull, st.InvestDebate.BullHistory},
		{memory.CollectionBear, st.InvestDebate.BearHistory},
		{memory.CollectionInvestJudge, st.InvestmentPlan},
		{memory.CollectionTrader, st.TraderInvestmentPlan},
		{memory.CollectionRiskManager, st.FinalTradeDecision},
	}

	for _, l := range lessons {
		if l.recommendation == "" {
			continue
		}
		if err := o.memory.Remember(ctx, l.collection, st.Symbol, situation, l.recommendation); err != nil {
			o.log.Warnw("failed to store lesson",
				"collection", l.collection,
				"symbol", st.Symbol,
				"error", err)
		}
	}
}

// recall fetches past reflections for a collection, degrading to empty
// text when memory is unavailable.
func (o *Orchestrator) recall(ctx context.Context, collection, situation string) string {
	if o.memory == nil {
		return ""
	}
	return o.memory.RecallText(ctx, collection, situation, o.cfg.MemoryMatches)
}

// chat sends a single completion without tools and returns the text.
func (o *Orchestrator) chat(ctx context.Context, model string, messages []ai.Message) (string, error) {
	resp, err := o.provider.Chat(ctx, ai.ChatRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if resp.Content() == "" {
		return "", fmt.Errorf("empty completion from model %s", model)
	}
	return resp.Content(), nil
}

// render resolves a prompt template by ID.
func (o *Orchestrator) render(id string, data promptData) (string, error) {
	return o.templates.Render(id, data)
}
