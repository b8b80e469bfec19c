// Package services composes the analysis pipeline with its side
// effects: trade execution, decision notifications, and run archival.
package services

import (
	"context"
	"time"

	"athena/internal/adapters/config"
	"athena/internal/adapters/telegram"
	"athena/internal/agents"
	"athena/internal/broker"
	"athena/internal/domain/decision"
	"athena/internal/domain/state"
	"athena/internal/events"
	"athena/internal/metrics"
	clickhouserepo "athena/internal/repository/clickhouse"
	"athena/pkg/logger"
)

// Pipeline runs one full analysis for a symbol and fans the outcome out
// to the broker, Kafka, Telegram, and the run archive. Every sink is
// optional; a nil sink is skipped. Side-effect failures are logged and
// never invalidate the analytical result.
type Pipeline struct {
	orchestrator *agents.Orchestrator
	gateway      broker.Gateway
	executor     *broker.Executor
	publisher    *events.Publisher
	notifier     *telegram.Notifier
	runs         *clickhouserepo.RunRepository

	cfg config.TradingConfig
	log *logger.Logger
}

// NewPipeline wires the run pipeline. executor, publisher, notifier,
// and runs may each be nil when the corresponding backend is not
// configured.
func NewPipeline(
	orchestrator *agents.Orchestrator,
	gateway broker.Gateway,
	executor *broker.Executor,
	publisher *events.Publisher,
	notifier *telegram.Notifier,
	runs *clickhouserepo.RunRepository,
	cfg config.TradingConfig,
) *Pipeline {
	return &Pipeline{
		orchestrator: orchestrator,
		gateway:      gateway,
		executor:     executor,
		publisher:    publisher,
		notifier:     notifier,
		runs:         runs,
		cfg:          cfg,
		log:          logger.Get().With("component", "pipeline"),
	}
}

// RunOnce analyzes one symbol for one trade date and applies the
// configured side effects. The returned state is complete even when a
// sink failed.
func (p *Pipeline) RunOnce(ctx context.Context, symbol string, tradeDate time.Time) (*state.AnalysisState, error) {
	startPosition := p.gateway.CurrentPosition(ctx, symbol)
	start := time.Now()

	st, err := p.orchestrator.Run(ctx, symbol, tradeDate)
	metrics.RecordRun(symbol, time.Since(start), err)
	if err != nil {
		return st, err
	}

	metrics.RecordDecision(symbol, string(st.Mode), string(st.RecommendedAction))

	transition := p.resolveTransition(st)
	steps := p.execute(ctx, st)

	p.publish(ctx, st, transition, len(steps) > 0)
	p.notify(ctx, st, transition, steps)
	p.archive(ctx, st, startPosition)

	return st, nil
}

// resolveTransition names the position change implied by the decision,
// for reporting. Only defined in trading mode with a valid action.
func (p *Pipeline) resolveTransition(st *state.AnalysisState) string {
	if st.Mode != decision.ModeTrading || !st.Mode.Valid(st.RecommendedAction) {
		return ""
	}
	t, err := decision.Resolve(st.CurrentPosition, st.RecommendedAction)
	if err != nil {
		return ""
	}
	return t.Description
}

// execute applies the decision against the broker when execution is
// enabled. NO_RECOMMENDATION never trades.
func (p *Pipeline) execute(ctx context.Context, st *state.AnalysisState) []broker.ExecutionStep {
	if p.executor == nil || !p.cfg.TradeAfterAnalyze {
		return nil
	}
	if !st.Mode.Valid(st.RecommendedAction) {
		p.log.Infow("skipping execution, no actionable recommendation",
			"symbol", st.Symbol,
			"action", st.RecommendedAction)
		return nil
	}

	steps := p.executor.Execute(ctx, st.Symbol, st.Mode, st.RecommendedAction)
	for _, step := range steps {
		metrics.RecordBrokerOrder(step.Action, step.Result.Success)
		if !step.Result.Success {
			p.log.Warnw("execution step failed",
				"symbol", st.Symbol,
				"action", step.Action,
				"error", step.Result.Error)
		}
	}
	return steps
}

func (p *Pipeline) publish(ctx context.Context, st *state.AnalysisState, transition string, executed bool) {
	p.publisher.PublishDecision(ctx, events.DecisionEvent{
		RunID:      st.RunID.String(),
		Symbol:     st.Symbol,
		TradeDate:  st.TradeDate.Format("2006-01-02"),
		Mode:       string(st.Mode),
		Action:     string(st.RecommendedAction),
		Position:   string(st.CurrentPosition),
		Transition: transition,
		Executed:   executed,
		Summary:    st.FinalTradeDecision,
	})
}

func (p *Pipeline) notify(ctx context.Context, st *state.AnalysisState, transition string, steps []broker.ExecutionStep) {
	if p.notifier == nil {
		return
	}

	msg := telegram.Decision{
		Symbol:     st.Symbol,
		Action:     string(st.RecommendedAction),
		Mode:       string(st.Mode),
		TradeDate:  st.TradeDate.Format("2006-01-02"),
		Position:   string(st.CurrentPosition),
		Transition: transition,
		Summary:    st.FinalTradeDecision,
	}
	for _, step := range steps {
		outcome := "ok"
		if !step.Result.Success {
			outcome = "failed"
			if step.Result.Error != "" {
				outcome = step.Result.Error
			}
		}
		msg.Steps = append(msg.Steps, telegram.DecisionStep{Action: step.Action, Outcome: outcome})
	}

	if err := p.notifier.NotifyDecision(ctx, msg); err != nil {
		p.log.Warnw("failed to send decision notification", "symbol", st.Symbol, "error", err)
	}
}

func (p *Pipeline) archive(ctx context.Context, st *state.AnalysisState, startPosition decision.Position) {
	if p.runs == nil {
		return
	}
	record := clickhouserepo.RecordFromState(st, string(startPosition), time.Now().UTC())
	if err := p.runs.Insert(ctx, record); err != nil {
		p.log.Warnw("failed to archive run", "symbol", st.Symbol, "run_id", st.RunID, "error", err)
	}
}
