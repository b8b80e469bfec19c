package workers

import (
	"context"
	"time"

	"athena/internal/adapters/config"
	"athena/internal/marketclock"
	"athena/internal/services"
)

// AnalysisWorker runs the full pipeline for every configured symbol on
// a fixed interval. Symbols are processed strictly sequentially; a
// failed symbol never blocks the rest of the queue.
type AnalysisWorker struct {
	*BaseWorker
	pipeline *services.Pipeline
	clock    *marketclock.Clock
	cfg      config.SchedulerConfig
}

// NewAnalysisWorker creates the interval loop worker.
func NewAnalysisWorker(pipeline *services.Pipeline, clock *marketclock.Clock, cfg config.SchedulerConfig) *AnalysisWorker {
	enabled := cfg.LoopEnabled && len(cfg.Symbols) > 0
	return &AnalysisWorker{
		BaseWorker: NewBaseWorker("analysis_loop", cfg.LoopInterval, enabled),
		pipeline:   pipeline,
		clock:      clock,
		cfg:        cfg,
	}
}

// Run processes the symbol queue once. When market-hours checking is on
// and the market is closed, the whole iteration is skipped.
func (w *AnalysisWorker) Run(ctx context.Context) error {
	now := time.Now()

	if w.cfg.MarketHoursCheck {
		if open, reason := w.clock.IsOpen(now); !open {
			w.Log().Infow("skipping analysis iteration", "reason", reason)
			return nil
		}
	}

	for _, symbol := range w.cfg.Symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := w.pipeline.RunOnce(ctx, symbol, now); err != nil {
			w.RecordError(err)
			w.Log().Errorw("analysis failed", "symbol", symbol, "error", err)
			continue
		}
		w.RecordRun()
	}

	return nil
}
