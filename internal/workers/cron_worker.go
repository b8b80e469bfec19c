package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"athena/internal/adapters/config"
	"athena/internal/marketclock"
	"athena/internal/metrics"
	"athena/internal/services"
	"athena/pkg/logger"
)

// CronRunner triggers analysis runs at fixed Eastern-time hours on
// weekdays, the scheduled-hours counterpart to the interval loop. It
// runs outside the ticker scheduler because its firing times come from
// a cron expression, not an interval.
type CronRunner struct {
	pipeline *services.Pipeline
	clock    *marketclock.Clock
	cfg      config.SchedulerConfig
	cron     *cron.Cron
	log      *logger.Logger
}

// NewCronRunner builds the runner. Returns nil when no market hours are
// configured; callers treat a nil runner as disabled.
func NewCronRunner(pipeline *services.Pipeline, clock *marketclock.Clock, cfg config.SchedulerConfig) *CronRunner {
	if len(cfg.MarketHours) == 0 || len(cfg.Symbols) == 0 {
		return nil
	}
	return &CronRunner{
		pipeline: pipeline,
		clock:    clock,
		cfg:      cfg,
		cron:     cron.New(cron.WithLocation(clock.Location())),
		log:      logger.Get().With("component", "cron_runner"),
	}
}

// Start schedules the analysis job and starts the cron loop. The job
// itself re-checks the holiday calendar; cron only knows weekdays.
func (r *CronRunner) Start(ctx context.Context) error {
	hours := make([]string, 0, len(r.cfg.MarketHours))
	for _, h := range r.cfg.MarketHours {
		hours = append(hours, fmt.Sprintf("%d", h))
	}
	spec := fmt.Sprintf("0 %s * * MON-FRI", strings.Join(hours, ","))

	_, err := r.cron.AddFunc(spec, func() {
		r.runAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule analysis cron %q: %w", spec, err)
	}

	r.cron.Start()
	r.log.Infow("cron runner started", "spec", spec, "symbols", r.cfg.Symbols)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (r *CronRunner) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.log.Info("cron runner stopped")
}

func (r *CronRunner) runAll(ctx context.Context) {
	now := time.Now()

	if !r.clock.IsTradingDay(now) {
		r.log.Infow("skipping scheduled run on non-trading day")
		return
	}

	for _, symbol := range r.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		_, err := r.pipeline.RunOnce(ctx, symbol, now)
		metrics.RecordWorkerExecution("cron_analysis", err)
		if err != nil {
			r.log.Errorw("scheduled analysis failed",
				"symbol", symbol,
				"error", err,
				"duration", time.Since(start).Round(time.Second))
		}
	}
}
