package workers

import (
	"context"
	"sync"
	"time"

	"athena/internal/metrics"
	"athena/pkg/errors"
	"athena/pkg/logger"
)

// Scheduler manages and coordinates multiple workers.
type Scheduler struct {
	workers []Worker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	log     *logger.Logger
	started bool
}

// NewScheduler creates a new worker scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		log: logger.Get().With("component", "scheduler"),
	}
}

// RegisterWorker adds a worker to the scheduler.
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("cannot register worker after scheduler started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start begins running all registered workers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrInternal, "scheduler already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Infow("starting worker scheduler", "workers", len(s.workers))

	for _, worker := range s.workers {
		if !worker.Enabled() {
			s.log.Infow("skipping disabled worker", "worker", worker.Name())
			continue
		}
		s.wg.Add(1)
		go s.runWorker(worker)
	}

	return nil
}

// Stop gracefully shuts down all workers. The timeout accommodates an
// analysis run in flight; a full pipeline can take minutes.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("stopping worker scheduler")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("all workers stopped")
	case <-time.After(5 * time.Minute):
		s.log.Warn("worker shutdown timed out")
		shutdownErr = errors.Wrap(errors.ErrInternal, "shutdown timeout")
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

func (s *Scheduler) runWorker(worker Worker) {
	defer s.wg.Done()

	s.log.Infow("worker started", "worker", worker.Name())

	ticker := time.NewTicker(worker.Interval())
	defer ticker.Stop()

	s.executeWorker(worker)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Infow("worker stopping", "worker", worker.Name())
			return
		case <-ticker.C:
			s.executeWorker(worker)
		}
	}
}

func (s *Scheduler) executeWorker(worker Worker) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("worker panicked", "worker", worker.Name(), "panic", r)
		}
	}()

	err := worker.Run(s.ctx)
	metrics.RecordWorkerExecution(worker.Name(), err)
	if err != nil {
		s.log.Errorw("worker execution failed",
			"worker", worker.Name(),
			"error", err,
			"duration", time.Since(start).Round(time.Millisecond))
		return
	}

	s.log.Debugw("worker execution completed",
		"worker", worker.Name(),
		"duration", time.Since(start).Round(time.Millisecond))
}

// IsRunning reports whether the scheduler has started.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
