package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	*BaseWorker
	runs atomic.Int64
	err  error
}

func newCountingWorker(name string, interval time.Duration, enabled bool) *countingWorker {
	return &countingWorker{BaseWorker: NewBaseWorker(name, interval, enabled)}
}

func (w *countingWorker) Run(context.Context) error {
	w.runs.Add(1)
	if w.err != nil {
		w.RecordError(w.err)
		return w.err
	}
	w.RecordRun()
	return nil
}

func TestSchedulerRunsWorkerImmediately(t *testing.T) {
	s := NewScheduler()
	w := newCountingWorker("fast", time.Hour, true)
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	assert.Eventually(t, func() bool {
		return w.runs.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestSchedulerSkipsDisabledWorker(t *testing.T) {
	s := NewScheduler()
	w := newCountingWorker("disabled", time.Millisecond, false)
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Zero(t, w.runs.Load())
}

func TestSchedulerSurvivesWorkerError(t *testing.T) {
	s := NewScheduler()
	w := newCountingWorker("flaky", 10*time.Millisecond, true)
	w.err = errors.New("boom")
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return w.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	health := w.Health()
	assert.NotNil(t, health.LastError)
	assert.GreaterOrEqual(t, health.ErrorCount, int64(2))
}

func TestSchedulerDoubleStartFails(t *testing.T) {
	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}

func TestSchedulerStopWithoutStartFails(t *testing.T) {
	assert.Error(t, NewScheduler().Stop())
}

func TestBaseWorkerHealth(t *testing.T) {
	w := NewBaseWorker("test", time.Minute, true)

	w.RecordRun()
	w.RecordError(errors.New("bad"))

	health := w.Health()
	assert.Equal(t, int64(2), health.RunCount)
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.EqualError(t, health.LastError, "bad")
	assert.True(t, health.Enabled)
}
