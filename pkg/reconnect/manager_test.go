package reconnect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"athena/pkg/logger"
)

func newTestManager(maxRetries int) *Manager {
	return NewManager(Config{
		MinBackoff:        time.Millisecond,
		MaxBackoff:        4 * time.Millisecond,
		Multiplier:        2.0,
		MaxRetries:        maxRetries,
		CircuitResetAfter: time.Hour,
	}, logger.Get())
}

func TestManager_BackoffGrowsAndResets(t *testing.T) {
	m := newTestManager(10)

	m.RecordFailure()
	m.RecordFailure()
	m.RecordFailure()
	assert.Equal(t, 4*time.Millisecond, m.currentBackoff, "backoff caps at max")

	m.RecordSuccess()
	assert.Equal(t, time.Millisecond, m.currentBackoff)
	assert.Equal(t, 1, m.Reconnects())
}

func TestManager_CircuitOpensAfterMaxRetries(t *testing.T) {
	m := newTestManager(2)

	m.RecordFailure()
	m.RecordFailure()

	assert.False(t, m.Wait(context.Background()), "open circuit refuses to wait")
}

func TestManager_WaitHonorsContext(t *testing.T) {
	m := NewManager(Config{MinBackoff: time.Hour}, logger.Get())
	m.RecordFailure()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, m.Wait(ctx))
}

func TestManager_Heartbeat(t *testing.T) {
	m := NewManager(Config{HeartbeatTimeout: 50 * time.Millisecond}, logger.Get())

	assert.True(t, m.Healthy(), "no messages yet counts as healthy")

	m.RecordMessage()
	assert.True(t, m.Healthy())

	time.Sleep(60 * time.Millisecond)
	assert.False(t, m.Healthy())
}
