package reconnect

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"athena/pkg/logger"
)

// Manager tracks connection health and paces reconnect attempts with
// exponential backoff and a circuit breaker. It is transport agnostic
// and is used for the broker event stream.
type Manager struct {
	minBackoff        time.Duration
	maxBackoff        time.Duration
	multiplier        float64
	maxRetries        int
	heartbeatTimeout  time.Duration
	circuitResetAfter time.Duration

	mu              sync.Mutex
	currentBackoff  time.Duration
	failures        int
	reconnects      int
	circuitOpenedAt time.Time

	lastMessage atomic.Int64

	log *logger.Logger
}

// Config configures the reconnect manager. Zero values take defaults.
type Config struct {
	MinBackoff        time.Duration
	MaxBackoff        time.Duration
	Multiplier        float64
	MaxRetries        int
	HeartbeatTimeout  time.Duration
	CircuitResetAfter time.Duration
}

// NewManager creates a manager with sensible defaults.
func NewManager(cfg Config, log *logger.Logger) *Manager {
	if cfg.MinBackoff == 0 {
		cfg.MinBackoff = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 5 * time.Minute
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 10
	}
	if cfg.HeartbeatTimeout == 0 {
		cfg.HeartbeatTimeout = time.Minute
	}
	if cfg.CircuitResetAfter == 0 {
		cfg.CircuitResetAfter = 5 * time.Minute
	}

	return &Manager{
		minBackoff:        cfg.MinBackoff,
		maxBackoff:        cfg.MaxBackoff,
		multiplier:        cfg.Multiplier,
		maxRetries:        cfg.MaxRetries,
		heartbeatTimeout:  cfg.HeartbeatTimeout,
		circuitResetAfter: cfg.CircuitResetAfter,
		currentBackoff:    cfg.MinBackoff,
		log:               log,
	}
}

// RecordMessage marks the connection alive. Call it for every inbound
// message.
func (m *Manager) RecordMessage() {
	m.lastMessage.Store(time.Now().Unix())
}

// Healthy reports whether a message arrived within the heartbeat window.
func (m *Manager) Healthy() bool {
	last := m.lastMessage.Load()
	if last == 0 {
		return true
	}
	return time.Since(time.Unix(last, 0)) < m.heartbeatTimeout
}

// RecordSuccess resets backoff after a successful connection.
func (m *Manager) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentBackoff = m.minBackoff
	m.failures = 0
	m.circuitOpenedAt = time.Time{}
	m.reconnects++
}

// RecordFailure advances backoff and opens the circuit after too many
// consecutive failures.
func (m *Manager) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures++
	m.currentBackoff = time.Duration(float64(m.currentBackoff) * m.multiplier)
	if m.currentBackoff > m.maxBackoff {
		m.currentBackoff = m.maxBackoff
	}

	if m.failures >= m.maxRetries && m.circuitOpenedAt.IsZero() {
		m.circuitOpenedAt = time.Now()
		m.log.Warnw("circuit opened after repeated connection failures", "failures", m.failures)
	}
}

// Wait blocks for the current backoff period or until the context is
// done. It returns false when the circuit is open or the context ended.
func (m *Manager) Wait(ctx context.Context) bool {
	m.mu.Lock()
	backoff := m.currentBackoff
	openedAt := m.circuitOpenedAt
	m.mu.Unlock()

	if !openedAt.IsZero() {
		if time.Since(openedAt) < m.circuitResetAfter {
			return false
		}
		// Cooldown elapsed, allow another attempt.
		m.mu.Lock()
		m.circuitOpenedAt = time.Time{}
		m.failures = 0
		m.currentBackoff = m.minBackoff
		backoff = m.minBackoff
		m.mu.Unlock()
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(backoff):
		return true
	}
}

// Reconnects returns how many successful reconnections happened.
func (m *Manager) Reconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnects
}
