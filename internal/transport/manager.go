// Package transport owns the streaming connection to the flow source. The
// Manager keeps exactly one logical connection alive, reconnecting forever
// with exponential backoff until the consumer calls Close.
package transport

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State of the managed connection.
type State string

const (
	StateDisconnected     State = "disconnected"
	StateConnecting       State = "connecting"
	StateConnected        State = "connected"
	StateReconnectPending State = "reconnect_pending"
)

// RecordFunc is invoked for each inbound message payload.
type RecordFunc func(data []byte)

// StateFunc is invoked on every state transition. It runs on the manager's
// goroutine and must not call back into the manager.
type StateFunc func(state State)

// Source is one logical streaming connection to the flow source.
type Source interface {
	Connect(onRecord RecordFunc) error
	Close()
}

// Conn is a live connection as produced by a Dialer.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer establishes connections. It is injected so tests can drive the
// manager without a network.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Manager implements Source over a Dialer with a reconnect state machine:
// Disconnected -> Connecting -> Connected -> ReconnectPending -> Connecting.
// Close is the only terminal transition; it cancels any pending reconnect
// timer synchronously so no reconnect can fire after intentional shutdown.
type Manager struct {
	dialer    Dialer
	url       string
	baseDelay time.Duration
	maxDelay  time.Duration
	logger    *logrus.Logger
	onState   StateFunc

	mu       sync.Mutex
	state    State
	conn     Conn
	timer    *time.Timer
	attempt  int
	gen      uint64
	onRecord RecordFunc
	closed   bool
}

// NewManager creates a manager for the given source URL. Base and max bound
// the reconnect backoff; zero values fall back to 1s and 30s.
func NewManager(dialer Dialer, url string, base, max time.Duration, logger *logrus.Logger, onState StateFunc) *Manager {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	if max < base {
		max = base
	}
	return &Manager{
		dialer:    dialer,
		url:       url,
		baseDelay: base,
		maxDelay:  max,
		logger:    logger,
		onState:   onState,
		state:     StateDisconnected,
	}
}

// Connect establishes the logical connection and invokes onRecord for each
// inbound message. A prior connection and any pending reconnect are torn
// down first; only one connection is ever logically active.
func (m *Manager) Connect(onRecord RecordFunc) error {
	m.mu.Lock()
	m.stopTimerLocked()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.closed = false
	m.onRecord = onRecord
	m.attempt = 0
	m.gen++
	gen := m.gen
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	go m.dial(gen)
	return nil
}

// Close tears the connection down and cancels any pending reconnect. Safe to
// call from any state; after Close no reconnect timer may fire.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.gen++
	m.stopTimerLocked()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.setStateLocked(StateDisconnected)
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) dial(gen uint64) {
	conn, err := m.dialer.Dial(context.Background(), m.url)

	m.mu.Lock()
	if gen != m.gen || m.closed {
		m.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		m.logger.Warnf("Connection to %s failed: %v", m.url, err)
		m.scheduleReconnectLocked(gen)
		m.mu.Unlock()
		return
	}

	m.conn = conn
	m.attempt = 0
	m.logger.Infof("Connected to flow source at %s", m.url)
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	go m.readLoop(gen, conn)
}

func (m *Manager) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			if gen != m.gen || m.closed {
				m.mu.Unlock()
				return
			}
			conn.Close()
			m.conn = nil
			m.logger.Warnf("Stream from %s broke: %v", m.url, err)
			m.scheduleReconnectLocked(gen)
			m.mu.Unlock()
			return
		}

		m.mu.Lock()
		stale := gen != m.gen || m.closed
		cb := m.onRecord
		m.mu.Unlock()
		if stale {
			return
		}
		if cb != nil {
			cb(data)
		}
	}
}

// scheduleReconnectLocked arms the single reconnect timer. Arming always
// stops any previous pending timer first, so at most one exists at any time.
func (m *Manager) scheduleReconnectLocked(gen uint64) {
	m.stopTimerLocked()

	delay := m.backoffDelay(m.attempt)
	m.attempt++
	m.setStateLocked(StateReconnectPending)
	m.logger.Infof("Reconnecting to %s in %s (attempt %d)", m.url, delay, m.attempt)

	m.timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if gen != m.gen || m.closed {
			m.mu.Unlock()
			return
		}
		m.timer = nil
		m.setStateLocked(StateConnecting)
		m.mu.Unlock()
		m.dial(gen)
	})
}

// backoffDelay returns min(base * 2^attempt, max). The attempt counter
// advances with consecutive failures and resets on a successful connect, so
// the delay sequence is non-decreasing up to the cap.
func (m *Manager) backoffDelay(attempt int) time.Duration {
	if attempt > 30 {
		return m.maxDelay
	}
	d := m.baseDelay << uint(attempt)
	if d <= 0 || d > m.maxDelay {
		return m.maxDelay
	}
	return d
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) setStateLocked(state State) {
	if m.state == state {
		return
	}
	m.state = state
	if m.onState != nil {
		m.onState(state)
	}
}
