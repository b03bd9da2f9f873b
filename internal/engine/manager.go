package engine

import (
	"sync"

	"imagedb/internal/logging"
)

// Manager owns at most one Engine at a time and carries the iteration
// counter from one engine to the next.
type Manager struct {
	committer Committer
	cfg       Config

	mu          sync.Mutex
	engine      *Engine
	lastCounter int64
}

// NewManager creates a Manager; cfg is used for every engine it starts.
func NewManager(committer Committer, cfg Config) *Manager {
	return &Manager{committer: committer, cfg: cfg, lastCounter: cfg.InitialCounter}
}

// StartEngine starts a fresh engine seeded with the last observed counter.
// It returns ErrRunning if an engine is already running.
func (m *Manager) StartEngine() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine != nil && m.engine.Running() {
		return ErrRunning
	}

	cfg := m.cfg
	cfg.InitialCounter = m.lastCounter
	e := New(m.committer, cfg)
	if err := e.Start(); err != nil {
		return err
	}
	m.engine = e
	return nil
}

// EndEngine stops the running engine and records its counter. Without a
// running engine it does nothing.
func (m *Manager) EndEngine() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		return
	}
	m.engine.Stop()
	m.lastCounter = m.engine.Counter()
	m.engine = nil
	logging.Debug("Maintenance counter handed off at %d", m.lastCounter)
}

// Running reports whether an engine is running.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine != nil && m.engine.Running()
}

// LastCounter returns the running engine's counter, or the counter recorded
// when the last engine ended.
func (m *Manager) LastCounter() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine != nil {
		return m.engine.Counter()
	}
	return m.lastCounter
}
