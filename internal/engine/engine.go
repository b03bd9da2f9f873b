package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"imagedb/internal/logging"
	"imagedb/internal/metrics"
)

// DefaultInterval is the time between maintenance iterations.
const DefaultInterval = 30 * time.Second

// ErrRunning is returned by Start when the loop is already running.
var ErrRunning = errors.New("maintenance loop already running")

// Committer flushes pending writes. *connector.Connector implements it.
type Committer interface {
	Commit(ctx context.Context) error
}

// ScanFunc is the integrity check run at the start of every iteration.
type ScanFunc func(ctx context.Context) error

// Config configures an Engine.
type Config struct {
	// Interval between iterations; zero means DefaultInterval.
	Interval time.Duration
	// Scan is optional. The counter is incremented whether or not it is set.
	Scan ScanFunc
	// InitialCounter seeds the iteration counter.
	InitialCounter int64
}

// Engine runs the maintenance loop: scan, then commit, once per interval.
type Engine struct {
	committer Committer
	interval  time.Duration
	scan      ScanFunc

	counter atomic.Int64
	commits atomic.Int64

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a stopped Engine.
func New(committer Committer, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	e := &Engine{
		committer: committer,
		interval:  cfg.Interval,
		scan:      cfg.Scan,
	}
	e.counter.Store(cfg.InitialCounter)
	return e
}

// Start launches the loop. The first iteration runs immediately.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrRunning
	}

	e.running = true
	e.stopChan = make(chan struct{})
	e.done = make(chan struct{})
	metrics.EngineRunning.Set(1)

	go e.loop(e.stopChan, e.done)

	logging.Info("Maintenance loop started (interval %v, counter %d)", e.interval, e.counter.Load())
	return nil
}

// Stop asks the loop to exit and waits for it. An iteration in progress
// completes first. Stopping a stopped engine does nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	close(e.stopChan)
	done := e.done
	e.running = false
	e.mu.Unlock()

	<-done
	metrics.EngineRunning.Set(0)
	logging.Info("Maintenance loop stopped after %d iterations", e.counter.Load())
}

// Running reports whether the loop is running.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Counter returns the iteration counter.
func (e *Engine) Counter() int64 {
	return e.counter.Load()
}

// Commits returns how many commits the loop has issued.
func (e *Engine) Commits() int64 {
	return e.commits.Load()
}

// Interval returns the time between iterations.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

func (e *Engine) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.iterate()
	for {
		select {
		case <-ticker.C:
			e.iterate()
		case <-stop:
			return
		}
	}
}

// iterate runs one scan and one commit. Failures are logged and counted;
// they never end the loop.
func (e *Engine) iterate() {
	ctx := context.Background()

	n := e.counter.Add(1)
	metrics.EngineIterationsTotal.Inc()
	metrics.EngineCounter.Set(float64(n))

	if e.scan != nil {
		if err := e.scan(ctx); err != nil {
			metrics.EngineErrorsTotal.WithLabelValues("scan").Inc()
			logging.Error("Maintenance scan %d failed: %v", n, err)
		}
	}

	e.commits.Add(1)
	if err := e.committer.Commit(ctx); err != nil {
		metrics.EngineErrorsTotal.WithLabelValues("commit").Inc()
		logging.Error("Maintenance commit %d failed: %v", n, err)
		return
	}
	logging.Debug("Maintenance iteration %d complete", n)
}
