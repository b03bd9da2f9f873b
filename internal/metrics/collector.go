package metrics

import (
	"time"

	"imagedb/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds point-in-time values that are sampled rather than counted.
type Stats struct {
	Connected       bool
	OpenConnections int
	CacheEntries    int
	EngineRunning   bool
	EngineCounter   int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	DBConnected.Set(boolToFloat(stats.Connected))
	DBConnectionsOpen.Set(float64(stats.OpenConnections))
	CacheEntries.Set(float64(stats.CacheEntries))
	EngineRunning.Set(boolToFloat(stats.EngineRunning))
	EngineCounter.Set(float64(stats.EngineCounter))

	logging.Debug("Metrics collected: connected=%v, conns=%d, cache=%d, engine=%v (counter %d)",
		stats.Connected, stats.OpenConnections, stats.CacheEntries, stats.EngineRunning, stats.EngineCounter)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
