package querycache

import (
	"sync"

	"imagedb/internal/metrics"
)

// Operation names the kind of read a cache entry answers.
type Operation string

const (
	// OpGetRecord is a lookup by id or filename.
	OpGetRecord Operation = "get_record"
	// OpGetRecords is a full-table read.
	OpGetRecords Operation = "get_records"
)

// Key is the canonical cache key. Every read path builds its key with
// RecordKey or DatasetKey so reads and writes agree on its shape.
type Key struct {
	Op      Operation
	Dataset string
	HasID   bool
	ID      int64
	HasName bool
	Name    string
}

// RecordKey returns the key of a lookup by id and/or filename.
func RecordKey(dataset string, id *int64, name *string) Key {
	k := Key{Op: OpGetRecord, Dataset: dataset}
	if id != nil {
		k.HasID, k.ID = true, *id
	}
	if name != nil {
		k.HasName, k.Name = true, *name
	}
	return k
}

// DatasetKey returns the key of a full-table read.
func DatasetKey(dataset string) Key {
	return Key{Op: OpGetRecords, Dataset: dataset}
}

// Cache stores query results of type V.
type Cache[V any] interface {
	Get(k Key) (V, bool)
	Put(k Key, v V)
	InvalidateDataset(dataset string) int
	Purge()
	Len() int
}

// Map is an unbounded in-process Cache. Entries never expire; they are
// dropped only by InvalidateDataset or Purge.
type Map[V any] struct {
	mu      sync.RWMutex
	entries map[Key]V
}

// New creates an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{entries: make(map[Key]V)}
}

// Get returns the value stored under k.
func (m *Map[V]) Get(k Key) (V, bool) {
	m.mu.RLock()
	v, ok := m.entries[k]
	m.mu.RUnlock()

	if ok {
		metrics.CacheHits.WithLabelValues(string(k.Op)).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(string(k.Op)).Inc()
	}
	return v, ok
}

// Put stores v under k, replacing any previous value.
func (m *Map[V]) Put(k Key, v V) {
	m.mu.Lock()
	m.entries[k] = v
	n := len(m.entries)
	m.mu.Unlock()

	metrics.CacheEntries.Set(float64(n))
}

// InvalidateDataset drops every entry of dataset and returns how many were
// removed.
func (m *Map[V]) InvalidateDataset(dataset string) int {
	m.mu.Lock()
	removed := 0
	for k := range m.entries {
		if k.Dataset == dataset {
			delete(m.entries, k)
			removed++
		}
	}
	n := len(m.entries)
	m.mu.Unlock()

	if removed > 0 {
		metrics.CacheInvalidations.Add(float64(removed))
	}
	metrics.CacheEntries.Set(float64(n))
	return removed
}

// Purge drops every entry.
func (m *Map[V]) Purge() {
	m.mu.Lock()
	m.entries = make(map[Key]V)
	m.mu.Unlock()

	metrics.CacheEntries.Set(0)
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
