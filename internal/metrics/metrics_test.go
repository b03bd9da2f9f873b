package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"DBCommitsTotal", DBCommitsTotal},
		{"DBConnectionsOpen", DBConnectionsOpen},
		{"DBConnected", DBConnected},
		{"CacheHits", CacheHits},
		{"CacheMisses", CacheMisses},
		{"CacheInvalidations", CacheInvalidations},
		{"CacheEntries", CacheEntries},
		{"IngestFilesTotal", IngestFilesTotal},
		{"ChecksumDuration", ChecksumDuration},
		{"EngineIterationsTotal", EngineIterationsTotal},
		{"EngineErrorsTotal", EngineErrorsTotal},
		{"EngineRunning", EngineRunning},
		{"EngineCounter", EngineCounter},
		{"ScanRecordsChecked", ScanRecordsChecked},
		{"ScanMissingFiles", ScanMissingFiles},
		{"ScanChecksumMismatches", ScanChecksumMismatches},
		{"FilesystemStaleErrors", FilesystemStaleErrors},
		{"FilesystemRetries", FilesystemRetries},
		{"HTTPRequestsTotal", HTTPRequestsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(DBQueryTotal); got < 16 {
		t.Errorf("DBQueryTotal series = %d, want at least 16", got)
	}
	if got := testutil.CollectAndCount(DBCommitsTotal); got != 3 {
		t.Errorf("DBCommitsTotal series = %d, want 3", got)
	}
	if got := testutil.CollectAndCount(EngineErrorsTotal); got != 2 {
		t.Errorf("EngineErrorsTotal series = %d, want 2", got)
	}
}

type fakeStats struct {
	calls atomic.Int32
	stats Stats
}

func (f *fakeStats) GetStats() Stats {
	f.calls.Add(1)
	return f.stats
}

func TestCollectorSamplesProvider(t *testing.T) {
	provider := &fakeStats{stats: Stats{
		Connected:       true,
		OpenConnections: 2,
		CacheEntries:    7,
		EngineRunning:   true,
		EngineCounter:   11,
	}}

	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()
	time.Sleep(35 * time.Millisecond)
	c.Stop()

	if provider.calls.Load() < 2 {
		t.Errorf("provider called %d times, want at least 2", provider.calls.Load())
	}
	if got := testutil.ToFloat64(CacheEntries); got != 7 {
		t.Errorf("CacheEntries = %v, want 7", got)
	}
	if got := testutil.ToFloat64(EngineCounter); got != 11 {
		t.Errorf("EngineCounter = %v, want 11", got)
	}
	if got := testutil.ToFloat64(DBConnected); got != 1 {
		t.Errorf("DBConnected = %v, want 1", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestRouter(t *testing.T) {
	var ready atomic.Bool
	r := NewRouter(ready.Load)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz before ready = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	ready.Store(true)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz after ready = %d, want %d", rec.Code, http.StatusOK)
	}

	EngineIterationsTotal.Inc()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "imagedb_engine_iterations_total") {
		t.Error("metrics output missing imagedb_engine_iterations_total")
	}
}
