package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_db_queries_total",
			Help: "Total number of database statements issued",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagedb_db_query_duration_seconds",
			Help:    "Database statement duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_db_commits_total",
			Help: "Total number of commits of pending writes",
		},
		[]string{"status"}, // "success", "error", "empty"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedb_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedb_db_connected",
			Help: "Whether a database session is established (1 = connected, 0 = not connected)",
		},
	)
)

// Query cache metrics
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_query_cache_hits_total",
			Help: "Total number of query cache hits",
		},
		[]string{"operation"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_query_cache_misses_total",
			Help: "Total number of query cache misses",
		},
		[]string{"operation"},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imagedb_query_cache_invalidations_total",
			Help: "Total number of cache entries dropped because their dataset was written",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedb_query_cache_entries",
			Help: "Number of entries currently held in the query cache",
		},
	)
)

// Ingest metrics
var (
	IngestFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_ingest_files_total",
			Help: "Total number of files offered for insertion",
		},
		[]string{"status"}, // "success", "error"
	)

	ChecksumDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagedb_checksum_duration_seconds",
			Help:    "Time spent decoding an image and hashing its pixels",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// HTTP metrics for the watch server
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_http_requests_total",
			Help: "Total number of HTTP requests served by the metrics server",
		},
		[]string{"path", "status"},
	)
)

// Filesystem metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation"},
	)

	FilesystemRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_filesystem_retries_total",
			Help: "Filesystem operations that needed retries, by final result",
		},
		[]string{"operation", "result"}, // "success", "failure"
	)
)

// Maintenance engine metrics
var (
	EngineIterationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imagedb_engine_iterations_total",
			Help: "Total number of maintenance loop iterations",
		},
	)

	EngineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_engine_errors_total",
			Help: "Total number of maintenance loop step failures",
		},
		[]string{"step"}, // "scan", "commit"
	)

	EngineRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedb_engine_running",
			Help: "Whether the maintenance loop is running (1 = running, 0 = stopped)",
		},
	)

	EngineCounter = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedb_engine_update_counter",
			Help: "Current value of the maintenance iteration counter",
		},
	)
)

// Integrity scan metrics
var (
	ScanRecordsChecked = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imagedb_scan_records_checked",
			Help: "Records checked by the last integrity scan of a dataset",
		},
		[]string{"dataset"},
	)

	ScanMissingFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imagedb_scan_missing_files",
			Help: "Records whose file was missing from disk during the last scan of a dataset",
		},
		[]string{"dataset"},
	)

	ScanChecksumMismatches = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imagedb_scan_checksum_mismatches",
			Help: "Records whose stored checksum differed from the file during the last scan",
		},
		[]string{"dataset"},
	)
)
