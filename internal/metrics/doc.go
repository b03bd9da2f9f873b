// Package metrics provides Prometheus instrumentation for imagedb.
//
// All metrics are prefixed with "imagedb_" and registered at package init
// through promauto. The groups are:
//   - Database: statements, commits, connection state
//   - Query cache: hits, misses, invalidations, size
//   - Ingest: files offered for insertion and checksum timing
//   - Engine: maintenance loop iterations, failures and counter
//   - Scan: per-dataset integrity scan results
//   - Filesystem: NFS stale handle errors and retries
//   - HTTP: requests served by the watch metrics server
//
// [Collector] samples gauges from a [StatsProvider] on an interval and
// [NewRouter] exposes /metrics and /healthz for long-running commands.
package metrics
