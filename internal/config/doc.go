// Package config loads catalog configuration from the environment and logs
// it at startup.
//
// An optional .env file in the working directory is read first with
// godotenv; variables already present in the environment take precedence.
//
// # Environment
//
//   - IMAGEDB_DRIVER: sqlite3, sqlite, postgres or pgx (default: sqlite3)
//   - IMAGEDB_DATABASE: database name or SQLite file (default: imagedb)
//   - IMAGEDB_USER, IMAGEDB_PASSWORD: credentials (default: none)
//   - IMAGEDB_HOST, IMAGEDB_PORT, IMAGEDB_SSLMODE: PostgreSQL connection keywords
//   - DATABASE_DIR: directory for SQLite files (default: .)
//   - IMAGEDB_QUERY_CACHE: cache read results (default: true)
//   - IMAGEDB_ENGINE: start the maintenance loop on open (default: false)
//   - IMAGEDB_ENGINE_INTERVAL: loop interval as Go duration (default: 30s)
//   - IMAGEDB_SCAN_DATASETS: comma-separated datasets the loop scans
//   - METRICS_PORT: metrics server port for watch (default: 9090)
//   - METRICS_ENABLED: serve metrics during watch (default: true)
//   - LOG_LEVEL or IMAGEDB_LOG_LEVEL: debug, info, warn, error (default: info)
//
// Invalid booleans and durations log a warning and fall back to their
// defaults. An unknown driver is an error.
package config
