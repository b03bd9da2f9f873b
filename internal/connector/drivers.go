package connector

import (
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
)

// Driver names accepted by Config.Driver.
const (
	DriverSQLite3  = "sqlite3"  // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"   // modernc.org/sqlite (pure Go)
	DriverPostgres = "postgres" // github.com/lib/pq
	DriverPgx      = "pgx"      // github.com/jackc/pgx/v5/stdlib
)

// SupportedDrivers lists every driver name the connector can build a DSN for.
func SupportedDrivers() []string {
	return []string{DriverSQLite3, DriverSQLite, DriverPostgres, DriverPgx}
}

// IsSQLite reports whether driver speaks SQLite.
func IsSQLite(driver string) bool {
	return driver == DriverSQLite3 || driver == DriverSQLite
}

// IsPostgres reports whether driver speaks PostgreSQL.
func IsPostgres(driver string) bool {
	return driver == DriverPostgres || driver == DriverPgx
}
