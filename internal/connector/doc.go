// Package connector owns the single database session used by imagedb.
//
// A [Connector] opens the session, hands out short-lived exclusive access
// to it through [Connector.WithCursor] and flushes pending writes with
// [Connector.Commit]. Writes accumulate in one transaction until committed,
// either explicitly or by the maintenance engine.
//
// Supported drivers:
//   - sqlite3: github.com/mattn/go-sqlite3 (default)
//   - sqlite: modernc.org/sqlite
//   - postgres: github.com/lib/pq
//   - pgx: github.com/jackc/pgx/v5/stdlib
//
// Driver errors are classified into [ErrDuplicateTable], [ErrUndefinedTable]
// and [ErrDriverFailure] while keeping the driver's own error in the chain.
package connector
