package connector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	moderncsqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	// ErrNullHandle is returned when a cursor is requested before any
	// successful connect.
	ErrNullHandle = errors.New("no database handle, connect first")

	// ErrNoActiveSession is returned by Commit when no session is open.
	ErrNoActiveSession = errors.New("no active database session")

	// ErrDuplicateTable is returned when CREATE TABLE targets an existing table.
	ErrDuplicateTable = errors.New("table already exists")

	// ErrUndefinedTable is returned when a statement references a missing table.
	ErrUndefinedTable = errors.New("table does not exist")

	// ErrDriverFailure wraps every other error reported by the driver.
	ErrDriverFailure = errors.New("database driver failure")

	// ErrUnsupportedDriver is returned for driver names without DSN support.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// PostgreSQL SQLSTATE codes
const (
	pgDuplicateTable = "42P07"
	pgUndefinedTable = "42P01"
)

// classify maps a driver error onto the package sentinels. The driver
// error stays in the chain so errors.As still reaches driver types.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyCode(string(pqErr.Code), err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(pgErr.Code, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code != sqlite3.ErrError {
			return fmt.Errorf("%w: %w", ErrDriverFailure, err)
		}
		return classifyMessage(err)
	}

	var moderncErr *moderncsqlite.Error
	if errors.As(err, &moderncErr) {
		if moderncErr.Code()&0xff != sqlite3lib.SQLITE_ERROR {
			return fmt.Errorf("%w: %w", ErrDriverFailure, err)
		}
		return classifyMessage(err)
	}

	return classifyMessage(err)
}

func classifyCode(code string, err error) error {
	switch code {
	case pgDuplicateTable:
		return fmt.Errorf("%w: %w", ErrDuplicateTable, err)
	case pgUndefinedTable:
		return fmt.Errorf("%w: %w", ErrUndefinedTable, err)
	default:
		return fmt.Errorf("%w: %w", ErrDriverFailure, err)
	}
}

// classifyMessage handles SQLite, which reports both conditions with the
// generic SQLITE_ERROR code and only distinguishes them in the message.
func classifyMessage(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already exists"):
		return fmt.Errorf("%w: %w", ErrDuplicateTable, err)
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("%w: %w", ErrUndefinedTable, err)
	default:
		return fmt.Errorf("%w: %w", ErrDriverFailure, err)
	}
}
