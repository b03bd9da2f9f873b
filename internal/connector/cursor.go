package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const savepoint = "imagedb_stmt"

// Cursor issues statements inside the connector's pending transaction.
// It is only valid inside the WithCursor callback that produced it.
//
// Queries use '?' placeholders; they are rebound for the driver. Every
// statement runs under a savepoint so a failing statement is rolled back on
// its own and earlier pending writes survive.
type Cursor struct {
	tx       *sqlx.Tx
	bindType int
}

// Exec runs a statement that returns no rows. operation labels metrics.
func (c *Cursor) Exec(ctx context.Context, operation, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := c.guard(ctx, operation, func() error {
		var err error
		result, err = c.tx.ExecContext(ctx, c.rebind(query), args...)
		return err
	})
	return result, err
}

// Get scans a single row into dest. sql.ErrNoRows is returned unwrapped
// when nothing matches.
func (c *Cursor) Get(ctx context.Context, operation string, dest any, query string, args ...any) error {
	return c.guard(ctx, operation, func() error {
		return c.tx.GetContext(ctx, dest, c.rebind(query), args...)
	})
}

// Select scans all rows into dest, which must be a pointer to a slice.
func (c *Cursor) Select(ctx context.Context, operation string, dest any, query string, args ...any) error {
	return c.guard(ctx, operation, func() error {
		return c.tx.SelectContext(ctx, dest, c.rebind(query), args...)
	})
}

func (c *Cursor) rebind(query string) string {
	return sqlx.Rebind(c.bindType, query)
}

func (c *Cursor) guard(ctx context.Context, operation string, stmt func() error) (err error) {
	start := time.Now()
	defer func() { recordQuery(operation, start, err) }()

	if _, err := c.tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return classify(fmt.Errorf("%s: savepoint: %w", operation, err))
	}

	if stmtErr := stmt(); stmtErr != nil {
		if _, rbErr := c.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			return classify(errors.Join(stmtErr, fmt.Errorf("rollback to savepoint: %w", rbErr)))
		}
		if _, relErr := c.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); relErr != nil {
			return classify(errors.Join(stmtErr, fmt.Errorf("release savepoint: %w", relErr)))
		}
		if errors.Is(stmtErr, sql.ErrNoRows) {
			return stmtErr
		}
		return classify(fmt.Errorf("%s: %w", operation, stmtErr))
	}

	if _, err := c.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		return classify(fmt.Errorf("%s: release savepoint: %w", operation, err))
	}
	return nil
}
