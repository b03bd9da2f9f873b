package connector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"imagedb/internal/logging"
	"imagedb/internal/metrics"

	"github.com/jmoiron/sqlx"
)

// Default timeout for establishing a session
const connectTimeout = 5 * time.Second

// Config holds what the connector needs to open a session.
type Config struct {
	// Driver is one of SupportedDrivers(); empty means sqlite3.
	Driver string
	// Default is used for every field a Connect override leaves empty.
	Default Target
	// DataDir is where bare SQLite database names are created.
	DataDir string
	// Params are extra libpq keywords (host, port, sslmode) for PostgreSQL.
	Params map[string]string
}

// Connector owns one database session and the transaction holding its
// pending writes. All access is serialized: foreground cursors and
// background commits never run at the same time.
type Connector struct {
	cfg Config

	mu          sync.Mutex
	db          *sqlx.DB
	tx          *sqlx.Tx
	connected   bool
	connectedAt time.Time
	target      Target
}

// New creates a Connector. It does not touch the database.
func New(cfg Config) *Connector {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite3
	}
	return &Connector{cfg: cfg}
}

// Driver returns the configured driver name.
func (c *Connector) Driver() string {
	return c.cfg.Driver
}

// Connect opens a session. Fields set in override replace the configured
// defaults; a nil override uses the defaults. An existing session is closed
// first, discarding uncommitted writes. On failure the session stays unset.
func (c *Connector) Connect(ctx context.Context, override *Target) error {
	target := c.cfg.Default
	if override != nil {
		target = override.merge(c.cfg.Default)
	}

	dsn, err := BuildDSN(c.cfg.Driver, target, c.cfg.DataDir, c.cfg.Params)
	if err != nil {
		logging.Error("Cannot build DSN for database %q: %v", target.Database, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		logging.Info("Reconnecting: closing existing session to %q", c.target.Database)
		if err := c.closeLocked(); err != nil {
			logging.Warn("Failed to close previous session: %v", err)
		}
	}

	db, err := sqlx.Open(c.cfg.Driver, dsn)
	if err != nil {
		logging.Error("Failed to open database %q (driver %s): %v", target.Database, c.cfg.Driver, err)
		return classify(fmt.Errorf("failed to open database: %w", err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		logging.Error("Failed to connect to database %q as %q: %v", target.Database, target.User, err)
		return classify(fmt.Errorf("failed to connect to database: %w", err))
	}

	// One session: every statement shares the pending transaction's connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c.db = db
	c.target = target
	c.connected = true
	c.connectedAt = time.Now()
	metrics.DBConnected.Set(1)

	logging.Info("Connected to database %q (driver %s)", target.Database, c.cfg.Driver)
	return nil
}

// IsConnected reports whether the last Connect succeeded and the session
// has not been closed since.
func (c *Connector) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ConnectedAt returns when the current session was established.
func (c *Connector) ConnectedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectedAt
}

// InTransaction reports whether there are writes waiting for Commit.
func (c *Connector) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx != nil
}

// OpenConnections returns the driver's open connection count.
func (c *Connector) OpenConnections() int {
	c.mu.Lock()
	db := c.db
	c.mu.Unlock()
	if db == nil {
		return 0
	}
	return db.Stats().OpenConnections
}

// WithCursor runs fn with exclusive access to the session. Statements issued
// through the cursor join the pending transaction, which is opened on demand
// and stays open until Commit or Close. Cancelling ctx aborts the statements
// of this call only; writes already acknowledged stay pending.
func (c *Connector) WithCursor(ctx context.Context, fn func(*Cursor) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return ErrNullHandle
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if c.tx == nil {
		// The transaction outlives this call, so it must not die with ctx.
		// Statements still run under ctx.
		start := time.Now()
		tx, err := c.db.BeginTxx(context.WithoutCancel(ctx), nil)
		recordQuery("begin_transaction", start, err)
		if err != nil {
			return classify(fmt.Errorf("failed to begin transaction: %w", err))
		}
		c.tx = tx
	}

	return fn(&Cursor{tx: c.tx, bindType: sqlx.BindType(c.cfg.Driver)})
}

// Commit flushes pending writes. Without pending writes it does nothing.
func (c *Connector) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		metrics.DBCommitsTotal.WithLabelValues("error").Inc()
		return ErrNoActiveSession
	}

	if c.tx == nil {
		metrics.DBCommitsTotal.WithLabelValues("empty").Inc()
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := c.tx.Commit()
	c.tx = nil
	recordQuery("commit", start, err)

	if err != nil {
		metrics.DBCommitsTotal.WithLabelValues("error").Inc()
		return classify(fmt.Errorf("commit failed: %w", err))
	}

	metrics.DBCommitsTotal.WithLabelValues("success").Inc()
	logging.Debug("Committed pending writes to %q", c.target.Database)
	return nil
}

// Close rolls back pending writes and closes the session.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Connector) closeLocked() error {
	if c.db == nil {
		return nil
	}

	var rbErr error
	if c.tx != nil {
		start := time.Now()
		rbErr = c.tx.Rollback()
		recordQuery("rollback", start, rbErr)
		if rbErr != nil {
			rbErr = fmt.Errorf("rollback failed: %w", rbErr)
		}
		c.tx = nil
	}

	closeErr := c.db.Close()
	c.db = nil
	c.connected = false
	metrics.DBConnected.Set(0)

	return errors.Join(rbErr, closeErr)
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
