// Package imagedb catalogs image files in relational database tables.
//
// Each dataset is a table of image records: an auto-assigned id, the
// absolute path and filename of the file, and optionally an MD5 digest of
// its decoded pixels. A DB wraps one database session. Writes accumulate in
// a pending transaction that is flushed by Commit, by Close, or by the
// background maintenance loop.
//
//	db, err := imagedb.Open(ctx, imagedb.Options{Database: "catalog", QueryCache: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.CreateDataset(ctx, "photos"); err != nil {
//	    return err
//	}
//	rec, err := db.AddFile(ctx, "photos", "/srv/images/a.jpg", true)
package imagedb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"imagedb/internal/catalog"
	"imagedb/internal/config"
	"imagedb/internal/connector"
	"imagedb/internal/engine"
	"imagedb/internal/logging"
	"imagedb/internal/metrics"
	"imagedb/internal/querycache"
)

type (
	// Record is one image row of a dataset.
	Record = catalog.Record
	// Lookup selects records by id or filename; id wins when both are set.
	Lookup = catalog.Lookup
	// FolderMode selects shallow or recursive folder ingestion.
	FolderMode = catalog.FolderMode
	// FolderOptions configures AddFolder.
	FolderOptions = catalog.FolderOptions
	// FileOutcome reports the result for one file of a folder.
	FileOutcome = catalog.FileOutcome
	// ScanOptions selects what Scan checks.
	ScanOptions = catalog.ScanOptions
	// ScanReport summarizes a Scan.
	ScanReport = catalog.ScanReport
	// Target names a database and the credentials to reach it.
	Target = connector.Target
)

// Folder modes
const (
	ModeFirst = catalog.ModeFirst
	ModeAll   = catalog.ModeAll
)

// Supported drivers
const (
	DriverSQLite3  = connector.DriverSQLite3
	DriverSQLite   = connector.DriverSQLite
	DriverPostgres = connector.DriverPostgres
	DriverPgx      = connector.DriverPgx
)

// Errors returned by DB operations. Use errors.Is to test for them.
var (
	ErrNotFound          = catalog.ErrNotFound
	ErrInvalidArgument   = catalog.ErrInvalidArgument
	ErrInvalidDataset    = catalog.ErrInvalidDataset
	ErrDuplicateTable    = connector.ErrDuplicateTable
	ErrUndefinedTable    = connector.ErrUndefinedTable
	ErrNullHandle        = connector.ErrNullHandle
	ErrNoActiveSession   = connector.ErrNoActiveSession
	ErrDriverFailure     = connector.ErrDriverFailure
	ErrUnsupportedDriver = connector.ErrUnsupportedDriver
	ErrEngineRunning     = engine.ErrRunning
)

// ByID returns a Lookup for one id.
func ByID(id int64) Lookup { return catalog.ByID(id) }

// ByName returns a Lookup for a filename.
func ByName(name string) Lookup { return catalog.ByName(name) }

// Options configures Open.
type Options struct {
	// Driver is sqlite3 (default), sqlite, postgres or pgx.
	Driver   string
	Database string
	User     string
	Password string
	// DataDir is where SQLite databases given by bare name are created.
	DataDir string
	// Params are extra PostgreSQL connection keywords such as host and port.
	Params map[string]string

	// QueryCache caches read results until the dataset is written.
	QueryCache bool

	// Engine starts the maintenance loop on Open.
	Engine         bool
	EngineInterval time.Duration
	// ScanDatasets are checked for missing files on every loop iteration.
	ScanDatasets []string
}

// OptionsFromConfig converts loaded configuration into Options.
func OptionsFromConfig(c *config.Config) Options {
	return Options{
		Driver:         c.Driver,
		Database:       c.Database,
		User:           c.User,
		Password:       c.Password,
		DataDir:        c.DatabaseDir,
		Params:         c.DBParams,
		QueryCache:     c.QueryCache,
		Engine:         c.Engine,
		EngineInterval: c.EngineInterval,
		ScanDatasets:   c.ScanDatasets,
	}
}

// DB is an image catalog over one database session. It is safe for use by
// one caller alongside its own maintenance loop.
type DB struct {
	conn    *connector.Connector
	cache   *querycache.Map[[]Record]
	store   *catalog.Store
	engines *engine.Manager
	scans   []string
}

// Open connects to the database described by opts. With opts.Engine the
// maintenance loop is started before Open returns.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if opts.Database == "" {
		return nil, fmt.Errorf("%w: database name is required", ErrInvalidArgument)
	}

	metrics.InitializeMetrics()

	conn := connector.New(connector.Config{
		Driver: opts.Driver,
		Default: connector.Target{
			Database: opts.Database,
			User:     opts.User,
			Password: opts.Password,
		},
		DataDir: opts.DataDir,
		Params:  opts.Params,
	})
	if err := conn.Connect(ctx, nil); err != nil {
		return nil, err
	}

	db := &DB{conn: conn, scans: opts.ScanDatasets}

	var cache querycache.Cache[[]Record]
	if opts.QueryCache {
		db.cache = querycache.New[[]Record]()
		cache = db.cache
	}
	db.store = catalog.New(conn, cache)

	db.engines = engine.NewManager(conn, engine.Config{
		Interval: opts.EngineInterval,
		Scan:     db.maintenanceScan,
	})

	if opts.Engine {
		if err := db.StartEngine(); err != nil {
			return nil, errors.Join(err, conn.Close())
		}
	}

	return db, nil
}

// Connect replaces the session with one to target. Fields left empty in
// target fall back to those given to Open. Uncommitted writes of the old
// session are discarded; cached reads are dropped.
func (db *DB) Connect(ctx context.Context, target Target) error {
	if db.cache != nil {
		db.cache.Purge()
	}
	return db.conn.Connect(ctx, &target)
}

// IsConnected reports whether a session is established.
func (db *DB) IsConnected() bool {
	return db.conn.IsConnected()
}

// Driver returns the database driver name.
func (db *DB) Driver() string {
	return db.conn.Driver()
}

// CreateDataset creates an empty dataset. It fails with ErrDuplicateTable
// if the dataset exists.
func (db *DB) CreateDataset(ctx context.Context, name string) error {
	return db.store.CreateDataset(ctx, name)
}

// AddFile adds the file at path to dataset. It fails with ErrNotFound if
// the file does not exist.
func (db *DB) AddFile(ctx context.Context, dataset, path string, computeChecksum bool) (Record, error) {
	return db.store.AddFile(ctx, dataset, path, computeChecksum)
}

// AddFolder adds the files of folder to dataset and reports the outcome of
// every file. See FolderOptions for recursion and filtering.
func (db *DB) AddFolder(ctx context.Context, dataset, folder string, opts FolderOptions) ([]FileOutcome, error) {
	return db.store.AddFolder(ctx, dataset, folder, opts)
}

// GetRecord returns the records of dataset matching lookup.
func (db *DB) GetRecord(ctx context.Context, dataset string, lookup Lookup, bypassCache bool) ([]Record, error) {
	return db.store.GetRecord(ctx, dataset, lookup, bypassCache)
}

// GetAllRecords returns every record of dataset ordered by id.
func (db *DB) GetAllRecords(ctx context.Context, dataset string, bypassCache bool) ([]Record, error) {
	return db.store.GetAllRecords(ctx, dataset, bypassCache)
}

// Scan checks that the files of a dataset's records are still present and,
// optionally, unchanged.
func (db *DB) Scan(ctx context.Context, opts ScanOptions) (ScanReport, error) {
	return db.store.Scan(ctx, opts)
}

// Commit makes pending writes durable.
func (db *DB) Commit(ctx context.Context) error {
	return db.conn.Commit(ctx)
}

// StartEngine starts the maintenance loop. The iteration counter continues
// from the previous loop.
func (db *DB) StartEngine() error {
	return db.engines.StartEngine()
}

// EndEngine stops the maintenance loop after its current iteration.
func (db *DB) EndEngine() {
	db.engines.EndEngine()
}

// EngineRunning reports whether the maintenance loop is running.
func (db *DB) EngineRunning() bool {
	return db.engines.Running()
}

// EngineCounter returns the maintenance iteration counter.
func (db *DB) EngineCounter() int64 {
	return db.engines.LastCounter()
}

// Close stops the maintenance loop, commits pending writes and closes the
// session.
func (db *DB) Close() error {
	db.EndEngine()

	var commitErr error
	if db.conn.IsConnected() {
		commitErr = db.conn.Commit(context.Background())
		if commitErr != nil {
			logging.Error("Final commit failed: %v", commitErr)
		}
	}
	return errors.Join(commitErr, db.conn.Close())
}

// GetStats implements metrics.StatsProvider.
func (db *DB) GetStats() metrics.Stats {
	s := metrics.Stats{
		Connected:       db.conn.IsConnected(),
		OpenConnections: db.conn.OpenConnections(),
		EngineRunning:   db.engines.Running(),
		EngineCounter:   db.engines.LastCounter(),
	}
	if db.cache != nil {
		s.CacheEntries = db.cache.Len()
	}
	return s
}

// maintenanceScan checks the configured datasets for missing files.
func (db *DB) maintenanceScan(ctx context.Context) error {
	var errs []error
	for _, dataset := range db.scans {
		if _, err := db.store.Scan(ctx, ScanOptions{Dataset: dataset, RefreshCache: true}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
