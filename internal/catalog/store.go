package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"imagedb/internal/connector"
	"imagedb/internal/filesystem"
	"imagedb/internal/logging"
	"imagedb/internal/media"
	"imagedb/internal/metrics"
	"imagedb/internal/querycache"
)

// Session is the database access the store needs. *connector.Connector
// implements it.
type Session interface {
	Driver() string
	WithCursor(ctx context.Context, fn func(*connector.Cursor) error) error
}

// Store reads and writes image records in dataset tables.
type Store struct {
	session Session
	cache   querycache.Cache[[]Record]
	retry   filesystem.RetryConfig
}

// New creates a Store. A nil cache disables result caching.
func New(session Session, cache querycache.Cache[[]Record]) *Store {
	return &Store{session: session, cache: cache, retry: filesystem.DefaultRetryConfig()}
}

// CreateDataset creates the table backing dataset. It fails with
// connector.ErrDuplicateTable when the dataset already exists.
func (s *Store) CreateDataset(ctx context.Context, dataset string) error {
	table, err := quoteDataset(dataset)
	if err != nil {
		return err
	}

	ddl := createTableSQL(s.session.Driver(), table)
	err = s.session.WithCursor(ctx, func(cur *connector.Cursor) error {
		_, err := cur.Exec(ctx, "create_dataset", ddl)
		return err
	})
	if err != nil {
		logging.Error("Failed to create dataset %q: %v", dataset, err)
		return fmt.Errorf("create dataset %q: %w", dataset, err)
	}

	s.invalidate(dataset)
	logging.Info("Created dataset %q", dataset)
	return nil
}

// AddFile inserts one record for the file at path. The path is stored in
// absolute form. With computeChecksum the decoded pixels are hashed first;
// a file that cannot be decoded is not inserted.
func (s *Store) AddFile(ctx context.Context, dataset, path string, computeChecksum bool) (Record, error) {
	table, err := quoteDataset(dataset)
	if err != nil {
		return Record{}, err
	}

	abs, err := s.resolveFile(path)
	if err != nil {
		metrics.IngestFilesTotal.WithLabelValues("error").Inc()
		return Record{}, err
	}

	var sum *string
	if computeChecksum {
		digest, err := media.PixelChecksum(abs)
		if err != nil {
			metrics.IngestFilesTotal.WithLabelValues("error").Inc()
			return Record{}, fmt.Errorf("checksum %s: %w", abs, err)
		}
		sum = &digest
	}

	return s.insert(ctx, dataset, table, abs, sum)
}

func (s *Store) insert(ctx context.Context, dataset, table, abs string, sum *string) (Record, error) {
	rec := Record{FilePath: abs, FileName: filepath.Base(abs), Checksum: sum}

	query := "INSERT INTO " + table + " (filepath, filename, chksum) VALUES (?, ?, ?) RETURNING image_id"
	err := s.session.WithCursor(ctx, func(cur *connector.Cursor) error {
		return cur.Get(ctx, "insert_record", &rec.ID, query, rec.FilePath, rec.FileName, rec.Checksum)
	})
	if err != nil {
		metrics.IngestFilesTotal.WithLabelValues("error").Inc()
		logging.Warn("Failed to insert %s into %q: %v", abs, dataset, err)
		return Record{}, fmt.Errorf("insert %s into %q: %w", abs, dataset, err)
	}

	metrics.IngestFilesTotal.WithLabelValues("success").Inc()
	s.invalidate(dataset)
	logging.Debug("Inserted %s into %q as id %d", abs, dataset, rec.ID)
	return rec, nil
}

// GetRecord returns the records matching lookup. When both id and name are
// set only id is used. Results are served from the cache unless bypassCache
// is set; a fresh read always refreshes the cached entry.
func (s *Store) GetRecord(ctx context.Context, dataset string, lookup Lookup, bypassCache bool) ([]Record, error) {
	if lookup.ID == nil && lookup.Name == nil {
		return nil, fmt.Errorf("%w: an id or a filename is required", ErrInvalidArgument)
	}
	if lookup.ID != nil {
		lookup.Name = nil
	}

	table, err := quoteDataset(dataset)
	if err != nil {
		return nil, err
	}

	key := querycache.RecordKey(dataset, lookup.ID, lookup.Name)
	if rows, ok := s.cached(key, bypassCache); ok {
		return rows, nil
	}

	var (
		op    string
		query string
		arg   any
	)
	if lookup.ID != nil {
		op, query, arg = "select_by_id", "SELECT image_id, filepath, filename, chksum FROM "+table+" WHERE image_id = ?", *lookup.ID
	} else {
		op, query, arg = "select_by_name", "SELECT image_id, filepath, filename, chksum FROM "+table+" WHERE filename = ? ORDER BY image_id", *lookup.Name
	}

	rows := []Record{}
	err = s.session.WithCursor(ctx, func(cur *connector.Cursor) error {
		return cur.Select(ctx, op, &rows, query, arg)
	})
	if err != nil {
		return nil, fmt.Errorf("get record from %q: %w", dataset, err)
	}

	s.store(key, rows)
	return rows, nil
}

// GetAllRecords returns every record of dataset ordered by id, with the same
// cache discipline as GetRecord.
func (s *Store) GetAllRecords(ctx context.Context, dataset string, bypassCache bool) ([]Record, error) {
	table, err := quoteDataset(dataset)
	if err != nil {
		return nil, err
	}

	key := querycache.DatasetKey(dataset)
	if rows, ok := s.cached(key, bypassCache); ok {
		return rows, nil
	}

	rows := []Record{}
	err = s.session.WithCursor(ctx, func(cur *connector.Cursor) error {
		return cur.Select(ctx, "select_all", &rows,
			"SELECT image_id, filepath, filename, chksum FROM "+table+" ORDER BY image_id")
	})
	if err != nil {
		return nil, fmt.Errorf("get records from %q: %w", dataset, err)
	}

	s.store(key, rows)
	return rows, nil
}

func (s *Store) cached(key querycache.Key, bypass bool) ([]Record, bool) {
	if s.cache == nil || bypass {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Store) store(key querycache.Key, rows []Record) {
	if s.cache != nil {
		s.cache.Put(key, rows)
	}
}

func (s *Store) invalidate(dataset string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.InvalidateDataset(dataset); n > 0 {
		logging.Debug("Invalidated %d cached queries for %q", n, dataset)
	}
}

// resolveFile returns the absolute path of an existing regular file.
func (s *Store) resolveFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := filesystem.Stat(abs, s.retry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrNotFound, abs)
	}
	return abs, nil
}
