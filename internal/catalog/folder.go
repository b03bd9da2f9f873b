package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"imagedb/internal/filesystem"
	"imagedb/internal/logging"
	"imagedb/internal/media"
	"imagedb/internal/mediatypes"
	"imagedb/internal/workers"
)

// AddFolder inserts a record for every regular file in folder, in directory
// order. Symlinks are followed; a dangling link is reported as a failed
// outcome and a directory reached twice through links is walked once. A failing file is reported in its outcome and does not stop the
// walk. The returned error is only set when the walk itself cannot proceed:
// a missing folder or a cancelled context.
//
// Checksums for the files of one directory are computed in parallel; inserts
// stay sequential.
func (s *Store) AddFolder(ctx context.Context, dataset, folder string, opts FolderOptions) ([]FileOutcome, error) {
	table, err := quoteDataset(dataset)
	if err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = ModeFirst
	}
	if _, ok := ParseFolderMode(string(opts.Mode)); !ok {
		return nil, fmt.Errorf("%w: unknown folder mode %q", ErrInvalidArgument, opts.Mode)
	}

	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", folder, err)
	}
	info, err := filesystem.Stat(abs, s.retry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, abs)
	}

	logging.Info("Adding folder %s to %q (mode %s, checksum %v)", abs, dataset, opts.Mode, opts.Checksum)

	var outcomes []FileOutcome
	if err := s.addDir(ctx, dataset, table, abs, opts, make(map[string]bool), &outcomes); err != nil {
		return outcomes, err
	}

	logging.Info("Added %d of %d files from %s to %q", Succeeded(outcomes), len(outcomes), abs, dataset)
	return outcomes, nil
}

// pending is a file of the current directory waiting for insertion.
type pending struct {
	path     string
	checksum *string
	err      error
}

// entryKind is what a directory entry resolves to once symlinks are followed.
type entryKind int

const (
	kindOther entryKind = iota
	kindFile
	kindDir
	kindBroken
)

// classify resolves entry the way AddFile sees it: symlinks are followed.
func (s *Store) classify(path string, entry os.DirEntry) (entryKind, error) {
	mode := entry.Type()
	if mode&os.ModeSymlink != 0 {
		info, err := filesystem.Stat(path, s.retry)
		if err != nil {
			return kindBroken, err
		}
		mode = info.Mode()
	}

	switch {
	case mode.IsRegular():
		return kindFile, nil
	case mode.IsDir():
		return kindDir, nil
	default:
		return kindOther, nil
	}
}

func (s *Store) addDir(ctx context.Context, dataset, table, dir string, opts FolderOptions, visited map[string]bool, outcomes *[]FileOutcome) error {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		if visited[resolved] {
			logging.Debug("Skipping %s: already walked as %s", dir, resolved)
			return nil
		}
		visited[resolved] = true
	}

	entries, err := filesystem.ReadDir(dir, s.retry)
	if err != nil {
		// An unreadable subdirectory is reported like a failing file.
		logging.Warn("Cannot read directory %s: %v", dir, err)
		*outcomes = append(*outcomes, FileOutcome{Path: dir, Err: fmt.Errorf("read directory %s: %w", dir, err)})
		return nil
	}

	kinds := make([]entryKind, len(entries))
	files := make(map[string]*pending)
	var order []*pending
	for i, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		kind, err := s.classify(path, entry)
		if (kind == kindFile || kind == kindBroken) && opts.ImagesOnly && !mediatypes.IsImage(path) {
			logging.Debug("Skipping non-image %s", path)
			kind = kindOther
		}
		kinds[i] = kind

		switch kind {
		case kindBroken:
			logging.Warn("Cannot follow link %s: %v", path, err)
			if errors.Is(err, os.ErrNotExist) {
				err = fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			files[entry.Name()] = &pending{path: path, err: err}
		case kindFile:
			p := &pending{path: path}
			files[entry.Name()] = p
			order = append(order, p)
		}
	}

	if opts.Checksum && len(order) > 0 {
		if err := checksumAll(ctx, order); err != nil {
			return err
		}
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())
		switch kinds[i] {
		case kindDir:
			if opts.Mode != ModeAll {
				logging.Debug("Skipping subdirectory %s", path)
				continue
			}
			if err := s.addDir(ctx, dataset, table, path, opts, visited, outcomes); err != nil {
				return err
			}

		case kindFile, kindBroken:
			p := files[entry.Name()]
			if p.err != nil {
				*outcomes = append(*outcomes, FileOutcome{Path: p.path, Err: p.err})
				continue
			}
			rec, err := s.insert(ctx, dataset, table, p.path, p.checksum)
			*outcomes = append(*outcomes, FileOutcome{Path: p.path, Record: rec, Err: err})
		}
	}

	return nil
}

// checksumAll hashes files concurrently. Per-file failures are stored on the
// pending entry; only cancellation is returned.
func checksumAll(ctx context.Context, files []*pending) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers.ForCPU(len(files)))

	for _, p := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := media.PixelChecksum(p.path)
			if err != nil {
				p.err = fmt.Errorf("checksum %s: %w", p.path, err)
				return nil
			}
			p.checksum = &sum
			return nil
		})
	}

	return g.Wait()
}
