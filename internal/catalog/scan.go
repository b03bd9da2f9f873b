package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"imagedb/internal/filesystem"
	"imagedb/internal/logging"
	"imagedb/internal/media"
	"imagedb/internal/metrics"
	"imagedb/internal/workers"
)

// Scan checks that the files behind a dataset's records still exist and,
// with opts.Checksum, that their pixels still match the stored checksum.
// Records without a stored checksum are only checked for existence.
// Records are checked in parallel; the report keeps their order.
func (s *Store) Scan(ctx context.Context, opts ScanOptions) (ScanReport, error) {
	report := ScanReport{Dataset: opts.Dataset}

	var (
		records []Record
		err     error
	)
	if opts.ID != nil || opts.Name != nil {
		records, err = s.GetRecord(ctx, opts.Dataset, Lookup{ID: opts.ID, Name: opts.Name}, opts.RefreshCache)
	} else {
		records, err = s.GetAllRecords(ctx, opts.Dataset, opts.RefreshCache)
	}
	if err != nil {
		return report, fmt.Errorf("scan %q: %w", opts.Dataset, err)
	}

	results := make([]scanResult, len(records))
	limit := workers.ForIO(len(records))
	if opts.Checksum {
		limit = workers.ForCPU(len(records))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.checkRecord(rec, opts.Checksum)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	for i, rec := range records {
		report.Checked++
		switch r := results[i]; {
		case r.missing:
			report.Missing = append(report.Missing, rec)
		case r.err != nil:
			report.Unreadable = append(report.Unreadable, FileOutcome{Path: rec.FilePath, Record: rec, Err: r.err})
		case r.mismatched:
			report.Mismatched = append(report.Mismatched, rec)
		}
	}

	metrics.ScanRecordsChecked.WithLabelValues(opts.Dataset).Set(float64(report.Checked))
	metrics.ScanMissingFiles.WithLabelValues(opts.Dataset).Set(float64(len(report.Missing)))
	metrics.ScanChecksumMismatches.WithLabelValues(opts.Dataset).Set(float64(len(report.Mismatched)))

	if report.Clean() {
		logging.Debug("Scan of %q: %d records, all present", opts.Dataset, report.Checked)
	} else {
		logging.Warn("Scan of %q: %d records, %d missing, %d mismatched, %d unreadable",
			opts.Dataset, report.Checked, len(report.Missing), len(report.Mismatched), len(report.Unreadable))
	}
	return report, nil
}

type scanResult struct {
	missing    bool
	mismatched bool
	err        error
}

func (s *Store) checkRecord(rec Record, checksum bool) scanResult {
	info, err := filesystem.Stat(rec.FilePath, s.retry)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return scanResult{missing: true}
	case err != nil:
		return scanResult{err: err}
	case !info.Mode().IsRegular():
		return scanResult{missing: true}
	}

	if !checksum || rec.Checksum == nil {
		return scanResult{}
	}

	sum, err := media.PixelChecksum(rec.FilePath)
	if err != nil {
		return scanResult{err: err}
	}
	return scanResult{mismatched: sum != *rec.Checksum}
}
