package main

import (
	"context"
	"fmt"
	"strconv"

	"imagedb"

	"github.com/spf13/cobra"
)

func newCreateDatasetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-dataset <name>",
		Short: "Create an empty dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd, func(ctx context.Context, db *imagedb.DB) error {
				if err := db.CreateDataset(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created dataset %s\n", args[0])
				return nil
			})
		},
	}
}

func newAddFileCmd(opts *rootOptions) *cobra.Command {
	var checksum bool

	cmd := &cobra.Command{
		Use:   "add-file <dataset> <path>...",
		Short: "Add image files to a dataset",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd, func(ctx context.Context, db *imagedb.DB) error {
				var records []imagedb.Record
				for _, path := range args[1:] {
					rec, err := db.AddFile(ctx, args[0], path, checksum)
					if err != nil {
						return err
					}
					records = append(records, rec)
				}
				return printRecords(cmd.OutOrStdout(), records, opts.jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVarP(&checksum, "checksum", "c", false, "store the MD5 of the decoded pixels")
	return cmd
}

func newAddFolderCmd(opts *rootOptions) *cobra.Command {
	var (
		checksum   bool
		recursive  bool
		mode       string
		imagesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "add-folder <dataset> <folder>",
		Short: "Add every file of a folder to a dataset",
		Long: `Add every regular file of a folder to a dataset. Subdirectories are skipped
unless --mode all (or -r) is given. Each file's outcome is reported; a failing
file does not stop the others.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderMode, ok := parseMode(mode, recursive)
			if !ok {
				return fmt.Errorf("%w: unknown mode %q (want first or all)", imagedb.ErrInvalidArgument, mode)
			}

			return opts.withDB(cmd, func(ctx context.Context, db *imagedb.DB) error {
				outcomes, err := db.AddFolder(ctx, args[0], args[1], imagedb.FolderOptions{
					Checksum:   checksum,
					Mode:       folderMode,
					ImagesOnly: imagesOnly,
				})
				if err != nil {
					return err
				}
				if err := printOutcomes(cmd.OutOrStdout(), outcomes, opts.jsonOutput); err != nil {
					return err
				}
				if failed := countFailed(outcomes); failed > 0 {
					return fmt.Errorf("%d of %d files could not be added", failed, len(outcomes))
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&checksum, "checksum", "c", false, "store the MD5 of the decoded pixels")
	f.StringVar(&mode, "mode", string(imagedb.ModeFirst), "first (direct children only) or all (recursive)")
	f.BoolVarP(&recursive, "recursive", "r", false, "shorthand for --mode all")
	f.BoolVar(&imagesOnly, "images-only", false, "skip files without an image extension")
	return cmd
}

func parseMode(mode string, recursive bool) (imagedb.FolderMode, bool) {
	if recursive {
		return imagedb.ModeAll, true
	}
	switch imagedb.FolderMode(mode) {
	case "", imagedb.ModeFirst:
		return imagedb.ModeFirst, true
	case imagedb.ModeAll:
		return imagedb.ModeAll, true
	}
	return "", false
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	var (
		id      int64
		name    string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "get <dataset>",
		Short: "Show records by id or filename",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lookup, err := lookupFromFlags(cmd, id, name)
			if err != nil {
				return err
			}
			return opts.withDB(cmd, func(ctx context.Context, db *imagedb.DB) error {
				rows, err := db.GetRecord(ctx, args[0], lookup, refresh)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), rows, opts.jsonOutput)
			})
		},
	}

	f := cmd.Flags()
	f.Int64Var(&id, "id", 0, "record id")
	f.StringVar(&name, "name", "", "filename")
	f.BoolVar(&refresh, "refresh", false, "bypass the query cache")
	return cmd
}

// lookupFromFlags builds a Lookup from whichever of --id and --name were set.
func lookupFromFlags(cmd *cobra.Command, id int64, name string) (imagedb.Lookup, error) {
	var lookup imagedb.Lookup
	if cmd.Flags().Changed("id") {
		lookup.ID = &id
	}
	if cmd.Flags().Changed("name") {
		lookup.Name = &name
	}
	if lookup.ID == nil && lookup.Name == nil {
		return lookup, fmt.Errorf("%w: --id or --name is required", imagedb.ErrInvalidArgument)
	}
	return lookup, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list <dataset>",
		Short: "Show every record of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd, func(ctx context.Context, db *imagedb.DB) error {
				rows, err := db.GetAllRecords(ctx, args[0], refresh)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), rows, opts.jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the query cache")
	return cmd
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		id       int64
		name     string
		checksum bool
	)

	cmd := &cobra.Command{
		Use:   "scan <dataset>",
		Short: "Check that cataloged files still exist and match",
		Long: `Check every record of a dataset (or the one selected by --id or --name) for a
missing file. With --checksum, records that have a stored checksum are decoded
again and compared. Nothing is modified. The command fails when problems are
found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scan := imagedb.ScanOptions{Dataset: args[0], Checksum: checksum, RefreshCache: true}
			if cmd.Flags().Changed("id") || cmd.Flags().Changed("name") {
				lookup, err := lookupFromFlags(cmd, id, name)
				if err != nil {
					return err
				}
				scan.ID, scan.Name = lookup.ID, lookup.Name
			}

			return opts.withDB(cmd, func(ctx context.Context, db *imagedb.DB) error {
				report, err := db.Scan(ctx, scan)
				if err != nil {
					return err
				}
				if err := printReport(cmd.OutOrStdout(), report, opts.jsonOutput); err != nil {
					return err
				}
				if !report.Clean() {
					return fmt.Errorf("scan of %s found %d problems", args[0],
						len(report.Missing)+len(report.Mismatched)+len(report.Unreadable))
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.Int64Var(&id, "id", 0, "scan one record id")
	f.StringVar(&name, "name", "", "scan records with this filename")
	f.BoolVarP(&checksum, "checksum", "c", false, "recompute and compare pixel checksums")
	return cmd
}

func countFailed(outcomes []imagedb.FileOutcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
