package main

import (
	"context"
	"fmt"

	"imagedb"
	"imagedb/internal/config"
	"imagedb/internal/logging"

	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every subcommand. Flags
// that are set override the environment.
type rootOptions struct {
	envFile        string
	driver         string
	database       string
	user           string
	dataDir        string
	passwordPrompt bool
	noCache        bool
	verbose        bool
	jsonOutput     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "imagedb",
		Short: "Catalog image files in database tables",
		Long: `imagedb records image files in named datasets, one table per dataset.
Each record holds the file's absolute path, its filename and optionally an MD5
digest of its decoded pixels.

Connection settings come from IMAGEDB_* environment variables (and an optional
.env file); flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.verbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", "", "load environment from this file instead of .env")
	pf.StringVar(&opts.driver, "driver", "", "database driver: sqlite3, sqlite, postgres or pgx")
	pf.StringVarP(&opts.database, "database", "d", "", "database name (SQLite: file name or path)")
	pf.StringVarP(&opts.user, "user", "u", "", "database user")
	pf.StringVar(&opts.dataDir, "data-dir", "", "directory for SQLite databases")
	pf.BoolVar(&opts.passwordPrompt, "password-prompt", false, "read the database password from the terminal")
	pf.BoolVar(&opts.noCache, "no-cache", false, "disable the query result cache")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	cmd.AddCommand(
		newCreateDatasetCmd(opts),
		newAddFileCmd(opts),
		newAddFolderCmd(opts),
		newGetCmd(opts),
		newListCmd(opts),
		newScanCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var files []string
	if o.envFile != "" {
		files = append(files, o.envFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}

	if o.driver != "" {
		cfg.Driver = o.driver
	}
	if o.database != "" {
		cfg.Database = o.database
	}
	if o.user != "" {
		cfg.User = o.user
	}
	if o.dataDir != "" {
		cfg.DatabaseDir = o.dataDir
	}
	if o.noCache {
		cfg.QueryCache = false
	}
	if o.passwordPrompt {
		pw, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Password for %s: ", cfg.Database))
		if err != nil {
			return nil, err
		}
		cfg.Password = pw
	}
	return cfg, nil
}

// withDB opens the catalog, runs fn and closes it. Close commits pending
// writes; its error is returned when fn succeeded.
func (o *rootOptions) withDB(cmd *cobra.Command, fn func(ctx context.Context, db *imagedb.DB) error) (err error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}

	dbOpts := imagedb.OptionsFromConfig(cfg)
	dbOpts.Engine = false

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := imagedb.Open(ctx, dbOpts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", closeErr)
		}
	}()

	return fn(ctx, db)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := config.GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "imagedb %s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
		},
	}
}
