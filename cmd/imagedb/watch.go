package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"imagedb"
	"imagedb/internal/config"
	"imagedb/internal/logging"
	"imagedb/internal/metrics"
	"imagedb/internal/middleware"

	"github.com/spf13/cobra"
)

const (
	collectInterval = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		interval  time.Duration
		datasets  []string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the maintenance loop until interrupted",
		Long: `Run the maintenance loop in the foreground: on every interval the configured
datasets are scanned for missing files and pending writes are committed. A
Prometheus endpoint is served on METRICS_PORT unless metrics are disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()

			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				cfg.EngineInterval = interval
			}
			if len(datasets) > 0 {
				cfg.ScanDatasets = datasets
			}
			if noMetrics {
				cfg.MetricsEnabled = false
			}
			config.LogConfig(cfg)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runWatch(ctx, cfg, start)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&interval, "interval", 0, "time between iterations (default IMAGEDB_ENGINE_INTERVAL)")
	f.StringSliceVar(&datasets, "scan", nil, "datasets to scan on each iteration")
	f.BoolVar(&noMetrics, "no-metrics", false, "do not serve the metrics endpoint")
	return cmd
}

// runWatch blocks until ctx is cancelled.
func runWatch(ctx context.Context, cfg *config.Config, start time.Time) error {
	dbOpts := imagedb.OptionsFromConfig(cfg)
	dbOpts.Engine = true

	db, err := imagedb.Open(ctx, dbOpts)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(db, collectInterval)
	collector.Start()

	var srv *http.Server
	serveErr := make(chan error, 1)
	if cfg.MetricsEnabled {
		router := metrics.NewRouter(db.IsConnected)
		router.Use(middleware.Metrics("/metrics", "/healthz"), middleware.Logger())

		srv = &http.Server{
			Addr:              net.JoinHostPort("", cfg.MetricsPort),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	config.LogWatchStarted(cfg, time.Since(start))

	var runErr error
	select {
	case <-ctx.Done():
		config.LogShutdownInitiated("interrupt")
	case runErr = <-serveErr:
		logging.Error("Metrics server failed: %v", runErr)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			config.LogShutdownStepComplete("Metrics server stopped")
		}
		cancel()
	}

	collector.Stop()

	counter := db.EngineCounter()
	if err := db.Close(); err != nil {
		logging.Error("Failed to close database: %v", err)
		runErr = errors.Join(runErr, err)
	} else {
		config.LogShutdownStepComplete("Maintenance loop stopped")
	}
	logging.Info("  Iterations: %d", counter)
	config.LogShutdownComplete()

	return runErr
}
