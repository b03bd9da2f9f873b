package config

import (
	"runtime"
	"strings"
	"time"

	"imagedb/internal/logging"
)

func section(title string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogConfig logs the effective configuration. The password is never shown.
func LogConfig(c *Config) {
	section("IMAGEDB " + Version)
	logging.Info("  Commit:          %s", Commit)
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("")

	section("CONFIGURATION")
	logging.Info("  IMAGEDB_DRIVER:           %s", c.Driver)
	logging.Info("  IMAGEDB_DATABASE:         %s", c.Database)
	logging.Info("  IMAGEDB_USER:             %s", orNone(c.User))
	logging.Info("  IMAGEDB_PASSWORD:         %s", maskSecret(c.Password))
	logging.Info("  DATABASE_DIR:             %s", c.DatabaseDir)
	for _, key := range []string{"host", "port", "sslmode"} {
		if v, ok := c.DBParams[key]; ok {
			logging.Info("  IMAGEDB_%-18s %s", strings.ToUpper(key)+":", v)
		}
	}
	logging.Info("  IMAGEDB_QUERY_CACHE:      %v", c.QueryCache)
	logging.Info("  IMAGEDB_ENGINE:           %v", c.Engine)
	logging.Info("  IMAGEDB_ENGINE_INTERVAL:  %s", c.EngineInterval)
	logging.Info("  IMAGEDB_SCAN_DATASETS:    %s", orNone(strings.Join(c.ScanDatasets, ",")))
	logging.Info("  METRICS_PORT:             %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:          %v", c.MetricsEnabled)
	logging.Info("  LOG_LEVEL:                %s", logging.GetLevel())
	logging.Info("")
}

// LogWatchStarted logs the endpoints of a running watch process.
func LogWatchStarted(c *Config, startup time.Duration) {
	section("WATCH STARTED")
	logging.Info("  Startup time:    %v", startup)
	logging.Info("  Engine interval: %v", c.EngineInterval)
	if c.MetricsEnabled {
		logging.Info("  Metrics:         http://localhost:%s/metrics", c.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	section("SHUTDOWN INITIATED (received " + signal + ")")
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func maskSecret(s string) string {
	if s == "" {
		return "(none)"
	}
	return "********"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
