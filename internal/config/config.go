package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"imagedb/internal/connector"
	"imagedb/internal/engine"
	"imagedb/internal/logging"

	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// DefaultEnvFile is loaded by Load when present.
const DefaultEnvFile = ".env"

// Config holds all catalog configuration
type Config struct {
	Driver      string
	Database    string
	User        string
	Password    string
	DatabaseDir string
	// DBParams holds extra connection keywords (host, port, sslmode) for
	// PostgreSQL drivers.
	DBParams map[string]string

	QueryCache     bool
	Engine         bool
	EngineInterval time.Duration
	ScanDatasets   []string

	MetricsPort    string
	MetricsEnabled bool
}

// Load reads configuration from the environment. Variables from the given
// env files (or .env when none are given) are applied first; variables
// already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		Driver:         getEnv("IMAGEDB_DRIVER", connector.DriverSQLite3),
		Database:       getEnv("IMAGEDB_DATABASE", "imagedb"),
		User:           getEnv("IMAGEDB_USER", ""),
		Password:       getEnv("IMAGEDB_PASSWORD", ""),
		DatabaseDir:    getEnv("DATABASE_DIR", "."),
		DBParams:       make(map[string]string),
		QueryCache:     getEnvBool("IMAGEDB_QUERY_CACHE", true),
		Engine:         getEnvBool("IMAGEDB_ENGINE", false),
		EngineInterval: getEnvDuration("IMAGEDB_ENGINE_INTERVAL", engine.DefaultInterval),
		ScanDatasets:   getEnvList("IMAGEDB_SCAN_DATASETS"),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	for key, env := range map[string]string{
		"host":    "IMAGEDB_HOST",
		"port":    "IMAGEDB_PORT",
		"sslmode": "IMAGEDB_SSLMODE",
	} {
		if v := getEnv(env, ""); v != "" {
			cfg.DBParams[key] = v
		}
	}

	if !slices.Contains(connector.SupportedDrivers(), cfg.Driver) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", connector.ErrUnsupportedDriver,
			cfg.Driver, strings.Join(connector.SupportedDrivers(), ", "))
	}

	dir, err := filepath.Abs(cfg.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	cfg.DatabaseDir = dir

	if connector.IsSQLite(cfg.Driver) {
		if err := ensureDirectory(cfg.DatabaseDir); err != nil {
			return nil, fmt.Errorf("database directory error: %w", err)
		}
	}

	return cfg, nil
}

// ConnectorConfig returns the connection settings in the form the connector
// expects.
func (c *Config) ConnectorConfig() connector.Config {
	return connector.Config{
		Driver: c.Driver,
		Default: connector.Target{
			Database: c.Database,
			User:     c.User,
			Password: c.Password,
		},
		DataDir: c.DatabaseDir,
		Params:  c.DBParams,
	}
}

func loadEnvFiles(files []string) error {
	explicit := len(files) > 0
	if !explicit {
		files = []string{DefaultEnvFile}
	}

	for _, f := range files {
		err := godotenv.Load(f)
		switch {
		case err == nil:
			logging.Debug("Loaded environment from %s", f)
		case !explicit && errors.Is(err, fs.ErrNotExist):
			// .env is optional
		default:
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Debug("Creating database directory %s", path)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory: %s", path)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
