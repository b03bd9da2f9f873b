package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"imagedb/internal/connector"
	"imagedb/internal/engine"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"IMAGEDB_DRIVER", "IMAGEDB_DATABASE", "IMAGEDB_USER", "IMAGEDB_PASSWORD",
		"IMAGEDB_HOST", "IMAGEDB_PORT", "IMAGEDB_SSLMODE", "DATABASE_DIR",
		"IMAGEDB_QUERY_CACHE", "IMAGEDB_ENGINE", "IMAGEDB_ENGINE_INTERVAL",
		"IMAGEDB_SCAN_DATASETS", "METRICS_PORT", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_IMAGEDB_SET", "custom")
	t.Setenv("TEST_IMAGEDB_EMPTY", "")

	if got := getEnv("TEST_IMAGEDB_SET", "default"); got != "custom" {
		t.Errorf("getEnv(set) = %q, want custom", got)
	}
	if got := getEnv("TEST_IMAGEDB_EMPTY", "default"); got != "default" {
		t.Errorf("getEnv(empty) = %q, want default", got)
	}
	if got := getEnv("TEST_IMAGEDB_NEVER_SET", "default"); got != "default" {
		t.Errorf("getEnv(unset) = %q, want default", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"yes", true, true},
		{"yes", false, false},
	}

	for _, tt := range tests {
		t.Setenv("TEST_IMAGEDB_BOOL", tt.value)
		if got := getEnvBool("TEST_IMAGEDB_BOOL", tt.defaultValue); got != tt.want {
			t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
		}
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"5s", 5 * time.Second},
		{"1h30m", 90 * time.Minute},
		{"soon", time.Minute},
		{"-5s", time.Minute},
		{"0s", time.Minute},
	}

	for _, tt := range tests {
		t.Setenv("TEST_IMAGEDB_DURATION", tt.value)
		if got := getEnvDuration("TEST_IMAGEDB_DURATION", time.Minute); got != tt.want {
			t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_IMAGEDB_LIST", " photos, ,scans,")
	got := getEnvList("TEST_IMAGEDB_LIST")
	if len(got) != 2 || got[0] != "photos" || got[1] != "scans" {
		t.Errorf("getEnvList() = %v, want [photos scans]", got)
	}

	t.Setenv("TEST_IMAGEDB_LIST", "")
	if got := getEnvList("TEST_IMAGEDB_LIST"); got != nil {
		t.Errorf("getEnvList(empty) = %v, want nil", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Driver != connector.DriverSQLite3 {
		t.Errorf("Driver = %q, want sqlite3", cfg.Driver)
	}
	if cfg.Database != "imagedb" {
		t.Errorf("Database = %q, want imagedb", cfg.Database)
	}
	if !filepath.IsAbs(cfg.DatabaseDir) {
		t.Errorf("DatabaseDir = %q, want absolute", cfg.DatabaseDir)
	}
	if !cfg.QueryCache || cfg.Engine {
		t.Errorf("QueryCache=%v Engine=%v, want true/false", cfg.QueryCache, cfg.Engine)
	}
	if cfg.EngineInterval != engine.DefaultInterval {
		t.Errorf("EngineInterval = %v, want %v", cfg.EngineInterval, engine.DefaultInterval)
	}
	if cfg.MetricsPort != "9090" || !cfg.MetricsEnabled {
		t.Errorf("metrics = %s/%v, want 9090/true", cfg.MetricsPort, cfg.MetricsEnabled)
	}
	if len(cfg.DBParams) != 0 || len(cfg.ScanDatasets) != 0 {
		t.Errorf("unexpected params %v or datasets %v", cfg.DBParams, cfg.ScanDatasets)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	dbDir := filepath.Join(t.TempDir(), "nested", "db")

	t.Setenv("IMAGEDB_DRIVER", "sqlite")
	t.Setenv("IMAGEDB_DATABASE", "catalog")
	t.Setenv("IMAGEDB_USER", "alice")
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("IMAGEDB_QUERY_CACHE", "false")
	t.Setenv("IMAGEDB_ENGINE", "true")
	t.Setenv("IMAGEDB_ENGINE_INTERVAL", "2s")
	t.Setenv("IMAGEDB_SCAN_DATASETS", "photos,scans")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("Load() with a missing explicit env file succeeded")
	}

	cfg, err := Load(writeEnvFile(t, ""))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Driver != "sqlite" || cfg.Database != "catalog" || cfg.User != "alice" {
		t.Errorf("connection fields = %q %q %q", cfg.Driver, cfg.Database, cfg.User)
	}
	if cfg.QueryCache || !cfg.Engine || cfg.EngineInterval != 2*time.Second {
		t.Errorf("engine fields = %v %v %v", cfg.QueryCache, cfg.Engine, cfg.EngineInterval)
	}
	if len(cfg.ScanDatasets) != 2 {
		t.Errorf("ScanDatasets = %v", cfg.ScanDatasets)
	}
	if info, err := os.Stat(dbDir); err != nil || !info.IsDir() {
		t.Errorf("database directory was not created: %v", err)
	}

	cc := cfg.ConnectorConfig()
	if cc.Driver != "sqlite" || cc.Default.Database != "catalog" || cc.Default.User != "alice" || cc.DataDir != dbDir {
		t.Errorf("ConnectorConfig() = %+v", cc)
	}
}

func TestLoadPostgresParams(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("IMAGEDB_DRIVER", "postgres")
	t.Setenv("IMAGEDB_HOST", "db.internal")
	t.Setenv("IMAGEDB_PORT", "5433")
	t.Setenv("IMAGEDB_SSLMODE", "disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want := map[string]string{"host": "db.internal", "port": "5433", "sslmode": "disable"}
	for k, v := range want {
		if cfg.DBParams[k] != v {
			t.Errorf("DBParams[%s] = %q, want %q", k, cfg.DBParams[k], v)
		}
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("IMAGEDB_DRIVER", "oracle")

	if _, err := Load(); !errors.Is(err, connector.ErrUnsupportedDriver) {
		t.Errorf("Load() error = %v, want ErrUnsupportedDriver", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	const key = "IMAGEDB_TEST_FROM_FILE"
	if err := os.Unsetenv(key); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, DefaultEnvFile), []byte(key+"=loaded\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := os.Getenv(key); got != "loaded" {
		t.Errorf("%s = %q, want value from .env", key, got)
	}
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMAGEDB_DATABASE", "from_env")
	t.Chdir(t.TempDir())

	cfg, err := Load(writeEnvFile(t, "IMAGEDB_DATABASE=from_file\n"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database != "from_env" {
		t.Errorf("Database = %q, want from_env", cfg.Database)
	}
}

func TestLogConfigDoesNotPanic(_ *testing.T) {
	LogConfig(&Config{
		Driver:   "postgres",
		Password: "secret",
		DBParams: map[string]string{"host": "localhost"},
	})
	LogWatchStarted(&Config{MetricsEnabled: true, MetricsPort: "9090"}, time.Second)
	LogShutdownInitiated("SIGTERM")
	LogShutdownStepComplete("Engine stopped")
	LogShutdownComplete()
}

func TestMaskSecret(t *testing.T) {
	if maskSecret("") != "(none)" {
		t.Error("empty secret should read (none)")
	}
	if got := maskSecret("hunter2"); got == "hunter2" {
		t.Error("secret was not masked")
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
