package connector

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Target identifies the database and the credentials used to reach it.
type Target struct {
	Database string
	User     string
	Password string
}

// merge returns t with every empty field filled from defaults.
func (t Target) merge(defaults Target) Target {
	if t.Database == "" {
		t.Database = defaults.Database
	}
	if t.User == "" {
		t.User = defaults.User
	}
	if t.Password == "" {
		t.Password = defaults.Password
	}
	return t
}

// BuildDSN renders the data source name for driver.
//
// SQLite drivers treat Database as a file: a bare name becomes
// <dataDir>/<name>.db, anything that already looks like a path is used as
// given. Credentials are ignored. PostgreSQL drivers receive the libpq
// key/value form, with params (host, port, sslmode, ...) appended.
func BuildDSN(driver string, t Target, dataDir string, params map[string]string) (string, error) {
	if t.Database == "" {
		return "", fmt.Errorf("database identifier is required")
	}

	switch {
	case IsSQLite(driver):
		return sqliteDSN(driver, t.Database, dataDir), nil
	case IsPostgres(driver):
		return postgresDSN(t, params), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// SQLitePath resolves a database identifier to the file a SQLite driver opens.
func SQLitePath(database, dataDir string) string {
	if database == ":memory:" {
		return database
	}
	if filepath.IsAbs(database) || strings.ContainsRune(database, filepath.Separator) || filepath.Ext(database) != "" {
		return database
	}
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, database+".db")
}

func sqliteDSN(driver, database, dataDir string) string {
	path := SQLitePath(database, dataDir)
	if path == ":memory:" {
		return path
	}

	// busy_timeout helps prevent "database is locked" errors
	if driver == DriverSQLite {
		return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
}

func postgresDSN(t Target, params map[string]string) string {
	parts := []string{"dbname=" + quoteDSNValue(t.Database)}
	if t.User != "" {
		parts = append(parts, "user="+quoteDSNValue(t.User))
	}
	if t.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(t.Password))
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if params[k] == "" {
			continue
		}
		parts = append(parts, k+"="+quoteDSNValue(params[k]))
	}

	return strings.Join(parts, " ")
}

// quoteDSNValue quotes a libpq keyword value when it is empty or contains
// whitespace, quotes or backslashes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
