package catalog

import (
	"fmt"

	"imagedb/internal/connector"
)

// ValidDatasetName reports whether name can be used as a dataset table name.
func ValidDatasetName(name string) bool {
	return datasetNamePattern.MatchString(name)
}

// quoteDataset validates name and returns it as a quoted SQL identifier.
// Validated names contain no quote characters.
func quoteDataset(name string) (string, error) {
	if !ValidDatasetName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDataset, name)
	}
	return `"` + name + `"`, nil
}

func createTableSQL(driver, table string) string {
	if connector.IsPostgres(driver) {
		return "CREATE TABLE " + table + ` (
	image_id SERIAL PRIMARY KEY,
	filepath VARCHAR NOT NULL,
	filename VARCHAR NOT NULL,
	chksum VARCHAR
)`
	}
	return "CREATE TABLE " + table + ` (
	image_id INTEGER PRIMARY KEY AUTOINCREMENT,
	filepath TEXT NOT NULL,
	filename TEXT NOT NULL,
	chksum TEXT
)`
}
