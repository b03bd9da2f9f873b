package catalog

import (
	"errors"
	"regexp"
)

var (
	// ErrNotFound is returned when a file or folder to ingest does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned when a lookup names neither id nor filename.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidDataset is returned for dataset names outside the identifier allow-list.
	ErrInvalidDataset = errors.New("invalid dataset name")
)

var datasetNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Record is one image row of a dataset.
type Record struct {
	ID       int64   `db:"image_id" json:"id"`
	FilePath string  `db:"filepath" json:"filepath"`
	FileName string  `db:"filename" json:"filename"`
	Checksum *string `db:"chksum" json:"chksum,omitempty"`
}

// Lookup selects records by id or filename. ID wins when both are set.
type Lookup struct {
	ID   *int64
	Name *string
}

// ByID returns a Lookup for one id.
func ByID(id int64) Lookup {
	return Lookup{ID: &id}
}

// ByName returns a Lookup for a filename.
func ByName(name string) Lookup {
	return Lookup{Name: &name}
}

// FolderMode controls whether folder ingestion descends into subdirectories.
type FolderMode string

const (
	// ModeFirst ingests direct children only.
	ModeFirst FolderMode = "first"
	// ModeAll ingests every nested subdirectory.
	ModeAll FolderMode = "all"
)

// ParseFolderMode maps "first" and "all" to a FolderMode. Empty means ModeFirst.
func ParseFolderMode(s string) (FolderMode, bool) {
	switch FolderMode(s) {
	case "", ModeFirst:
		return ModeFirst, true
	case ModeAll:
		return ModeAll, true
	}
	return "", false
}

// FolderOptions configures AddFolder.
type FolderOptions struct {
	Checksum bool
	Mode     FolderMode
	// ImagesOnly skips files whose extension is not a known image type.
	ImagesOnly bool
}

// FileOutcome is the result of offering one file for insertion.
type FileOutcome struct {
	Path   string
	Record Record
	Err    error
}

// OK reports whether the file was inserted.
func (o FileOutcome) OK() bool {
	return o.Err == nil
}

// ScanOptions selects what an integrity scan checks.
type ScanOptions struct {
	Dataset string
	ID      *int64
	Name    *string
	// Checksum recomputes pixel checksums of records that have one.
	Checksum bool
	// RefreshCache reads records from the database instead of the cache.
	RefreshCache bool
}

// ScanReport summarizes an integrity scan. Nothing is modified by a scan.
type ScanReport struct {
	Dataset    string
	Checked    int
	Missing    []Record
	Mismatched []Record
	Unreadable []FileOutcome
}

// Clean reports whether every checked record was present and matched.
func (r ScanReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Mismatched) == 0 && len(r.Unreadable) == 0
}

// Succeeded counts inserted files in outcomes.
func Succeeded(outcomes []FileOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}
