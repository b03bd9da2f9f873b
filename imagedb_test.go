package imagedb

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func openTestDB(t *testing.T, dir string, opts Options) *DB {
	t.Helper()

	if opts.Database == "" {
		opts.Database = "catalog"
	}
	opts.DataDir = dir

	db, err := Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func saveImage(t *testing.T, path string, c color.NRGBA) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to save %s: %v", path, err)
	}
	return path
}

func TestOpenRequiresDatabase(t *testing.T) {
	_, err := Open(context.Background(), Options{DataDir: t.TempDir()})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Open() error = %v, want ErrInvalidArgument", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle", Database: "x", DataDir: t.TempDir()})
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("Open() error = %v, want ErrUnsupportedDriver", err)
	}
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	dbDir := t.TempDir()
	imgDir := t.TempDir()

	db := openTestDB(t, dbDir, Options{QueryCache: true})
	if !db.IsConnected() {
		t.Fatal("IsConnected() = false after Open")
	}
	if db.Driver() != DriverSQLite3 {
		t.Errorf("Driver() = %q, want sqlite3", db.Driver())
	}

	if err := db.CreateDataset(ctx, "photos"); err != nil {
		t.Fatalf("CreateDataset() failed: %v", err)
	}
	if err := db.CreateDataset(ctx, "photos"); !errors.Is(err, ErrDuplicateTable) {
		t.Errorf("second CreateDataset() error = %v, want ErrDuplicateTable", err)
	}

	path := saveImage(t, filepath.Join(imgDir, "a.jpg"), color.NRGBA{R: 90, G: 30, B: 200, A: 255})
	if _, err := db.AddFile(ctx, "photos", path, true); err != nil {
		t.Fatalf("AddFile() failed: %v", err)
	}
	if _, err := db.AddFile(ctx, "photos", filepath.Join(imgDir, "missing.jpg"), false); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddFile(missing) error = %v, want ErrNotFound", err)
	}

	rows, err := db.GetRecord(ctx, "photos", ByName("a.jpg"), false)
	if err != nil {
		t.Fatalf("GetRecord() failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != 1 || rows[0].FilePath != path || rows[0].FileName != "a.jpg" {
		t.Fatalf("GetRecord() = %+v", rows)
	}
	if rows[0].Checksum == nil || len(*rows[0].Checksum) != 32 {
		t.Errorf("Checksum = %v, want 32 hex digits", rows[0].Checksum)
	}

	if _, err := db.GetRecord(ctx, "photos", Lookup{}, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("GetRecord() without lookup error = %v, want ErrInvalidArgument", err)
	}

	if stats := db.GetStats(); !stats.Connected || stats.CacheEntries == 0 {
		t.Errorf("GetStats() = %+v, want connected with cached entries", stats)
	}
}

func TestCommitAndCloseMakeWritesDurable(t *testing.T) {
	ctx := context.Background()
	dbDir := t.TempDir()
	imgDir := t.TempDir()
	saveImage(t, filepath.Join(imgDir, "a.png"), color.NRGBA{A: 255})
	saveImage(t, filepath.Join(imgDir, "b.png"), color.NRGBA{R: 1, A: 255})

	db, err := Open(ctx, Options{Database: "durable", DataDir: dbDir})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := db.CreateDataset(ctx, "photos"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddFile(ctx, "photos", filepath.Join(imgDir, "a.png"), false); err != nil {
		t.Fatal(err)
	}
	if err := db.Commit(ctx); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if _, err := db.AddFile(ctx, "photos", filepath.Join(imgDir, "b.png"), false); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if db.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}

	reopened := openTestDB(t, dbDir, Options{Database: "durable"})
	rows, err := reopened.GetAllRecords(ctx, "photos", true)
	if err != nil {
		t.Fatalf("GetAllRecords() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d durable records, want 2", len(rows))
	}
}

func TestCloseCommitsAfterCallerContextEnds(t *testing.T) {
	dbDir := t.TempDir()
	path := saveImage(t, filepath.Join(t.TempDir(), "a.png"), color.NRGBA{A: 255})

	ctx, cancel := context.WithCancel(context.Background())
	db, err := Open(ctx, Options{Database: "interrupted", DataDir: dbDir})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := db.CreateDataset(ctx, "photos"); err != nil {
		t.Fatal(err)
	}
	rec, err := db.AddFile(ctx, "photos", path, true)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	if err := db.Close(); err != nil {
		t.Fatalf("Close() after cancellation failed: %v", err)
	}

	reopened := openTestDB(t, dbDir, Options{Database: "interrupted"})
	rows, err := reopened.GetRecord(context.Background(), "photos", ByID(rec.ID), true)
	if err != nil {
		t.Fatalf("GetRecord() failed: %v", err)
	}
	if len(rows) != 1 || rows[0].FilePath != path {
		t.Errorf("rows = %+v, want the acknowledged record for %s", rows, path)
	}
}

func TestEngineCommitsInBackground(t *testing.T) {
	ctx := context.Background()
	dbDir := t.TempDir()
	imgDir := t.TempDir()
	saveImage(t, filepath.Join(imgDir, "a.png"), color.NRGBA{A: 255})

	db := openTestDB(t, dbDir, Options{
		Database:       "engine",
		Engine:         true,
		EngineInterval: 10 * time.Millisecond,
		ScanDatasets:   []string{"photos"},
	})
	if !db.EngineRunning() {
		t.Fatal("EngineRunning() = false with Options.Engine")
	}
	if err := db.StartEngine(); !errors.Is(err, ErrEngineRunning) {
		t.Errorf("StartEngine() while running error = %v, want ErrEngineRunning", err)
	}

	if err := db.CreateDataset(ctx, "photos"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddFolder(ctx, "photos", imgDir, FolderOptions{}); err != nil {
		t.Fatal(err)
	}

	time.Sleep(40 * time.Millisecond)
	db.EndEngine()
	counter := db.EngineCounter()
	if counter < 2 {
		t.Errorf("EngineCounter() = %d, want >= 2", counter)
	}

	// A second connection sees the rows once the loop has committed them.
	observer := openTestDB(t, dbDir, Options{Database: "engine"})
	rows, err := observer.GetAllRecords(ctx, "photos", true)
	if err != nil {
		t.Fatalf("GetAllRecords() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("observer saw %d rows, want 1", len(rows))
	}

	if err := db.StartEngine(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	db.EndEngine()
	if db.EngineCounter() <= counter {
		t.Errorf("counter %d did not continue from %d", db.EngineCounter(), counter)
	}
}

func TestConnectOverride(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db := openTestDB(t, dir, Options{Database: "first", QueryCache: true})
	if err := db.CreateDataset(ctx, "photos"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetAllRecords(ctx, "photos", false); err != nil {
		t.Fatal(err)
	}

	if err := db.Connect(ctx, Target{Database: "second"}); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "second.db")); err != nil {
		t.Errorf("override database file not created: %v", err)
	}

	// The dataset was never committed to "first" and does not exist in "second".
	if _, err := db.GetAllRecords(ctx, "photos", false); !errors.Is(err, ErrUndefinedTable) {
		t.Errorf("GetAllRecords() error = %v, want ErrUndefinedTable", err)
	}
}

func TestOptionsAreExported(t *testing.T) {
	if ModeFirst == ModeAll {
		t.Error("folder modes collide")
	}
	if l := ByID(3); l.ID == nil || *l.ID != 3 || l.Name != nil {
		t.Errorf("ByID(3) = %+v", l)
	}
}
