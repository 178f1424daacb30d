package backup

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "attune.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE memories (id TEXT PRIMARY KEY, summary TEXT)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO memories VALUES ('m1', 'a calm conversation')`); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCreateAndListSnapshots(t *testing.T) {
	dir := t.TempDir()
	dbPath := createTestDB(t, dir)

	s, err := NewSnapshotter(dbPath, filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}

	snap, err := s.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if snap.Size == 0 {
		t.Error("snapshot has zero size")
	}

	snapshots, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
}

func TestCreateFailsWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSnapshotter(filepath.Join(dir, "missing.db"), filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestPruneByCount(t *testing.T) {
	dir := t.TempDir()
	dbPath := createTestDB(t, dir)

	s, err := NewSnapshotter(dbPath, filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		if _, err := s.Create(); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := s.Prune(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	snapshots, _ := s.List()
	if len(snapshots) != 2 {
		t.Errorf("expected 2 remaining, got %d", len(snapshots))
	}
}

func TestPruneByAge(t *testing.T) {
	dir := t.TempDir()
	dbPath := createTestDB(t, dir)

	s, err := NewSnapshotter(dbPath, filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}

	old, err := s.Create()
	if err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old.Path, stale, stale); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Prune(0, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := createTestDB(t, dir)

	s, err := NewSnapshotter(dbPath, filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Create()
	if err != nil {
		t.Fatal(err)
	}

	// Mutate the live database, then restore the snapshot.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`DELETE FROM memories`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if err := s.Restore(snap.Path); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected restored row, got count %d", count)
	}
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := createTestDB(t, dir)

	s, err := NewSnapshotter(dbPath, filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}

	corrupt := filepath.Join(dir, "snapshots", "attune-corrupt.db")
	if err := os.WriteFile(corrupt, []byte("not a database"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Restore(corrupt); err == nil {
		t.Fatal("expected verification error for corrupt snapshot")
	}
}
