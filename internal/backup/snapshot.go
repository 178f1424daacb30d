// Package backup creates and manages point-in-time snapshots of the SQLite
// memory store. Snapshots use VACUUM INTO, which produces a consistent copy
// even while the server runs in WAL mode.
package backup

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const snapshotPrefix = "attune-"

// Snapshot describes one backup file on disk.
type Snapshot struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Snapshotter manages snapshots of one database file in one directory.
type Snapshotter struct {
	dbPath string
	dir    string
}

// NewSnapshotter creates the snapshot directory if needed.
func NewSnapshotter(dbPath, dir string) (*Snapshotter, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Snapshotter{dbPath: dbPath, dir: dir}, nil
}

// Create writes a new timestamped snapshot and verifies its integrity.
func (s *Snapshotter) Create() (*Snapshot, error) {
	if _, err := os.Stat(s.dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}

	name := fmt.Sprintf("%s%s.db", snapshotPrefix, time.Now().UTC().Format("20060102-150405.000000"))
	dest := filepath.Join(s.dir, name)

	if err := vacuumInto(s.dbPath, dest); err != nil {
		os.Remove(dest)
		return nil, err
	}
	if err := verifyIntegrity(dest); err != nil {
		os.Remove(dest)
		return nil, err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return &Snapshot{Path: dest, Timestamp: info.ModTime(), Size: info.Size()}, nil
}

// List returns the snapshots in the directory, newest first.
func (s *Snapshotter) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Path:      filepath.Join(s.dir, entry.Name()),
			Timestamp: info.ModTime(),
			Size:      info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// Prune removes snapshots beyond keep or older than maxAge. keep <= 0 means
// no count limit; maxAge <= 0 means no age limit. Returns the number removed.
func (s *Snapshotter) Prune(keep int, maxAge time.Duration) (int, error) {
	snapshots, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	var lastErr error
	for i, snap := range snapshots {
		stale := maxAge > 0 && time.Since(snap.Timestamp) > maxAge
		excess := keep > 0 && i >= keep
		if !stale && !excess {
			continue
		}
		if err := os.Remove(snap.Path); err != nil {
			lastErr = err
			continue
		}
		removed++
	}
	if lastErr != nil {
		return removed, fmt.Errorf("failed to remove some snapshots: %w", lastErr)
	}
	return removed, nil
}

// Restore replaces the live database with a verified snapshot. The server
// must not be running.
func (s *Snapshotter) Restore(snapshotPath string) error {
	if err := verifyIntegrity(snapshotPath); err != nil {
		return err
	}

	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer src.Close()

	tmp := s.dbPath + ".restore"
	dst, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create restore file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to copy snapshot: %w", err)
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync restore file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	// WAL sidecars of the old database are invalid after a restore.
	os.Remove(s.dbPath + "-wal")
	os.Remove(s.dbPath + "-shm")

	if err := os.Rename(tmp, s.dbPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace database: %w", err)
	}
	return nil
}

// vacuumInto copies the database into dest through a read-only connection.
func vacuumInto(sourcePath, dest string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", sourcePath))
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping source database: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	return nil
}

// verifyIntegrity runs PRAGMA integrity_check against path.
func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
