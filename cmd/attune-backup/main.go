// Command attune-backup snapshots and restores the SQLite memory store.
//
// Usage:
//
//	attune-backup -data ./data create
//	attune-backup -data ./data list
//	attune-backup -data ./data prune -keep 24 -max-age 720h
//	attune-backup -data ./data restore <snapshot-path>
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/attuneai/attune/internal/backup"
)

func main() {
	log.SetFlags(0)

	dataPath := flag.String("data", "./data", "data directory holding attune.db")
	snapshotDir := flag.String("dir", "", "snapshot directory (default <data>/backups)")
	keep := flag.Int("keep", 24, "snapshots to retain when pruning, 0 for unlimited")
	maxAge := flag.Duration("max-age", 0, "prune snapshots older than this, 0 to disable")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: attune-backup [flags] create|list|prune|restore")
	}

	dir := *snapshotDir
	if dir == "" {
		dir = filepath.Join(*dataPath, "backups")
	}
	s, err := backup.NewSnapshotter(filepath.Join(*dataPath, "attune.db"), dir)
	if err != nil {
		log.Fatalf("attune-backup: %v", err)
	}

	switch cmd := flag.Arg(0); cmd {
	case "create":
		snap, err := s.Create()
		if err != nil {
			log.Fatalf("attune-backup: create failed: %v", err)
		}
		fmt.Printf("created %s (%d bytes)\n", snap.Path, snap.Size)

	case "list":
		snapshots, err := s.List()
		if err != nil {
			log.Fatalf("attune-backup: %v", err)
		}
		if len(snapshots) == 0 {
			fmt.Println("no snapshots")
			return
		}
		for _, snap := range snapshots {
			fmt.Printf("%s  %10d  %s\n",
				snap.Timestamp.UTC().Format(time.RFC3339), snap.Size, snap.Path)
		}

	case "prune":
		removed, err := s.Prune(*keep, *maxAge)
		if err != nil {
			log.Fatalf("attune-backup: prune failed: %v", err)
		}
		fmt.Printf("removed %d snapshots\n", removed)

	case "restore":
		if flag.NArg() < 2 {
			log.Fatal("usage: attune-backup restore <snapshot-path>")
		}
		if err := s.Restore(flag.Arg(1)); err != nil {
			log.Fatalf("attune-backup: restore failed: %v", err)
		}
		fmt.Println("restored; restart the server to pick up the database")

	default:
		log.Fatalf("attune-backup: unknown command %q", cmd)
	}
}
