// Package sqlite implements storage.LongTermStore on SQLite via
// modernc.org/sqlite. Embeddings are stored as JSON arrays and similarity
// ranking happens in Go, which is adequate at per-user memory volumes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/attuneai/attune/internal/storage"
	"github.com/attuneai/attune/pkg/types"
)

// Schema creates the memories table and its indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	conversation_id TEXT NOT NULL UNIQUE,
	summary         TEXT NOT NULL,
	emotion         TEXT NOT NULL,
	intensity       REAL NOT NULL DEFAULT 0,
	concepts        TEXT,
	importance      REAL NOT NULL DEFAULT 0,
	timestamp       TIMESTAMP NOT NULL,
	embedding       TEXT,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);
CREATE INDEX IF NOT EXISTS idx_memories_user_time ON memories(user_id, timestamp);
`

// Store implements storage.LongTermStore using SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.LongTermStore = (*Store)(nil)

// NewStore opens a SQLite database, configures WAL mode, and creates the
// schema.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load;
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Upsert writes an entry keyed by conversation_id.
func (s *Store) Upsert(ctx context.Context, entry *types.MemoryEntry) error {
	if entry == nil {
		return storage.ErrInvalidInput
	}
	if entry.ID == "" || entry.UserID == "" || entry.ConversationID == "" {
		return fmt.Errorf("%w: id, user_id, and conversation_id are required", storage.ErrInvalidInput)
	}

	conceptsJSON, err := json.Marshal(entry.Concepts)
	if err != nil {
		return fmt.Errorf("failed to marshal concepts: %w", err)
	}

	embeddingJSON, err := json.Marshal(entry.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	query := `
		INSERT INTO memories (
			id, user_id, conversation_id, summary, emotion,
			intensity, concepts, importance, timestamp, embedding
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			summary = excluded.summary,
			emotion = excluded.emotion,
			intensity = excluded.intensity,
			concepts = excluded.concepts,
			importance = excluded.importance,
			timestamp = excluded.timestamp,
			embedding = excluded.embedding,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.ConversationID, entry.Summary, entry.Emotion,
		entry.Intensity, string(conceptsJSON), entry.Importance, entry.Timestamp, string(embeddingJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert memory: %w", err)
	}

	return nil
}

// Query ranks the user's entries by cosine similarity in Go and returns the
// top k. Ties break by importance then by timestamp, both descending.
func (s *Store) Query(ctx context.Context, userID string, embedding []float64, k int) ([]storage.ScoredEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if k <= 0 {
		k = 5
	}

	entries, err := s.ListUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	scored := make([]storage.ScoredEntry, 0, len(entries))
	for _, entry := range entries {
		scored = append(scored, storage.ScoredEntry{
			Entry:      entry,
			Similarity: storage.CosineSimilarity(embedding, entry.Embedding),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		if scored[i].Entry.Importance != scored[j].Entry.Importance {
			return scored[i].Entry.Importance > scored[j].Entry.Importance
		}
		return scored[i].Entry.Timestamp.After(scored[j].Entry.Timestamp)
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// ListUser returns all entries for userID, newest first.
func (s *Store) ListUser(ctx context.Context, userID string) ([]*types.MemoryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	query := `
		SELECT id, user_id, conversation_id, summary, emotion,
		       intensity, concepts, importance, timestamp, embedding
		FROM memories
		WHERE user_id = ?
		ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var entries []*types.MemoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// DeleteUser removes every entry for userID.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user memories: %w", err)
	}
	return nil
}

// Cleanup deletes entries past the retention cutoff unless their importance
// exceeds pinThreshold.
func (s *Store) Cleanup(ctx context.Context, cutoff time.Time, pinThreshold float64) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE timestamp < ? AND importance <= ?`,
		cutoff, pinThreshold,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up memories: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return int(affected), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanEntry reads one memories row.
func scanEntry(rows *sql.Rows) (*types.MemoryEntry, error) {
	var (
		entry         types.MemoryEntry
		conceptsJSON  sql.NullString
		embeddingJSON sql.NullString
	)

	err := rows.Scan(
		&entry.ID, &entry.UserID, &entry.ConversationID, &entry.Summary, &entry.Emotion,
		&entry.Intensity, &conceptsJSON, &entry.Importance, &entry.Timestamp, &embeddingJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan memory row: %w", err)
	}

	if conceptsJSON.Valid && conceptsJSON.String != "" {
		if err := json.Unmarshal([]byte(conceptsJSON.String), &entry.Concepts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal concepts: %w", err)
		}
	}
	if embeddingJSON.Valid && embeddingJSON.String != "" {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &entry.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
		}
	}

	return &entry, nil
}
