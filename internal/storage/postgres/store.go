// Package postgres implements storage.LongTermStore on PostgreSQL with the
// pgvector extension. Similarity ranking happens in the database using the
// cosine distance operator, so retrieval stays fast as memory volume grows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pgvector/pgvector-go"

	"github.com/attuneai/attune/internal/storage"
	"github.com/attuneai/attune/pkg/types"
)

// Store implements storage.LongTermStore using PostgreSQL and pgvector.
type Store struct {
	db        *sql.DB
	dimension int
}

var _ storage.LongTermStore = (*Store)(nil)

// NewStore connects to PostgreSQL, enables the vector extension, and creates
// the schema. dimension is the embedding width and must match the configured
// embedding provider.
func NewStore(dsn string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive", storage.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, dimension: dimension}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) createSchema() error {
	if _, err := s.db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS memories (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			conversation_id TEXT NOT NULL UNIQUE,
			summary         TEXT NOT NULL,
			emotion         TEXT NOT NULL,
			intensity       DOUBLE PRECISION NOT NULL DEFAULT 0,
			concepts        JSONB,
			importance      DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp       TIMESTAMPTZ NOT NULL,
			embedding       vector(%d),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.dimension)
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_user_time ON memories(user_id, timestamp)`,
	}
	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
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

	query := `
		INSERT INTO memories (
			id, user_id, conversation_id, summary, emotion,
			intensity, concepts, importance, timestamp, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (conversation_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			emotion = EXCLUDED.emotion,
			intensity = EXCLUDED.intensity,
			concepts = EXCLUDED.concepts,
			importance = EXCLUDED.importance,
			timestamp = EXCLUDED.timestamp,
			embedding = EXCLUDED.embedding,
			updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.ConversationID, entry.Summary, entry.Emotion,
		entry.Intensity, string(conceptsJSON), entry.Importance, entry.Timestamp,
		toVector(entry.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert memory: %w", err)
	}

	return nil
}

// Query ranks the user's entries by cosine similarity in the database and
// returns the top k. Ties break by importance then by timestamp.
func (s *Store) Query(ctx context.Context, userID string, embedding []float64, k int) ([]storage.ScoredEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if k <= 0 {
		k = 5
	}

	// <=> is pgvector's cosine distance; similarity is 1 - distance.
	query := `
		SELECT id, user_id, conversation_id, summary, emotion,
		       intensity, concepts, importance, timestamp,
		       1 - (embedding <=> $2) AS similarity
		FROM memories
		WHERE user_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2, importance DESC, timestamp DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, toVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var results []storage.ScoredEntry
	for rows.Next() {
		var (
			entry        types.MemoryEntry
			conceptsJSON sql.NullString
			similarity   float64
		)
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.ConversationID, &entry.Summary, &entry.Emotion,
			&entry.Intensity, &conceptsJSON, &entry.Importance, &entry.Timestamp, &similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		if err := unmarshalConcepts(conceptsJSON, &entry); err != nil {
			return nil, err
		}
		results = append(results, storage.ScoredEntry{Entry: &entry, Similarity: similarity})
	}

	return results, rows.Err()
}

// ListUser returns all entries for userID, newest first.
func (s *Store) ListUser(ctx context.Context, userID string) ([]*types.MemoryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	query := `
		SELECT id, user_id, conversation_id, summary, emotion,
		       intensity, concepts, importance, timestamp
		FROM memories
		WHERE user_id = $1
		ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var entries []*types.MemoryEntry
	for rows.Next() {
		var (
			entry        types.MemoryEntry
			conceptsJSON sql.NullString
		)
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.ConversationID, &entry.Summary, &entry.Emotion,
			&entry.Intensity, &conceptsJSON, &entry.Importance, &entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		if err := unmarshalConcepts(conceptsJSON, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// DeleteUser removes every entry for userID.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user memories: %w", err)
	}
	return nil
}

// Cleanup deletes entries past the retention cutoff unless their importance
// exceeds pinThreshold.
func (s *Store) Cleanup(ctx context.Context, cutoff time.Time, pinThreshold float64) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE timestamp < $1 AND importance <= $2`,
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

// toVector converts a float64 embedding to the pgvector wire type.
func toVector(embedding []float64) pgvector.Vector {
	f32 := make([]float32, len(embedding))
	for i, v := range embedding {
		f32[i] = float32(v)
	}
	return pgvector.NewVector(f32)
}

func unmarshalConcepts(raw sql.NullString, entry *types.MemoryEntry) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), &entry.Concepts); err != nil {
		return fmt.Errorf("failed to unmarshal concepts: %w", err)
	}
	return nil
}
