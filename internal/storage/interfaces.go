// Package storage defines the long-term memory store abstraction and its
// shared options and errors. Implementations live in the sqlite and
// postgres subpackages; both must be safe for concurrent use, since the
// store's connection pool is the only mutable state shared across users.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/attuneai/attune/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// ScoredEntry pairs a retrieved memory entry with its similarity to the
// query embedding (0.0 to 1.0 for cosine similarity on normalized vectors).
type ScoredEntry struct {
	Entry      *types.MemoryEntry
	Similarity float64
}

// LongTermStore persists consolidated memory entries and serves
// similarity-ranked retrieval.
type LongTermStore interface {
	// Upsert writes an entry keyed by its ConversationID. Re-writing the
	// same conversation replaces the previous entry, which makes
	// at-least-once consolidation retries idempotent.
	Upsert(ctx context.Context, entry *types.MemoryEntry) error

	// Query returns up to k entries for userID ranked by descending
	// similarity to the given embedding. Ties break by higher importance,
	// then by more recent timestamp. An empty result is not an error.
	Query(ctx context.Context, userID string, embedding []float64, k int) ([]ScoredEntry, error)

	// ListUser returns all entries for userID ordered by timestamp
	// descending. Used by profile export.
	ListUser(ctx context.Context, userID string) ([]*types.MemoryEntry, error)

	// DeleteUser removes all entries for userID. Deleting an unknown user
	// is not an error.
	DeleteUser(ctx context.Context, userID string) error

	// Cleanup deletes entries older than cutoff whose importance does not
	// exceed pinThreshold, returning the number of rows removed.
	Cleanup(ctx context.Context, cutoff time.Time, pinThreshold float64) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
