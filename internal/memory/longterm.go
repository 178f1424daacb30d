package memory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/attuneai/attune/internal/embedding"
	"github.com/attuneai/attune/internal/storage"
	"github.com/attuneai/attune/pkg/types"
)

// Retention defaults. Entries above the pin threshold survive time-based
// cleanup regardless of age.
const (
	DefaultRetentionDays = 365
	DefaultPinThreshold  = 0.7
	DefaultRetrieveK     = 5
)

// LongTerm is the shared consolidation and retrieval pipeline over the
// long-term store. It holds no per-user state and is safe for concurrent use
// as long as the store and provider are.
type LongTerm struct {
	store         storage.LongTermStore
	provider      embedding.Provider
	retentionDays int
	pinThreshold  float64
}

// NewLongTerm creates the pipeline. retentionDays <= 0 and
// pinThreshold <= 0 select the defaults.
func NewLongTerm(store storage.LongTermStore, provider embedding.Provider, retentionDays int, pinThreshold float64) *LongTerm {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if pinThreshold <= 0 {
		pinThreshold = DefaultPinThreshold
	}
	return &LongTerm{
		store:         store,
		provider:      provider,
		retentionDays: retentionDays,
		pinThreshold:  pinThreshold,
	}
}

// Consolidate embeds each entry's summary and upserts it into the store.
// It returns the conversation IDs that were durably written; on error the
// caller keeps the unwritten entries queued and retries on the next trigger.
// Upserts are keyed by conversation ID, so retrying an already-written entry
// replaces rather than duplicates it.
func (lt *LongTerm) Consolidate(ctx context.Context, entries []*types.MemoryEntry) ([]string, error) {
	var committed []string
	for _, entry := range entries {
		vector, err := lt.provider.Embed(ctx, entry.Summary)
		if err != nil {
			return committed, fmt.Errorf("failed to embed summary for conversation %s: %w", entry.ConversationID, err)
		}
		entry.Embedding = vector

		if err := lt.store.Upsert(ctx, entry); err != nil {
			return committed, fmt.Errorf("failed to write conversation %s: %w", entry.ConversationID, err)
		}
		committed = append(committed, entry.ConversationID)
	}
	return committed, nil
}

// Retrieve embeds the query text and returns the user's top-k most similar
// memories.
func (lt *LongTerm) Retrieve(ctx context.Context, userID, query string, k int) ([]storage.ScoredEntry, error) {
	if k <= 0 {
		k = DefaultRetrieveK
	}

	vector, err := lt.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return lt.store.Query(ctx, userID, vector, k)
}

// Cleanup removes entries older than the retention horizon whose importance
// does not exceed the pin threshold.
func (lt *LongTerm) Cleanup(ctx context.Context) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -lt.retentionDays)
	removed, err := lt.store.Cleanup(ctx, cutoff, lt.pinThreshold)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("memory: cleanup removed %d entries older than %s", removed, cutoff.Format(time.DateOnly))
	}
	return removed, nil
}

// ListUser returns all of a user's entries, newest first.
func (lt *LongTerm) ListUser(ctx context.Context, userID string) ([]*types.MemoryEntry, error) {
	return lt.store.ListUser(ctx, userID)
}

// DeleteUser purges all of a user's entries.
func (lt *LongTerm) DeleteUser(ctx context.Context, userID string) error {
	return lt.store.DeleteUser(ctx, userID)
}
