package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/attuneai/attune/internal/storage"
	"github.com/attuneai/attune/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "attune.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func entry(id, userID, convID string, importance float64, at time.Time, vec []float64) *types.MemoryEntry {
	return &types.MemoryEntry{
		ID:             id,
		UserID:         userID,
		ConversationID: convID,
		Summary:        "Conversation " + convID,
		Emotion:        "joy",
		Intensity:      0.5,
		Importance:     importance,
		Concepts:       []string{"work"},
		Timestamp:      at,
		Embedding:      vec,
	}
}

func TestUpsertAndListRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	want := entry("m1", "user-1", "conv-1", 0.6, at, []float64{0.5, 0.5, 0.0})
	if err := store.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	entries, err := store.ListUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Summary != want.Summary || got.Emotion != want.Emotion || got.Importance != want.Importance {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Embedding) != 3 || got.Embedding[0] != 0.5 {
		t.Errorf("embedding lost: %v", got.Embedding)
	}
	if len(got.Concepts) != 1 || got.Concepts[0] != "work" {
		t.Errorf("concepts lost: %v", got.Concepts)
	}
}

func TestUpsertIsIdempotentPerConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Now().UTC()

	first := entry("m1", "user-1", "conv-1", 0.4, at, nil)
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}

	// Retried consolidation writes the same conversation with fresh scores.
	second := entry("m2", "user-1", "conv-1", 0.8, at, nil)
	second.Summary = "Updated summary"
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatal(err)
	}

	entries, err := store.ListUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("retry duplicated the conversation: %d rows", len(entries))
	}
	if entries[0].Summary != "Updated summary" || entries[0].Importance != 0.8 {
		t.Errorf("upsert did not replace fields: %+v", entries[0])
	}
}

func TestUpsertValidatesInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil entry: got %v", err)
	}
	bad := entry("", "user-1", "conv-1", 0.5, time.Now(), nil)
	if err := store.Upsert(ctx, bad); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("missing id: got %v", err)
	}
}

func TestQueryRanksBySimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Now().UTC()

	if err := store.Upsert(ctx, entry("m1", "user-1", "conv-close", 0.5, at, []float64{1, 0, 0})); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, entry("m2", "user-1", "conv-far", 0.5, at, []float64{0, 1, 0})); err != nil {
		t.Fatal(err)
	}
	// Another user's entry must never surface.
	if err := store.Upsert(ctx, entry("m3", "user-2", "conv-other", 0.5, at, []float64{1, 0, 0})); err != nil {
		t.Fatal(err)
	}

	results, err := store.Query(ctx, "user-1", []float64{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Entry.ConversationID != "conv-close" {
		t.Errorf("expected conv-close first, got %s", results[0].Entry.ConversationID)
	}
	if results[0].Similarity <= results[1].Similarity {
		t.Errorf("results not ranked: %v then %v", results[0].Similarity, results[1].Similarity)
	}
	for _, r := range results {
		if r.Entry.UserID != "user-1" {
			t.Errorf("cross-user leak: %+v", r.Entry)
		}
	}
}

func TestQueryTiesBreakByImportance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Now().UTC()

	vec := []float64{1, 0}
	low := entry("m1", "user-1", "conv-low", 0.2, at, vec)
	high := entry("m2", "user-1", "conv-high", 0.9, at, vec)
	if err := store.Upsert(ctx, low); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, high); err != nil {
		t.Fatal(err)
	}

	results, err := store.Query(ctx, "user-1", vec, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Entry.ConversationID != "conv-high" {
		t.Errorf("importance tie-break failed: got %s", results[0].Entry.ConversationID)
	}
}

func TestQueryEmptyUserIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Query(context.Background(), "nobody", []float64{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestCleanupKeepsPinnedEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -400)
	if err := store.Upsert(ctx, entry("m1", "user-1", "conv-pinned", 0.9, old, nil)); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, entry("m2", "user-1", "conv-stale", 0.3, old, nil)); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, entry("m3", "user-1", "conv-recent", 0.3, time.Now().UTC(), nil)); err != nil {
		t.Fatal(err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -365)
	removed, err := store.Cleanup(ctx, cutoff, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	entries, err := store.ListUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	remaining := make(map[string]bool, len(entries))
	for _, e := range entries {
		remaining[e.ConversationID] = true
	}
	if !remaining["conv-pinned"] {
		t.Error("high-importance entry must survive cleanup")
	}
	if !remaining["conv-recent"] {
		t.Error("recent entry must survive cleanup")
	}
	if remaining["conv-stale"] {
		t.Error("stale low-importance entry should be gone")
	}
}

func TestDeleteUserRemovesOnlyThatUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Now().UTC()

	if err := store.Upsert(ctx, entry("m1", "user-1", "conv-1", 0.5, at, nil)); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, entry("m2", "user-2", "conv-2", 0.5, at, nil)); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteUser(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}

	gone, err := store.ListUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(gone) != 0 {
		t.Errorf("user-1 entries survived: %d", len(gone))
	}
	kept, err := store.ListUser(ctx, "user-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != 1 {
		t.Errorf("user-2 entries affected: %d", len(kept))
	}

	// Deleting an unknown user is a no-op.
	if err := store.DeleteUser(ctx, "ghost"); err != nil {
		t.Errorf("unexpected error for unknown user: %v", err)
	}
}
