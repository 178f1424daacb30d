package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/attuneai/attune/internal/storage"
	"github.com/attuneai/attune/pkg/types"
)

// fakeStore records upserts in memory and can fail on demand.
type fakeStore struct {
	entries  map[string]*types.MemoryEntry
	failOn   string
	upserts  int
	lastK    int
	lastUser string
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*types.MemoryEntry)}
}

func (s *fakeStore) Upsert(ctx context.Context, entry *types.MemoryEntry) error {
	if entry.ConversationID == s.failOn {
		return errors.New("disk full")
	}
	s.upserts++
	cp := *entry
	s.entries[entry.ConversationID] = &cp
	return nil
}

func (s *fakeStore) Query(ctx context.Context, userID string, vector []float64, k int) ([]storage.ScoredEntry, error) {
	s.lastUser, s.lastK = userID, k
	var out []storage.ScoredEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, storage.ScoredEntry{Entry: e, Similarity: 1.0})
		}
	}
	return out, nil
}

func (s *fakeStore) ListUser(ctx context.Context, userID string) ([]*types.MemoryEntry, error) {
	var out []*types.MemoryEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteUser(ctx context.Context, userID string) error {
	for id, e := range s.entries {
		if e.UserID == userID {
			delete(s.entries, id)
		}
	}
	return nil
}

func (s *fakeStore) Cleanup(ctx context.Context, olderThan time.Time, pinThreshold float64) (int, error) {
	removed := 0
	for id, e := range s.entries {
		if e.Timestamp.Before(olderThan) && e.Importance <= pinThreshold {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) Close() error { return nil }

// fakeProvider embeds everything to a fixed vector.
type fakeProvider struct {
	err   error
	calls int
}

func (p *fakeProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

func (p *fakeProvider) Dimension() int { return 3 }

func (p *fakeProvider) GetModel() string { return "fake" }

func pendingEntry(userID, convID string) *types.MemoryEntry {
	return types.NewMemoryEntry(
		convID+"-mem", userID, convID,
		"Conversation about "+convID, "joy", 0.5, 0.5,
		[]string{"work"}, time.Now(),
	)
}

func TestConsolidateEmbedsAndWrites(t *testing.T) {
	store := newFakeStore()
	lt := NewLongTerm(store, &fakeProvider{}, 0, 0)

	entries := []*types.MemoryEntry{
		pendingEntry("user-1", "conv-a"),
		pendingEntry("user-1", "conv-b"),
	}
	committed, err := lt.Consolidate(context.Background(), entries)
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	if len(committed) != 2 {
		t.Fatalf("expected 2 committed IDs, got %v", committed)
	}
	if got := store.entries["conv-a"]; got == nil || len(got.Embedding) != 3 {
		t.Error("stored entry missing its embedding")
	}
}

func TestConsolidateStopsAtFirstFailure(t *testing.T) {
	store := newFakeStore()
	store.failOn = "conv-b"
	lt := NewLongTerm(store, &fakeProvider{}, 0, 0)

	entries := []*types.MemoryEntry{
		pendingEntry("user-1", "conv-a"),
		pendingEntry("user-1", "conv-b"),
		pendingEntry("user-1", "conv-c"),
	}
	committed, err := lt.Consolidate(context.Background(), entries)
	if err == nil {
		t.Fatal("expected write error")
	}
	if len(committed) != 1 || committed[0] != "conv-a" {
		t.Errorf("expected only conv-a committed, got %v", committed)
	}
}

func TestConsolidateIdempotentOnRetry(t *testing.T) {
	store := newFakeStore()
	lt := NewLongTerm(store, &fakeProvider{}, 0, 0)

	entry := pendingEntry("user-1", "conv-a")
	if _, err := lt.Consolidate(context.Background(), []*types.MemoryEntry{entry}); err != nil {
		t.Fatal(err)
	}
	if _, err := lt.Consolidate(context.Background(), []*types.MemoryEntry{entry}); err != nil {
		t.Fatal(err)
	}
	if len(store.entries) != 1 {
		t.Errorf("retry duplicated the entry: %d rows", len(store.entries))
	}
}

func TestConsolidateEmbeddingFailure(t *testing.T) {
	store := newFakeStore()
	lt := NewLongTerm(store, &fakeProvider{err: errors.New("model not loaded")}, 0, 0)

	committed, err := lt.Consolidate(context.Background(), []*types.MemoryEntry{pendingEntry("user-1", "conv-a")})
	if err == nil {
		t.Fatal("expected embedding error")
	}
	if len(committed) != 0 || store.upserts != 0 {
		t.Error("nothing should be written when embedding fails")
	}
}

func TestRetrieveDefaultsK(t *testing.T) {
	store := newFakeStore()
	lt := NewLongTerm(store, &fakeProvider{}, 0, 0)

	if _, err := lt.Retrieve(context.Background(), "user-1", "how is work going", 0); err != nil {
		t.Fatal(err)
	}
	if store.lastK != DefaultRetrieveK {
		t.Errorf("expected k=%d, got %d", DefaultRetrieveK, store.lastK)
	}
	if store.lastUser != "user-1" {
		t.Errorf("query scoped to wrong user: %s", store.lastUser)
	}
}

func TestCleanupKeepsPinnedEntries(t *testing.T) {
	store := newFakeStore()
	lt := NewLongTerm(store, &fakeProvider{}, 365, 0.7)

	old := time.Now().AddDate(0, 0, -400)
	pinned := pendingEntry("user-1", "conv-pinned")
	pinned.Importance = 0.9
	pinned.Timestamp = old
	stale := pendingEntry("user-1", "conv-stale")
	stale.Importance = 0.3
	stale.Timestamp = old
	store.entries["conv-pinned"] = pinned
	store.entries["conv-stale"] = stale

	removed, err := lt.Cleanup(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if store.entries["conv-pinned"] == nil {
		t.Error("high-importance entry must survive cleanup")
	}
	if store.entries["conv-stale"] != nil {
		t.Error("stale low-importance entry should be gone")
	}
}
