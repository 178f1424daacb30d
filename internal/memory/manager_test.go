package memory

import (
	"testing"
	"time"

	"github.com/attuneai/attune/pkg/types"
)

func userTurn(at time.Time, text, emotion string, intensity float64, concepts ...string) types.ConversationTurn {
	return types.ConversationTurn{
		Timestamp: at,
		Text:      text,
		Emotion:   emotion,
		Intensity: intensity,
		Concepts:  concepts,
		Speaker:   types.SpeakerUser,
	}
}

func TestBufferDropsOldestWhenFull(t *testing.T) {
	m := NewManager("user-1", Options{Window: 3})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		m.AddTurn(userTurn(base.Add(time.Duration(i)*time.Second), "msg", "neutral", 0.1))
	}

	turns := m.RecentTurns(0)
	if len(turns) != 3 {
		t.Fatalf("expected 3 buffered turns, got %d", len(turns))
	}
	if !turns[0].Timestamp.Equal(base.Add(2 * time.Second)) {
		t.Errorf("oldest turns were not dropped: first is %v", turns[0].Timestamp)
	}
}

func TestConsolidationTriggerEveryN(t *testing.T) {
	m := NewManager("user-1", Options{ConsolidateEvery: 5})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if m.AddTurn(userTurn(base.Add(time.Duration(i)*time.Second), "msg", "joy", 0.5)) {
			t.Fatalf("turn %d triggered early", i)
		}
	}
	if !m.AddTurn(userTurn(base.Add(5*time.Second), "msg", "joy", 0.5)) {
		t.Fatal("fifth turn did not trigger consolidation check")
	}
	// Counter resets after a trigger.
	if m.AddTurn(userTurn(base.Add(6*time.Second), "msg", "joy", 0.5)) {
		t.Fatal("counter did not reset after trigger")
	}
}

func TestInactivitySegmentsConversation(t *testing.T) {
	m := NewManager("user-1", Options{InactivityTimeout: 30 * time.Minute})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	m.AddTurn(userTurn(base, "first conversation", "joy", 0.5, "work"))
	m.AddTurn(userTurn(base.Add(time.Minute), "still first", "joy", 0.5))

	// 31 minutes later: previous conversation closes, a new one opens.
	m.AddTurn(userTurn(base.Add(32*time.Minute), "second conversation", "sadness", 0.3))

	if m.PendingCount() != 1 {
		t.Fatalf("expected 1 pending conversation, got %d", m.PendingCount())
	}

	pending := m.SnapshotPending()
	if pending[0].Emotion != "joy" {
		t.Errorf("expected dominant emotion joy, got %s", pending[0].Emotion)
	}
	if !pending[0].Timestamp.Equal(base) {
		t.Errorf("entry timestamp should be conversation start, got %v", pending[0].Timestamp)
	}
}

func TestEndSessionSegments(t *testing.T) {
	m := NewManager("user-1", Options{})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if m.EndSession() {
		t.Fatal("empty session should have nothing pending")
	}

	m.AddTurn(userTurn(base, "hello there", "neutral", 0.1))
	if !m.EndSession() {
		t.Fatal("expected pending conversation after end")
	}
	if m.PendingCount() != 1 {
		t.Fatalf("expected 1 pending, got %d", m.PendingCount())
	}
}

func TestImportanceFormula(t *testing.T) {
	m := NewManager("user-1", Options{})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// 4 user turns at intensity 0.5, 2 concepts, 2 emotions.
	m.AddTurn(userTurn(base, "a", "anger", 0.5, "work"))
	m.AddTurn(userTurn(base.Add(time.Minute), "b", "anger", 0.5, "deadline"))
	m.AddTurn(userTurn(base.Add(2*time.Minute), "c", "fear", 0.5))
	m.AddTurn(userTurn(base.Add(3*time.Minute), "d", "fear", 0.5, "work"))
	m.EndSession()

	entry := m.SnapshotPending()[0]

	// 0.4*0.5 + 0.2*(4/20) + 0.2*(2/10) + 0.2*(2/5) = 0.36
	want := 0.36
	if diff := entry.Importance - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("importance = %v, want %v", entry.Importance, want)
	}
	if entry.Intensity != 0.5 {
		t.Errorf("intensity = %v, want 0.5", entry.Intensity)
	}
	if len(entry.Concepts) != 2 {
		t.Errorf("expected 2 unique concepts, got %v", entry.Concepts)
	}
}

func TestSystemTurnsCountForSizeNotIntensity(t *testing.T) {
	m := NewManager("user-1", Options{})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	m.AddTurn(userTurn(base, "I'm stressed", "fear", 0.8))
	m.AddTurn(types.ConversationTurn{
		Timestamp: base.Add(time.Second),
		Text:      "that sounds hard",
		Emotion:   "neutral",
		Speaker:   types.SpeakerSystem,
	})
	m.EndSession()

	entry := m.SnapshotPending()[0]
	// Average intensity uses user turns only.
	if entry.Intensity != 0.8 {
		t.Errorf("system turn polluted intensity: %v", entry.Intensity)
	}
}

func TestSummaryText(t *testing.T) {
	m := NewManager("user-1", Options{})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	m.AddTurn(userTurn(base, "deadline stress", "anger", 0.7, "deadline", "work"))
	m.AddTurn(userTurn(base.Add(10*time.Minute), "more stress", "anger", 0.7))
	m.EndSession()

	summary := m.SnapshotPending()[0].Summary
	for _, want := range []string{"2 messages", "10m", "anger", "deadline"} {
		if !contains(summary, want) {
			t.Errorf("summary %q missing %q", summary, want)
		}
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestCommitConsolidatedClearsOnlyWritten(t *testing.T) {
	m := NewManager("user-1", Options{InactivityTimeout: time.Minute})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	m.AddTurn(userTurn(base, "one", "joy", 0.5))
	m.AddTurn(userTurn(base.Add(5*time.Minute), "two", "fear", 0.5))
	m.AddTurn(userTurn(base.Add(10*time.Minute), "three", "anger", 0.5))
	m.EndSession()

	if m.PendingCount() != 3 {
		t.Fatalf("expected 3 pending, got %d", m.PendingCount())
	}

	snapshot := m.SnapshotPending()
	m.CommitConsolidated([]string{snapshot[0].ConversationID, snapshot[2].ConversationID})

	if m.PendingCount() != 1 {
		t.Fatalf("expected 1 retained, got %d", m.PendingCount())
	}
	if m.SnapshotPending()[0].ConversationID != snapshot[1].ConversationID {
		t.Error("wrong conversation retained")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewManager("user-1", Options{})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	m.AddTurn(userTurn(base, "hello", "joy", 0.5))
	m.EndSession()

	snapshot := m.SnapshotPending()
	snapshot[0].Embedding = []float64{1, 2, 3}

	if m.SnapshotPending()[0].Embedding != nil {
		t.Error("mutating a snapshot leaked into the pending queue")
	}
}

func TestSegmentIdle(t *testing.T) {
	m := NewManager("user-1", Options{InactivityTimeout: 30 * time.Minute})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return base })

	m.AddTurn(userTurn(base, "hello", "joy", 0.5))

	if m.SegmentIdle() {
		t.Fatal("active conversation must not segment")
	}

	m.SetClock(func() time.Time { return base.Add(31 * time.Minute) })
	if !m.SegmentIdle() {
		t.Fatal("idle conversation should segment")
	}
	if m.PendingCount() != 1 {
		t.Errorf("expected 1 pending, got %d", m.PendingCount())
	}
}
