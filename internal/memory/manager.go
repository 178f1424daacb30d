// Package memory implements the two-tier memory model: a per-user Manager
// holding the short-term turn buffer and conversation segmentation, and a
// shared LongTerm pipeline that embeds scored conversations into the
// long-term store and serves similarity retrieval.
//
// A Manager is owned by exactly one session and is not safe for concurrent
// use; the session serializes access. Consolidation never holds the session
// lock while embedding: the engine snapshots pending entries under the lock,
// consolidates outside it, then commits the written conversation IDs.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/attuneai/attune/pkg/types"
)

// Options configures a Manager. Zero values select the defaults.
type Options struct {
	// Window is the short-term buffer capacity in turns. Oldest turns drop
	// silently when full.
	Window int

	// ConsolidateEvery triggers a consolidation check after this many turns.
	ConsolidateEvery int

	// InactivityTimeout closes the current conversation when no turn arrives
	// within it.
	InactivityTimeout time.Duration
}

// Normalize fills in defaults for unset fields.
func (o *Options) Normalize() {
	if o.Window <= 0 {
		o.Window = 100
	}
	if o.ConsolidateEvery <= 0 {
		o.ConsolidateEvery = 5
	}
	if o.InactivityTimeout <= 0 {
		o.InactivityTimeout = 30 * time.Minute
	}
}

// conversation accumulates the turns of one not-yet-closed conversation.
type conversation struct {
	id           string
	startedAt    time.Time
	lastActivity time.Time
	turns        []types.ConversationTurn
}

// Manager holds one user's short-term memory and pending consolidation queue.
type Manager struct {
	userID string
	opts   Options

	buffer  []types.ConversationTurn
	current *conversation

	// pending holds scored conversations awaiting consolidation. Entries
	// leave the queue only after a confirmed long-term write.
	pending []*types.MemoryEntry

	turnsSinceCheck int
	now             func() time.Time
}

// NewManager creates a Manager for userID.
func NewManager(userID string, opts Options) *Manager {
	opts.Normalize()
	return &Manager{
		userID: userID,
		opts:   opts,
		now:    time.Now,
	}
}

// SetClock overrides the time source for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// AddTurn appends a turn to the short-term buffer and the current
// conversation, opening a new conversation if none is active or the previous
// one timed out. The return value reports whether a consolidation check is
// due.
func (m *Manager) AddTurn(turn types.ConversationTurn) bool {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = m.now()
	}

	if m.current != nil && turn.Timestamp.Sub(m.current.lastActivity) > m.opts.InactivityTimeout {
		m.segment()
	}
	if m.current == nil {
		m.current = &conversation{
			id:        uuid.NewString(),
			startedAt: turn.Timestamp,
		}
	}
	m.current.lastActivity = turn.Timestamp
	m.current.turns = append(m.current.turns, turn)

	m.buffer = append(m.buffer, turn)
	if len(m.buffer) > m.opts.Window {
		m.buffer = m.buffer[len(m.buffer)-m.opts.Window:]
	}

	m.turnsSinceCheck++
	if m.turnsSinceCheck >= m.opts.ConsolidateEvery {
		m.turnsSinceCheck = 0
		return true
	}
	return false
}

// EndSession closes the current conversation. Returns true when there is
// anything pending to consolidate.
func (m *Manager) EndSession() bool {
	m.segment()
	m.turnsSinceCheck = 0
	return len(m.pending) > 0
}

// SegmentIdle closes the current conversation if it has been inactive past
// the timeout. The background scheduler calls this so abandoned sessions
// still consolidate. Returns true when a conversation was closed.
func (m *Manager) SegmentIdle() bool {
	if m.current == nil || m.now().Sub(m.current.lastActivity) <= m.opts.InactivityTimeout {
		return false
	}
	m.segment()
	return true
}

// segment scores the current conversation and moves it to the pending queue.
func (m *Manager) segment() {
	if m.current == nil {
		return
	}
	conv := m.current
	m.current = nil
	if len(conv.turns) == 0 {
		return
	}
	m.pending = append(m.pending, m.score(conv))
}

// score turns a closed conversation into an unembedded MemoryEntry.
func (m *Manager) score(conv *conversation) *types.MemoryEntry {
	var (
		intensitySum  float64
		userTurns     int
		emotionCounts = make(map[string]int)
		conceptSet    = make(map[string]bool)
	)

	for _, turn := range conv.turns {
		if turn.Speaker == types.SpeakerUser {
			userTurns++
			intensitySum += turn.Intensity
		}
		if turn.Emotion != "" {
			emotionCounts[turn.Emotion]++
		}
		for _, concept := range turn.Concepts {
			conceptSet[concept] = true
		}
	}

	avgIntensity := 0.0
	if userTurns > 0 {
		avgIntensity = intensitySum / float64(userTurns)
	}

	importance := 0.4*avgIntensity +
		0.2*min(float64(len(conv.turns))/20.0, 1.0) +
		0.2*min(float64(len(conceptSet))/10.0, 1.0) +
		0.2*min(float64(len(emotionCounts))/5.0, 1.0)

	concepts := make([]string, 0, len(conceptSet))
	for concept := range conceptSet {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)

	dominant := dominantEmotion(emotionCounts)
	summary := summarize(conv, dominant, concepts)

	return types.NewMemoryEntry(
		uuid.NewString(), m.userID, conv.id,
		summary, dominant, avgIntensity, importance,
		concepts, conv.startedAt,
	)
}

// dominantEmotion picks the most frequent emotion, preferring non-neutral
// ones. Ties resolve alphabetically.
func dominantEmotion(counts map[string]int) string {
	best, bestCount := "neutral", 0
	for _, emotion := range sortedEmotionKeys(counts) {
		if emotion == "neutral" {
			continue
		}
		if counts[emotion] > bestCount {
			best, bestCount = emotion, counts[emotion]
		}
	}
	return best
}

func sortedEmotionKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// summarize produces the summary text that gets embedded.
func summarize(conv *conversation, dominant string, concepts []string) string {
	duration := conv.lastActivity.Sub(conv.startedAt).Round(time.Minute)
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation with %d messages over %s. Dominant emotion: %s.",
		len(conv.turns), duration, dominant)
	if len(concepts) > 0 {
		shown := concepts
		if len(shown) > 5 {
			shown = shown[:5]
		}
		fmt.Fprintf(&b, " Topics: %s.", strings.Join(shown, ", "))
	}
	return b.String()
}

// RecentTurns returns up to n of the most recent buffered turns, oldest
// first. n <= 0 returns the whole buffer.
func (m *Manager) RecentTurns(n int) []types.ConversationTurn {
	if n <= 0 || n > len(m.buffer) {
		n = len(m.buffer)
	}
	out := make([]types.ConversationTurn, n)
	copy(out, m.buffer[len(m.buffer)-n:])
	return out
}

// PendingCount reports the size of the consolidation queue.
func (m *Manager) PendingCount() int {
	return len(m.pending)
}

// SnapshotPending copies the pending queue for out-of-lock consolidation.
// The queue itself is untouched; call CommitConsolidated with the written
// conversation IDs afterwards.
func (m *Manager) SnapshotPending() []*types.MemoryEntry {
	if len(m.pending) == 0 {
		return nil
	}
	snapshot := make([]*types.MemoryEntry, len(m.pending))
	for i, entry := range m.pending {
		cp := *entry
		snapshot[i] = &cp
	}
	return snapshot
}

// CommitConsolidated removes the conversations whose IDs were durably
// written. Entries not named stay queued for the next trigger.
func (m *Manager) CommitConsolidated(conversationIDs []string) {
	if len(conversationIDs) == 0 {
		return
	}
	done := make(map[string]bool, len(conversationIDs))
	for _, id := range conversationIDs {
		done[id] = true
	}

	kept := m.pending[:0]
	for _, entry := range m.pending {
		if !done[entry.ConversationID] {
			kept = append(kept, entry)
		}
	}
	for i := len(kept); i < len(m.pending); i++ {
		m.pending[i] = nil
	}
	m.pending = kept
}
