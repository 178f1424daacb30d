package types

import (
	"time"
)

// ConversationTurn is the unit held in the short-term buffer. Turns are
// cheap, unscored, and silently dropped when the buffer window is full.
type ConversationTurn struct {
	// Timestamp is when the turn was processed.
	Timestamp time.Time `json:"timestamp"`

	// Text is the raw utterance.
	Text string `json:"text"`

	// Emotion is the primary emotion detected for the turn.
	Emotion string `json:"emotion"`

	// Intensity is the detected intensity (0.0 to 1.0).
	Intensity float64 `json:"intensity"`

	// Concepts lists concepts extracted from the turn.
	Concepts []string `json:"concepts,omitempty"`

	// Speaker identifies whether the user or the system produced the turn.
	Speaker Speaker `json:"speaker"`
}

// MemoryEntry is a consolidated long-term memory: one scored, embedded
// summary per closed conversation.
type MemoryEntry struct {
	// ID uniquely identifies the entry.
	ID string `json:"id"`

	// UserID is the owning user. Retrieval is always filtered to one user.
	UserID string `json:"user_id"`

	// ConversationID identifies the source conversation. Consolidation
	// upserts keyed by this value, making crash-retries idempotent.
	ConversationID string `json:"conversation_id"`

	// Summary is the textual conversation summary the embedding is computed from.
	Summary string `json:"summary"`

	// Emotion is the dominant emotion of the conversation.
	Emotion string `json:"emotion"`

	// Intensity is the mean turn intensity (0.0 to 1.0).
	Intensity float64 `json:"intensity"`

	// Concepts lists the unique concepts discussed.
	Concepts []string `json:"concepts,omitempty"`

	// Importance estimates long-term retention value (0.0 to 1.0).
	// Entries above the pinning threshold survive time-based cleanup.
	Importance float64 `json:"importance"`

	// Timestamp is when the source conversation started.
	Timestamp time.Time `json:"timestamp"`

	// Embedding is the vector for the summary text. Omitted from exports.
	Embedding []float64 `json:"-"`
}

// NewMemoryEntry builds a MemoryEntry with importance and intensity clamped
// to [0.0, 1.0].
func NewMemoryEntry(id, userID, conversationID, summary, emotion string, intensity, importance float64, concepts []string, ts time.Time) *MemoryEntry {
	return &MemoryEntry{
		ID:             id,
		UserID:         userID,
		ConversationID: conversationID,
		Summary:        summary,
		Emotion:        emotion,
		Intensity:      ClampUnit(intensity),
		Concepts:       concepts,
		Importance:     ClampUnit(importance),
		Timestamp:      ts,
	}
}
