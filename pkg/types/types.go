// Package types defines the shared data model for the Attune engine:
// emotion signals, conversation turns, memory entries, and per-user
// profile records. All score-like values are clamped to their documented
// ranges at construction and update time rather than validated lazily.
package types

// ClampUnit clamps v to the [0.0, 1.0] range used by scores, strengths,
// and importance values throughout the system.
func ClampUnit(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// ClampValence clamps v to the [-1.0, 1.0] valence range.
func ClampValence(v float64) float64 {
	if v < -1.0 {
		return -1.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	// SpeakerUser marks a turn authored by the user.
	SpeakerUser Speaker = "user"

	// SpeakerSystem marks a turn authored by the system (response generator).
	SpeakerSystem Speaker = "system"
)

// PatternType classifies a mined emotional pattern.
type PatternType string

const (
	// PatternTrigger marks a "concept often triggers emotion" pattern.
	PatternTrigger PatternType = "trigger"

	// PatternCoping marks an "effective coping strategies for emotion" pattern.
	PatternCoping PatternType = "coping"
)
