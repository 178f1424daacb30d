package types

import (
	"time"
)

// EmotionRecord accumulates per-user statistics for one emotion.
// Frequency is monotonically non-decreasing for the lifetime of the user
// unless the user requests deletion of all data.
type EmotionRecord struct {
	// Emotion is the emotion name this record tracks.
	Emotion string `json:"emotion"`

	// Frequency counts how many turns featured this emotion.
	Frequency int `json:"frequency"`

	// IntensitySum is the running sum of detected intensities.
	IntensitySum float64 `json:"intensity_sum"`

	// LastOccurrence is when the emotion was last detected. Zero until first seen.
	LastOccurrence time.Time `json:"last_occurrence"`

	// CopingEffectiveness maps strategy name to last reported effectiveness
	// (0.0 to 1.0).
	CopingEffectiveness map[string]float64 `json:"coping_effectiveness,omitempty"`
}

// AvgIntensity returns the mean intensity across occurrences, or 0 when the
// emotion has never been seen.
func (r *EmotionRecord) AvgIntensity() float64 {
	if r.Frequency < 1 {
		return r.IntensitySum
	}
	return r.IntensitySum / float64(r.Frequency)
}

// DaysSinceLast returns the number of days since the last occurrence
// relative to now. Returns a very large value when never seen.
func (r *EmotionRecord) DaysSinceLast(now time.Time) float64 {
	if r.LastOccurrence.IsZero() {
		return neverSeenDays
	}
	return now.Sub(r.LastOccurrence).Hours() / 24.0
}

// neverSeenDays stands in for "infinitely long ago" so that recency factors
// collapse to ~0 without special-casing zero timestamps at call sites.
const neverSeenDays = 1e6

// ConceptRecord accumulates per-user statistics for one concept.
type ConceptRecord struct {
	// Concept is the concept name this record tracks.
	Concept string `json:"concept"`

	// Category groups the concept (work, family, health, hobby, ...).
	// "unknown" for concepts first seen in conversation.
	Category string `json:"category"`

	// EmotionalAssociations maps emotion name to association strength
	// (0.0 to 1.0). Seeded from the knowledge graph or onboarding.
	EmotionalAssociations map[string]float64 `json:"emotional_associations,omitempty"`

	// Frequency counts how many turns mentioned this concept.
	Frequency int `json:"frequency"`

	// LastMentioned is when the concept was last mentioned.
	LastMentioned time.Time `json:"last_mentioned"`

	// Importance is frequency weighted by recency, clamped to [0.0, 1.0].
	// Recomputed on every mention.
	Importance float64 `json:"importance"`

	// UserSpecific is true for concepts added for this user rather than
	// inherited from the static catalog. Only user-specific concepts are
	// eligible for eviction.
	UserSpecific bool `json:"user_specific,omitempty"`
}

// DaysSinceLast returns the number of days since the concept was last
// mentioned relative to now.
func (c *ConceptRecord) DaysSinceLast(now time.Time) float64 {
	if c.LastMentioned.IsZero() {
		return neverSeenDays
	}
	return now.Sub(c.LastMentioned).Hours() / 24.0
}

// RecomputeImportance updates Importance from frequency and recency:
// frequency scaled by 1/(1+daysSinceLast), clamped to [0.0, 1.0].
func (c *ConceptRecord) RecomputeImportance(now time.Time) {
	recency := 1.0 / (1.0 + c.DaysSinceLast(now))
	c.Importance = ClampUnit(float64(c.Frequency) * recency)
}

// Pattern is a mined regularity in a user's emotional life. Patterns are
// deduplicated by their exact description string.
type Pattern struct {
	// Type classifies the pattern (trigger or coping).
	Type PatternType `json:"type"`

	// Description is the human-readable pattern statement and dedup key.
	Description string `json:"description"`

	// Confidence is how established the pattern is (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Frequency is the supporting observation count.
	Frequency int `json:"frequency"`

	// LastObserved is when the pattern was last reinforced.
	LastObserved time.Time `json:"last_observed"`

	// Examples holds illustrative snippets.
	Examples []string `json:"examples,omitempty"`
}

// UserProfile holds onboarding-derived facts about a user.
type UserProfile struct {
	UserID               string   `json:"user_id"`
	OnboardingComplete   bool     `json:"onboarding_complete"`
	PreferredCopingStyle string   `json:"preferred_coping_style"`
	AwarenessLevel       string   `json:"awareness_level"`
	SupportNetwork       []string `json:"support_network,omitempty"`
	Goals                []string `json:"goals,omitempty"`
	Values               []string `json:"values,omitempty"`
}

// OnboardingData is the input to profile seeding on first contact.
type OnboardingData struct {
	Stressors        []string `json:"stressors,omitempty"`
	Supports         []string `json:"supports,omitempty"`
	Hobbies          []string `json:"hobbies,omitempty"`
	CopingStrategies []string `json:"coping_strategies,omitempty"`
	CopingStyle      string   `json:"coping_style,omitempty"`
	AwarenessLevel   string   `json:"awareness_level,omitempty"`
	SupportNetwork   []string `json:"support_network,omitempty"`
	Goals            []string `json:"goals,omitempty"`
	Values           []string `json:"values,omitempty"`
}

// ProfileExport is the data-portability format. It must round-trip through
// ImportProfile without loss (embeddings excepted; they are recomputed).
type ProfileExport struct {
	Profile         UserProfile     `json:"profile"`
	Emotions        []EmotionRecord `json:"emotions"`
	Concepts        []ConceptRecord `json:"concepts"`
	Patterns        []Pattern       `json:"patterns"`
	MemorySummaries []MemoryEntry   `json:"memory_summaries"`
}
