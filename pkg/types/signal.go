package types

// EmotionSignal is the fused output of lexical and classifier-based emotion
// scoring for a single utterance. It is ephemeral: signals are consumed by
// the profile graph and memory store and are not persisted themselves.
type EmotionSignal struct {
	// Primary is the arg-max emotion of AllEmotions. Ties resolve to the
	// first emotion in canonical catalog order.
	Primary string `json:"primary"`

	// Confidence is the normalized score of the primary emotion (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// AllEmotions is the full L1-normalized score distribution. When no
	// signal fires at all it is exactly {"neutral": 1.0}.
	AllEmotions map[string]float64 `json:"all_emotions"`

	// Intensity is the overall emotional intensity (0.0 to 1.0), combining
	// the strongest emotion score with textual intensity markers.
	Intensity float64 `json:"intensity"`

	// Valence is the pleasantness dimension (-1.0 to 1.0), scaled by intensity.
	Valence float64 `json:"valence"`

	// Arousal is the activation dimension (0.0 to 1.0), scaled by intensity.
	Arousal float64 `json:"arousal"`

	// BodySensations lists body regions mentioned in the utterance.
	BodySensations []string `json:"body_sensations,omitempty"`

	// Triggers lists candidate trigger phrases extracted after causal
	// connectives such as "because" or "since".
	Triggers []string `json:"triggers,omitempty"`

	// Degraded is true when the external classifier failed or timed out and
	// the signal was produced from lexical scores alone.
	Degraded bool `json:"degraded,omitempty"`
}

// Neutral returns the signal emitted when no emotion keyword or classifier
// label fires: a single neutral entry at full weight.
func Neutral() *EmotionSignal {
	return &EmotionSignal{
		Primary:     "neutral",
		Confidence:  1.0,
		AllEmotions: map[string]float64{"neutral": 1.0},
	}
}
