// Package classifier defines the pluggable emotion-classifier capability and
// its implementations. The engine never depends on a concrete classifier:
// any implementation failure degrades a turn to lexical-only scoring.
package classifier

import "context"

// Prediction is one label/score pair from an external classifier.
type Prediction struct {
	// Label is the classifier's own label name. The fusion layer maps it
	// onto the internal emotion vocabulary; unmapped labels are dropped.
	Label string `json:"label"`

	// Score is the classifier's probability for the label (0.0 to 1.0).
	Score float64 `json:"score"`
}

// Classifier is the external emotion-classification capability.
// Implementations must honor ctx cancellation; callers invoke Classify with
// a bounded timeout and fall back to lexical scoring on error.
type Classifier interface {
	// Classify returns the top-k label/score pairs for the given text.
	Classify(ctx context.Context, text string) ([]Prediction, error)

	// GetModel returns the model identifier for logging.
	GetModel() string
}

// Nop is a compile-time-checked null classifier. It reports no predictions
// and never fails, leaving fusion entirely to the lexical pass.
type Nop struct{}

var _ Classifier = Nop{}

// Classify always returns an empty prediction set.
func (Nop) Classify(ctx context.Context, text string) ([]Prediction, error) {
	return nil, nil
}

// GetModel returns "none".
func (Nop) GetModel() string { return "none" }
