package fusion

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/attuneai/attune/internal/classifier"
	"github.com/attuneai/attune/internal/knowledge"
)

// stubClassifier returns fixed predictions or a fixed error.
type stubClassifier struct {
	predictions []classifier.Prediction
	err         error
}

func (s stubClassifier) Classify(ctx context.Context, text string) ([]classifier.Prediction, error) {
	return s.predictions, s.err
}

func (s stubClassifier) GetModel() string { return "stub" }

func newTestDetector(clf classifier.Classifier) *Detector {
	return NewDetector(knowledge.NewGraph(knowledge.DefaultCatalog()), clf, 0)
}

func sumScores(scores map[string]float64) float64 {
	var total float64
	for _, s := range scores {
		total += s
	}
	return total
}

func TestDetectNormalizesDistribution(t *testing.T) {
	d := newTestDetector(classifier.Nop{})

	cases := []string{
		"I am happy today",
		"I am scared and angry about work",
		"extremely sad and very worried",
	}
	for _, text := range cases {
		signal := d.Detect(context.Background(), text)
		if total := sumScores(signal.AllEmotions); math.Abs(total-1.0) > 1e-9 {
			t.Errorf("Detect(%q): scores sum to %v, want 1.0", text, total)
		}
	}
}

func TestDetectNeutralFallback(t *testing.T) {
	d := newTestDetector(classifier.Nop{})

	signal := d.Detect(context.Background(), "qwerty zxcvb asdfgh")
	if signal.Primary != "neutral" {
		t.Fatalf("expected primary neutral, got %s", signal.Primary)
	}
	if len(signal.AllEmotions) != 1 || signal.AllEmotions["neutral"] != 1.0 {
		t.Errorf("expected exactly {neutral: 1.0}, got %v", signal.AllEmotions)
	}
	if signal.Degraded {
		t.Error("nop classifier must not mark the signal degraded")
	}
}

// Detection runs outside any session lock, so concurrent calls must not
// share mutable state. The overlay emotion grows the catalog past the
// built-in size, which is where slice aliasing would surface.
func TestConcurrentDetectWithExtendedCatalog(t *testing.T) {
	cat := knowledge.DefaultCatalog()
	cat.Emotions = append(cat.Emotions, knowledge.EmotionNode{
		Name: "nostalgia", Category: "mixed", Valence: 0.2, Arousal: 0.3,
	})
	d := NewDetector(knowledge.NewGraph(cat), classifier.Nop{}, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				signal := d.Detect(context.Background(), "I am furious about this deadline")
				if signal.Primary != "anger" {
					t.Errorf("got primary %q, want anger", signal.Primary)
				}
			}
		}()
	}
	wg.Wait()
}

func TestNegationReducesJoy(t *testing.T) {
	d := newTestDetector(classifier.Nop{})

	plain := d.Detect(context.Background(), "I am happy")
	negated := d.Detect(context.Background(), "I am not happy")

	if negated.AllEmotions["joy"] >= plain.AllEmotions["joy"] &&
		negated.Intensity >= plain.Intensity {
		t.Errorf("negation did not reduce joy: plain=%v/%v negated=%v/%v",
			plain.AllEmotions["joy"], plain.Intensity,
			negated.AllEmotions["joy"], negated.Intensity)
	}
}

func TestIntensityModifiersScaleScores(t *testing.T) {
	d := newTestDetector(classifier.Nop{})

	plain := d.Detect(context.Background(), "I am happy")
	boosted := d.Detect(context.Background(), "I am extremely happy")
	damped := d.Detect(context.Background(), "I am slightly happy")

	if boosted.Intensity <= plain.Intensity {
		t.Errorf("high modifier did not raise intensity: %v <= %v", boosted.Intensity, plain.Intensity)
	}
	if damped.Intensity >= plain.Intensity {
		t.Errorf("low modifier did not lower intensity: %v >= %v", damped.Intensity, plain.Intensity)
	}
}

func TestFuriousDeadlineScenario(t *testing.T) {
	d := newTestDetector(classifier.Nop{})

	signal := d.Detect(context.Background(), "I'm furious because my deadline moved up again")
	if signal.Primary != "anger" {
		t.Fatalf("expected primary anger, got %s", signal.Primary)
	}

	// One unmodified keyword: intensity reflects the 0.3 base contribution
	// plus at most small surface bonuses.
	if signal.Intensity < 0.3 || signal.Intensity > 0.5 {
		t.Errorf("expected intensity in [0.3, 0.5], got %v", signal.Intensity)
	}

	concepts := d.ExtractConcepts("I'm furious because my deadline moved up again")
	found := false
	for _, c := range concepts {
		if c == "deadline" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected concepts to include deadline, got %v", concepts)
	}

	if len(signal.Triggers) == 0 {
		t.Fatal("expected a trigger phrase after 'because'")
	}
	hasDeadline := false
	for _, trig := range signal.Triggers {
		if trig == "my deadline" {
			hasDeadline = true
		}
	}
	if !hasDeadline {
		t.Errorf("expected trigger 'my deadline', got %v", signal.Triggers)
	}

	if signal.Valence >= 0 {
		t.Errorf("anger should carry negative valence, got %v", signal.Valence)
	}
}

func TestClassifierFailureDegradesGracefully(t *testing.T) {
	d := newTestDetector(stubClassifier{err: errors.New("connection refused")})

	signal := d.Detect(context.Background(), "I am happy")
	if !signal.Degraded {
		t.Error("expected degraded flag on classifier failure")
	}
	if signal.Primary != "joy" {
		t.Errorf("lexical fallback should still detect joy, got %s", signal.Primary)
	}
}

func TestClassifierFusionShiftsDistribution(t *testing.T) {
	clf := stubClassifier{predictions: []classifier.Prediction{
		{Label: "sadness", Score: 0.9},
		{Label: "happiness", Score: 0.1},
	}}
	d := newTestDetector(clf)

	signal := d.Detect(context.Background(), "I am happy")
	if signal.Degraded {
		t.Error("successful classification must not be degraded")
	}
	// 0.6 weight on a 0.9 sadness prediction outweighs one joy keyword at
	// 0.4 weight.
	if signal.Primary != "sadness" {
		t.Errorf("expected classifier to dominate with sadness, got %s", signal.Primary)
	}
	if total := sumScores(signal.AllEmotions); math.Abs(total-1.0) > 1e-9 {
		t.Errorf("fused scores sum to %v, want 1.0", total)
	}
}

func TestUnknownClassifierLabelsDropped(t *testing.T) {
	clf := stubClassifier{predictions: []classifier.Prediction{
		{Label: "bewilderment", Score: 0.8},
	}}
	d := newTestDetector(clf)

	signal := d.Detect(context.Background(), "qwerty zxcvb")
	if signal.Primary != "neutral" {
		t.Errorf("unmapped label should not produce an emotion, got %s", signal.Primary)
	}
}

func TestTextIntensityBonusCaps(t *testing.T) {
	d := newTestDetector(classifier.Nop{})

	shouting := d.Detect(context.Background(), "I am SO ANGRY about this!!!!! ABSOLUTELY FURIOUS!!!")
	if shouting.Intensity > 1.0 {
		t.Errorf("intensity must clamp to 1.0, got %v", shouting.Intensity)
	}
	calm := d.Detect(context.Background(), "I am angry about this")
	if shouting.Intensity <= calm.Intensity {
		t.Errorf("surface markers should raise intensity: %v <= %v", shouting.Intensity, calm.Intensity)
	}
}

func TestBodySensationDetection(t *testing.T) {
	d := newTestDetector(classifier.Nop{})

	signal := d.Detect(context.Background(), "I am anxious and my heart is racing with a knot in my stomach")
	regions := make(map[string]bool)
	for _, r := range signal.BodySensations {
		regions[r] = true
	}
	if !regions["chest"] {
		t.Errorf("expected chest sensation, got %v", signal.BodySensations)
	}
	if !regions["stomach"] {
		t.Errorf("expected stomach sensation, got %v", signal.BodySensations)
	}
}

func TestExtractConceptsCatalogOrder(t *testing.T) {
	d := newTestDetector(classifier.Nop{})

	concepts := d.ExtractConcepts("my boss moved the deadline and I skipped sleep")
	want := map[string]bool{"deadline": true, "boss": true, "sleep": true}
	if len(concepts) != len(want) {
		t.Fatalf("expected %d concepts, got %v", len(want), concepts)
	}
	for _, c := range concepts {
		if !want[c] {
			t.Errorf("unexpected concept %q", c)
		}
	}
}
