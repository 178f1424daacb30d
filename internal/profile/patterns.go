package profile

import (
	"fmt"
	"sort"

	"github.com/attuneai/attune/pkg/types"
)

// Pattern-mining thresholds.
const (
	triggerEmotionMinFreq = 3
	triggerConceptMinFreq = 2
	copingMinEffect       = 0.7
)

// DetectPatterns re-mines the profile and returns the full pattern list.
// Mining also runs on every processed turn, so the list is normally current
// already; this entry point forces a fresh pass. Re-detection reinforces
// existing patterns in place; patterns are deduplicated by their exact
// description string.
func (g *Graph) DetectPatterns() []types.Pattern {
	g.minePatterns()
	return append([]types.Pattern(nil), g.patterns...)
}

// minePatterns scans the emotion and concept records for regularities.
// Trigger patterns need an established emotion and a repeated concept;
// coping patterns need only one sufficiently effective observation.
func (g *Graph) minePatterns() {
	now := g.now()

	emotionNames := sortedKeys(g.emotions)
	conceptNames := sortedKeys(g.concepts)

	for _, emotion := range emotionNames {
		eRec := g.emotions[emotion]

		if eRec.Frequency >= triggerEmotionMinFreq {
			for _, concept := range conceptNames {
				cRec := g.concepts[concept]
				if cRec.Frequency < triggerConceptMinFreq {
					continue
				}
				g.upsertPattern(types.Pattern{
					Type:        types.PatternTrigger,
					Description: fmt.Sprintf("%s often triggers %s", concept, emotion),
					Confidence:  types.ClampUnit(float64(eRec.Frequency) / 10.0),
					// The pattern is only as strong as its rarer support.
					Frequency:    min(eRec.Frequency, cRec.Frequency),
					LastObserved: now,
				})
			}
		}

		for _, strategy := range sortedKeys(eRec.CopingEffectiveness) {
			effect := eRec.CopingEffectiveness[strategy]
			if effect < copingMinEffect {
				continue
			}
			g.upsertPattern(types.Pattern{
				Type:         types.PatternCoping,
				Description:  fmt.Sprintf("%s helps with %s", strategy, emotion),
				Confidence:   types.ClampUnit(effect),
				Frequency:    eRec.Frequency,
				LastObserved: now,
			})
		}
	}
}

// upsertPattern inserts a new pattern or refreshes the existing one with the
// same description.
func (g *Graph) upsertPattern(p types.Pattern) {
	if idx, ok := g.patternIdx[p.Description]; ok {
		existing := &g.patterns[idx]
		existing.Confidence = p.Confidence
		existing.Frequency = p.Frequency
		existing.LastObserved = p.LastObserved
		return
	}
	g.patternIdx[p.Description] = len(g.patterns)
	g.patterns = append(g.patterns, p)
}

// Patterns returns the currently known patterns without re-mining.
func (g *Graph) Patterns() []types.Pattern {
	return append([]types.Pattern(nil), g.patterns...)
}

// sortedKeys returns the map keys in ascending order for deterministic
// iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
