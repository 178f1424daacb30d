package profile

import (
	"sort"
	"strings"

	"github.com/attuneai/attune/pkg/types"
)

// conceptContextMinImportance filters which known concepts are worth
// surfacing in the turn context.
const conceptContextMinImportance = 0.5

// EmotionContext is the per-emotion slice of the turn context.
type EmotionContext struct {
	Emotion         string   `json:"emotion"`
	Frequency       int      `json:"frequency"`
	AvgIntensity    float64  `json:"avg_intensity"`
	DaysSinceLast   float64  `json:"days_since_last"`
	EffectiveCoping []string `json:"effective_coping,omitempty"`
}

// ConceptContext is the per-concept slice of the turn context.
type ConceptContext struct {
	Concept      string             `json:"concept"`
	Importance   float64            `json:"importance"`
	Associations map[string]float64 `json:"associations,omitempty"`
}

// Context is what the profile contributes to a turn's context bundle: the
// user's history with the emotions and concepts present in the current turn.
type Context struct {
	Emotions []EmotionContext `json:"emotions,omitempty"`
	Concepts []ConceptContext `json:"concepts,omitempty"`
	Patterns []types.Pattern  `json:"patterns,omitempty"`
}

// ContextFor assembles the profile context for the current turn's detected
// emotions and concepts. Emotions never seen before contribute nothing;
// concepts appear only above the importance floor; patterns are included
// when their description mentions a current emotion.
func (g *Graph) ContextFor(currentEmotions map[string]float64, currentConcepts []string) Context {
	now := g.now()
	var ctx Context

	for _, emotion := range sortedKeys(currentEmotions) {
		record, ok := g.emotions[emotion]
		if !ok {
			continue
		}

		var effective []string
		for _, strategy := range sortedKeys(record.CopingEffectiveness) {
			if record.CopingEffectiveness[strategy] >= copingMinEffect {
				effective = append(effective, strategy)
			}
		}

		ctx.Emotions = append(ctx.Emotions, EmotionContext{
			Emotion:         emotion,
			Frequency:       record.Frequency,
			AvgIntensity:    record.AvgIntensity(),
			DaysSinceLast:   record.DaysSinceLast(now),
			EffectiveCoping: effective,
		})
	}

	seen := make(map[string]bool, len(currentConcepts))
	for _, concept := range currentConcepts {
		if seen[concept] {
			continue
		}
		seen[concept] = true

		record, ok := g.concepts[concept]
		if !ok || record.Importance <= conceptContextMinImportance {
			continue
		}
		ctx.Concepts = append(ctx.Concepts, ConceptContext{
			Concept:      concept,
			Importance:   record.Importance,
			Associations: record.EmotionalAssociations,
		})
	}

	for _, pattern := range g.patterns {
		for emotion := range currentEmotions {
			if strings.Contains(pattern.Description, emotion) {
				ctx.Patterns = append(ctx.Patterns, pattern)
				break
			}
		}
	}

	return ctx
}

// Summary is the whole-profile overview used by the stats API and CLI.
type Summary struct {
	UserID             string           `json:"user_id"`
	OnboardingComplete bool             `json:"onboarding_complete"`
	TopEmotions        []EmotionContext `json:"top_emotions,omitempty"`
	TopConcepts        []ConceptContext `json:"top_concepts,omitempty"`
	RecentPatterns     []types.Pattern  `json:"recent_patterns,omitempty"`
	EmotionCount       int              `json:"emotion_count"`
	ConceptCount       int              `json:"concept_count"`
	PatternCount       int              `json:"pattern_count"`
}

// UserSummary returns the top five emotions by frequency, the top ten
// concepts by importance, and the five most recently observed patterns.
func (g *Graph) UserSummary() Summary {
	now := g.now()
	summary := Summary{
		UserID:             g.userID,
		OnboardingComplete: g.profile.OnboardingComplete,
		EmotionCount:       len(g.emotions),
		ConceptCount:       len(g.concepts),
		PatternCount:       len(g.patterns),
	}

	emotions := make([]*types.EmotionRecord, 0, len(g.emotions))
	for _, record := range g.emotions {
		emotions = append(emotions, record)
	}
	sort.Slice(emotions, func(i, j int) bool {
		if emotions[i].Frequency != emotions[j].Frequency {
			return emotions[i].Frequency > emotions[j].Frequency
		}
		return emotions[i].Emotion < emotions[j].Emotion
	})
	for i, record := range emotions {
		if i == 5 {
			break
		}
		summary.TopEmotions = append(summary.TopEmotions, EmotionContext{
			Emotion:       record.Emotion,
			Frequency:     record.Frequency,
			AvgIntensity:  record.AvgIntensity(),
			DaysSinceLast: record.DaysSinceLast(now),
		})
	}

	concepts := make([]*types.ConceptRecord, 0, len(g.concepts))
	for _, record := range g.concepts {
		concepts = append(concepts, record)
	}
	sort.Slice(concepts, func(i, j int) bool {
		if concepts[i].Importance != concepts[j].Importance {
			return concepts[i].Importance > concepts[j].Importance
		}
		return concepts[i].Concept < concepts[j].Concept
	})
	for i, record := range concepts {
		if i == 10 {
			break
		}
		summary.TopConcepts = append(summary.TopConcepts, ConceptContext{
			Concept:      record.Concept,
			Importance:   record.Importance,
			Associations: record.EmotionalAssociations,
		})
	}

	patterns := append([]types.Pattern(nil), g.patterns...)
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].LastObserved.After(patterns[j].LastObserved)
	})
	if len(patterns) > 5 {
		patterns = patterns[:5]
	}
	summary.RecentPatterns = patterns

	return summary
}
