// Package profile maintains the per-user emotional profile: emotion and
// concept statistics, mined patterns, and the context bundle handed to the
// response generator. A Graph is owned by exactly one session and is not
// safe for concurrent use; the session serializes access.
package profile

import (
	"fmt"
	"sort"
	"time"

	"github.com/attuneai/attune/internal/knowledge"
	"github.com/attuneai/attune/pkg/types"
)

// DefaultConceptCap bounds the number of tracked concepts per user. Only
// user-specific concepts are evicted; catalog concepts always stay.
const DefaultConceptCap = 512

// Onboarding starter associations. Concepts named during onboarding are
// seeded with these emotional associations before any conversation happens.
var (
	stressorSeed = map[string]float64{"stress": 0.8, "anxiety": 0.6}
	supportSeed  = map[string]float64{"joy": 0.7, "trust": 0.8}
	hobbySeed    = map[string]float64{"joy": 0.8, "relaxation": 0.6}
	copingSeed   = map[string]float64{"calm": 0.7, "relief": 0.6}
)

// Graph accumulates one user's emotional statistics over time.
type Graph struct {
	userID string
	kg     *knowledge.Graph

	profile  types.UserProfile
	emotions map[string]*types.EmotionRecord
	concepts map[string]*types.ConceptRecord

	patterns   []types.Pattern
	patternIdx map[string]int

	// lastEmotion is the most recently updated emotion record, used to
	// attribute coping-strategy effectiveness when a turn mentions one.
	lastEmotion string

	conceptCap int
	now        func() time.Time
}

// NewGraph creates an empty profile for userID over the shared knowledge
// graph. conceptCap <= 0 selects DefaultConceptCap.
func NewGraph(userID string, kg *knowledge.Graph, conceptCap int) *Graph {
	if conceptCap <= 0 {
		conceptCap = DefaultConceptCap
	}
	return &Graph{
		userID:     userID,
		kg:         kg,
		profile:    types.UserProfile{UserID: userID},
		emotions:   make(map[string]*types.EmotionRecord),
		concepts:   make(map[string]*types.ConceptRecord),
		patternIdx: make(map[string]int),
		conceptCap: conceptCap,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Tests use this to control recency math.
func (g *Graph) SetClock(now func() time.Time) {
	g.now = now
}

// UserID returns the owning user.
func (g *Graph) UserID() string {
	return g.userID
}

// Profile returns the onboarding-derived profile fields.
func (g *Graph) Profile() types.UserProfile {
	return g.profile
}

// ProcessOnboarding seeds concept records from the user's stated stressors,
// supports, hobbies, and coping strategies, and fills the profile fields.
func (g *Graph) ProcessOnboarding(data types.OnboardingData) {
	for _, name := range data.Stressors {
		g.seedConcept(name, "stressor", stressorSeed)
	}
	for _, name := range data.Supports {
		g.seedConcept(name, "support", supportSeed)
	}
	for _, name := range data.Hobbies {
		g.seedConcept(name, "hobby", hobbySeed)
	}
	for _, name := range data.CopingStrategies {
		g.seedConcept(name, "coping", copingSeed)
	}

	g.profile.OnboardingComplete = true
	g.profile.PreferredCopingStyle = data.CopingStyle
	g.profile.AwarenessLevel = data.AwarenessLevel
	g.profile.SupportNetwork = data.SupportNetwork
	g.profile.Goals = data.Goals
	g.profile.Values = data.Values

	g.evictConcepts()
}

// seedConcept creates a user-specific concept with starter associations.
// Re-onboarding an existing concept keeps its accumulated statistics.
func (g *Graph) seedConcept(name, category string, associations map[string]float64) {
	if name == "" {
		return
	}
	if existing, ok := g.concepts[name]; ok {
		for emotion, strength := range associations {
			if strength > existing.EmotionalAssociations[emotion] {
				existing.EmotionalAssociations[emotion] = strength
			}
		}
		return
	}

	assoc := make(map[string]float64, len(associations))
	for emotion, strength := range associations {
		assoc[emotion] = types.ClampUnit(strength)
	}
	g.concepts[name] = &types.ConceptRecord{
		Concept:               name,
		Category:              category,
		EmotionalAssociations: assoc,
		UserSpecific:          true,
	}
}

// ProcessTurn folds one turn's detections into the profile. emotions maps
// detected emotion to its intensity; concepts are the extracted mentions;
// copingMentioned carries any coping strategies named in the turn, whose
// effectiveness attaches to the most recently occurring emotion record.
// Patterns are re-mined after the records update, so the turn's context
// always reflects them.
func (g *Graph) ProcessTurn(emotions map[string]float64, concepts []string, copingMentioned []string, copingEffectiveness float64) {
	now := g.now()

	// Deterministic order: strongest emotion last so it becomes the
	// "most recent" record for coping attribution.
	names := make([]string, 0, len(emotions))
	for name := range emotions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if emotions[names[i]] != emotions[names[j]] {
			return emotions[names[i]] < emotions[names[j]]
		}
		return names[i] > names[j]
	})

	for _, name := range names {
		record, ok := g.emotions[name]
		if !ok {
			record = &types.EmotionRecord{Emotion: name}
			g.emotions[name] = record
		}
		record.Frequency++
		record.IntensitySum += types.ClampUnit(emotions[name])
		record.LastOccurrence = now
		g.lastEmotion = name
	}

	for _, name := range concepts {
		record, ok := g.concepts[name]
		if !ok {
			record = g.newConceptRecord(name)
			g.concepts[name] = record
		}
		record.Frequency++
		record.LastMentioned = now
		record.RecomputeImportance(now)
	}

	if len(copingMentioned) > 0 && g.lastEmotion != "" {
		record := g.emotions[g.lastEmotion]
		if record.CopingEffectiveness == nil {
			record.CopingEffectiveness = make(map[string]float64)
		}
		for _, strategy := range copingMentioned {
			record.CopingEffectiveness[strategy] = types.ClampUnit(copingEffectiveness)
		}
	}

	g.minePatterns()
	g.evictConcepts()
}

// newConceptRecord builds a record for a first mention, inheriting category
// and associations from the knowledge graph when the concept is catalogued.
func (g *Graph) newConceptRecord(name string) *types.ConceptRecord {
	if node := g.kg.Concept(name); node != nil {
		assoc := make(map[string]float64, len(node.EmotionalAssociations))
		for emotion, strength := range node.EmotionalAssociations {
			assoc[emotion] = strength
		}
		return &types.ConceptRecord{
			Concept:               name,
			Category:              node.Category,
			EmotionalAssociations: assoc,
		}
	}
	return &types.ConceptRecord{
		Concept:      name,
		Category:     "unknown",
		UserSpecific: true,
	}
}

// evictConcepts drops the lowest-importance user-specific concepts until the
// tracked count is back within the cap. Catalog concepts are never evicted.
func (g *Graph) evictConcepts() {
	excess := len(g.concepts) - g.conceptCap
	if excess <= 0 {
		return
	}

	var candidates []*types.ConceptRecord
	for _, record := range g.concepts {
		if record.UserSpecific {
			candidates = append(candidates, record)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Importance != candidates[j].Importance {
			return candidates[i].Importance < candidates[j].Importance
		}
		return candidates[i].Concept < candidates[j].Concept
	})

	for _, record := range candidates {
		if excess <= 0 {
			break
		}
		delete(g.concepts, record.Concept)
		excess--
	}
}

// EmotionRecord returns the record for an emotion, or nil when never seen.
func (g *Graph) EmotionRecord(name string) *types.EmotionRecord {
	return g.emotions[name]
}

// ConceptRecord returns the record for a concept, or nil when never seen.
func (g *Graph) ConceptRecord(name string) *types.ConceptRecord {
	return g.concepts[name]
}

// Export snapshots the profile into the data-portability format. Records are
// sorted by name so repeated exports of the same state are byte-identical.
func (g *Graph) Export() types.ProfileExport {
	export := types.ProfileExport{
		Profile:  g.profile,
		Patterns: append([]types.Pattern(nil), g.patterns...),
	}

	for _, record := range g.emotions {
		export.Emotions = append(export.Emotions, *record)
	}
	sort.Slice(export.Emotions, func(i, j int) bool {
		return export.Emotions[i].Emotion < export.Emotions[j].Emotion
	})

	for _, record := range g.concepts {
		export.Concepts = append(export.Concepts, *record)
	}
	sort.Slice(export.Concepts, func(i, j int) bool {
		return export.Concepts[i].Concept < export.Concepts[j].Concept
	})

	return export
}

// Import replaces the profile's state with the exported snapshot. Returns an
// error when the export belongs to a different user (empty user ID adopts
// this profile's user).
func (g *Graph) Import(export types.ProfileExport) error {
	if export.Profile.UserID != "" && export.Profile.UserID != g.userID {
		return fmt.Errorf("profile export belongs to user %q, not %q", export.Profile.UserID, g.userID)
	}

	g.profile = export.Profile
	g.profile.UserID = g.userID

	g.emotions = make(map[string]*types.EmotionRecord, len(export.Emotions))
	for i := range export.Emotions {
		record := export.Emotions[i]
		g.emotions[record.Emotion] = &record
	}

	g.concepts = make(map[string]*types.ConceptRecord, len(export.Concepts))
	for i := range export.Concepts {
		record := export.Concepts[i]
		g.concepts[record.Concept] = &record
	}

	g.patterns = append([]types.Pattern(nil), export.Patterns...)
	g.patternIdx = make(map[string]int, len(g.patterns))
	for i, p := range g.patterns {
		g.patternIdx[p.Description] = i
	}

	g.lastEmotion = ""
	g.evictConcepts()
	return nil
}
