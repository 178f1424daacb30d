// Package knowledge provides the static knowledge graph relating emotions,
// concepts, and coping strategies. The graph is built once at process start
// from the built-in catalog (optionally merged with a YAML overlay) and is
// immutable afterwards, so concurrent reads need no locking.
package knowledge

import (
	"sort"

	"github.com/attuneai/attune/pkg/types"
)

// EmotionNode is a static emotion in the catalog, positioned on the
// valence/arousal circumplex.
type EmotionNode struct {
	// Name is the canonical emotion name.
	Name string `yaml:"name"`

	// Category is "primary" for Plutchik's eight or "mixed" for dyads.
	Category string `yaml:"category"`

	// Valence is the pleasantness coordinate (-1.0 to 1.0).
	Valence float64 `yaml:"valence"`

	// Arousal is the activation coordinate (0.0 to 1.0).
	Arousal float64 `yaml:"arousal"`

	// BodyRegions lists where the emotion is typically felt.
	BodyRegions []string `yaml:"body_regions"`

	// CopingStrategies lists strategies known to help with the emotion.
	CopingStrategies []string `yaml:"coping_strategies"`
}

// ConceptNode is a static concept in the catalog.
type ConceptNode struct {
	// Name is the concept name.
	Name string `yaml:"name"`

	// Category groups the concept (work, family, health, social, hobby, ...).
	Category string `yaml:"category"`

	// EmotionalAssociations maps emotion name to association strength
	// (0.0 to 1.0).
	EmotionalAssociations map[string]float64 `yaml:"emotional_associations"`
}

// Relationship is a typed, weighted, directed edge. Multiple edges may exist
// between the same pair of nodes; queries surface the maximum strength.
type Relationship struct {
	// Source is the origin node name.
	Source string `yaml:"source"`

	// Target is the destination node name.
	Target string `yaml:"target"`

	// Type is the relationship kind (triggers, evokes, reduces, promotes, ...).
	Type string `yaml:"type"`

	// Strength is the edge weight (0.0 to 1.0).
	Strength float64 `yaml:"strength"`
}

// Ranked pairs a node name with the strongest relationship strength
// connecting it to the queried node.
type Ranked struct {
	Name     string
	Strength float64
}

// Graph is the immutable knowledge graph. Build it once with NewGraph and
// share it by reference across all user sessions.
type Graph struct {
	emotions     map[string]*EmotionNode
	concepts     map[string]*ConceptNode
	emotionOrder []string
	conceptOrder []string

	// adjacency holds max edge strength per unordered node pair, indexed
	// from both endpoints. Direction matters for the stored relationship
	// list but not for neighborhood queries.
	adjacency map[string]map[string]float64

	relationships []Relationship
}

// NewGraph builds a Graph from the given catalog. Strengths and coordinates
// are clamped to their documented ranges.
func NewGraph(cat Catalog) *Graph {
	g := &Graph{
		emotions:  make(map[string]*EmotionNode, len(cat.Emotions)),
		concepts:  make(map[string]*ConceptNode, len(cat.Concepts)),
		adjacency: make(map[string]map[string]float64),
	}

	for i := range cat.Emotions {
		node := cat.Emotions[i]
		node.Valence = types.ClampValence(node.Valence)
		node.Arousal = types.ClampUnit(node.Arousal)
		if _, dup := g.emotions[node.Name]; dup {
			continue
		}
		g.emotions[node.Name] = &node
		g.emotionOrder = append(g.emotionOrder, node.Name)
	}

	for i := range cat.Concepts {
		node := cat.Concepts[i]
		for emotion, strength := range node.EmotionalAssociations {
			node.EmotionalAssociations[emotion] = types.ClampUnit(strength)
		}
		if _, dup := g.concepts[node.Name]; dup {
			continue
		}
		g.concepts[node.Name] = &node
		g.conceptOrder = append(g.conceptOrder, node.Name)
	}

	for _, rel := range cat.Relationships {
		rel.Strength = types.ClampUnit(rel.Strength)
		g.relationships = append(g.relationships, rel)
		g.link(rel.Source, rel.Target, rel.Strength)
		g.link(rel.Target, rel.Source, rel.Strength)
	}

	return g
}

// link records the strongest edge between from and to.
func (g *Graph) link(from, to string, strength float64) {
	edges, ok := g.adjacency[from]
	if !ok {
		edges = make(map[string]float64)
		g.adjacency[from] = edges
	}
	if strength > edges[to] {
		edges[to] = strength
	}
}

// Emotion returns the emotion node by name, or nil when unknown.
func (g *Graph) Emotion(name string) *EmotionNode {
	return g.emotions[name]
}

// Concept returns the concept node by name, or nil when unknown.
func (g *Graph) Concept(name string) *ConceptNode {
	return g.concepts[name]
}

// EmotionNames returns emotion names in canonical catalog order. The fusion
// layer uses this order to resolve arg-max ties deterministically. The
// returned slice is a copy; concurrent callers may append to or reorder it
// without affecting each other.
func (g *Graph) EmotionNames() []string {
	return append([]string(nil), g.emotionOrder...)
}

// ConceptNames returns concept names in catalog order, as a copy.
func (g *Graph) ConceptNames() []string {
	return append([]string(nil), g.conceptOrder...)
}

// RelatedEmotions returns the emotions connected to the given concept,
// ordered by descending strength. When multiple edges connect the same pair
// the maximum strength wins. Ties order alphabetically for stable output.
func (g *Graph) RelatedEmotions(concept string) []Ranked {
	return g.rankedNeighbors(concept, func(name string) bool {
		_, ok := g.emotions[name]
		return ok
	})
}

// RelatedConcepts returns the concepts connected to the given emotion,
// ordered by descending strength.
func (g *Graph) RelatedConcepts(emotion string) []Ranked {
	return g.rankedNeighbors(emotion, func(name string) bool {
		_, ok := g.concepts[name]
		return ok
	})
}

// rankedNeighbors collects neighbors of node passing the keep filter,
// sorted by strength descending then name ascending.
func (g *Graph) rankedNeighbors(node string, keep func(string) bool) []Ranked {
	edges, ok := g.adjacency[node]
	if !ok {
		return nil
	}

	var out []Ranked
	for name, strength := range edges {
		if keep(name) {
			out = append(out, Ranked{Name: name, Strength: strength})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].Name < out[j].Name
	})

	return out
}

// CopingStrategies returns the coping strategies for an emotion, or nil when
// the emotion is unknown.
func (g *Graph) CopingStrategies(emotion string) []string {
	node := g.emotions[emotion]
	if node == nil {
		return nil
	}
	return node.CopingStrategies
}

// BodyRegions returns the body regions associated with an emotion, or nil
// when the emotion is unknown.
func (g *Graph) BodyRegions(emotion string) []string {
	node := g.emotions[emotion]
	if node == nil {
		return nil
	}
	return node.BodyRegions
}

// Dimensions returns the (valence, arousal) base coordinates for an emotion.
// Unknown emotions sit at the circumplex origin with mid arousal.
func (g *Graph) Dimensions(emotion string) (valence, arousal float64) {
	node := g.emotions[emotion]
	if node == nil {
		return 0.0, 0.5
	}
	return node.Valence, node.Arousal
}

// Relationships returns the full edge list. Callers must not mutate it.
func (g *Graph) Relationships() []Relationship {
	return g.relationships
}
