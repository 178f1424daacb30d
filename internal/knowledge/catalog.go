package knowledge

// Catalog is the raw material a Graph is built from. DefaultCatalog returns
// the built-in taxonomy; MergeCatalogFile can layer a YAML overlay on top
// before the graph is constructed.
type Catalog struct {
	Emotions      []EmotionNode  `yaml:"emotions"`
	Concepts      []ConceptNode  `yaml:"concepts"`
	Relationships []Relationship `yaml:"relationships"`
}

// DefaultCatalog returns the built-in emotion taxonomy (Plutchik's eight
// primary emotions plus eight dyads on Russell's circumplex), the core
// concept set, and the relationship seed edges.
func DefaultCatalog() Catalog {
	return Catalog{
		Emotions:      defaultEmotions(),
		Concepts:      defaultConcepts(),
		Relationships: defaultRelationships(),
	}
}

func defaultEmotions() []EmotionNode {
	return []EmotionNode{
		// Primary emotions.
		{
			Name: "joy", Category: "primary", Valence: 0.8, Arousal: 0.6,
			BodyRegions:      []string{"chest", "face", "whole_body"},
			CopingStrategies: []string{"gratitude", "celebration", "sharing"},
		},
		{
			Name: "trust", Category: "primary", Valence: 0.6, Arousal: 0.3,
			BodyRegions:      []string{"chest", "heart"},
			CopingStrategies: []string{"open_communication", "building_rapport"},
		},
		{
			Name: "fear", Category: "primary", Valence: -0.7, Arousal: 0.8,
			BodyRegions:      []string{"chest", "stomach", "throat"},
			CopingStrategies: []string{"deep_breathing", "grounding", "safety_planning"},
		},
		{
			Name: "surprise", Category: "primary", Valence: 0.0, Arousal: 0.9,
			BodyRegions:      []string{"head", "chest"},
			CopingStrategies: []string{"processing", "adaptation"},
		},
		{
			Name: "sadness", Category: "primary", Valence: -0.8, Arousal: 0.2,
			BodyRegions:      []string{"chest", "head", "limbs"},
			CopingStrategies: []string{"self_compassion", "support_seeking", "expression"},
		},
		{
			Name: "disgust", Category: "primary", Valence: -0.6, Arousal: 0.4,
			BodyRegions:      []string{"stomach", "throat", "face"},
			CopingStrategies: []string{"avoidance", "cleansing", "reframing"},
		},
		{
			Name: "anger", Category: "primary", Valence: -0.5, Arousal: 0.9,
			BodyRegions:      []string{"chest", "head", "arms"},
			CopingStrategies: []string{"timeout", "physical_exercise", "communication"},
		},
		{
			Name: "anticipation", Category: "primary", Valence: 0.4, Arousal: 0.7,
			BodyRegions:      []string{"stomach", "chest"},
			CopingStrategies: []string{"planning", "preparation", "optimism"},
		},

		// Mixed emotions (Plutchik dyads).
		{
			Name: "love", Category: "mixed", Valence: 0.9, Arousal: 0.5,
			BodyRegions:      []string{"chest", "heart", "face"},
			CopingStrategies: []string{"expression", "quality_time", "appreciation"},
		},
		{
			Name: "optimism", Category: "mixed", Valence: 0.7, Arousal: 0.6,
			BodyRegions:      []string{"chest", "stomach"},
			CopingStrategies: []string{"goal_setting", "positive_reframing"},
		},
		{
			Name: "submission", Category: "mixed", Valence: 0.2, Arousal: 0.4,
			BodyRegions:      []string{"chest", "head"},
			CopingStrategies: []string{"mindfulness", "acceptance_practice"},
		},
		{
			Name: "awe", Category: "mixed", Valence: 0.6, Arousal: 0.8,
			BodyRegions:      []string{"head", "chest"},
			CopingStrategies: []string{"appreciation", "contemplation"},
		},
		{
			Name: "disappointment", Category: "mixed", Valence: -0.6, Arousal: 0.3,
			BodyRegions:      []string{"chest", "head"},
			CopingStrategies: []string{"realistic_expectations", "alternative_planning"},
		},
		{
			Name: "remorse", Category: "mixed", Valence: -0.7, Arousal: 0.5,
			BodyRegions:      []string{"chest", "stomach"},
			CopingStrategies: []string{"apology", "amends", "forgiveness"},
		},
		{
			Name: "contempt", Category: "mixed", Valence: -0.5, Arousal: 0.3,
			BodyRegions:      []string{"face", "chest"},
			CopingStrategies: []string{"empathy", "understanding", "humility"},
		},
		{
			Name: "aggressiveness", Category: "mixed", Valence: -0.3, Arousal: 0.9,
			BodyRegions:      []string{"arms", "chest", "head"},
			CopingStrategies: []string{"channeled_energy", "constructive_action"},
		},
	}
}

func defaultConcepts() []ConceptNode {
	return []ConceptNode{
		// Work.
		{Name: "work", Category: "occupation", EmotionalAssociations: map[string]float64{"stress": 0.8, "achievement": 0.6}},
		{Name: "deadline", Category: "work", EmotionalAssociations: map[string]float64{"stress": 0.9, "anxiety": 0.7}},
		{Name: "colleague", Category: "work", EmotionalAssociations: map[string]float64{"trust": 0.5, "stress": 0.3}},
		{Name: "boss", Category: "work", EmotionalAssociations: map[string]float64{"fear": 0.6, "respect": 0.4}},

		// Family.
		{Name: "family", Category: "relationships", EmotionalAssociations: map[string]float64{"love": 0.8, "support": 0.7}},
		{Name: "mother", Category: "family", EmotionalAssociations: map[string]float64{"love": 0.9, "trust": 0.8}},
		{Name: "father", Category: "family", EmotionalAssociations: map[string]float64{"respect": 0.7, "love": 0.6}},
		{Name: "sibling", Category: "family", EmotionalAssociations: map[string]float64{"love": 0.6, "competition": 0.4}},

		// Health.
		{Name: "health", Category: "wellness", EmotionalAssociations: map[string]float64{"concern": 0.6, "care": 0.7}},
		{Name: "sleep", Category: "health", EmotionalAssociations: map[string]float64{"rest": 0.8, "anxiety": 0.3}},
		{Name: "exercise", Category: "health", EmotionalAssociations: map[string]float64{"energy": 0.8, "accomplishment": 0.6}},
		{Name: "meditation", Category: "health", EmotionalAssociations: map[string]float64{"calm": 0.9, "peace": 0.8}},

		// Social.
		{Name: "friend", Category: "relationships", EmotionalAssociations: map[string]float64{"joy": 0.7, "support": 0.8}},
		{Name: "social_event", Category: "social", EmotionalAssociations: map[string]float64{"anxiety": 0.5, "excitement": 0.6}},
		{Name: "conversation", Category: "social", EmotionalAssociations: map[string]float64{"connection": 0.6, "anxiety": 0.3}},

		// Hobby.
		{Name: "painting", Category: "hobby", EmotionalAssociations: map[string]float64{"joy": 0.8, "creativity": 0.9}},
		{Name: "music", Category: "hobby", EmotionalAssociations: map[string]float64{"joy": 0.7, "calm": 0.6}},
		{Name: "reading", Category: "hobby", EmotionalAssociations: map[string]float64{"escape": 0.7, "learning": 0.6}},
		{Name: "cooking", Category: "hobby", EmotionalAssociations: map[string]float64{"accomplishment": 0.6, "creativity": 0.5}},
	}
}

func defaultRelationships() []Relationship {
	return []Relationship{
		// Work.
		{Source: "work", Target: "stress", Type: "triggers", Strength: 0.8},
		{Source: "deadline", Target: "anxiety", Type: "triggers", Strength: 0.9},
		{Source: "deadline", Target: "fear", Type: "triggers", Strength: 0.7},
		{Source: "deadline", Target: "anger", Type: "triggers", Strength: 0.6},
		{Source: "work", Target: "anticipation", Type: "evokes", Strength: 0.4},
		{Source: "boss", Target: "fear", Type: "triggers", Strength: 0.6},

		// Family.
		{Source: "family", Target: "love", Type: "evokes", Strength: 0.8},
		{Source: "family", Target: "joy", Type: "evokes", Strength: 0.6},
		{Source: "mother", Target: "love", Type: "evokes", Strength: 0.9},
		{Source: "mother", Target: "trust", Type: "builds", Strength: 0.8},
		{Source: "father", Target: "trust", Type: "builds", Strength: 0.6},
		{Source: "sibling", Target: "joy", Type: "evokes", Strength: 0.5},

		// Health.
		{Source: "exercise", Target: "joy", Type: "evokes", Strength: 0.6},
		{Source: "exercise", Target: "anger", Type: "reduces", Strength: 0.7},
		{Source: "meditation", Target: "fear", Type: "reduces", Strength: 0.7},
		{Source: "meditation", Target: "trust", Type: "promotes", Strength: 0.5},
		{Source: "sleep", Target: "sadness", Type: "reduces", Strength: 0.5},

		// Social.
		{Source: "friend", Target: "joy", Type: "evokes", Strength: 0.7},
		{Source: "friend", Target: "sadness", Type: "reduces", Strength: 0.8},
		{Source: "social_event", Target: "fear", Type: "triggers", Strength: 0.5},
		{Source: "social_event", Target: "anticipation", Type: "evokes", Strength: 0.6},
		{Source: "conversation", Target: "trust", Type: "builds", Strength: 0.6},

		// Hobby.
		{Source: "painting", Target: "joy", Type: "evokes", Strength: 0.8},
		{Source: "music", Target: "joy", Type: "evokes", Strength: 0.6},
		{Source: "music", Target: "sadness", Type: "reduces", Strength: 0.7},
		{Source: "reading", Target: "fear", Type: "reduces", Strength: 0.4},
		{Source: "cooking", Target: "joy", Type: "evokes", Strength: 0.5},
	}
}
