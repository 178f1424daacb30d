package fusion

// emotionKeywords maps each internal emotion to its lexical cue words.
// Matching is exact-token membership on normalized text.
var emotionKeywords = map[string][]string{
	"joy": {
		"happy", "excited", "thrilled", "delighted", "ecstatic", "elated",
		"joyful", "cheerful", "pleased", "content", "satisfied", "grateful",
		"blessed", "fortunate", "lucky", "amazing", "wonderful", "fantastic",
		"great", "awesome", "brilliant", "excellent", "perfect",
	},
	"sadness": {
		"sad", "depressed", "melancholy", "grief", "sorrow", "heartbroken",
		"devastated", "crushed", "hopeless", "despair", "lonely", "isolated",
		"abandoned", "rejected", "worthless", "useless", "empty", "numb",
		"terrible", "awful", "miserable", "unhappy",
	},
	"anger": {
		"angry", "furious", "rage", "irritated", "annoyed", "frustrated",
		"mad", "livid", "outraged", "enraged", "hostile", "aggressive",
		"bitter", "resentful", "hate", "despise", "loathe",
		"upset", "fuming", "seething",
	},
	"fear": {
		"afraid", "scared", "terrified", "panicked", "anxious", "worried",
		"nervous", "tense", "stressed", "overwhelmed", "frightened", "horrified",
		"petrified", "alarmed", "distressed", "uneasy", "apprehensive",
		"anxiety", "panic", "dread", "fearful",
	},
	"trust": {
		"trust", "confident", "secure", "safe", "protected", "supported",
		"reliable", "dependable", "faithful", "loyal", "devoted", "committed",
	},
	"surprise": {
		"surprised", "shocked", "amazed", "astonished", "stunned", "bewildered",
		"confused", "perplexed", "puzzled", "startled",
		"wow", "omg", "unexpected", "sudden",
	},
	"disgust": {
		"disgusted", "repulsed", "revolted", "sickened", "nauseated", "appalled",
		"offended", "contempt", "scorn",
	},
	"anticipation": {
		"eager", "enthusiastic", "hopeful", "optimistic",
		"anticipating", "expecting", "waiting", "prepared", "ready",
	},
	"love": {
		"love", "adore", "cherish", "treasure", "affection", "fondness",
		"devotion", "passion", "romance", "intimacy", "connection",
	},
	"optimism": {
		"positive", "assured", "certain",
		"upbeat", "bright", "promising", "encouraging",
	},
	"neutral": {
		"hi", "hello", "hey", "goodbye", "bye", "thanks",
		"okay", "ok", "fine", "alright", "sure", "yes", "no", "maybe",
	},
}

// Intensity modifiers scale a keyword's base contribution when they appear
// within two tokens of the keyword.
var (
	highIntensityWords = []string{
		"extremely", "absolutely", "completely", "totally", "utterly",
		"incredibly", "massively", "overwhelmingly", "intensely", "deeply",
	}
	mediumIntensityWords = []string{
		"very", "quite", "rather", "pretty", "fairly",
		"moderately", "reasonably",
	}
	lowIntensityWords = []string{
		"slightly", "somewhat", "mildly", "gently", "softly",
	}

	// negationWords dampen a keyword when one appears within the three
	// tokens preceding it.
	negationWords = []string{
		"not", "no", "never", "none", "neither", "nor", "hardly",
		"barely", "scarcely", "rarely",
	}

	// causalConnectives introduce trigger phrases ("furious because my
	// deadline moved").
	causalConnectives = []string{
		"because", "since", "when", "after", "before", "during",
	}
)

// bodyPatterns maps body regions to the phrases that indicate them.
// Matching is substring on normalized text.
var bodyPatterns = map[string][]string{
	"chest": {
		"chest", "heart", "lungs", "ribs",
		"heart racing", "heart pounding", "chest tight", "chest heavy",
	},
	"head": {
		"head", "brain", "headache", "migraine",
		"dizzy", "lightheaded", "foggy",
	},
	"stomach": {
		"stomach", "gut", "belly", "abdomen", "nausea", "butterflies",
		"knot in stomach", "stomach churning",
	},
	"throat": {
		"throat", "choking", "lump in throat",
	},
	"limbs": {
		"arms", "legs", "hands", "feet",
		"shaking", "trembling",
	},
}

// classifierLabelMap maps external classifier label names onto the internal
// emotion vocabulary. Unmapped labels are dropped from fusion.
var classifierLabelMap = map[string]string{
	"joy":          "joy",
	"happiness":    "joy",
	"sadness":      "sadness",
	"anger":        "anger",
	"fear":         "fear",
	"surprise":     "surprise",
	"disgust":      "disgust",
	"love":         "love",
	"optimism":     "optimism",
	"trust":        "trust",
	"anticipation": "anticipation",
}
