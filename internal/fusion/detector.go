// Package fusion combines a deterministic lexical emotion scorer with an
// optional external classifier into a single normalized emotion signal.
// Classifier failures never fail a turn: the signal degrades to
// lexical-only scores with the Degraded flag set.
package fusion

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/attuneai/attune/internal/classifier"
	"github.com/attuneai/attune/internal/knowledge"
	"github.com/attuneai/attune/pkg/types"
)

const (
	// keywordBaseScore is the lexical contribution of one keyword hit
	// before intensity and negation adjustments.
	keywordBaseScore = 0.3

	// lexicalWeight and classifierWeight set the fusion mix.
	lexicalWeight    = 0.4
	classifierWeight = 0.6

	// defaultClassifierTimeout bounds the external classification call so a
	// slow model cannot block the turn.
	defaultClassifierTimeout = 300 * time.Millisecond
)

// Intensity modifier multipliers and the negation damping factor.
const (
	highIntensityMult   = 2.0
	mediumIntensityMult = 1.5
	lowIntensityMult    = 0.7
	negationFactor      = 0.3
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`[^\w\s]`)
	capsTokenRe  = regexp.MustCompile(`\b[A-Z]{2,}\b`)
)

// Detector fuses lexical and classifier emotion scores. It is stateless
// apart from its collaborators and safe for concurrent use.
type Detector struct {
	graph   *knowledge.Graph
	clf     classifier.Classifier
	timeout time.Duration
}

// NewDetector creates a Detector over the shared knowledge graph. clf may be
// classifier.Nop{} for lexical-only operation.
func NewDetector(graph *knowledge.Graph, clf classifier.Classifier, timeout time.Duration) *Detector {
	if clf == nil {
		clf = classifier.Nop{}
	}
	if timeout <= 0 {
		timeout = defaultClassifierTimeout
	}
	return &Detector{graph: graph, clf: clf, timeout: timeout}
}

// Detect analyzes one utterance and returns its fused emotion signal.
//
// The pipeline: normalize text, score keywords with intensity and negation
// adjustments, blend in classifier predictions at 60% weight when available,
// L1-normalize, then derive intensity, valence, and arousal. If nothing
// fires, the signal is exactly {neutral: 1.0}.
func (d *Detector) Detect(ctx context.Context, text string) *types.EmotionSignal {
	normalized := normalizeText(text)
	tokens := strings.Fields(normalized)

	lexical := d.lexicalScores(tokens)

	mlScores, degraded := d.classifierScores(ctx, text)

	raw := fuse(lexical, mlScores)
	if len(raw) == 0 {
		signal := types.Neutral()
		signal.Degraded = degraded
		return signal
	}

	// Intensity reads the strongest raw score; the distribution itself is
	// L1-normalized afterwards.
	intensity := types.ClampUnit(maxScore(raw) + textIntensityBonus(text, tokens))

	combined := make(map[string]float64, len(raw))
	for emotion, score := range raw {
		combined[emotion] = score
	}
	normalizeL1(combined)

	primary, confidence := d.argmax(combined)

	valence, arousal := d.graph.Dimensions(primary)

	return &types.EmotionSignal{
		Primary:        primary,
		Confidence:     confidence,
		AllEmotions:    combined,
		Intensity:      intensity,
		Valence:        types.ClampValence(valence * intensity),
		Arousal:        types.ClampUnit(arousal * intensity),
		BodySensations: detectBodySensations(normalized),
		Triggers:       extractTriggers(tokens),
		Degraded:       degraded,
	}
}

// ExtractConcepts returns the knowledge-graph concepts mentioned in text,
// in catalog order.
func (d *Detector) ExtractConcepts(text string) []string {
	tokens := strings.Fields(normalizeText(text))
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		seen[tok] = true
	}

	var concepts []string
	for _, name := range d.graph.ConceptNames() {
		if seen[name] {
			concepts = append(concepts, name)
		}
	}
	return concepts
}

// normalizeText lowercases, strips punctuation, and collapses whitespace.
func normalizeText(text string) string {
	text = strings.ToLower(text)
	text = punctRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// lexicalScores runs the keyword pass and returns raw, un-normalized scores.
// An empty map means no keyword fired.
func (d *Detector) lexicalScores(tokens []string) map[string]float64 {
	scores := make(map[string]float64)

	for emotion, keywords := range emotionKeywords {
		for _, keyword := range keywords {
			idx := indexOf(tokens, keyword)
			if idx < 0 {
				continue
			}
			scores[emotion] += keywordBaseScore *
				intensityMultiplier(tokens, idx) *
				negationDamping(tokens, idx)
		}
	}

	return scores
}

// classifierScores invokes the external classifier with a bounded timeout
// and maps its labels onto the internal vocabulary. The second return value
// reports whether the classifier failed (degraded operation).
func (d *Detector) classifierScores(ctx context.Context, text string) (map[string]float64, bool) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	predictions, err := d.clf.Classify(ctx, text)
	if err != nil {
		log.Printf("fusion: classifier unavailable, using lexical-only scores: %v", err)
		return nil, true
	}

	scores := make(map[string]float64, len(predictions))
	for _, p := range predictions {
		mapped, ok := classifierLabelMap[strings.ToLower(p.Label)]
		if !ok {
			continue
		}
		scores[mapped] += types.ClampUnit(p.Score)
	}
	return scores, false
}

// fuse blends lexical and classifier scores (0.4/0.6). When the classifier
// contributed nothing, the lexical scores pass through unweighted so a
// lexical-only deployment keeps its full signal strength.
func fuse(lexical, ml map[string]float64) map[string]float64 {
	if len(ml) == 0 {
		return lexical
	}

	combined := make(map[string]float64, len(lexical)+len(ml))
	for emotion, score := range lexical {
		combined[emotion] += score * lexicalWeight
	}
	for emotion, score := range ml {
		combined[emotion] += score * classifierWeight
	}
	return combined
}

// argmax returns the highest-scoring emotion. Ties resolve to the first
// emotion in canonical catalog order, with neutral last.
func (d *Detector) argmax(scores map[string]float64) (string, float64) {
	best := ""
	bestScore := -1.0
	for _, name := range append(d.graph.EmotionNames(), "neutral") {
		if score, ok := scores[name]; ok && score > bestScore {
			best = name
			bestScore = score
		}
	}
	// Scores for emotions outside the catalog order can only come from the
	// lexicon, which is a subset of the catalog, so best is always set.
	return best, bestScore
}

// indexOf returns the index of the first occurrence of want, or -1.
func indexOf(tokens []string, want string) int {
	for i, tok := range tokens {
		if tok == want {
			return i
		}
	}
	return -1
}

// intensityMultiplier inspects the two tokens on either side of the keyword
// for intensity adverbs. The strongest class found wins.
func intensityMultiplier(tokens []string, idx int) float64 {
	lo := max(0, idx-2)
	hi := min(len(tokens), idx+3)
	for i := lo; i < hi; i++ {
		if i == idx {
			continue
		}
		switch {
		case contains(highIntensityWords, tokens[i]):
			return highIntensityMult
		case contains(mediumIntensityWords, tokens[i]):
			return mediumIntensityMult
		case contains(lowIntensityWords, tokens[i]):
			return lowIntensityMult
		}
	}
	return 1.0
}

// negationDamping checks the three tokens preceding the keyword for a
// negation word.
func negationDamping(tokens []string, idx int) float64 {
	lo := max(0, idx-3)
	for i := lo; i < idx; i++ {
		if contains(negationWords, tokens[i]) {
			return negationFactor
		}
	}
	return 1.0
}

// textIntensityBonus accumulates intensity from surface features of the raw
// text: exclamation marks, ALL-CAPS tokens, and high-intensity words. Each
// source is capped independently.
func textIntensityBonus(raw string, tokens []string) float64 {
	bonus := min(float64(strings.Count(raw, "!"))*0.1, 0.3)
	bonus += min(float64(len(capsTokenRe.FindAllString(raw, -1)))*0.05, 0.2)

	intensityHits := 0
	for _, tok := range tokens {
		if contains(highIntensityWords, tok) {
			intensityHits++
		}
	}
	bonus += min(float64(intensityHits)*0.1, 0.3)

	return bonus
}

// detectBodySensations returns the body regions whose patterns appear in the
// normalized text.
func detectBodySensations(normalized string) []string {
	var regions []string
	for region, patterns := range bodyPatterns {
		for _, pattern := range patterns {
			if strings.Contains(normalized, pattern) {
				regions = append(regions, region)
				break
			}
		}
	}
	return regions
}

// extractTriggers returns the short phrases following causal connectives
// ("because my deadline" yields "my deadline").
func extractTriggers(tokens []string) []string {
	var triggers []string
	for i, tok := range tokens {
		if !contains(causalConnectives, tok) || i+1 >= len(tokens) {
			continue
		}
		hi := min(len(tokens), i+3)
		triggers = append(triggers, strings.Join(tokens[i+1:hi], " "))
	}
	return triggers
}

// maxScore returns the largest value in scores.
func maxScore(scores map[string]float64) float64 {
	best := 0.0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	return best
}

// normalizeL1 scales scores in place so they sum to 1.0. No-op on an empty
// or all-zero map.
func normalizeL1(scores map[string]float64) {
	var total float64
	for _, s := range scores {
		total += s
	}
	if total <= 0 {
		return
	}
	for emotion := range scores {
		scores[emotion] /= total
	}
}

// contains reports whether list holds want.
func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
