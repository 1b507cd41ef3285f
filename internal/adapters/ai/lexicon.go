package ai

import (
	"context"
	"strings"
)

// Default word lists for the lexicon classifier. Deliberately small: this
// backend exists as a dependency-free fallback and a test double for the
// model-backed classifiers.
var (
	positiveWords = []string{
		"good", "great", "excellent", "love", "amazing", "perfect",
		"wonderful", "fantastic", "best", "happy", "recommend", "quality",
		"fast", "easy", "works", "beautiful", "comfortable", "durable",
	}
	negativeWords = []string{
		"bad", "terrible", "awful", "hate", "horrible", "worst", "broken",
		"useless", "poor", "slow", "disappointed", "refund", "waste",
		"cheap", "defective", "damaged", "late", "missing", "stopped",
	}
)

// LexiconClassifier is a deterministic keyword-count classifier.
type LexiconClassifier struct{}

// NewLexiconClassifier creates the lexicon-backed classifier.
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{}
}

// Name implements Classifier.
func (c *LexiconClassifier) Name() string { return "lexicon" }

// Classify counts positive and negative lexicon hits. The score reflects
// how lopsided the counts are: an even split scores 0.5, a clean sweep
// approaches 1.0.
func (c *LexiconClassifier) Classify(_ context.Context, text string) (Classification, error) {
	lower := strings.ToLower(text)

	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return Classification{Label: "positive", Score: 0.5}, nil
	}

	if pos >= neg {
		return Classification{Label: "positive", Score: 0.5 + 0.5*float64(pos-neg)/float64(total)}, nil
	}
	return Classification{Label: "negative", Score: 0.5 + 0.5*float64(neg-pos)/float64(total)}, nil
}
