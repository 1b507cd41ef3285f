package sentiment

import (
	"strings"
	"unicode"
)

// Word lists mirror the lexicon backend so the hand-crafted features stay
// aligned with the training pipeline, which uses the same lists.
var (
	positiveCues = []string{
		"good", "great", "excellent", "love", "amazing", "perfect",
		"wonderful", "fantastic", "best", "happy", "recommend", "quality",
		"fast", "easy", "works", "beautiful", "comfortable", "durable",
	}
	negativeCues = []string{
		"bad", "terrible", "awful", "hate", "horrible", "worst", "broken",
		"useless", "poor", "slow", "disappointed", "refund", "waste",
		"cheap", "defective", "damaged", "late", "missing", "stopped",
	}
	negationCues = []string{"not", "no", "never", "don't", "doesn't", "didn't", "won't", "can't"}
)

// Features is the hand-crafted feature set the sentiment model consumes.
// Field order here must match the training pipeline's column order.
type Features struct {
	CharCount        float64
	WordCount        float64
	AvgWordLength    float64
	SentenceCount    float64
	ExclamationCount float64
	QuestionCount    float64
	UppercaseRatio   float64
	DigitRatio       float64
	PositiveHits     float64
	NegativeHits     float64
	NegationHits     float64
	PolarityBalance  float64
}

// NumFeatures is the size of the model input vector.
const NumFeatures = 12

// ExtractFeatures computes the feature set for a review text.
func ExtractFeatures(text string) Features {
	var f Features

	runes := []rune(text)
	f.CharCount = float64(len(runes))

	upper, digits := 0, 0
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if len(runes) > 0 {
		f.UppercaseRatio = float64(upper) / float64(len(runes))
		f.DigitRatio = float64(digits) / float64(len(runes))
	}

	f.ExclamationCount = float64(strings.Count(text, "!"))
	f.QuestionCount = float64(strings.Count(text, "?"))
	f.SentenceCount = float64(strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?"))
	if f.SentenceCount == 0 {
		f.SentenceCount = 1
	}

	words := strings.Fields(text)
	f.WordCount = float64(len(words))
	if len(words) > 0 {
		totalLen := 0
		for _, w := range words {
			totalLen += len([]rune(w))
		}
		f.AvgWordLength = float64(totalLen) / float64(len(words))
	}

	lower := strings.ToLower(text)
	for _, cue := range positiveCues {
		if strings.Contains(lower, cue) {
			f.PositiveHits++
		}
	}
	for _, cue := range negativeCues {
		if strings.Contains(lower, cue) {
			f.NegativeHits++
		}
	}
	for _, cue := range negationCues {
		for _, w := range words {
			if strings.ToLower(strings.Trim(w, ".,!?")) == cue {
				f.NegationHits++
			}
		}
	}

	total := f.PositiveHits + f.NegativeHits
	if total > 0 {
		f.PolarityBalance = (f.PositiveHits - f.NegativeHits) / total
	}

	return f
}

// ToFeatureVector flattens the features in the training column order.
func (f *Features) ToFeatureVector() []float64 {
	return []float64{
		f.CharCount,
		f.WordCount,
		f.AvgWordLength,
		f.SentenceCount,
		f.ExclamationCount,
		f.QuestionCount,
		f.UppercaseRatio,
		f.DigitRatio,
		f.PositiveHits,
		f.NegativeHits,
		f.NegationHits,
		f.PolarityBalance,
	}
}
