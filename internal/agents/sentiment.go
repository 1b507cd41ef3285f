package agents

import (
	"context"
	"fmt"
	"math"
	"strings"

	"meridian/internal/adapters/ai"
	"meridian/internal/clustering"
	"meridian/internal/domain/insight"
	"meridian/internal/domain/quality"
	"meridian/internal/domain/review"
	"meridian/pkg/logger"
)

// SentimentConfig tunes the sentiment agent
type SentimentConfig struct {
	// MaxTextLen truncates review text before handing it to the classifier.
	MaxTextLen int

	// NeutralBelow remaps classifier verdicts under this score to neutral.
	NeutralBelow float64

	// FullConfidenceReviews is the sample size at which base confidence
	// reaches 1.0.
	FullConfidenceReviews int
}

// DefaultSentimentConfig returns the standard sentiment thresholds.
func DefaultSentimentConfig() SentimentConfig {
	return SentimentConfig{
		MaxTextLen:            512,
		NeutralBelow:          0.6,
		FullConfidenceReviews: 20,
	}
}

// Phrase cues for actionable review mining. Matched case-insensitively
// against the full review text.
var (
	featureRequestCues = []string{
		"wish it", "would be nice", "would be great", "should have",
		"should add", "please add", "needs a", "needs an", "missing a",
		"if only", "hope they add", "would love",
	}
	complaintCues = []string{
		"broke", "broken", "stopped working", "doesn't work", "does not work",
		"refund", "return", "never arrived", "damaged", "defective",
		"waste of money", "too expensive", "poor quality", "false advertising",
		"customer service", "never again",
	}
)

// SentimentAgent classifies reviews, aggregates sentiment, and mines
// topics, feature requests, and complaint patterns.
type SentimentAgent struct {
	cfg        SentimentConfig
	classifier ai.Classifier
	clusterer  clustering.Service
	log        *logger.Logger
}

// NewSentimentAgent creates a sentiment agent with the given collaborators.
func NewSentimentAgent(cfg SentimentConfig, classifier ai.Classifier, clusterer clustering.Service) *SentimentAgent {
	if cfg.MaxTextLen <= 0 {
		cfg.MaxTextLen = 512
	}
	if cfg.NeutralBelow <= 0 {
		cfg.NeutralBelow = 0.6
	}
	if cfg.FullConfidenceReviews <= 0 {
		cfg.FullConfidenceReviews = 20
	}
	return &SentimentAgent{
		cfg:        cfg,
		classifier: classifier,
		clusterer:  clusterer,
		log:        logger.Get().With("component", "sentiment_agent", "classifier", classifier.Name()),
	}
}

// Type implements Agent.
func (a *SentimentAgent) Type() insight.AgentType { return insight.AgentSentiment }

// Analyze implements Agent.
func (a *SentimentAgent) Analyze(ctx context.Context, input *Input, report *quality.Report) (*insight.DomainResult, error) {
	if len(input.Reviews) == 0 {
		return &insight.DomainResult{Sentiment: &insight.SentimentResult{
			AggregateLabel: insight.SentimentNeutral,
			Confidence:     composeFor(0, report, input),
			Reasoning:      "insufficient data: no reviews to analyze",
		}}, nil
	}

	classified, err := a.classifyAll(ctx, input.Reviews)
	if err != nil {
		return nil, err
	}

	aggregate, posCount, negCount, neuCount := aggregateSentiment(classified)
	label := aggregateLabel(aggregate)

	topics := a.clusterTopics(ctx, input.Reviews)
	requests := extractCues(input.Reviews, featureRequestCues)
	complaints := extractCues(input.Reviews, complaintCues)

	base := math.Min(1, float64(len(classified))/float64(a.cfg.FullConfidenceReviews))
	conf := composeFor(base, report, input)

	result := &insight.SentimentResult{
		Aggregate:       aggregate,
		AggregateLabel:  label,
		PositiveCount:   posCount,
		NegativeCount:   negCount,
		NeutralCount:    neuCount,
		Reviews:         classified,
		Topics:          topics,
		FeatureRequests: requests,
		Complaints:      complaints,
		Confidence:      conf,
		Reasoning: fmt.Sprintf(
			"classified %d reviews (%d positive, %d negative, %d neutral), aggregate %.2f; base confidence %.2f from sample size",
			len(classified), posCount, negCount, neuCount, aggregate, base),
	}

	a.log.Debugf("Sentiment analysis: %d reviews, aggregate %.2f (%s), %d topics, final confidence %.3f",
		len(classified), aggregate, label, len(topics), conf.Final)

	return &insight.DomainResult{Sentiment: result}, nil
}

// classifyAll runs every review through the classifier. Verdicts below the
// neutral threshold flip to neutral with inverted confidence, so a barely
// positive 0.55 becomes neutral 0.45.
func (a *SentimentAgent) classifyAll(ctx context.Context, reviews []*review.Review) ([]insight.ReviewSentiment, error) {
	out := make([]insight.ReviewSentiment, 0, len(reviews))
	for _, r := range reviews {
		text := truncate(reviewText(r), a.cfg.MaxTextLen)
		c, err := a.classifier.Classify(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("classify review %s: %w", r.ID, err)
		}

		rs := insight.ReviewSentiment{
			ReviewID: r.ID,
			Rating:   r.Rating,
			Score:    c.Score,
		}
		switch {
		case c.Score < a.cfg.NeutralBelow:
			rs.Label = insight.SentimentNeutral
			rs.Score = 1 - c.Score
		case c.Label == "negative":
			rs.Label = insight.SentimentNegative
		default:
			rs.Label = insight.SentimentPositive
		}
		out = append(out, rs)
	}
	return out, nil
}

// aggregateSentiment computes the mean signed, confidence-weighted score
// in [-1, 1]: positives contribute +score, negatives -score, neutrals 0.
func aggregateSentiment(reviews []insight.ReviewSentiment) (aggregate float64, pos, neg, neu int) {
	var sum float64
	for _, r := range reviews {
		switch r.Label {
		case insight.SentimentPositive:
			pos++
			sum += r.Score
		case insight.SentimentNegative:
			neg++
			sum -= r.Score
		default:
			neu++
		}
	}
	if len(reviews) > 0 {
		aggregate = sum / float64(len(reviews))
	}
	return aggregate, pos, neg, neu
}

func aggregateLabel(aggregate float64) insight.SentimentLabel {
	switch {
	case aggregate > 0.15:
		return insight.SentimentPositive
	case aggregate < -0.15:
		return insight.SentimentNegative
	}
	return insight.SentimentNeutral
}

// clusterTopics asks the clustering backend for up to min(5, n/3) topics.
// Degenerate input or a backend failure means "no topics", never an error.
func (a *SentimentAgent) clusterTopics(ctx context.Context, reviews []*review.Review) []insight.TopicCluster {
	texts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if t := strings.TrimSpace(r.Text); t != "" {
			texts = append(texts, t)
		}
	}

	k := len(texts) / 3
	if k > 5 {
		k = 5
	}
	if k < 1 {
		return nil
	}

	topics, err := a.clusterer.Cluster(ctx, texts, k)
	if err != nil {
		a.log.Warnf("Topic clustering failed (%s backend), continuing without topics: %v",
			a.clusterer.Name(), err)
		return nil
	}
	return topics
}

// extractCues collects review texts matching any of the given phrase cues,
// deduplicated, capped at ten.
func extractCues(reviews []*review.Review, cues []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range reviews {
		text := strings.TrimSpace(r.Text)
		if text == "" || seen[text] {
			continue
		}
		lower := strings.ToLower(text)
		for _, cue := range cues {
			if strings.Contains(lower, cue) {
				seen[text] = true
				out = append(out, text)
				break
			}
		}
		if len(out) >= 10 {
			break
		}
	}
	return out
}

func reviewText(r *review.Review) string {
	if r.Title == "" {
		return r.Text
	}
	return r.Title + ". " + r.Text
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary.
	for max > 0 && s[max]&0xC0 == 0x80 {
		max--
	}
	return s[:max]
}
