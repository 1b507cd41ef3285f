package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/adapters/ai"
	"meridian/internal/domain/insight"
	"meridian/internal/domain/review"
)

// scriptedClassifier returns a fixed verdict per review text.
type scriptedClassifier struct {
	verdicts map[string]ai.Classification
}

func (c *scriptedClassifier) Name() string { return "scripted" }

func (c *scriptedClassifier) Classify(_ context.Context, text string) (ai.Classification, error) {
	if v, ok := c.verdicts[text]; ok {
		return v, nil
	}
	return ai.Classification{Label: "positive", Score: 0.9}, nil
}

type failingClusterer struct{}

func (c *failingClusterer) Name() string { return "failing" }

func (c *failingClusterer) Cluster(_ context.Context, _ []string, _ int) ([]insight.TopicCluster, error) {
	return nil, fmt.Errorf("backend down")
}

func makeReview(text string, rating int) *review.Review {
	return &review.Review{
		ID:     uuid.New(),
		Rating: rating,
		Text:   text,
	}
}

func TestSentimentAgent_NoReviews(t *testing.T) {
	agent := NewSentimentAgent(DefaultSentimentConfig(), &scriptedClassifier{}, &failingClusterer{})

	result, err := agent.Analyze(context.Background(), &Input{}, cleanReport())
	require.NoError(t, err)
	require.NotNil(t, result.Sentiment)

	assert.Equal(t, 0.0, result.Sentiment.Confidence.Final)
	assert.Equal(t, insight.SentimentNeutral, result.Sentiment.AggregateLabel)
	assert.Contains(t, result.Sentiment.Reasoning, "insufficient data")
}

func TestSentimentAgent_LowScoreRemapsToNeutral(t *testing.T) {
	classifier := &scriptedClassifier{verdicts: map[string]ai.Classification{
		"meh": {Label: "positive", Score: 0.55},
	}}
	agent := NewSentimentAgent(DefaultSentimentConfig(), classifier, &failingClusterer{})

	input := &Input{Reviews: []*review.Review{makeReview("meh", 3)}}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Sentiment.Reviews, 1)
	rs := result.Sentiment.Reviews[0]
	assert.Equal(t, insight.SentimentNeutral, rs.Label)
	assert.InDelta(t, 0.45, rs.Score, 1e-9)
	assert.Equal(t, 1, result.Sentiment.NeutralCount)
}

func TestSentimentAgent_AggregateAndCounts(t *testing.T) {
	classifier := &scriptedClassifier{verdicts: map[string]ai.Classification{
		"love it":  {Label: "positive", Score: 0.9},
		"hate it":  {Label: "negative", Score: 0.8},
		"it is ok": {Label: "positive", Score: 0.5},
	}}
	agent := NewSentimentAgent(DefaultSentimentConfig(), classifier, &failingClusterer{})

	input := &Input{Reviews: []*review.Review{
		makeReview("love it", 5),
		makeReview("hate it", 1),
		makeReview("it is ok", 3),
	}}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	s := result.Sentiment
	assert.Equal(t, 1, s.PositiveCount)
	assert.Equal(t, 1, s.NegativeCount)
	assert.Equal(t, 1, s.NeutralCount)
	// (0.9 - 0.8 + 0) / 3
	assert.InDelta(t, 0.0333, s.Aggregate, 0.001)
	assert.Equal(t, insight.SentimentNeutral, s.AggregateLabel)
}

func TestSentimentAgent_FullSampleConfidence(t *testing.T) {
	agent := NewSentimentAgent(DefaultSentimentConfig(), &scriptedClassifier{}, &failingClusterer{})

	// 25 reviews exceed the 20-review cap, so base confidence is exactly 1.
	// With quality 0.9 and no anomalies the final confidence must be 0.9.
	reviews := make([]*review.Review, 25)
	for i := range reviews {
		reviews[i] = makeReview(fmt.Sprintf("review %d is great", i), 5)
	}

	report := cleanReport()
	report.OverallScore = 0.9

	result, err := agent.Analyze(context.Background(), &Input{Reviews: reviews}, report)
	require.NoError(t, err)

	conf := result.Sentiment.Confidence
	assert.Equal(t, 1.0, conf.Base)
	assert.Equal(t, 1.0, conf.AnomalyPenalty)
	assert.Equal(t, 0.9, conf.Final)
}

func TestSentimentAgent_CueExtraction(t *testing.T) {
	agent := NewSentimentAgent(DefaultSentimentConfig(), &scriptedClassifier{}, &failingClusterer{})

	input := &Input{Reviews: []*review.Review{
		makeReview("Would be nice if it came with a carrying case", 4),
		makeReview("Stopped working after two weeks, want a refund", 1),
		makeReview("Works fine", 4),
	}}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Sentiment.FeatureRequests, 1)
	assert.Contains(t, result.Sentiment.FeatureRequests[0], "carrying case")
	require.Len(t, result.Sentiment.Complaints, 1)
	assert.Contains(t, result.Sentiment.Complaints[0], "refund")
}

func TestSentimentAgent_ClusteringFailureIsNotAnError(t *testing.T) {
	agent := NewSentimentAgent(DefaultSentimentConfig(), &scriptedClassifier{}, &failingClusterer{})

	reviews := make([]*review.Review, 9)
	for i := range reviews {
		reviews[i] = makeReview(fmt.Sprintf("review number %d", i), 4)
	}

	result, err := agent.Analyze(context.Background(), &Input{Reviews: reviews}, cleanReport())
	require.NoError(t, err)
	assert.Empty(t, result.Sentiment.Topics)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	// Multi-byte runes are never split.
	assert.Equal(t, "a", truncate("aéé", 2))
}
