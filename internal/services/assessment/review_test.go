package assessment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/quality"
	"meridian/internal/domain/review"
)

func cleanReview(productID uuid.UUID, rating int, age time.Duration) *review.Review {
	created := time.Now().UTC().Add(-age)
	return &review.Review{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		ProductID: productID,
		Rating:    rating,
		Title:     "Solid purchase",
		Text:      "Does exactly what it says, no complaints after a month of use.",
		Author:    "buyer-" + uuid.NewString()[:8],
		Verified:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestReviewAssessor_CleanBatch(t *testing.T) {
	assessor := NewReviewAssessor(DefaultConfig())

	productID := uuid.New()
	reviews := []*review.Review{
		cleanReview(productID, 4, 10*24*time.Hour),
		cleanReview(productID, 5, 20*24*time.Hour),
		cleanReview(productID, 3, 30*24*time.Hour),
	}

	report := assessor.Assess(reviews)

	assert.Greater(t, report.OverallScore, 0.9)
	assert.Len(t, report.Dimensions, 5)
	assert.Empty(t, report.Anomalies)
}

func TestReviewAssessor_EmptyBatch(t *testing.T) {
	assessor := NewReviewAssessor(DefaultConfig())

	report := assessor.Assess(nil)

	assert.Zero(t, report.OverallScore)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "no reviews")
}

func TestReviewAssessor_DetectsSurge(t *testing.T) {
	assessor := NewReviewAssessor(DefaultConfig())

	productID := uuid.New()
	var reviews []*review.Review
	// 8 of 12 reviews arrive within the last week
	for i := 0; i < 8; i++ {
		reviews = append(reviews, cleanReview(productID, 4, 2*24*time.Hour))
	}
	for i := 0; i < 4; i++ {
		reviews = append(reviews, cleanReview(productID, 4, 60*24*time.Hour))
	}

	report := assessor.Assess(reviews)

	found := false
	for _, a := range report.Anomalies {
		if a.Type == "review_surge" {
			found = true
			assert.Equal(t, quality.SeverityMedium, a.Severity)
			assert.Equal(t, []uuid.UUID{productID}, a.AffectedEntities)
		}
	}
	assert.True(t, found, "expected a review_surge anomaly")
}

func TestReviewAssessor_DetectsPolarization(t *testing.T) {
	assessor := NewReviewAssessor(DefaultConfig())

	productID := uuid.New()
	ratings := []int{1, 5, 1, 5, 1, 5}
	var reviews []*review.Review
	for _, r := range ratings {
		reviews = append(reviews, cleanReview(productID, r, 30*24*time.Hour))
	}

	report := assessor.Assess(reviews)

	found := false
	for _, a := range report.Anomalies {
		if a.Type == "rating_polarization" {
			found = true
			assert.Equal(t, quality.SeverityLow, a.Severity)
		}
	}
	assert.True(t, found, "expected a rating_polarization anomaly")
}

func TestReviewAssessor_InvalidRatingsHurtValidity(t *testing.T) {
	assessor := NewReviewAssessor(DefaultConfig())

	productID := uuid.New()
	reviews := []*review.Review{
		cleanReview(productID, 4, 24*time.Hour),
		cleanReview(productID, 9, 24*time.Hour),
		cleanReview(productID, 0, 24*time.Hour),
	}

	report := assessor.Assess(reviews)

	for _, d := range report.Dimensions {
		if d.Name == quality.DimValidity {
			assert.Less(t, d.Score, 1.0)
			assert.GreaterOrEqual(t, d.IssuesCount, 2)
		}
	}
}

func TestReviewAssessor_AnomalyOrderIsStable(t *testing.T) {
	assessor := NewReviewAssessor(DefaultConfig())

	productA := uuid.New()
	productB := uuid.New()
	var reviews []*review.Review
	for _, pid := range []uuid.UUID{productA, productB} {
		for _, r := range []int{1, 5, 1, 5, 5} {
			reviews = append(reviews, cleanReview(pid, r, 30*24*time.Hour))
		}
	}

	first := assessor.Assess(reviews)
	second := assessor.Assess(reviews)

	assert.Equal(t, first.Anomalies, second.Anomalies)
}
