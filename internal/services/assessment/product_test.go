package assessment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/quality"
)

func cleanProduct(price float64) *catalog.Product {
	now := time.Now().UTC()
	return &catalog.Product{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		SKU:         "SKU-" + uuid.NewString()[:8],
		Name:        "Product " + uuid.NewString()[:8],
		Description: "A reliable everyday product",
		Category:    "gadgets",
		Brand:       "Acme",
		Currency:    "USD",
		Price:       decimal.NewFromFloat(price),
		Inventory:   12,
		ImageURL:    "https://img.example.com/p.jpg",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestProductAssessor_CleanBatch(t *testing.T) {
	assessor := NewProductAssessor(DefaultConfig())

	products := []*catalog.Product{
		cleanProduct(19.99), cleanProduct(24.99), cleanProduct(22.49), cleanProduct(21.00),
	}

	report := assessor.Assess(products)

	assert.Greater(t, report.OverallScore, 0.95)
	assert.Len(t, report.Dimensions, 5)
	assert.Empty(t, report.Anomalies)
	assert.Equal(t, 4, report.EntitiesAssessed)
}

func TestProductAssessor_OverallScoreIsWeightedMean(t *testing.T) {
	assessor := NewProductAssessor(DefaultConfig())

	// degrade some dimensions so the weighting matters
	products := []*catalog.Product{
		cleanProduct(19.99), cleanProduct(24.99), cleanProduct(22.49),
	}
	products[0].Description = ""
	products[1].Brand = ""
	products[2].UpdatedAt = time.Now().UTC().Add(-60 * 24 * time.Hour)

	report := assessor.Assess(products)

	var want float64
	for _, d := range report.Dimensions {
		want += d.Score * productWeights[d.Name]
	}
	assert.InDelta(t, round3(want), report.OverallScore, 0.001)
}

func TestProductAssessor_PriceOutlierHighSeverity(t *testing.T) {
	assessor := NewProductAssessor(DefaultConfig())

	// Three tightly grouped prices make the 20x record an extreme outlier.
	products := []*catalog.Product{
		cleanProduct(10), cleanProduct(10.05), cleanProduct(9.95), cleanProduct(200),
	}

	report := assessor.Assess(products)

	// Only the 200 record crosses the z threshold; its peers' z against a
	// group that includes the outlier stays well under it.
	require.Len(t, report.Anomalies, 1)
	outlier := report.Anomalies[0]
	assert.Equal(t, "price_outlier", outlier.Type)
	assert.Equal(t, quality.SeverityHigh, outlier.Severity)
	assert.Equal(t, []uuid.UUID{products[3].ID}, outlier.AffectedEntities)

	// Confidence is min(0.95, z/5); a z in the thousands pins it at the cap.
	assert.Equal(t, 0.95, outlier.Confidence)
}

func TestProductAssessor_OutOfStockAnomaly(t *testing.T) {
	assessor := NewProductAssessor(DefaultConfig())

	products := []*catalog.Product{
		cleanProduct(10), cleanProduct(11), cleanProduct(12), cleanProduct(13),
	}
	for _, p := range products[:3] {
		p.Inventory = 0
	}

	report := assessor.Assess(products)

	found := false
	for _, a := range report.Anomalies {
		if a.Type == "high_out_of_stock_rate" {
			found = true
			assert.Equal(t, quality.SeverityHigh, a.Severity)
			assert.Len(t, a.AffectedEntities, 3)
		}
	}
	assert.True(t, found)
}

func TestProductAssessor_DuplicateSKUsHurtConsistency(t *testing.T) {
	assessor := NewProductAssessor(DefaultConfig())

	products := []*catalog.Product{
		cleanProduct(10), cleanProduct(11), cleanProduct(12),
	}
	products[1].SKU = products[0].SKU

	report := assessor.Assess(products)

	for _, d := range report.Dimensions {
		if d.Name == quality.DimConsistency {
			assert.Less(t, d.Score, 1.0)
			assert.Equal(t, 2, d.IssuesCount)
		}
	}
}

func TestProductAssessor_EmptyBatch(t *testing.T) {
	assessor := NewProductAssessor(DefaultConfig())

	report := assessor.Assess(nil)

	assert.Zero(t, report.OverallScore)
	assert.Zero(t, report.EntitiesAssessed)
	assert.Len(t, report.Dimensions, 5)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "no products")
}

func TestProductAssessor_Deterministic(t *testing.T) {
	assessor := NewProductAssessor(DefaultConfig())

	products := []*catalog.Product{
		cleanProduct(10), cleanProduct(11), cleanProduct(300),
	}
	products[0].Description = ""

	first := assessor.Assess(products)
	second := assessor.Assess(products)

	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.Dimensions, second.Dimensions)
	assert.Equal(t, first.Anomalies, second.Anomalies)
}
