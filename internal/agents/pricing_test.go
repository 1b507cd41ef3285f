package agents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/quality"
)

func product(sku, name string, price float64) *catalog.Product {
	return &catalog.Product{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		SKU:      sku,
		Name:     name,
		Currency: "USD",
		Price:    decimal.NewFromFloat(price),
	}
}

func competitor(sku, name string, price float64) *catalog.CompetitorProduct {
	return &catalog.CompetitorProduct{
		ID:     uuid.New(),
		Source: "marketplace-a",
		SKU:    sku,
		Name:   name,
		Price:  decimal.NewFromFloat(price),
	}
}

func cleanReport() *quality.Report {
	return &quality.Report{OverallScore: 1.0, EntitiesAssessed: 1, Timestamp: time.Now()}
}

func TestPricingAgent_NoProducts(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	result, err := agent.Analyze(context.Background(), &Input{}, cleanReport())
	require.NoError(t, err)
	require.NotNil(t, result.Pricing)

	assert.Equal(t, 0.0, result.Pricing.Confidence.Final)
	assert.Contains(t, result.Pricing.Reasoning, "insufficient data")
}

func TestPricingAgent_SKUExactMapping(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	p := product("ABC-123", "Wireless Mouse", 29.99)
	c := competitor("abc123", "Totally Different Name", 24.99)

	input := &Input{
		Products:    []*catalog.Product{p},
		Competitors: []*catalog.CompetitorProduct{c},
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Pricing.Mappings, 1)
	m := result.Pricing.Mappings[0]
	assert.Equal(t, "sku_exact", m.MatchMethod)
	assert.Equal(t, 1.0, m.Confidence)

	require.Len(t, result.Pricing.Gaps, 1)
	gap := result.Pricing.Gaps[0]
	assert.InDelta(t, -5.0, gap.Gap, 0.001)
	assert.InDelta(t, -16.672, gap.GapPct, 0.01)
}

func TestPricingAgent_NameSimilarityFloor(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	p := product("", "Ergonomic Wireless Mouse Black", 30)
	near := competitor("", "Black Wireless Ergonomic Mouse", 28)
	far := competitor("", "Leather Wallet Brown", 15)

	input := &Input{
		Products:    []*catalog.Product{p},
		Competitors: []*catalog.CompetitorProduct{near, far},
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	// Only the near-identical name clears the 0.80 confidence floor.
	require.Len(t, result.Pricing.Mappings, 1)
	assert.Equal(t, near.ID, result.Pricing.Mappings[0].CompetitorID)
	assert.Equal(t, "name_similarity", result.Pricing.Mappings[0].MatchMethod)
	assert.GreaterOrEqual(t, result.Pricing.Mappings[0].Confidence, 0.80)
}

func TestPricingAgent_PriceAlerts(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	p := product("SKU-1", "Desk Lamp", 100)
	now := time.Now()
	history := []*catalog.PricePoint{
		{ProductID: p.ID, Price: decimal.NewFromInt(100), RecordedAt: now.Add(-72 * time.Hour)},
		{ProductID: p.ID, Price: decimal.NewFromInt(102), RecordedAt: now.Add(-48 * time.Hour)}, // +2%, below threshold
		{ProductID: p.ID, Price: decimal.NewFromInt(90), RecordedAt: now.Add(-24 * time.Hour)},  // -11.8%
	}

	input := &Input{
		Products:     []*catalog.Product{p},
		PriceHistory: map[uuid.UUID][]*catalog.PricePoint{p.ID: history},
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Pricing.Alerts, 1)
	alert := result.Pricing.Alerts[0]
	assert.Equal(t, 102.0, alert.OldPrice)
	assert.Equal(t, 90.0, alert.NewPrice)
	assert.Less(t, alert.ChangePct, -5.0)
}

func TestPricingAgent_PriceAlertsNewestFirstHistory(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	p := product("SKU-1", "Desk Lamp", 90)
	now := time.Now()
	// Repository order: newest first.
	history := []*catalog.PricePoint{
		{ProductID: p.ID, Price: decimal.NewFromInt(90), RecordedAt: now.Add(-24 * time.Hour)},
		{ProductID: p.ID, Price: decimal.NewFromInt(102), RecordedAt: now.Add(-48 * time.Hour)},
		{ProductID: p.ID, Price: decimal.NewFromInt(100), RecordedAt: now.Add(-72 * time.Hour)},
	}

	input := &Input{
		Products:     []*catalog.Product{p},
		PriceHistory: map[uuid.UUID][]*catalog.PricePoint{p.ID: history},
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	// Chronologically the price dropped 102 -> 90; the alert must keep that
	// orientation no matter how the slice arrived.
	require.Len(t, result.Pricing.Alerts, 1)
	alert := result.Pricing.Alerts[0]
	assert.Equal(t, 102.0, alert.OldPrice)
	assert.Equal(t, 90.0, alert.NewPrice)
	assert.Less(t, alert.ChangePct, -5.0)
	assert.Equal(t, now.Add(-24*time.Hour), alert.ObservedAt)
}

func TestPricingAgent_Promotions(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	promo := product("SKU-1", "Desk Lamp", 80)
	promo.OriginalPrice = decimal.NewFromInt(100)
	regular := product("SKU-2", "Desk Chair", 150)

	input := &Input{Products: []*catalog.Product{promo, regular}}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Pricing.Promotions, 1)
	assert.Equal(t, promo.ID, result.Pricing.Promotions[0].ProductID)
	assert.InDelta(t, 20.0, result.Pricing.Promotions[0].DiscountPct, 0.001)
}

func TestPricingAgent_SuggestionAboveMarket(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	p := product("SKU-1", "Desk Lamp", 120)
	c1 := competitor("SKU-1", "Desk Lamp", 100)
	c2 := competitor("SKU-1", "Desk Lamp", 80)

	input := &Input{
		Products:    []*catalog.Product{p},
		Competitors: []*catalog.CompetitorProduct{c1, c2},
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Pricing.Suggestions, 1)
	s := result.Pricing.Suggestions[0]
	assert.Equal(t, 90.0, s.MarketAverage)
	// Halfway from 120 toward the 90 average.
	assert.Equal(t, 105.0, s.SuggestedPrice)
}

func TestPricingAgent_SuggestionClampedByMargin(t *testing.T) {
	agent := NewPricingAgent(PricingConfig{MaxDiscountPct: 10})

	p := product("SKU-1", "Desk Lamp", 200)
	c := competitor("SKU-1", "Desk Lamp", 100)

	input := &Input{
		Products:    []*catalog.Product{p},
		Competitors: []*catalog.CompetitorProduct{c},
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Pricing.Suggestions, 1)
	s := result.Pricing.Suggestions[0]
	// Halfway toward 100 would be 150, below the 10% discount floor of 180.
	assert.Equal(t, 180.0, s.SuggestedPrice)
	assert.Contains(t, s.Rationale, "margin constraint")
}

func TestPricingAgent_AnomalyPenaltyApplied(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	p := product("SKU-1", "Desk Lamp", 100)
	c := competitor("SKU-1", "Desk Lamp", 95)

	report := cleanReport()
	report.OverallScore = 0.9
	report.Anomalies = []quality.Anomaly{{
		Type:             "price_outlier",
		Severity:         quality.SeverityHigh,
		AffectedEntities: []uuid.UUID{p.ID},
		Confidence:       0.9,
	}}

	input := &Input{
		ProductID:   &p.ID,
		Products:    []*catalog.Product{p},
		Competitors: []*catalog.CompetitorProduct{c},
	}

	result, err := agent.Analyze(context.Background(), input, report)
	require.NoError(t, err)

	conf := result.Pricing.Confidence
	assert.Equal(t, 0.9, conf.QualityScore)
	assert.Equal(t, 0.70, conf.AnomalyPenalty)
	assert.InDelta(t, conf.Base*0.9*0.70, conf.Final, 0.001)
}

func TestPricingAgent_NilReportZeroConfidence(t *testing.T) {
	agent := NewPricingAgent(DefaultPricingConfig())

	p := product("SKU-1", "Desk Lamp", 100)
	c := competitor("SKU-1", "Desk Lamp", 95)

	input := &Input{
		Products:    []*catalog.Product{p},
		Competitors: []*catalog.CompetitorProduct{c},
	}

	result, err := agent.Analyze(context.Background(), input, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Pricing.Confidence.Final)
}
