package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/agents"
	"meridian/internal/domain/catalog"
	"meridian/internal/domain/insight"
	"meridian/internal/domain/review"
	"meridian/internal/domain/sales"
	"meridian/internal/services/assessment"
	"meridian/pkg/errors"
)

// In-memory record source

type mockCatalogRepo struct {
	products    []*catalog.Product
	competitors []*catalog.CompetitorProduct
	history     map[uuid.UUID][]*catalog.PricePoint
}

func (m *mockCatalogRepo) GetProducts(_ context.Context, _ uuid.UUID) ([]*catalog.Product, error) {
	return m.products, nil
}

func (m *mockCatalogRepo) GetProduct(_ context.Context, _, productID uuid.UUID) (*catalog.Product, error) {
	for _, p := range m.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return nil, errors.ErrNotFound
}

func (m *mockCatalogRepo) GetPriceHistory(_ context.Context, _, productID uuid.UUID, _ int) ([]*catalog.PricePoint, error) {
	return m.history[productID], nil
}

func (m *mockCatalogRepo) GetCompetitorProducts(_ context.Context, _ uuid.UUID, _ string) ([]*catalog.CompetitorProduct, error) {
	return m.competitors, nil
}

type mockReviewRepo struct {
	reviews []*review.Review
}

func (m *mockReviewRepo) GetByTenant(_ context.Context, _ uuid.UUID) ([]*review.Review, error) {
	return m.reviews, nil
}

func (m *mockReviewRepo) GetByProduct(_ context.Context, _, productID uuid.UUID) ([]*review.Review, error) {
	var out []*review.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockSalesRepo struct {
	history []*sales.DailySales
}

func (m *mockSalesRepo) GetHistory(_ context.Context, _, _ uuid.UUID, _ time.Time) ([]*sales.DailySales, error) {
	return m.history, nil
}

func (m *mockSalesRepo) GetTenantHistory(_ context.Context, _ uuid.UUID, _ time.Time) ([]*sales.DailySales, error) {
	return m.history, nil
}

type memoryCache struct {
	store map[string]*insight.StructuredReport
	gets  int
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: make(map[string]*insight.StructuredReport)}
}

func (c *memoryCache) Get(_ context.Context, key string) (*insight.StructuredReport, error) {
	c.gets++
	return c.store[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, report *insight.StructuredReport, _ bool) error {
	c.sets++
	c.store[key] = report
	return nil
}

func fixtureProducts(tenantID uuid.UUID, n int) []*catalog.Product {
	now := time.Now()
	products := make([]*catalog.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, &catalog.Product{
			ID:          uuid.New(),
			TenantID:    tenantID,
			SKU:         "SKU-" + uuid.NewString()[:8],
			Name:        "Ceramic Mug " + string(rune('A'+i)),
			Description: "Stoneware mug with glazed finish",
			Category:    "kitchen",
			Brand:       "Hearth",
			Currency:    "USD",
			Price:       decimal.NewFromFloat(19.99 + float64(i)),
			Inventory:   25,
			CreatedAt:   now.Add(-48 * time.Hour),
			UpdatedAt:   now.Add(-24 * time.Hour),
		})
	}
	return products
}

func newTestService(cat *mockCatalogRepo, rev *mockReviewRepo, sls *mockSalesRepo, opts Options) *Service {
	registry := agents.NewRegistry()
	registry.Register(agents.NewPricingAgent(agents.DefaultPricingConfig()))
	registry.Register(&stubAgent{agentType: insight.AgentSentiment, confidence: 0.6})
	registry.Register(agents.NewForecastAgent(agents.DefaultForecastConfig()))

	return NewService(
		NewRouter(),
		testEngine(),
		NewExecutor(registry),
		NewSynthesizer(),
		cat, rev, sls,
		assessment.NewProductAssessor(assessment.DefaultConfig()),
		assessment.NewReviewAssessor(assessment.DefaultConfig()),
		opts,
	)
}

func TestService_PricingQueryEndToEnd(t *testing.T) {
	tenantID := uuid.New()
	products := fixtureProducts(tenantID, 4)
	cat := &mockCatalogRepo{
		products: products,
		competitors: []*catalog.CompetitorProduct{{
			ID:     uuid.New(),
			SKU:    products[0].SKU,
			Name:   products[0].Name,
			Source: "marketplace-a",
			Price:  decimal.NewFromFloat(17.49),
		}},
		history: map[uuid.UUID][]*catalog.PricePoint{},
	}

	svc := newTestService(cat, &mockReviewRepo{}, &mockSalesRepo{}, Options{})

	report, err := svc.Analyze(context.Background(), Query{TenantID: tenantID, Text: "how are my prices vs competitors"})
	require.NoError(t, err)

	assert.Equal(t, string(IntentPricing), report.Intent)
	assert.Equal(t, tenantID, report.TenantID)
	require.NotNil(t, report.Pricing)
	assert.Nil(t, report.Sentiment)
	assert.NotEmpty(t, report.ExecutiveSummary)
	assert.GreaterOrEqual(t, report.OverallConfidence, 0.0)
	assert.LessOrEqual(t, report.OverallConfidence, 1.0)
}

func TestService_CacheHitSkipsExecution(t *testing.T) {
	tenantID := uuid.New()
	cat := &mockCatalogRepo{products: fixtureProducts(tenantID, 3), history: map[uuid.UUID][]*catalog.PricePoint{}}
	cache := newMemoryCache()

	svc := newTestService(cat, &mockReviewRepo{}, &mockSalesRepo{}, Options{Cache: cache})

	q := Query{TenantID: tenantID, Text: "price check"}

	first, err := svc.Analyze(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	second, err := svc.Analyze(context.Background(), q)
	require.NoError(t, err)

	// Second call is served from cache: same query id, no second store.
	assert.Equal(t, first.QueryID, second.QueryID)
	assert.Equal(t, 1, cache.sets)
}

func TestService_RejectsMissingTenant(t *testing.T) {
	svc := newTestService(&mockCatalogRepo{}, &mockReviewRepo{}, &mockSalesRepo{}, Options{})

	_, err := svc.Analyze(context.Background(), Query{Text: "price check"})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = svc.Analyze(context.Background(), Query{TenantID: uuid.New()})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestService_EmptyDataStillProducesReport(t *testing.T) {
	// No products, reviews, or sales: agents report insufficient data with
	// zero confidence, but the pipeline still synthesizes a report.
	svc := newTestService(&mockCatalogRepo{history: map[uuid.UUID][]*catalog.PricePoint{}}, &mockReviewRepo{}, &mockSalesRepo{}, Options{})

	report, err := svc.Analyze(context.Background(), Query{TenantID: uuid.New(), Text: "give me a comprehensive analysis"})
	require.NoError(t, err)

	require.NotNil(t, report.Pricing)
	assert.Equal(t, 0.0, report.Pricing.Confidence.Final)
	assert.InDelta(t, 0.2, report.OverallConfidence, 1e-9)
}
