package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/quality"
	"meridian/internal/domain/review"
	"meridian/internal/services/assessment"
	"meridian/pkg/errors"
)

type stubTenantSource struct {
	tenants []uuid.UUID
	err     error
}

func (s *stubTenantSource) ListTenants(_ context.Context) ([]uuid.UUID, error) {
	return s.tenants, s.err
}

type stubCatalogRepo struct {
	products map[uuid.UUID][]*catalog.Product
	err      error
}

func (s *stubCatalogRepo) GetProducts(_ context.Context, tenantID uuid.UUID) ([]*catalog.Product, error) {
	return s.products[tenantID], s.err
}

func (s *stubCatalogRepo) GetProduct(_ context.Context, _, _ uuid.UUID) (*catalog.Product, error) {
	return nil, errors.ErrNotFound
}

func (s *stubCatalogRepo) GetPriceHistory(_ context.Context, _, _ uuid.UUID, _ int) ([]*catalog.PricePoint, error) {
	return nil, nil
}

func (s *stubCatalogRepo) GetCompetitorProducts(_ context.Context, _ uuid.UUID, _ string) ([]*catalog.CompetitorProduct, error) {
	return nil, nil
}

type stubReviewRepo struct {
	reviews map[uuid.UUID][]*review.Review
	err     error
}

func (s *stubReviewRepo) GetByTenant(_ context.Context, tenantID uuid.UUID) ([]*review.Review, error) {
	return s.reviews[tenantID], s.err
}

func (s *stubReviewRepo) GetByProduct(_ context.Context, tenantID, _ uuid.UUID) ([]*review.Review, error) {
	return s.reviews[tenantID], s.err
}

type capturedAnomaly struct {
	tenantID uuid.UUID
	dataset  string
	anomaly  quality.Anomaly
}

type recordingPublisher struct {
	mu       sync.Mutex
	captured []capturedAnomaly
}

func (p *recordingPublisher) QualityAnomalyDetected(_ context.Context, tenantID uuid.UUID, dataset string, a quality.Anomaly) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captured = append(p.captured, capturedAnomaly{tenantID: tenantID, dataset: dataset, anomaly: a})
	return nil
}

func scanFixtureProducts(tenantID uuid.UUID) []*catalog.Product {
	now := time.Now().UTC()
	prices := []float64{20, 21, 19, 22, 400}
	products := make([]*catalog.Product, len(prices))
	for i, price := range prices {
		products[i] = &catalog.Product{
			ID:        uuid.New(),
			TenantID:  tenantID,
			SKU:       "SKU-" + uuid.NewString()[:8],
			Name:      "Product",
			Category:  "gadgets",
			Currency:  "USD",
			Price:     decimal.NewFromFloat(price),
			Inventory: 10,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return products
}

func TestQualityScanWorker_PublishesAnomalies(t *testing.T) {
	tenantID := uuid.New()

	catalogRepo := &stubCatalogRepo{products: map[uuid.UUID][]*catalog.Product{
		tenantID: scanFixtureProducts(tenantID),
	}}
	reviewRepo := &stubReviewRepo{reviews: map[uuid.UUID][]*review.Review{}}
	publisher := &recordingPublisher{}

	worker := NewQualityScanWorker(
		&stubTenantSource{tenants: []uuid.UUID{tenantID}},
		catalogRepo,
		reviewRepo,
		assessment.NewProductAssessor(assessment.DefaultConfig()),
		assessment.NewReviewAssessor(assessment.DefaultConfig()),
		publisher,
		time.Hour,
		true,
	)

	require.NoError(t, worker.Run(context.Background()))

	require.NotEmpty(t, publisher.captured)
	found := false
	for _, c := range publisher.captured {
		if c.anomaly.Type == "price_outlier" {
			found = true
			assert.Equal(t, tenantID, c.tenantID)
			assert.Equal(t, "products", c.dataset)
		}
	}
	assert.True(t, found, "expected a price_outlier anomaly from the scan")

	health := worker.Health()
	assert.Equal(t, int64(1), health.RunCount)
	assert.Equal(t, int64(0), health.ErrorCount)
}

func TestQualityScanWorker_TenantListFailure(t *testing.T) {
	worker := NewQualityScanWorker(
		&stubTenantSource{err: errors.ErrUnavailable},
		&stubCatalogRepo{},
		&stubReviewRepo{},
		assessment.NewProductAssessor(assessment.DefaultConfig()),
		assessment.NewReviewAssessor(assessment.DefaultConfig()),
		&recordingPublisher{},
		time.Hour,
		true,
	)

	err := worker.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}

func TestQualityScanWorker_OneBadTenantDoesNotStopScan(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()

	catalogRepo := &stubCatalogRepo{products: map[uuid.UUID][]*catalog.Product{
		good: scanFixtureProducts(good),
	}}
	// Review fetch fails for every tenant in this stub only when the
	// tenant id matches bad.
	reviewRepo := &failingReviewRepo{failFor: bad}
	publisher := &recordingPublisher{}

	worker := NewQualityScanWorker(
		&stubTenantSource{tenants: []uuid.UUID{bad, good}},
		catalogRepo,
		reviewRepo,
		assessment.NewProductAssessor(assessment.DefaultConfig()),
		assessment.NewReviewAssessor(assessment.DefaultConfig()),
		publisher,
		time.Hour,
		true,
	)

	require.NoError(t, worker.Run(context.Background()))
	assert.NotEmpty(t, publisher.captured)
}

type failingReviewRepo struct {
	failFor uuid.UUID
}

func (f *failingReviewRepo) GetByTenant(_ context.Context, tenantID uuid.UUID) ([]*review.Review, error) {
	if tenantID == f.failFor {
		return nil, errors.ErrUnavailable
	}
	return nil, nil
}

func (f *failingReviewRepo) GetByProduct(_ context.Context, tenantID, _ uuid.UUID) ([]*review.Review, error) {
	return f.GetByTenant(context.Background(), tenantID)
}
