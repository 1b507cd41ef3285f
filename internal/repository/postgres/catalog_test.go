package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/catalog"
	"meridian/internal/testsupport"
	"meridian/pkg/errors"
)

func newTestProduct(tenantID uuid.UUID) *catalog.Product {
	now := time.Now().UTC()
	return &catalog.Product{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SKU:       testsupport.UniqueSKU("TST"),
		Name:      testsupport.UniqueName("Test Product"),
		Category:  "electronics",
		Brand:     "Acme",
		Currency:  "USD",
		Price:     decimal.NewFromFloat(49.99),
		Inventory: 25,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCatalogRepository_Products(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewCatalogRepository(testDB.Tx())
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates and retrieves products", func(t *testing.T) {
		p := newTestProduct(tenantID)
		require.NoError(t, repo.CreateProduct(ctx, p))

		got, err := repo.GetProduct(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.SKU, got.SKU)
		assert.True(t, got.Price.Equal(p.Price))

		all, err := repo.GetProducts(ctx, tenantID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("returns not found for missing product", func(t *testing.T) {
		_, err := repo.GetProduct(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("does not leak products across tenants", func(t *testing.T) {
		p := newTestProduct(tenantID)
		require.NoError(t, repo.CreateProduct(ctx, p))

		otherTenant := uuid.New()
		_, err := repo.GetProduct(ctx, otherTenant, p.ID)
		assert.ErrorIs(t, err, errors.ErrNotFound)

		all, err := repo.GetProducts(ctx, otherTenant)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestCatalogRepository_PriceHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewCatalogRepository(testDB.Tx())
	ctx := context.Background()
	tenantID := uuid.New()

	p := newTestProduct(tenantID)
	require.NoError(t, repo.CreateProduct(ctx, p))

	base := time.Now().UTC().Add(-10 * 24 * time.Hour)
	for i := 0; i < 10; i++ {
		point := &catalog.PricePoint{
			ProductID:  p.ID,
			Price:      decimal.NewFromFloat(40 + float64(i)),
			RecordedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}
		require.NoError(t, repo.RecordPricePoint(ctx, point))
	}

	t.Run("returns newest first with limit", func(t *testing.T) {
		points, err := repo.GetPriceHistory(ctx, tenantID, p.ID, 5)
		require.NoError(t, err)
		require.Len(t, points, 5)
		assert.True(t, points[0].RecordedAt.After(points[4].RecordedAt))
		assert.True(t, points[0].Price.Equal(decimal.NewFromFloat(49)))
	})

	t.Run("empty for unknown tenant", func(t *testing.T) {
		points, err := repo.GetPriceHistory(ctx, uuid.New(), p.ID, 5)
		require.NoError(t, err)
		assert.Empty(t, points)
	})
}

func TestCatalogRepository_CompetitorProducts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewCatalogRepository(testDB.Tx())
	ctx := context.Background()
	tenantID := uuid.New()

	for _, category := range []string{"electronics", "electronics", "home"} {
		cp := &catalog.CompetitorProduct{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Source:      "marketplace-a",
			SKU:         testsupport.UniqueSKU("CMP"),
			Name:        testsupport.UniqueName("Competitor"),
			Category:    category,
			Price:       decimal.NewFromFloat(39.99),
			CollectedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.CreateCompetitorProduct(ctx, cp))
	}

	t.Run("filters by category", func(t *testing.T) {
		got, err := repo.GetCompetitorProducts(ctx, tenantID, "electronics")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty category returns everything", func(t *testing.T) {
		got, err := repo.GetCompetitorProducts(ctx, tenantID, "")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}
