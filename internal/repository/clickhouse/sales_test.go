package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/sales"
	"meridian/internal/testsupport"
)

func rowPtrs(rows []sales.DailySales) []*sales.DailySales {
	out := make([]*sales.DailySales, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

func TestSalesRepository_GetHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	configs := testsupport.LoadDatabaseConfigsFromEnv(t)
	helper := testsupport.NewClickHouseTestHelper(t, configs.ClickHouse)

	repo := NewSalesRepository(helper.Client().Conn())
	ctx := context.Background()

	tenantID := uuid.New()
	productID := uuid.New()
	helper.RegisterTableCleanup(t, "daily_sales", fmt.Sprintf("tenant_id = '%s'", tenantID))

	base := testsupport.NewSalesFixture().
		WithTenant(tenantID).
		WithProduct(productID).
		WithDate(time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -30)).
		WithUnits(5).
		Build()

	rows := rowPtrs(testsupport.DailySalesSequence(base, 30))
	require.NoError(t, repo.InsertDailySales(ctx, rows))

	t.Run("returns full window oldest first", func(t *testing.T) {
		got, err := repo.GetHistory(ctx, tenantID, productID, base.Date.AddDate(0, 0, -1))
		require.NoError(t, err)
		require.Len(t, got, 30)
		assert.True(t, got[0].Date.Before(got[29].Date))
		assert.Equal(t, int64(5), got[0].Units)
	})

	t.Run("since filter trims old days", func(t *testing.T) {
		got, err := repo.GetHistory(ctx, tenantID, productID, base.Date.AddDate(0, 0, 20))
		require.NoError(t, err)
		assert.Len(t, got, 10)
	})

	t.Run("unknown product is empty", func(t *testing.T) {
		got, err := repo.GetHistory(ctx, tenantID, uuid.New(), base.Date)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSalesRepository_GetTenantHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	configs := testsupport.LoadDatabaseConfigsFromEnv(t)
	helper := testsupport.NewClickHouseTestHelper(t, configs.ClickHouse)

	repo := NewSalesRepository(helper.Client().Conn())
	ctx := context.Background()

	tenantID := uuid.New()
	helper.RegisterTableCleanup(t, "daily_sales", fmt.Sprintf("tenant_id = '%s'", tenantID))

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -7)
	for i := 0; i < 2; i++ {
		base := testsupport.NewSalesFixture().
			WithTenant(tenantID).
			WithDate(start).
			Build()
		require.NoError(t, repo.InsertDailySales(ctx, rowPtrs(testsupport.DailySalesSequence(base, 7))))
	}

	got, err := repo.GetTenantHistory(ctx, tenantID, start.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Len(t, got, 14)
}
