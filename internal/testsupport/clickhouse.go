package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"meridian/internal/adapters/clickhouse"
	"meridian/internal/adapters/config"
	"meridian/internal/domain/sales"
)

// ClickHouseTestHelper manages cleanup for ClickHouse integration tests.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewClickHouseTestHelper creates a ClickHouse client for tests.
func NewClickHouseTestHelper(t *testing.T, cfg config.ClickHouseConfig) *ClickHouseTestHelper {
	t.Helper()

	client, err := clickhouse.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	helper := &ClickHouseTestHelper{client: client}
	t.Cleanup(func() { _ = client.Close() })
	return helper
}

// CreateTempTable creates a temporary table and registers cleanup.
func (h *ClickHouseTestHelper) CreateTempTable(t *testing.T, schema string) string {
	t.Helper()

	table := fmt.Sprintf("tmp_test_%d", time.Now().UnixNano())
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree() ORDER BY tuple()", table, schema)

	if err := h.client.Exec(context.Background(), query); err != nil {
		t.Fatalf("failed to create clickhouse table: %v", err)
	}

	t.Cleanup(func() {
		_ = h.client.Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	})

	return table
}

// CleanupTable drops the provided table immediately.
func (h *ClickHouseTestHelper) CleanupTable(ctx context.Context, table string) error {
	return h.client.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
}

// TruncateTable removes all data from the table but keeps the structure
func (h *ClickHouseTestHelper) TruncateTable(ctx context.Context, table string) error {
	return h.client.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE IF EXISTS %s", table))
}

// RegisterTableCleanup schedules cleanup of specific table data after test completes.
// Useful when working with shared tables that shouldn't be dropped.
func (h *ClickHouseTestHelper) RegisterTableCleanup(t *testing.T, table, condition string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, condition)
		_ = h.client.Exec(ctx, query)
	})
}

// CreateBatch is a generic function to insert test data into ClickHouse tables
func CreateBatch[T any](t *testing.T, helper *ClickHouseTestHelper, insertQuery string, items []T) {
	t.Helper()

	if len(items) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch, err := helper.client.Conn().PrepareBatch(ctx, insertQuery)
	if err != nil {
		t.Fatalf("failed to prepare batch: %v", err)
	}

	for _, item := range items {
		if err := batch.AppendStruct(&item); err != nil {
			t.Fatalf("failed to append item to batch: %v", err)
		}
	}

	if err := batch.Send(); err != nil {
		t.Fatalf("failed to send batch: %v", err)
	}
}

// InsertDailySales is the insert prefix for the daily_sales table.
const InsertDailySales = `
	INSERT INTO daily_sales (
		tenant_id, product_id, date, units, revenue
	)
`

// Client exposes the raw ClickHouse client for queries.
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}

// DailySalesSequence creates consecutive days of sales starting at base.Date.
func DailySalesSequence(base sales.DailySales, days int) []sales.DailySales {
	rows := make([]sales.DailySales, days)
	for i := 0; i < days; i++ {
		row := base
		row.Date = base.Date.AddDate(0, 0, i)
		rows[i] = row
	}
	return rows
}

// SalesFixture builds DailySales rows for tests.
type SalesFixture struct {
	row sales.DailySales
}

// NewSalesFixture creates a fixture with sane defaults.
func NewSalesFixture() *SalesFixture {
	return &SalesFixture{
		row: sales.DailySales{
			TenantID:  uuid.New(),
			ProductID: uuid.New(),
			Date:      time.Now().UTC().Truncate(24 * time.Hour),
			Units:     10,
			Revenue:   249.90,
		},
	}
}

func (f *SalesFixture) WithTenant(tenantID uuid.UUID) *SalesFixture {
	f.row.TenantID = tenantID
	return f
}

func (f *SalesFixture) WithProduct(productID uuid.UUID) *SalesFixture {
	f.row.ProductID = productID
	return f
}

func (f *SalesFixture) WithDate(date time.Time) *SalesFixture {
	f.row.Date = date
	return f
}

func (f *SalesFixture) WithUnits(units int64) *SalesFixture {
	f.row.Units = units
	return f
}

func (f *SalesFixture) WithRevenue(revenue float64) *SalesFixture {
	f.row.Revenue = revenue
	return f
}

func (f *SalesFixture) Build() sales.DailySales {
	return f.row
}
