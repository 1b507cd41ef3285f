package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"meridian/internal/domain/sales"
	"meridian/pkg/errors"
)

// Compile-time check
var _ sales.Repository = (*SalesRepository)(nil)

// SalesRepository implements sales.Repository using ClickHouse
type SalesRepository struct {
	conn driver.Conn
}

// NewSalesRepository creates a new sales repository
func NewSalesRepository(conn driver.Conn) *SalesRepository {
	return &SalesRepository{conn: conn}
}

// GetHistory retrieves per-day sales for a product, oldest first.
// Rows are re-aggregated on read because daily_sales parts may not be
// merged yet.
func (r *SalesRepository) GetHistory(ctx context.Context, tenantID, productID uuid.UUID, since time.Time) ([]*sales.DailySales, error) {
	var rows []*sales.DailySales

	query := `
		SELECT
			tenant_id,
			product_id,
			date,
			sum(units) as units,
			sum(revenue) as revenue
		FROM daily_sales
		WHERE tenant_id = $1 AND product_id = $2 AND date >= $3
		GROUP BY tenant_id, product_id, date
		ORDER BY date ASC`

	err := r.conn.Select(ctx, &rows, query, tenantID, productID, since)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get sales history: product_id=%s", productID)
	}

	return rows, nil
}

// GetTenantHistory retrieves per-day sales across the whole catalog
func (r *SalesRepository) GetTenantHistory(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*sales.DailySales, error) {
	var rows []*sales.DailySales

	query := `
		SELECT
			tenant_id,
			product_id,
			date,
			sum(units) as units,
			sum(revenue) as revenue
		FROM daily_sales
		WHERE tenant_id = $1 AND date >= $2
		GROUP BY tenant_id, product_id, date
		ORDER BY product_id, date ASC`

	err := r.conn.Select(ctx, &rows, query, tenantID, since)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get tenant sales history: tenant_id=%s", tenantID)
	}

	return rows, nil
}

// InsertDailySales writes aggregated rows in one batch. Used by the seeder
// and the intake pipeline.
func (r *SalesRepository) InsertDailySales(ctx context.Context, rows []*sales.DailySales) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO daily_sales (
			tenant_id, product_id, date, units, revenue
		)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare daily sales batch")
	}

	for _, row := range rows {
		if err := batch.AppendStruct(row); err != nil {
			return errors.Wrap(err, "failed to append daily sales row")
		}
	}

	if err := batch.Send(); err != nil {
		return errors.Wrap(err, "failed to send daily sales batch")
	}

	return nil
}
