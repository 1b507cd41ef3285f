package sales

import (
	"time"

	"github.com/google/uuid"
)

// DailySales is one day of aggregated sales for a product.
// Rows live in ClickHouse; amounts are kept as float64 because they are
// consumed exclusively by statistical code, never by billing.
type DailySales struct {
	TenantID  uuid.UUID `ch:"tenant_id"`
	ProductID uuid.UUID `ch:"product_id"`
	Date      time.Time `ch:"date"`
	Units     int64     `ch:"units"`
	Revenue   float64   `ch:"revenue"`
}
