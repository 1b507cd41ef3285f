package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a seller's catalog item
type Product struct {
	ID            uuid.UUID       `db:"id"`
	TenantID      uuid.UUID       `db:"tenant_id"`
	SKU           string          `db:"sku"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Category      string          `db:"category"`
	Brand         string          `db:"brand"`
	Currency      string          `db:"currency"` // ISO 4217, e.g. USD
	Price         decimal.Decimal `db:"price"`
	OriginalPrice decimal.Decimal `db:"original_price"` // pre-promotion price, zero if never discounted
	Inventory     int             `db:"inventory"`
	ImageURL      string          `db:"image_url"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// OnPromotion reports whether the product is currently discounted.
// A promotion exists only when the current price is strictly below the original.
func (p *Product) OnPromotion() bool {
	return p.OriginalPrice.IsPositive() && p.Price.LessThan(p.OriginalPrice)
}

// DiscountPercent returns the promotion discount in percent, zero when not on promotion.
func (p *Product) DiscountPercent() float64 {
	if !p.OnPromotion() {
		return 0
	}
	diff := p.OriginalPrice.Sub(p.Price)
	pct, _ := diff.Div(p.OriginalPrice).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// PricePoint is one observation in a product's price history
type PricePoint struct {
	ProductID  uuid.UUID       `db:"product_id"`
	Price      decimal.Decimal `db:"price"`
	RecordedAt time.Time       `db:"recorded_at"`
}

// CompetitorProduct is a scraped or imported competitor listing
type CompetitorProduct struct {
	ID            uuid.UUID       `db:"id"`
	TenantID      uuid.UUID       `db:"tenant_id"`
	Source        string          `db:"source"` // marketplace the listing was collected from
	SKU           string          `db:"sku"`
	Name          string          `db:"name"`
	Category      string          `db:"category"`
	Price         decimal.Decimal `db:"price"`
	OriginalPrice decimal.Decimal `db:"original_price"`
	URL           string          `db:"url"`
	CollectedAt   time.Time       `db:"collected_at"`
}
