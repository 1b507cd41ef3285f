package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines catalog data access.
// All reads are already scoped to a single tenant; the pipeline never
// performs its own tenant filtering beyond passing the tenant id here.
type Repository interface {
	GetProducts(ctx context.Context, tenantID uuid.UUID) ([]*Product, error)
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error)
	GetPriceHistory(ctx context.Context, tenantID, productID uuid.UUID, limit int) ([]*PricePoint, error)
	GetCompetitorProducts(ctx context.Context, tenantID uuid.UUID, category string) ([]*CompetitorProduct, error)
}
