package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines sales history access
type Repository interface {
	// GetHistory returns per-day sales for a product ordered by date ascending.
	GetHistory(ctx context.Context, tenantID, productID uuid.UUID, since time.Time) ([]*DailySales, error)

	// GetTenantHistory returns per-day sales across the whole catalog.
	GetTenantHistory(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*DailySales, error)
}
