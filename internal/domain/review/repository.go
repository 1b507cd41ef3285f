package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines review data access, tenant-scoped at the call site
type Repository interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Review, error)
	GetByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*Review, error)
}
