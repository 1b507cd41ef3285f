package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"meridian/internal/domain/catalog"
	"meridian/pkg/errors"
)

// Compile-time check
var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository using sqlx
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetProducts retrieves all products for a tenant
func (r *CatalogRepository) GetProducts(ctx context.Context, tenantID uuid.UUID) ([]*catalog.Product, error) {
	var products []*catalog.Product

	query := `
		SELECT * FROM products
		WHERE tenant_id = $1
		ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &products, query, tenantID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get products: tenant_id=%s", tenantID)
	}

	return products, nil
}

// GetProduct retrieves a single product by id
func (r *CatalogRepository) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product

	query := `SELECT * FROM products WHERE tenant_id = $1 AND id = $2`

	err := r.db.GetContext(ctx, &product, query, tenantID, productID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "product not found: id=%s", productID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get product: id=%s", productID)
	}

	return &product, nil
}

// GetPriceHistory retrieves recent price observations for a product, newest first
func (r *CatalogRepository) GetPriceHistory(ctx context.Context, tenantID, productID uuid.UUID, limit int) ([]*catalog.PricePoint, error) {
	var points []*catalog.PricePoint

	query := `
		SELECT ph.product_id, ph.price, ph.recorded_at
		FROM price_history ph
		JOIN products p ON p.id = ph.product_id
		WHERE p.tenant_id = $1 AND ph.product_id = $2
		ORDER BY ph.recorded_at DESC
		LIMIT $3`

	err := r.db.SelectContext(ctx, &points, query, tenantID, productID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get price history: product_id=%s", productID)
	}

	return points, nil
}

// GetCompetitorProducts retrieves competitor listings, optionally filtered by category
func (r *CatalogRepository) GetCompetitorProducts(ctx context.Context, tenantID uuid.UUID, category string) ([]*catalog.CompetitorProduct, error) {
	var competitors []*catalog.CompetitorProduct

	query := `
		SELECT * FROM competitor_products
		WHERE tenant_id = $1 AND ($2 = '' OR category = $2)
		ORDER BY collected_at DESC`

	err := r.db.SelectContext(ctx, &competitors, query, tenantID, category)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get competitor products: tenant_id=%s", tenantID)
	}

	return competitors, nil
}

// ListTenants returns every tenant with at least one product.
// Used by the background quality scan.
func (r *CatalogRepository) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID

	query := `SELECT DISTINCT tenant_id FROM products ORDER BY tenant_id`

	err := r.db.SelectContext(ctx, &tenantIDs, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tenants")
	}

	return tenantIDs, nil
}

// CreateProduct inserts a new product. Used by the seeder and data intake.
func (r *CatalogRepository) CreateProduct(ctx context.Context, p *catalog.Product) error {
	query := `
		INSERT INTO products (
			id, tenant_id, sku, name, description, category, brand,
			currency, price, original_price, inventory, image_url,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.TenantID, p.SKU, p.Name, p.Description, p.Category, p.Brand,
		p.Currency, p.Price, p.OriginalPrice, p.Inventory, p.ImageURL,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create product: sku=%s", p.SKU)
	}

	return nil
}

// RecordPricePoint appends one observation to a product's price history
func (r *CatalogRepository) RecordPricePoint(ctx context.Context, point *catalog.PricePoint) error {
	query := `
		INSERT INTO price_history (product_id, price, recorded_at)
		VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, point.ProductID, point.Price, point.RecordedAt)
	if err != nil {
		return errors.Wrapf(err, "failed to record price point: product_id=%s", point.ProductID)
	}

	return nil
}

// CreateCompetitorProduct inserts a competitor listing
func (r *CatalogRepository) CreateCompetitorProduct(ctx context.Context, cp *catalog.CompetitorProduct) error {
	query := `
		INSERT INTO competitor_products (
			id, tenant_id, source, sku, name, category,
			price, original_price, url, collected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := r.db.ExecContext(ctx, query,
		cp.ID, cp.TenantID, cp.Source, cp.SKU, cp.Name, cp.Category,
		cp.Price, cp.OriginalPrice, cp.URL, cp.CollectedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create competitor product: sku=%s", cp.SKU)
	}

	return nil
}
