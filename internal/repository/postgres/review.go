package postgres

import (
	"context"

	"github.com/google/uuid"

	"meridian/internal/domain/review"
	"meridian/pkg/errors"
)

// Compile-time check
var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository using sqlx.
// Flagged reviews never leave this layer; the assessors and agents only
// ever see intake-approved rows.
type ReviewRepository struct {
	db DBTX
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// GetByTenant retrieves all non-flagged reviews for a tenant
func (r *ReviewRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) ([]*review.Review, error) {
	var reviews []*review.Review

	query := `
		SELECT * FROM reviews
		WHERE tenant_id = $1 AND NOT flagged
		ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &reviews, query, tenantID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get reviews: tenant_id=%s", tenantID)
	}

	return reviews, nil
}

// GetByProduct retrieves non-flagged reviews for one product
func (r *ReviewRepository) GetByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*review.Review, error) {
	var reviews []*review.Review

	query := `
		SELECT * FROM reviews
		WHERE tenant_id = $1 AND product_id = $2 AND NOT flagged
		ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &reviews, query, tenantID, productID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get reviews: product_id=%s", productID)
	}

	return reviews, nil
}

// Create inserts a new review. Used by the seeder and data intake.
func (r *ReviewRepository) Create(ctx context.Context, rev *review.Review) error {
	query := `
		INSERT INTO reviews (
			id, tenant_id, product_id, rating, title, text,
			author, verified, flagged, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.db.ExecContext(ctx, query,
		rev.ID, rev.TenantID, rev.ProductID, rev.Rating, rev.Title, rev.Text,
		rev.Author, rev.Verified, rev.Flagged, rev.CreatedAt, rev.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create review: id=%s", rev.ID)
	}

	return nil
}

// SetFlagged marks a review as spam/abuse so the pipeline skips it
func (r *ReviewRepository) SetFlagged(ctx context.Context, tenantID, reviewID uuid.UUID, flagged bool) error {
	query := `
		UPDATE reviews
		SET flagged = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, tenantID, reviewID, flagged)
	if err != nil {
		return errors.Wrapf(err, "failed to flag review: id=%s", reviewID)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrNotFound, "review not found: id=%s", reviewID)
	}

	return nil
}
