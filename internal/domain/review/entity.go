package review

import (
	"time"

	"github.com/google/uuid"
)

// Review represents a customer review for a product
type Review struct {
	ID        uuid.UUID `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	ProductID uuid.UUID `db:"product_id"`
	Rating    int       `db:"rating"` // 1..5
	Title     string    `db:"title"`
	Text      string    `db:"text"`
	Author    string    `db:"author"`
	Verified  bool      `db:"verified"`
	Flagged   bool      `db:"flagged"` // marked as spam/abuse by the intake layer
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsExtreme reports whether the rating is one of the extreme values.
func (r *Review) IsExtreme() bool {
	return r.Rating == 1 || r.Rating == 5
}
