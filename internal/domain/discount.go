package domain

import (
	"time"

	"github.com/google/uuid"
)

// Discount represents a scraped retail offer. Rows are produced by the
// scraper (or the producer-side API) and are read-only for consumers.
type Discount struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	Title              string     `json:"title" db:"title"`
	Description        *string    `json:"description,omitempty" db:"description"`
	Store              string     `json:"store" db:"store"`
	OriginalPrice      *float64   `json:"original_price,omitempty" db:"original_price"`
	DiscountPrice      *float64   `json:"discount_price,omitempty" db:"discount_price"`
	DiscountPercentage *float64   `json:"discount_percentage,omitempty" db:"discount_percentage"`
	ValidUntil         *time.Time `json:"valid_until,omitempty" db:"valid_until"`
	URL                *string    `json:"url,omitempty" db:"url"`
	ImageURL           *string    `json:"image_url,omitempty" db:"image_url"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// Expired reports whether the offer's validity window has passed.
// Offers without a valid_until date never expire.
func (d Discount) Expired(now time.Time) bool {
	return d.ValidUntil != nil && d.ValidUntil.Before(now)
}
