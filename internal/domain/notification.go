package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationTypeDiscount = "discount"
	NotificationTypeReminder = "reminder"
	NotificationTypeSystem   = "system"
)

// Notification is an alert delivered to a user, optionally referencing
// the discount that triggered it.
type Notification struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	Message    string     `json:"message" db:"message"`
	Type       string     `json:"type" db:"type"`
	IsRead     bool       `json:"is_read" db:"is_read"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	DiscountID *uuid.UUID `json:"discount_id,omitempty" db:"discount_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Filter is a user-defined rule matched against incoming discounts.
// Criteria is a JSON document; see service.FilterCriteria for the schema.
type Filter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Criteria  string    `json:"criteria" db:"criteria"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
