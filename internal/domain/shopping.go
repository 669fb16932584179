package domain

import (
	"time"

	"github.com/google/uuid"
)

// ShoppingList is a user-owned list of items to buy.
type ShoppingList struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ListItem is a single line on a shopping list. Deleting the list
// deletes its items (enforced by the schema).
type ListItem struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Quantity       float64   `json:"quantity" db:"quantity"`
	Unit           *string   `json:"unit,omitempty" db:"unit"`
	IsCompleted    bool      `json:"is_completed" db:"is_completed"`
	ShoppingListID uuid.UUID `json:"shopping_list_id" db:"shopping_list_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
