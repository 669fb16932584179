package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pepperbot/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrListNotFound = errors.New("shopping list not found")
)

// ShoppingListRepository defines the interface for shopping list data access.
// All lookups are scoped by owner: a list id belonging to another user
// behaves exactly like a missing list.
type ShoppingListRepository interface {
	Create(ctx context.Context, list *domain.ShoppingList) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.ShoppingList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.ShoppingList, error)
	Update(ctx context.Context, list *domain.ShoppingList) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type shoppingListRepository struct {
	db *sql.DB
}

// NewShoppingListRepository creates a new instance of ShoppingListRepository
func NewShoppingListRepository(db *sql.DB) ShoppingListRepository {
	return &shoppingListRepository{db: db}
}

func (r *shoppingListRepository) Create(ctx context.Context, list *domain.ShoppingList) error {
	query := `
		INSERT INTO shopping_lists (id, title, description, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		list.ID,
		list.Title,
		list.Description,
		list.UserID,
		list.CreatedAt,
		list.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create shopping list: %w", err)
	}

	return nil
}

func (r *shoppingListRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.ShoppingList, error) {
	query := `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM shopping_lists
		WHERE id = $1 AND user_id = $2
	`

	list := &domain.ShoppingList{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&list.ID,
		&list.Title,
		&list.Description,
		&list.UserID,
		&list.CreatedAt,
		&list.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to find shopping list: %w", err)
	}

	return list, nil
}

func (r *shoppingListRepository) ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.ShoppingList, error) {
	query := `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM shopping_lists
		WHERE user_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping lists: %w", err)
	}
	defer rows.Close()

	lists := []*domain.ShoppingList{}
	for rows.Next() {
		list := &domain.ShoppingList{}
		err := rows.Scan(
			&list.ID,
			&list.Title,
			&list.Description,
			&list.UserID,
			&list.CreatedAt,
			&list.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shopping list: %w", err)
		}
		lists = append(lists, list)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shopping lists: %w", err)
	}

	return lists, nil
}

func (r *shoppingListRepository) Update(ctx context.Context, list *domain.ShoppingList) error {
	query := `
		UPDATE shopping_lists
		SET title = $3, description = $4
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, list.ID, list.UserID, list.Title, list.Description)
	if err != nil {
		return fmt.Errorf("failed to update shopping list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrListNotFound
	}

	return nil
}

// Delete removes a shopping list; its items go with it via the FK cascade.
func (r *shoppingListRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM shopping_lists WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrListNotFound
	}

	return nil
}
