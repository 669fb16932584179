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
	ErrItemNotFound = errors.New("list item not found")
)

// ListItemRepository defines the interface for list item data access.
// Item lookups are scoped by shopping list id; list ownership is checked
// one layer up in the service.
type ListItemRepository interface {
	Create(ctx context.Context, item *domain.ListItem) error
	FindByID(ctx context.Context, id, listID uuid.UUID) (*domain.ListItem, error)
	ListByList(ctx context.Context, listID uuid.UUID) ([]*domain.ListItem, error)
	Update(ctx context.Context, item *domain.ListItem) error
	Delete(ctx context.Context, id, listID uuid.UUID) error
	CountByList(ctx context.Context, listID uuid.UUID) (total, completed int, err error)
}

type listItemRepository struct {
	db *sql.DB
}

// NewListItemRepository creates a new instance of ListItemRepository
func NewListItemRepository(db *sql.DB) ListItemRepository {
	return &listItemRepository{db: db}
}

func (r *listItemRepository) Create(ctx context.Context, item *domain.ListItem) error {
	query := `
		INSERT INTO list_items (id, name, quantity, unit, is_completed, shopping_list_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Quantity,
		item.Unit,
		item.IsCompleted,
		item.ShoppingListID,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create list item: %w", err)
	}

	return nil
}

func (r *listItemRepository) FindByID(ctx context.Context, id, listID uuid.UUID) (*domain.ListItem, error) {
	query := `
		SELECT id, name, quantity, unit, is_completed, shopping_list_id, created_at, updated_at
		FROM list_items
		WHERE id = $1 AND shopping_list_id = $2
	`

	item := &domain.ListItem{}
	err := r.db.QueryRowContext(ctx, query, id, listID).Scan(
		&item.ID,
		&item.Name,
		&item.Quantity,
		&item.Unit,
		&item.IsCompleted,
		&item.ShoppingListID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find list item: %w", err)
	}

	return item, nil
}

func (r *listItemRepository) ListByList(ctx context.Context, listID uuid.UUID) ([]*domain.ListItem, error) {
	query := `
		SELECT id, name, quantity, unit, is_completed, shopping_list_id, created_at, updated_at
		FROM list_items
		WHERE shopping_list_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*domain.ListItem{}
	for rows.Next() {
		item := &domain.ListItem{}
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Quantity,
			&item.Unit,
			&item.IsCompleted,
			&item.ShoppingListID,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating list items: %w", err)
	}

	return items, nil
}

func (r *listItemRepository) Update(ctx context.Context, item *domain.ListItem) error {
	query := `
		UPDATE list_items
		SET name = $3, quantity = $4, unit = $5, is_completed = $6
		WHERE id = $1 AND shopping_list_id = $2
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.ShoppingListID,
		item.Name,
		item.Quantity,
		item.Unit,
		item.IsCompleted,
	)

	if err != nil {
		return fmt.Errorf("failed to update list item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *listItemRepository) Delete(ctx context.Context, id, listID uuid.UUID) error {
	query := `DELETE FROM list_items WHERE id = $1 AND shopping_list_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, listID)
	if err != nil {
		return fmt.Errorf("failed to delete list item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// CountByList returns total and completed item counts, used by the bot's
// list overview.
func (r *listItemRepository) CountByList(ctx context.Context, listID uuid.UUID) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_completed)
		FROM list_items
		WHERE shopping_list_id = $1
	`

	var total, completed int
	if err := r.db.QueryRowContext(ctx, query, listID).Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("failed to count list items: %w", err)
	}

	return total, completed, nil
}
