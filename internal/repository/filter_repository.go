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
	ErrFilterNotFound = errors.New("filter not found")
)

// FilterRepository defines the interface for discount filter data access
type FilterRepository interface {
	Create(ctx context.Context, filter *domain.Filter) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Filter, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Filter, error)
	ListActive(ctx context.Context) ([]*domain.Filter, error)
	Update(ctx context.Context, filter *domain.Filter) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type filterRepository struct {
	db *sql.DB
}

// NewFilterRepository creates a new instance of FilterRepository
func NewFilterRepository(db *sql.DB) FilterRepository {
	return &filterRepository{db: db}
}

func (r *filterRepository) Create(ctx context.Context, filter *domain.Filter) error {
	query := `
		INSERT INTO filters (id, name, criteria, is_active, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		filter.ID,
		filter.Name,
		filter.Criteria,
		filter.IsActive,
		filter.UserID,
		filter.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create filter: %w", err)
	}

	return nil
}

func (r *filterRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Filter, error) {
	query := `
		SELECT id, name, criteria, is_active, user_id, created_at
		FROM filters
		WHERE id = $1 AND user_id = $2
	`

	filter := &domain.Filter{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&filter.ID,
		&filter.Name,
		&filter.Criteria,
		&filter.IsActive,
		&filter.UserID,
		&filter.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFilterNotFound
		}
		return nil, fmt.Errorf("failed to find filter: %w", err)
	}

	return filter, nil
}

func (r *filterRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Filter, error) {
	query := `
		SELECT id, name, criteria, is_active, user_id, created_at
		FROM filters
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListActive returns every active filter across all users, used by
// notification fan-out.
func (r *filterRepository) ListActive(ctx context.Context) ([]*domain.Filter, error) {
	query := `
		SELECT id, name, criteria, is_active, user_id, created_at
		FROM filters
		WHERE is_active = TRUE
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active filters: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *filterRepository) Update(ctx context.Context, filter *domain.Filter) error {
	query := `
		UPDATE filters
		SET name = $3, criteria = $4, is_active = $5
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		filter.ID,
		filter.UserID,
		filter.Name,
		filter.Criteria,
		filter.IsActive,
	)

	if err != nil {
		return fmt.Errorf("failed to update filter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrFilterNotFound
	}

	return nil
}

func (r *filterRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM filters WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete filter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrFilterNotFound
	}

	return nil
}

func (r *filterRepository) scanAll(rows *sql.Rows) ([]*domain.Filter, error) {
	filters := []*domain.Filter{}
	for rows.Next() {
		filter := &domain.Filter{}
		err := rows.Scan(
			&filter.ID,
			&filter.Name,
			&filter.Criteria,
			&filter.IsActive,
			&filter.UserID,
			&filter.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filter: %w", err)
		}
		filters = append(filters, filter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating filters: %w", err)
	}

	return filters, nil
}
