package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pepperbot/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrDiscountNotFound = errors.New("discount not found")
)

const discountColumns = `id, title, description, store, original_price, discount_price,
		discount_percentage, valid_until, url, image_url, created_at`

// DiscountRepository defines the interface for discount data access
type DiscountRepository interface {
	Create(ctx context.Context, discount *domain.Discount) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error)
	FindByURL(ctx context.Context, url string) (*domain.Discount, error)
	FindByTitleAndStore(ctx context.Context, title, store string) (*domain.Discount, error)
	List(ctx context.Context, store string, skip, limit int) ([]*domain.Discount, error)
	ListValid(ctx context.Context, now time.Time) ([]*domain.Discount, error)
	Update(ctx context.Context, discount *domain.Discount) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type discountRepository struct {
	db *sql.DB
}

// NewDiscountRepository creates a new instance of DiscountRepository
func NewDiscountRepository(db *sql.DB) DiscountRepository {
	return &discountRepository{db: db}
}

func (r *discountRepository) Create(ctx context.Context, discount *domain.Discount) error {
	query := `
		INSERT INTO discounts (` + discountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		discount.ID,
		discount.Title,
		discount.Description,
		discount.Store,
		discount.OriginalPrice,
		discount.DiscountPrice,
		discount.DiscountPercentage,
		discount.ValidUntil,
		discount.URL,
		discount.ImageURL,
		discount.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create discount: %w", err)
	}

	return nil
}

func (r *discountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByURL looks up a discount by its deal URL, the scraper's primary
// dedupe key.
func (r *discountRepository) FindByURL(ctx context.Context, url string) (*domain.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE url = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, url))
}

// FindByTitleAndStore is the scraper's fallback dedupe key for deals
// without a URL.
func (r *discountRepository) FindByTitleAndStore(ctx context.Context, title, store string) (*domain.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE title = $1 AND store = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, title, store))
}

// List retrieves discounts with an optional case-insensitive store
// substring filter and pagination, oldest first.
func (r *discountRepository) List(ctx context.Context, store string, skip, limit int) ([]*domain.Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE ($1 = '' OR store ILIKE '%' || $1 || '%')
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, store, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListValid returns discounts whose validity window has not passed.
func (r *discountRepository) ListValid(ctx context.Context, now time.Time) ([]*domain.Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE valid_until IS NULL OR valid_until > $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list valid discounts: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *discountRepository) Update(ctx context.Context, discount *domain.Discount) error {
	query := `
		UPDATE discounts
		SET title = $2, description = $3, store = $4, original_price = $5,
		    discount_price = $6, discount_percentage = $7, valid_until = $8,
		    url = $9, image_url = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		discount.ID,
		discount.Title,
		discount.Description,
		discount.Store,
		discount.OriginalPrice,
		discount.DiscountPrice,
		discount.DiscountPercentage,
		discount.ValidUntil,
		discount.URL,
		discount.ImageURL,
	)

	if err != nil {
		return fmt.Errorf("failed to update discount: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDiscountNotFound
	}

	return nil
}

func (r *discountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM discounts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete discount: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDiscountNotFound
	}

	return nil
}

func (r *discountRepository) scanOne(row *sql.Row) (*domain.Discount, error) {
	discount := &domain.Discount{}
	err := row.Scan(
		&discount.ID,
		&discount.Title,
		&discount.Description,
		&discount.Store,
		&discount.OriginalPrice,
		&discount.DiscountPrice,
		&discount.DiscountPercentage,
		&discount.ValidUntil,
		&discount.URL,
		&discount.ImageURL,
		&discount.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to find discount: %w", err)
	}

	return discount, nil
}

func (r *discountRepository) scanAll(rows *sql.Rows) ([]*domain.Discount, error) {
	discounts := []*domain.Discount{}
	for rows.Next() {
		discount := &domain.Discount{}
		err := rows.Scan(
			&discount.ID,
			&discount.Title,
			&discount.Description,
			&discount.Store,
			&discount.OriginalPrice,
			&discount.DiscountPrice,
			&discount.DiscountPercentage,
			&discount.ValidUntil,
			&discount.URL,
			&discount.ImageURL,
			&discount.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, discount)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discounts: %w", err)
	}

	return discounts, nil
}
