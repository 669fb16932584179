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
	ErrTelegramLinkNotFound = errors.New("telegram link not found")
)

// TelegramLinkRepository defines the interface for Telegram link data access
type TelegramLinkRepository interface {
	Upsert(ctx context.Context, link *domain.TelegramLink) error
	FindByChatID(ctx context.Context, chatID string) (*domain.TelegramLink, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.TelegramLink, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TelegramLink, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type telegramLinkRepository struct {
	db *sql.DB
}

// NewTelegramLinkRepository creates a new instance of TelegramLinkRepository
func NewTelegramLinkRepository(db *sql.DB) TelegramLinkRepository {
	return &telegramLinkRepository{db: db}
}

// Upsert creates the link, or re-points an existing chat id at a new
// user and reactivates it. A chat can only be linked to one account.
func (r *telegramLinkRepository) Upsert(ctx context.Context, link *domain.TelegramLink) error {
	query := `
		INSERT INTO telegram_links (id, telegram_chat_id, user_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_chat_id)
		DO UPDATE SET user_id = EXCLUDED.user_id, is_active = TRUE
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		link.ID,
		link.ChatID,
		link.UserID,
		link.IsActive,
		link.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert telegram link: %w", err)
	}

	return nil
}

func (r *telegramLinkRepository) FindByChatID(ctx context.Context, chatID string) (*domain.TelegramLink, error) {
	query := `
		SELECT id, telegram_chat_id, user_id, is_active, created_at
		FROM telegram_links
		WHERE telegram_chat_id = $1 AND is_active = TRUE
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, chatID))
}

func (r *telegramLinkRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.TelegramLink, error) {
	query := `
		SELECT id, telegram_chat_id, user_id, is_active, created_at
		FROM telegram_links
		WHERE user_id = $1 AND is_active = TRUE
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *telegramLinkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TelegramLink, error) {
	query := `
		SELECT id, telegram_chat_id, user_id, is_active, created_at
		FROM telegram_links
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list telegram links: %w", err)
	}
	defer rows.Close()

	links := []*domain.TelegramLink{}
	for rows.Next() {
		link := &domain.TelegramLink{}
		err := rows.Scan(
			&link.ID,
			&link.ChatID,
			&link.UserID,
			&link.IsActive,
			&link.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan telegram link: %w", err)
		}
		links = append(links, link)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating telegram links: %w", err)
	}

	return links, nil
}

func (r *telegramLinkRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM telegram_links WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete telegram link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTelegramLinkNotFound
	}

	return nil
}

func (r *telegramLinkRepository) scanOne(row *sql.Row) (*domain.TelegramLink, error) {
	link := &domain.TelegramLink{}
	err := row.Scan(
		&link.ID,
		&link.ChatID,
		&link.UserID,
		&link.IsActive,
		&link.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTelegramLinkNotFound
		}
		return nil, fmt.Errorf("failed to find telegram link: %w", err)
	}

	return link, nil
}
