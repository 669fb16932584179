package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TelegramLink connects a Telegram chat to a user account so the bot
// can resolve incoming messages and push notifications.
type TelegramLink struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ChatID    string    `json:"telegram_chat_id" db:"telegram_chat_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
