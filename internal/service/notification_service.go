package service

import (
	"context"
	"fmt"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers a notification to an external channel (the Telegram
// bot in production). Delivery failures are logged, not retried.
type Notifier interface {
	NotifyDiscount(ctx context.Context, userID uuid.UUID, discount *domain.Discount) error
}

// NotificationService defines the interface for notification business logic
type NotificationService interface {
	Notifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, skip, limit int) ([]*domain.Notification, error)
	Notification(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)
	Create(ctx context.Context, userID uuid.UUID, title, message, notificationType string, discountID *uuid.UUID) (*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	FanOut(ctx context.Context) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	discountRepo     repository.DiscountRepository
	filterRepo       repository.FilterRepository
	notifier         Notifier
	logger           *zap.Logger
}

// NewNotificationService creates a new instance of NotificationService.
// notifier may be nil when no delivery channel is configured.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	discountRepo repository.DiscountRepository,
	filterRepo repository.FilterRepository,
	notifier Notifier,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		discountRepo:     discountRepo,
		filterRepo:       filterRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

func (s *notificationService) Notifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, skip, limit int) ([]*domain.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) Notification(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	return s.notificationRepo.FindByID(ctx, id, userID)
}

func (s *notificationService) Create(ctx context.Context, userID uuid.UUID, title, message, notificationType string, discountID *uuid.UUID) (*domain.Notification, error) {
	notification := &domain.Notification{
		ID:         uuid.New(),
		Title:      title,
		Message:    message,
		Type:       notificationType,
		IsRead:     false,
		UserID:     userID,
		DiscountID: discountID,
		CreatedAt:  time.Now(),
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *notificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.notificationRepo.Delete(ctx, id, userID)
}

// FanOut matches every still-valid discount against every active filter
// and creates at most one notification per (user, discount) pair.
// Matched notifications are pushed through the notifier when one is
// configured.
func (s *notificationService) FanOut(ctx context.Context) error {
	discounts, err := s.discountRepo.ListValid(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to load discounts for fan-out: %w", err)
	}

	filters, err := s.filterRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load filters for fan-out: %w", err)
	}

	for _, discount := range discounts {
		for _, filter := range filters {
			if !Matches(discount, filter.Criteria) {
				continue
			}

			exists, err := s.notificationRepo.ExistsForDiscount(ctx, filter.UserID, discount.ID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			discountID := discount.ID
			_, err = s.Create(
				ctx,
				filter.UserID,
				fmt.Sprintf("Discount Match: %s", discount.Title),
				fmt.Sprintf("Found a discount matching your '%s' filter", filter.Name),
				domain.NotificationTypeDiscount,
				&discountID,
			)
			if err != nil {
				return err
			}

			if s.notifier != nil {
				if err := s.notifier.NotifyDiscount(ctx, filter.UserID, discount); err != nil {
					s.logger.Warn("Failed to deliver discount notification",
						zap.String("user_id", filter.UserID.String()),
						zap.String("discount_id", discount.ID.String()),
						zap.Error(err),
					)
				}
			}
		}
	}

	return nil
}
