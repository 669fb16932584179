package service

import (
	"context"
	"testing"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockNotificationRepository struct {
	notifications []*domain.Notification
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			return n, nil
		}
	}
	return nil, repository.ErrNotificationNotFound
}

func (m *mockNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, skip, limit int) ([]*domain.Notification, error) {
	var result []*domain.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (m *mockNotificationRepository) ExistsForDiscount(ctx context.Context, userID, discountID uuid.UUID) (bool, error) {
	for _, n := range m.notifications {
		if n.UserID == userID && n.DiscountID != nil && *n.DiscountID == discountID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func (m *mockNotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	for i, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

type mockValidDiscountRepository struct {
	discounts []*domain.Discount
}

func (m *mockValidDiscountRepository) Create(ctx context.Context, d *domain.Discount) error { return nil }
func (m *mockValidDiscountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	return nil, repository.ErrDiscountNotFound
}
func (m *mockValidDiscountRepository) FindByURL(ctx context.Context, url string) (*domain.Discount, error) {
	return nil, repository.ErrDiscountNotFound
}
func (m *mockValidDiscountRepository) FindByTitleAndStore(ctx context.Context, title, store string) (*domain.Discount, error) {
	return nil, repository.ErrDiscountNotFound
}
func (m *mockValidDiscountRepository) List(ctx context.Context, store string, skip, limit int) ([]*domain.Discount, error) {
	return m.discounts, nil
}
func (m *mockValidDiscountRepository) ListValid(ctx context.Context, now time.Time) ([]*domain.Discount, error) {
	return m.discounts, nil
}
func (m *mockValidDiscountRepository) Update(ctx context.Context, d *domain.Discount) error { return nil }
func (m *mockValidDiscountRepository) Delete(ctx context.Context, id uuid.UUID) error       { return nil }

type mockActiveFilterRepository struct {
	filters []*domain.Filter
}

func (m *mockActiveFilterRepository) Create(ctx context.Context, f *domain.Filter) error { return nil }
func (m *mockActiveFilterRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Filter, error) {
	return nil, repository.ErrFilterNotFound
}
func (m *mockActiveFilterRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Filter, error) {
	return m.filters, nil
}
func (m *mockActiveFilterRepository) ListActive(ctx context.Context) ([]*domain.Filter, error) {
	return m.filters, nil
}
func (m *mockActiveFilterRepository) Update(ctx context.Context, f *domain.Filter) error { return nil }
func (m *mockActiveFilterRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return nil
}

type recordingNotifier struct {
	delivered []uuid.UUID
}

func (r *recordingNotifier) NotifyDiscount(ctx context.Context, userID uuid.UUID, discount *domain.Discount) error {
	r.delivered = append(r.delivered, discount.ID)
	return nil
}

func fanOutFixture() (*mockNotificationRepository, *mockValidDiscountRepository, *mockActiveFilterRepository, uuid.UUID) {
	userID := uuid.New()

	discounts := &mockValidDiscountRepository{discounts: []*domain.Discount{
		{
			ID:                 uuid.New(),
			Title:              "Gaming Laptop Sale",
			Store:              "DNS",
			DiscountPercentage: floatPtr(40),
		},
		{
			ID:    uuid.New(),
			Title: "Socks",
			Store: "Ozon",
		},
	}}

	filters := &mockActiveFilterRepository{filters: []*domain.Filter{
		{
			ID:       uuid.New(),
			Name:     "laptops",
			Criteria: `{"keywords": ["laptop"], "min_discount": 30}`,
			IsActive: true,
			UserID:   userID,
		},
	}}

	return &mockNotificationRepository{}, discounts, filters, userID
}

func TestFanOutCreatesNotificationsForMatches(t *testing.T) {
	notifications, discounts, filters, userID := fanOutFixture()
	notifier := &recordingNotifier{}
	service := NewNotificationService(notifications, discounts, filters, notifier, zap.NewNop())

	if err := service.FanOut(context.Background()); err != nil {
		t.Fatalf("fan-out failed: %v", err)
	}

	if len(notifications.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications.notifications))
	}

	created := notifications.notifications[0]
	if created.UserID != userID {
		t.Errorf("notification created for wrong user %s", created.UserID)
	}
	if created.Type != domain.NotificationTypeDiscount {
		t.Errorf("expected discount notification, got %q", created.Type)
	}
	if created.DiscountID == nil || *created.DiscountID != discounts.discounts[0].ID {
		t.Error("notification not linked to the matching discount")
	}

	if len(notifier.delivered) != 1 || notifier.delivered[0] != discounts.discounts[0].ID {
		t.Errorf("expected exactly the matching discount delivered, got %v", notifier.delivered)
	}
}

// A second fan-out over the same data must not duplicate notifications.
func TestFanOutIsIdempotentPerUserAndDiscount(t *testing.T) {
	notifications, discounts, filters, _ := fanOutFixture()
	service := NewNotificationService(notifications, discounts, filters, nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := service.FanOut(ctx); err != nil {
			t.Fatalf("fan-out %d failed: %v", i, err)
		}
	}

	if len(notifications.notifications) != 1 {
		t.Fatalf("expected 1 notification after repeated fan-outs, got %d", len(notifications.notifications))
	}
}

func TestFanOutSkipsInactiveWithoutNotifier(t *testing.T) {
	notifications, discounts, filters, _ := fanOutFixture()
	filters.filters = nil

	service := NewNotificationService(notifications, discounts, filters, nil, zap.NewNop())
	if err := service.FanOut(context.Background()); err != nil {
		t.Fatalf("fan-out failed: %v", err)
	}

	if len(notifications.notifications) != 0 {
		t.Fatalf("expected no notifications without filters, got %d", len(notifications.notifications))
	}
}

func TestMarkReadAndUnreadListing(t *testing.T) {
	notifications := &mockNotificationRepository{}
	service := NewNotificationService(notifications, &mockValidDiscountRepository{}, &mockActiveFilterRepository{}, nil, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	first, err := service.Create(ctx, userID, "First", "first message", domain.NotificationTypeSystem, nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := service.Create(ctx, userID, "Second", "second message", domain.NotificationTypeSystem, nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := service.MarkRead(ctx, first.ID, userID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	unread, err := service.Notifications(ctx, userID, true, 0, 100)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(unread) != 1 || unread[0].Title != "Second" {
		t.Fatalf("expected only the second notification unread, got %d", len(unread))
	}

	if err := service.MarkRead(ctx, uuid.New(), userID); err != repository.ErrNotificationNotFound {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}
