package service

import (
	"context"
	"fmt"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"

	"github.com/google/uuid"
)

// DiscountUpdate carries a partial discount update. Nil fields are left
// unchanged.
type DiscountUpdate struct {
	Title              *string
	Description        *string
	Store              *string
	OriginalPrice      *float64
	DiscountPrice      *float64
	DiscountPercentage *float64
	ValidUntil         *time.Time
	URL                *string
	ImageURL           *string
}

// DiscountService defines the interface for discount business logic
type DiscountService interface {
	Discounts(ctx context.Context, store string, skip, limit int) ([]*domain.Discount, error)
	Discount(ctx context.Context, id uuid.UUID) (*domain.Discount, error)
	Create(ctx context.Context, discount *domain.Discount) (*domain.Discount, error)
	Update(ctx context.Context, id uuid.UUID, update DiscountUpdate) (*domain.Discount, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type discountService struct {
	discountRepo repository.DiscountRepository
}

// NewDiscountService creates a new instance of DiscountService
func NewDiscountService(discountRepo repository.DiscountRepository) DiscountService {
	return &discountService{discountRepo: discountRepo}
}

func (s *discountService) Discounts(ctx context.Context, store string, skip, limit int) ([]*domain.Discount, error) {
	discounts, err := s.discountRepo.List(ctx, store, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get discounts: %w", err)
	}
	return discounts, nil
}

func (s *discountService) Discount(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	return s.discountRepo.FindByID(ctx, id)
}

func (s *discountService) Create(ctx context.Context, discount *domain.Discount) (*domain.Discount, error) {
	discount.ID = uuid.New()
	discount.CreatedAt = time.Now()

	if err := s.discountRepo.Create(ctx, discount); err != nil {
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	return discount, nil
}

func (s *discountService) Update(ctx context.Context, id uuid.UUID, update DiscountUpdate) (*domain.Discount, error) {
	discount, err := s.discountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		discount.Title = *update.Title
	}
	if update.Description != nil {
		discount.Description = update.Description
	}
	if update.Store != nil {
		discount.Store = *update.Store
	}
	if update.OriginalPrice != nil {
		discount.OriginalPrice = update.OriginalPrice
	}
	if update.DiscountPrice != nil {
		discount.DiscountPrice = update.DiscountPrice
	}
	if update.DiscountPercentage != nil {
		discount.DiscountPercentage = update.DiscountPercentage
	}
	if update.ValidUntil != nil {
		discount.ValidUntil = update.ValidUntil
	}
	if update.URL != nil {
		discount.URL = update.URL
	}
	if update.ImageURL != nil {
		discount.ImageURL = update.ImageURL
	}

	if err := s.discountRepo.Update(ctx, discount); err != nil {
		return nil, err
	}

	return discount, nil
}

func (s *discountService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.discountRepo.Delete(ctx, id)
}
