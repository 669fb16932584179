package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"

	"github.com/google/uuid"
)

var ErrInvalidCriteria = errors.New("filter criteria is not valid JSON")

// FilterCriteria is the schema of a filter's JSON criteria document.
// All present conditions must hold for a discount to match.
type FilterCriteria struct {
	Store       string   `json:"store,omitempty"`
	MinDiscount *float64 `json:"min_discount,omitempty"`
	// Pointer so a present-but-empty list can be told apart from an
	// absent key: "keywords": [] matches nothing, a missing key matches
	// everything.
	Keywords *[]string `json:"keywords,omitempty"`
}

// FilterUpdate carries a partial filter update. Nil fields are left
// unchanged.
type FilterUpdate struct {
	Name     *string
	Criteria *string
	IsActive *bool
}

// FilterService defines the interface for discount filter business logic
type FilterService interface {
	Filters(ctx context.Context, userID uuid.UUID) ([]*domain.Filter, error)
	Create(ctx context.Context, userID uuid.UUID, name, criteria string) (*domain.Filter, error)
	Update(ctx context.Context, filterID, userID uuid.UUID, update FilterUpdate) (*domain.Filter, error)
	Toggle(ctx context.Context, filterID, userID uuid.UUID) (*domain.Filter, error)
	Delete(ctx context.Context, filterID, userID uuid.UUID) error
}

type filterService struct {
	filterRepo repository.FilterRepository
}

// NewFilterService creates a new instance of FilterService
func NewFilterService(filterRepo repository.FilterRepository) FilterService {
	return &filterService{filterRepo: filterRepo}
}

func (s *filterService) Filters(ctx context.Context, userID uuid.UUID) ([]*domain.Filter, error) {
	filters, err := s.filterRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get filters: %w", err)
	}
	return filters, nil
}

func (s *filterService) Create(ctx context.Context, userID uuid.UUID, name, criteria string) (*domain.Filter, error) {
	if !json.Valid([]byte(criteria)) {
		return nil, ErrInvalidCriteria
	}

	filter := &domain.Filter{
		ID:        uuid.New(),
		Name:      name,
		Criteria:  criteria,
		IsActive:  true,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if err := s.filterRepo.Create(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}

	return filter, nil
}

func (s *filterService) Update(ctx context.Context, filterID, userID uuid.UUID, update FilterUpdate) (*domain.Filter, error) {
	filter, err := s.filterRepo.FindByID(ctx, filterID, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		filter.Name = *update.Name
	}
	if update.Criteria != nil {
		if !json.Valid([]byte(*update.Criteria)) {
			return nil, ErrInvalidCriteria
		}
		filter.Criteria = *update.Criteria
	}
	if update.IsActive != nil {
		filter.IsActive = *update.IsActive
	}

	if err := s.filterRepo.Update(ctx, filter); err != nil {
		return nil, err
	}

	return filter, nil
}

// Toggle flips a filter's active flag, used by the bot's inline buttons.
func (s *filterService) Toggle(ctx context.Context, filterID, userID uuid.UUID) (*domain.Filter, error) {
	filter, err := s.filterRepo.FindByID(ctx, filterID, userID)
	if err != nil {
		return nil, err
	}

	filter.IsActive = !filter.IsActive

	if err := s.filterRepo.Update(ctx, filter); err != nil {
		return nil, err
	}

	return filter, nil
}

func (s *filterService) Delete(ctx context.Context, filterID, userID uuid.UUID) error {
	return s.filterRepo.Delete(ctx, filterID, userID)
}

// Matches reports whether a discount satisfies a filter's criteria.
// Malformed criteria never matches.
func Matches(discount *domain.Discount, criteriaJSON string) bool {
	var criteria FilterCriteria
	if err := json.Unmarshal([]byte(criteriaJSON), &criteria); err != nil {
		return false
	}

	if criteria.Store != "" &&
		!strings.Contains(strings.ToLower(discount.Store), strings.ToLower(criteria.Store)) {
		return false
	}

	if criteria.MinDiscount != nil && discount.DiscountPercentage != nil &&
		*discount.DiscountPercentage < *criteria.MinDiscount {
		return false
	}

	if criteria.Keywords != nil {
		title := strings.ToLower(discount.Title)
		found := false
		for _, keyword := range *criteria.Keywords {
			if strings.Contains(title, strings.ToLower(keyword)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
