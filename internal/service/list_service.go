package service

import (
	"context"
	"fmt"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"

	"github.com/google/uuid"
)

// ListUpdate carries a partial shopping list update. Nil fields are
// left unchanged.
type ListUpdate struct {
	Title       *string
	Description *string
}

// ItemUpdate carries a partial list item update. Nil fields are left
// unchanged.
type ItemUpdate struct {
	Name        *string
	Quantity    *float64
	Unit        *string
	IsCompleted *bool
}

// ListService defines the interface for shopping list business logic.
// Every operation is scoped to the owning user; foreign ids surface as
// not-found.
type ListService interface {
	Lists(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.ShoppingList, error)
	CreateList(ctx context.Context, userID uuid.UUID, title string, description *string) (*domain.ShoppingList, error)
	List(ctx context.Context, listID, userID uuid.UUID) (*domain.ShoppingList, error)
	UpdateList(ctx context.Context, listID, userID uuid.UUID, update ListUpdate) (*domain.ShoppingList, error)
	DeleteList(ctx context.Context, listID, userID uuid.UUID) error

	Items(ctx context.Context, listID, userID uuid.UUID) ([]*domain.ListItem, error)
	ItemCounts(ctx context.Context, listID, userID uuid.UUID) (total, completed int, err error)
	CreateItem(ctx context.Context, listID, userID uuid.UUID, name string, quantity float64, unit *string, isCompleted bool) (*domain.ListItem, error)
	UpdateItem(ctx context.Context, listID, itemID, userID uuid.UUID, update ItemUpdate) (*domain.ListItem, error)
	DeleteItem(ctx context.Context, listID, itemID, userID uuid.UUID) error
}

type listService struct {
	listRepo repository.ShoppingListRepository
	itemRepo repository.ListItemRepository
}

// NewListService creates a new instance of ListService
func NewListService(listRepo repository.ShoppingListRepository, itemRepo repository.ListItemRepository) ListService {
	return &listService{
		listRepo: listRepo,
		itemRepo: itemRepo,
	}
}

func (s *listService) Lists(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.ShoppingList, error) {
	lists, err := s.listRepo.ListByUser(ctx, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping lists: %w", err)
	}
	return lists, nil
}

func (s *listService) CreateList(ctx context.Context, userID uuid.UUID, title string, description *string) (*domain.ShoppingList, error) {
	now := time.Now()
	list := &domain.ShoppingList{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.listRepo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create shopping list: %w", err)
	}

	return list, nil
}

func (s *listService) List(ctx context.Context, listID, userID uuid.UUID) (*domain.ShoppingList, error) {
	return s.listRepo.FindByID(ctx, listID, userID)
}

func (s *listService) UpdateList(ctx context.Context, listID, userID uuid.UUID, update ListUpdate) (*domain.ShoppingList, error) {
	list, err := s.listRepo.FindByID(ctx, listID, userID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		list.Title = *update.Title
	}
	if update.Description != nil {
		list.Description = update.Description
	}

	if err := s.listRepo.Update(ctx, list); err != nil {
		return nil, err
	}

	return s.listRepo.FindByID(ctx, listID, userID)
}

func (s *listService) DeleteList(ctx context.Context, listID, userID uuid.UUID) error {
	return s.listRepo.Delete(ctx, listID, userID)
}

func (s *listService) Items(ctx context.Context, listID, userID uuid.UUID) ([]*domain.ListItem, error) {
	// Verify ownership before touching items
	if _, err := s.listRepo.FindByID(ctx, listID, userID); err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list items: %w", err)
	}

	return items, nil
}

// ItemCounts returns the total and completed item counts for a list.
func (s *listService) ItemCounts(ctx context.Context, listID, userID uuid.UUID) (int, int, error) {
	if _, err := s.listRepo.FindByID(ctx, listID, userID); err != nil {
		return 0, 0, err
	}

	return s.itemRepo.CountByList(ctx, listID)
}

func (s *listService) CreateItem(ctx context.Context, listID, userID uuid.UUID, name string, quantity float64, unit *string, isCompleted bool) (*domain.ListItem, error) {
	if _, err := s.listRepo.FindByID(ctx, listID, userID); err != nil {
		return nil, err
	}

	if quantity <= 0 {
		quantity = 1
	}

	now := time.Now()
	item := &domain.ListItem{
		ID:             uuid.New(),
		Name:           name,
		Quantity:       quantity,
		Unit:           unit,
		IsCompleted:    isCompleted,
		ShoppingListID: listID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create list item: %w", err)
	}

	return item, nil
}

func (s *listService) UpdateItem(ctx context.Context, listID, itemID, userID uuid.UUID, update ItemUpdate) (*domain.ListItem, error) {
	if _, err := s.listRepo.FindByID(ctx, listID, userID); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByID(ctx, itemID, listID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.Quantity != nil {
		item.Quantity = *update.Quantity
	}
	if update.Unit != nil {
		item.Unit = update.Unit
	}
	if update.IsCompleted != nil {
		item.IsCompleted = *update.IsCompleted
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	return s.itemRepo.FindByID(ctx, itemID, listID)
}

func (s *listService) DeleteItem(ctx context.Context, listID, itemID, userID uuid.UUID) error {
	if _, err := s.listRepo.FindByID(ctx, listID, userID); err != nil {
		return err
	}

	return s.itemRepo.Delete(ctx, itemID, listID)
}
