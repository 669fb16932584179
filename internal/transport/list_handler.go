package transport

import (
	"net/http"

	"pepperbot/internal/middleware"
	"pepperbot/internal/repository"
	"pepperbot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateListRequest represents the list creation payload
type CreateListRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// UpdateListRequest represents a partial list update. Absent fields
// leave the stored value unchanged.
type UpdateListRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// CreateItemRequest represents the item creation payload
type CreateItemRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Quantity    float64 `json:"quantity" validate:"omitempty,gt=0"`
	Unit        *string `json:"unit" validate:"omitempty,max=50"`
	IsCompleted bool    `json:"is_completed"`
}

// UpdateItemRequest represents a partial item update
type UpdateItemRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Quantity    *float64 `json:"quantity" validate:"omitempty,gt=0"`
	Unit        *string  `json:"unit" validate:"omitempty,max=50"`
	IsCompleted *bool    `json:"is_completed"`
}

// ListHandler handles HTTP requests for shopping lists and their items
type ListHandler struct {
	listService service.ListService
	userService service.UserService
	logger      *zap.Logger
}

// NewListHandler creates a new ListHandler
func NewListHandler(listService service.ListService, userService service.UserService, logger *zap.Logger) *ListHandler {
	return &ListHandler{
		listService: listService,
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers shopping list routes. All routes require auth.
func (h *ListHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", h.Lists)
			r.Post("/", h.CreateList)

			r.Route("/{listID}", func(r chi.Router) {
				r.Get("/", h.List)
				r.Put("/", h.UpdateList)
				r.Delete("/", h.DeleteList)

				r.Get("/items", h.Items)
				r.Post("/items", h.CreateItem)
				r.Put("/items/{itemID}", h.UpdateItem)
				r.Delete("/items/{itemID}", h.DeleteItem)
			})
		})
	})
}

// Lists returns the authenticated user's shopping lists
func (h *ListHandler) Lists(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	skip, limit := pagination(r)

	lists, err := h.listService.Lists(r.Context(), user.ID, skip, limit)
	if err != nil {
		h.logger.Error("Failed to list shopping lists", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch lists")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lists)
}

// CreateList creates a shopping list for the authenticated user
func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	var req CreateListRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	list, err := h.listService.CreateList(r.Context(), user.ID, req.Title, req.Description)
	if err != nil {
		h.logger.Error("Failed to create list", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create list")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, list)
}

// List returns a single shopping list owned by the authenticated user
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	list, err := h.listService.List(r.Context(), listID, user.ID)
	if err != nil {
		if err == repository.ErrListNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "shopping list not found")
			return
		}

		h.logger.Error("Failed to fetch list", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch list")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, list)
}

// UpdateList applies a partial update to a shopping list
func (h *ListHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	var req UpdateListRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	list, err := h.listService.UpdateList(r.Context(), listID, user.ID, service.ListUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		if err == repository.ErrListNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "shopping list not found")
			return
		}

		h.logger.Error("Failed to update list", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update list")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, list)
}

// DeleteList deletes a shopping list and its items
func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	if err := h.listService.DeleteList(r.Context(), listID, user.ID); err != nil {
		if err == repository.ErrListNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "shopping list not found")
			return
		}

		h.logger.Error("Failed to delete list", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete list")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "shopping list deleted"})
}

// Items returns the items of a shopping list
func (h *ListHandler) Items(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	items, err := h.listService.Items(r.Context(), listID, user.ID)
	if err != nil {
		if err == repository.ErrListNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "shopping list not found")
			return
		}

		h.logger.Error("Failed to list items", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch items")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// CreateItem adds an item to a shopping list
func (h *ListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.listService.CreateItem(r.Context(), listID, user.ID, req.Name, req.Quantity, req.Unit, req.IsCompleted)
	if err != nil {
		if err == repository.ErrListNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "shopping list not found")
			return
		}

		h.logger.Error("Failed to create item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// UpdateItem applies a partial update to a list item
func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.listService.UpdateItem(r.Context(), listID, itemID, user.ID, service.ItemUpdate{
		Name:        req.Name,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		if err == repository.ErrListNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "shopping list not found")
			return
		}
		if err == repository.ErrItemNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "list item not found")
			return
		}

		h.logger.Error("Failed to update item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// DeleteItem removes an item from a shopping list
func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.listService.DeleteItem(r.Context(), listID, itemID, user.ID); err != nil {
		if err == repository.ErrListNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "shopping list not found")
			return
		}
		if err == repository.ErrItemNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "list item not found")
			return
		}

		h.logger.Error("Failed to delete item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
