package transport

import (
	"net/http"

	"pepperbot/internal/middleware"
	"pepperbot/internal/repository"
	"pepperbot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateFilterRequest represents the filter creation payload. Criteria is
// a JSON document, see service.FilterCriteria for the recognized keys.
type CreateFilterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Criteria string `json:"criteria" validate:"required"`
}

// UpdateFilterRequest represents a partial filter update
type UpdateFilterRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Criteria *string `json:"criteria"`
	IsActive *bool   `json:"is_active"`
}

// FilterHandler handles HTTP requests for notification filters
type FilterHandler struct {
	filterService service.FilterService
	userService   service.UserService
	logger        *zap.Logger
}

// NewFilterHandler creates a new FilterHandler
func NewFilterHandler(filterService service.FilterService, userService service.UserService, logger *zap.Logger) *FilterHandler {
	return &FilterHandler{
		filterService: filterService,
		userService:   userService,
		logger:        logger,
	}
}

// RegisterRoutes registers filter routes. All routes require auth.
func (h *FilterHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/filters", func(r chi.Router) {
			r.Get("/", h.Filters)
			r.Post("/", h.Create)
			r.Put("/{filterID}", h.Update)
			r.Post("/{filterID}/toggle", h.Toggle)
			r.Delete("/{filterID}", h.Delete)
		})
	})
}

// Filters returns the authenticated user's filters
func (h *FilterHandler) Filters(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	filters, err := h.filterService.Filters(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list filters", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch filters")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, filters)
}

// Create adds a notification filter
func (h *FilterHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	var req CreateFilterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filter, err := h.filterService.Create(r.Context(), user.ID, req.Name, req.Criteria)
	if err != nil {
		if err == service.ErrInvalidCriteria {
			middleware.RespondWithError(w, http.StatusBadRequest, "criteria must be a valid JSON document")
			return
		}

		h.logger.Error("Failed to create filter", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create filter")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, filter)
}

// Update applies a partial update to a filter
func (h *FilterHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	filterID, ok := uuidParam(w, r, "filterID")
	if !ok {
		return
	}

	var req UpdateFilterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filter, err := h.filterService.Update(r.Context(), filterID, user.ID, service.FilterUpdate{
		Name:     req.Name,
		Criteria: req.Criteria,
		IsActive: req.IsActive,
	})
	if err != nil {
		if err == repository.ErrFilterNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "filter not found")
			return
		}
		if err == service.ErrInvalidCriteria {
			middleware.RespondWithError(w, http.StatusBadRequest, "criteria must be a valid JSON document")
			return
		}

		h.logger.Error("Failed to update filter", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update filter")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, filter)
}

// Toggle flips a filter's active flag
func (h *FilterHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	filterID, ok := uuidParam(w, r, "filterID")
	if !ok {
		return
	}

	filter, err := h.filterService.Toggle(r.Context(), filterID, user.ID)
	if err != nil {
		if err == repository.ErrFilterNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "filter not found")
			return
		}

		h.logger.Error("Failed to toggle filter", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to toggle filter")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, filter)
}

// Delete removes a filter
func (h *FilterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	filterID, ok := uuidParam(w, r, "filterID")
	if !ok {
		return
	}

	if err := h.filterService.Delete(r.Context(), filterID, user.ID); err != nil {
		if err == repository.ErrFilterNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "filter not found")
			return
		}

		h.logger.Error("Failed to delete filter", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete filter")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "filter deleted"})
}
