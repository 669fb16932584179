package transport

import (
	"net/http"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/middleware"
	"pepperbot/internal/repository"
	"pepperbot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateDiscountRequest represents the payload for manually adding an offer
type CreateDiscountRequest struct {
	Title              string     `json:"title" validate:"required,min=1,max=500"`
	Description        *string    `json:"description" validate:"omitempty,max=2000"`
	Store              string     `json:"store" validate:"required,min=1,max=255"`
	OriginalPrice      *float64   `json:"original_price" validate:"omitempty,gte=0"`
	DiscountPrice      *float64   `json:"discount_price" validate:"omitempty,gte=0"`
	DiscountPercentage *float64   `json:"discount_percentage" validate:"omitempty,gte=0,lte=100"`
	ValidUntil         *time.Time `json:"valid_until"`
	URL                *string    `json:"url" validate:"omitempty,url"`
	ImageURL           *string    `json:"image_url" validate:"omitempty,url"`
}

// UpdateDiscountRequest represents a partial offer update
type UpdateDiscountRequest struct {
	Title              *string    `json:"title" validate:"omitempty,min=1,max=500"`
	Description        *string    `json:"description" validate:"omitempty,max=2000"`
	Store              *string    `json:"store" validate:"omitempty,min=1,max=255"`
	OriginalPrice      *float64   `json:"original_price" validate:"omitempty,gte=0"`
	DiscountPrice      *float64   `json:"discount_price" validate:"omitempty,gte=0"`
	DiscountPercentage *float64   `json:"discount_percentage" validate:"omitempty,gte=0,lte=100"`
	ValidUntil         *time.Time `json:"valid_until"`
	URL                *string    `json:"url" validate:"omitempty,url"`
	ImageURL           *string    `json:"image_url" validate:"omitempty,url"`
}

// DiscountHandler handles HTTP requests for scraped offers
type DiscountHandler struct {
	discountService service.DiscountService
	logger          *zap.Logger
}

// NewDiscountHandler creates a new DiscountHandler
func NewDiscountHandler(discountService service.DiscountService, logger *zap.Logger) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
		logger:          logger,
	}
}

// RegisterRoutes registers discount routes. Reads are public, writes
// require auth.
func (h *DiscountHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/discounts", func(r chi.Router) {
		r.Get("/", h.Discounts)
		r.Get("/{discountID}", h.Discount)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{discountID}", h.Update)
			r.Delete("/{discountID}", h.Delete)
		})
	})
}

// Discounts returns offers, optionally filtered by store substring
func (h *DiscountHandler) Discounts(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	store := r.URL.Query().Get("store")

	discounts, err := h.discountService.Discounts(r.Context(), store, skip, limit)
	if err != nil {
		h.logger.Error("Failed to list discounts", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch discounts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discounts)
}

// Discount returns a single offer
func (h *DiscountHandler) Discount(w http.ResponseWriter, r *http.Request) {
	discountID, ok := uuidParam(w, r, "discountID")
	if !ok {
		return
	}

	discount, err := h.discountService.Discount(r.Context(), discountID)
	if err != nil {
		if err == repository.ErrDiscountNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "discount not found")
			return
		}

		h.logger.Error("Failed to fetch discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discount)
}

// Create manually inserts an offer
func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount, err := h.discountService.Create(r.Context(), &domain.Discount{
		Title:              req.Title,
		Description:        req.Description,
		Store:              req.Store,
		OriginalPrice:      req.OriginalPrice,
		DiscountPrice:      req.DiscountPrice,
		DiscountPercentage: req.DiscountPercentage,
		ValidUntil:         req.ValidUntil,
		URL:                req.URL,
		ImageURL:           req.ImageURL,
	})
	if err != nil {
		h.logger.Error("Failed to create discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, discount)
}

// Update applies a partial update to an offer
func (h *DiscountHandler) Update(w http.ResponseWriter, r *http.Request) {
	discountID, ok := uuidParam(w, r, "discountID")
	if !ok {
		return
	}

	var req UpdateDiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount, err := h.discountService.Update(r.Context(), discountID, service.DiscountUpdate{
		Title:              req.Title,
		Description:        req.Description,
		Store:              req.Store,
		OriginalPrice:      req.OriginalPrice,
		DiscountPrice:      req.DiscountPrice,
		DiscountPercentage: req.DiscountPercentage,
		ValidUntil:         req.ValidUntil,
		URL:                req.URL,
		ImageURL:           req.ImageURL,
	})
	if err != nil {
		if err == repository.ErrDiscountNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "discount not found")
			return
		}

		h.logger.Error("Failed to update discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discount)
}

// Delete removes an offer
func (h *DiscountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	discountID, ok := uuidParam(w, r, "discountID")
	if !ok {
		return
	}

	if err := h.discountService.Delete(r.Context(), discountID); err != nil {
		if err == repository.ErrDiscountNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "discount not found")
			return
		}

		h.logger.Error("Failed to delete discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "discount deleted"})
}
