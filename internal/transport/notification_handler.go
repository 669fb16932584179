package transport

import (
	"net/http"

	"pepperbot/internal/middleware"
	"pepperbot/internal/repository"
	"pepperbot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateNotificationRequest represents a manual notification payload
type CreateNotificationRequest struct {
	Title      string     `json:"title" validate:"required,min=1,max=255"`
	Message    string     `json:"message" validate:"required,min=1"`
	Type       string     `json:"type" validate:"required,oneof=discount reminder system"`
	DiscountID *uuid.UUID `json:"discount_id"`
}

// NotificationHandler handles HTTP requests for user notifications
type NotificationHandler struct {
	notificationService service.NotificationService
	userService         service.UserService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService service.NotificationService, userService service.UserService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		userService:         userService,
		logger:              logger,
	}
}

// RegisterRoutes registers notification routes. All routes require auth.
func (h *NotificationHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.Notifications)
			r.Post("/", h.Create)
			r.Get("/{notificationID}", h.Notification)
			r.Put("/{notificationID}/read", h.MarkRead)
			r.Delete("/{notificationID}", h.Delete)
		})
	})
}

// Notifications returns the user's notifications, newest first.
// Pass unread_only=true to restrict to unread ones.
func (h *NotificationHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	skip, limit := pagination(r)
	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	notifications, err := h.notificationService.Notifications(r.Context(), user.ID, unreadOnly, skip, limit)
	if err != nil {
		h.logger.Error("Failed to list notifications", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, notifications)
}

// Create adds a notification for the authenticated user
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	var req CreateNotificationRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	notification, err := h.notificationService.Create(r.Context(), user.ID, req.Title, req.Message, req.Type, req.DiscountID)
	if err != nil {
		h.logger.Error("Failed to create notification", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create notification")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, notification)
}

// Notification returns a single notification
func (h *NotificationHandler) Notification(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	notificationID, ok := uuidParam(w, r, "notificationID")
	if !ok {
		return
	}

	notification, err := h.notificationService.Notification(r.Context(), notificationID, user.ID)
	if err != nil {
		if err == repository.ErrNotificationNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "notification not found")
			return
		}

		h.logger.Error("Failed to fetch notification", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch notification")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, notification)
}

// MarkRead marks a notification as read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	notificationID, ok := uuidParam(w, r, "notificationID")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), notificationID, user.ID); err != nil {
		if err == repository.ErrNotificationNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "notification not found")
			return
		}

		h.logger.Error("Failed to mark notification read", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

// Delete removes a notification
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	notificationID, ok := uuidParam(w, r, "notificationID")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(r.Context(), notificationID, user.ID); err != nil {
		if err == repository.ErrNotificationNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "notification not found")
			return
		}

		h.logger.Error("Failed to delete notification", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}
