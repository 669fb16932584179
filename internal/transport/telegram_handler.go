package transport

import (
	"net/http"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/middleware"
	"pepperbot/internal/repository"
	"pepperbot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LinkTelegramRequest represents a manual chat link payload. The usual
// path is the bot's /login conversation; this endpoint exists for
// clients that already know their chat id.
type LinkTelegramRequest struct {
	ChatID string `json:"telegram_chat_id" validate:"required,min=1,max=64"`
}

// TelegramHandler handles HTTP requests for Telegram chat links
type TelegramHandler struct {
	telegramRepo repository.TelegramLinkRepository
	userService  service.UserService
	logger       *zap.Logger
}

// NewTelegramHandler creates a new TelegramHandler
func NewTelegramHandler(telegramRepo repository.TelegramLinkRepository, userService service.UserService, logger *zap.Logger) *TelegramHandler {
	return &TelegramHandler{
		telegramRepo: telegramRepo,
		userService:  userService,
		logger:       logger,
	}
}

// RegisterRoutes registers Telegram link routes. All routes require auth.
func (h *TelegramHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/telegram", func(r chi.Router) {
			r.Post("/link", h.Link)
			r.Get("/users", h.Links)
			r.Delete("/users/{linkID}", h.Unlink)
		})
	})
}

// Link attaches a Telegram chat to the authenticated account
func (h *TelegramHandler) Link(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	var req LinkTelegramRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link := &domain.TelegramLink{
		ID:        uuid.New(),
		ChatID:    req.ChatID,
		UserID:    user.ID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := h.telegramRepo.Upsert(r.Context(), link); err != nil {
		h.logger.Error("Failed to link telegram chat", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to link telegram chat")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, link)
}

// Links returns the account's Telegram links
func (h *TelegramHandler) Links(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	links, err := h.telegramRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list telegram links", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch telegram links")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, links)
}

// Unlink removes a Telegram link
func (h *TelegramHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	linkID, ok := uuidParam(w, r, "linkID")
	if !ok {
		return
	}

	if err := h.telegramRepo.Delete(r.Context(), linkID, user.ID); err != nil {
		if err == repository.ErrTelegramLinkNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "telegram link not found")
			return
		}

		h.logger.Error("Failed to unlink telegram chat", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to unlink telegram chat")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "telegram chat unlinked"})
}
