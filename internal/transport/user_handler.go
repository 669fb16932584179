package transport

import (
	"net/http"
	"time"

	"pepperbot/internal/middleware"
	"pepperbot/internal/repository"
	"pepperbot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse represents the login response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserProfile represents account data returned to clients
type UserProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// UserHandler handles HTTP requests for accounts and sessions
type UserHandler struct {
	userService  service.UserService
	logger       *zap.Logger
	accessExpiry time.Duration
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, accessExpiryMinutes int, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		logger:       logger,
		accessExpiry: time.Duration(accessExpiryMinutes) * time.Minute,
	}
}

// RegisterRoutes registers auth and account routes. rateLimiter guards
// the credential endpoints and may be nil.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware, rateLimiter func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if rateLimiter != nil {
			r.Use(rateLimiter)
		}
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
	})
	r.Post("/auth/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/users/me", h.Me)
	})
}

// Register handles account creation
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if err == repository.ErrUserAlreadyExists {
			middleware.RespondWithError(w, http.StatusBadRequest, "username or email already registered")
			return
		}

		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	h.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, profileOf(user.ID.String(), user.Username, user.Email, user.IsActive, user.CreatedAt))
}

// Login authenticates a user and sets the session cookie
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			middleware.RespondWithError(w, http.StatusUnauthorized, "incorrect username or password")
			return
		}

		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(h.accessExpiry.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Logout clears the session cookie
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "successfully logged out"})
}

// Me returns the authenticated account
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsername(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.userService.CurrentUser(r.Context(), username)
	if err != nil {
		if err == service.ErrInactiveUser {
			middleware.RespondWithError(w, http.StatusBadRequest, "inactive user")
			return
		}
		if err == repository.ErrUserNotFound {
			middleware.RespondWithError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		h.logger.Error("Failed to load current user", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, profileOf(user.ID.String(), user.Username, user.Email, user.IsActive, user.CreatedAt))
}

func profileOf(id, username, email string, isActive bool, createdAt time.Time) UserProfile {
	return UserProfile{
		ID:        id,
		Username:  username,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}
