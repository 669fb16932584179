package transport

import (
	"net/http"
	"strconv"

	"pepperbot/internal/domain"
	"pepperbot/internal/middleware"
	"pepperbot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requireUser resolves the authenticated account for the request. It writes
// the error response itself and returns false when no valid user is attached.
func requireUser(w http.ResponseWriter, r *http.Request, users service.UserService, logger *zap.Logger) (*domain.User, bool) {
	username, ok := middleware.GetUsername(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}

	user, err := users.CurrentUser(r.Context(), username)
	if err != nil {
		if err == service.ErrInactiveUser {
			middleware.RespondWithError(w, http.StatusBadRequest, "inactive user")
			return nil, false
		}

		logger.Warn("Failed to resolve session user", zap.String("username", username), zap.Error(err))
		middleware.RespondWithError(w, http.StatusUnauthorized, "could not validate credentials")
		return nil, false
	}

	return user, true
}

// uuidParam parses a UUID path parameter. It writes a 400 response and
// returns false when the value is not a valid UUID.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}

	return id, true
}

// pagination reads skip/limit query parameters with sane bounds.
func pagination(r *http.Request) (skip, limit int) {
	skip = 0
	limit = 100

	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	return skip, limit
}
