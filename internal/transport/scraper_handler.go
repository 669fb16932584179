package transport

import (
	"net/http"

	"pepperbot/internal/middleware"
	"pepperbot/internal/scraper"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ScraperHandler exposes manual control over the scrape scheduler
type ScraperHandler struct {
	scheduler *scraper.Scheduler
	logger    *zap.Logger
}

// NewScraperHandler creates a new ScraperHandler
func NewScraperHandler(scheduler *scraper.Scheduler, logger *zap.Logger) *ScraperHandler {
	return &ScraperHandler{scheduler: scheduler, logger: logger}
}

// RegisterRoutes registers scraper control routes. All routes require auth.
func (h *ScraperHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/scraper/trigger", h.Trigger)
		r.Get("/scraper/status", h.Status)
	})
}

// Trigger queues an immediate scrape pass
func (h *ScraperHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.scheduler.Trigger() {
		middleware.RespondWithError(w, http.StatusConflict, "a scrape is already queued or the scheduler is stopped")
		return
	}

	h.logger.Info("Manual scrape triggered")
	middleware.RespondWithJSON(w, http.StatusAccepted, map[string]string{"message": "scrape queued"})
}

// Status reports the scheduler state
func (h *ScraperHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.scheduler.Status())
}
