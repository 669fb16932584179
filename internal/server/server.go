package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pepperbot/internal/config"
	custommiddleware "pepperbot/internal/middleware"
	"pepperbot/internal/repository"
	"pepperbot/internal/scraper"
	"pepperbot/internal/service"
	"pepperbot/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services bundles the repositories and services shared by the HTTP API
// and the Telegram bot.
type Services struct {
	User     service.UserService
	List     service.ListService
	Filter   service.FilterService
	Discount service.DiscountService

	DiscountRepo     repository.DiscountRepository
	FilterRepo       repository.FilterRepository
	NotificationRepo repository.NotificationRepository
	TelegramRepo     repository.TelegramLinkRepository
}

// NewServices wires repositories and core services over the database.
func NewServices(db *sql.DB, cfg *config.Config) *Services {
	userRepo := repository.NewUserRepository(db)
	listRepo := repository.NewShoppingListRepository(db)
	itemRepo := repository.NewListItemRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	telegramRepo := repository.NewTelegramLinkRepository(db)

	return &Services{
		User:     service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.AccessExpiry),
		List:     service.NewListService(listRepo, itemRepo),
		Filter:   service.NewFilterService(filterRepo),
		Discount: service.NewDiscountService(discountRepo),

		DiscountRepo:     discountRepo,
		FilterRepo:       filterRepo,
		NotificationRepo: notificationRepo,
		TelegramRepo:     telegramRepo,
	}
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *sql.DB,
	redisClient *redis.Client,
	svcs *Services,
	notificationService service.NotificationService,
	scheduler *scraper.Scheduler,
) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	userHandler := transport.NewUserHandler(svcs.User, cfg.JWT.AccessExpiry, logger)
	listHandler := transport.NewListHandler(svcs.List, svcs.User, logger)
	discountHandler := transport.NewDiscountHandler(svcs.Discount, logger)
	filterHandler := transport.NewFilterHandler(svcs.Filter, svcs.User, logger)
	notificationHandler := transport.NewNotificationHandler(notificationService, svcs.User, logger)
	telegramHandler := transport.NewTelegramHandler(svcs.TelegramRepo, svcs.User, logger)
	scraperHandler := transport.NewScraperHandler(scheduler, logger)

	// Brute-force protection on the credential endpoints only
	var authLimiter func(http.Handler) http.Handler
	if redisClient != nil {
		authLimiter = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 10,
			Window:            time.Minute,
			KeyPrefix:         "ratelimit:auth",
		}, logger)
	}

	userHandler.RegisterRoutes(router, authMiddleware, authLimiter)
	listHandler.RegisterRoutes(router, authMiddleware)
	discountHandler.RegisterRoutes(router, authMiddleware)
	filterHandler.RegisterRoutes(router, authMiddleware)
	notificationHandler.RegisterRoutes(router, authMiddleware)
	telegramHandler.RegisterRoutes(router, authMiddleware)
	scraperHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
