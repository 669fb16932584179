package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pepperbot/internal/bot"
	"pepperbot/internal/config"
	"pepperbot/internal/database"
	"pepperbot/internal/logger"
	"pepperbot/internal/scraper"
	"pepperbot/internal/server"
	"pepperbot/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, cancelWorkers context.CancelFunc, scheduler *scraper.Scheduler, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// Stop background workers before the HTTP server
	cancelWorkers()
	scheduler.Stop()

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting pepperbot API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	db := dbService.DB()

	// Check database health
	health := dbService.Health()
	log.Info("Database health check", zap.Any("health", health))

	// Run migrations
	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully")

	// Redis backs rate limiting on the auth endpoints
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		redisClient = nil
	}

	// Wire repositories and services
	svcs := server.NewServices(db, cfg)

	// The Telegram bot is optional; without a token the API still runs
	// and notifications are only stored, not pushed.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	var notifier service.Notifier
	if cfg.Telegram.BotToken != "" {
		tgBot, err := bot.NewBot(
			cfg.Telegram.BotToken,
			svcs.User,
			svcs.List,
			svcs.Filter,
			svcs.Discount,
			svcs.TelegramRepo,
			log,
		)
		if err != nil {
			log.Error("Failed to start telegram bot", zap.Error(err))
		} else {
			notifier = tgBot
			go tgBot.Start(workerCtx)
		}
	} else {
		log.Warn("Telegram bot token not configured")
	}

	notificationService := service.NewNotificationService(
		svcs.NotificationRepo,
		svcs.DiscountRepo,
		svcs.FilterRepo,
		notifier,
		log,
	)

	// Periodic scraping and notification fan-out
	pepperScraper := scraper.NewScraper(cfg.Scraper.BaseURL, svcs.DiscountRepo, log)
	scheduler := scraper.NewScheduler(pepperScraper, cfg.Scraper.Interval, log)
	scheduler.Start(workerCtx)

	if notifier != nil {
		worker := bot.NewNotificationWorker(notificationService, log)
		worker.Start(workerCtx)
	}

	// Create server
	srv := server.NewServer(cfg, log, db, redisClient, svcs, notificationService, scheduler)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, cancelWorkers, scheduler, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
