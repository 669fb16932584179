package bot

import (
	"context"
	"time"

	"pepperbot/internal/service"

	"go.uber.org/zap"
)

const (
	fanOutInterval = 5 * time.Minute
	fanOutRetry    = time.Minute
)

// NotificationWorker periodically matches valid discounts against active
// filters and delivers the results. Failed passes retry sooner.
type NotificationWorker struct {
	notifications service.NotificationService
	logger        *zap.Logger
}

// NewNotificationWorker creates a new NotificationWorker
func NewNotificationWorker(notifications service.NotificationService, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{
		notifications: notifications,
		logger:        logger,
	}
}

// Start runs the fan-out loop in a goroutine until the context is canceled.
func (w *NotificationWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *NotificationWorker) loop(ctx context.Context) {
	w.logger.Info("Notification worker started", zap.Duration("interval", fanOutInterval))

	timer := time.NewTimer(fanOutInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Notification worker stopped")
			return
		case <-timer.C:
		}

		next := fanOutInterval
		if err := w.notifications.FanOut(ctx); err != nil {
			w.logger.Error("Notification fan-out failed", zap.Error(err))
			next = fanOutRetry
		}

		timer.Reset(next)
	}
}
