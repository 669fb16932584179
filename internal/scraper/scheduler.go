package scraper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is a snapshot of the scheduler state.
type Status struct {
	Running   bool       `json:"running"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastCount int        `json:"last_count"`
	LastError string     `json:"last_error,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// Scheduler runs the scraper on a fixed interval. Manual triggers share
// the same single-flight run loop, so at most one scrape runs at a time.
type Scheduler struct {
	scraper  *Scraper
	interval time.Duration
	logger   *zap.Logger

	trigger chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	mu        sync.Mutex
	running   bool
	lastRun   *time.Time
	lastCount int
	lastError string
	nextRun   *time.Time
}

// NewScheduler creates a scheduler that scrapes every intervalMinutes.
func NewScheduler(s *Scraper, intervalMinutes int, logger *zap.Logger) *Scheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}

	return &Scheduler{
		scraper:  s,
		interval: time.Duration(intervalMinutes) * time.Minute,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the scrape loop in a goroutine. The loop exits when the
// context is canceled or Stop is called.
func (sc *Scheduler) Start(ctx context.Context) {
	sc.mu.Lock()
	if sc.running {
		sc.mu.Unlock()
		return
	}
	sc.running = true
	next := time.Now().Add(sc.interval)
	sc.nextRun = &next
	sc.mu.Unlock()

	sc.logger.Info("Scraper scheduler started", zap.Duration("interval", sc.interval))

	go sc.loop(ctx)
}

func (sc *Scheduler) loop(ctx context.Context) {
	defer close(sc.stopped)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sc.runOnce(ctx)
		case <-sc.trigger:
			sc.runOnce(ctx)
			ticker.Reset(sc.interval)
		case <-sc.stop:
			sc.finish()
			return
		case <-ctx.Done():
			sc.finish()
			return
		}
	}
}

func (sc *Scheduler) runOnce(ctx context.Context) {
	count, err := sc.scraper.Run(ctx)

	now := time.Now()
	next := now.Add(sc.interval)

	sc.mu.Lock()
	sc.lastRun = &now
	sc.lastCount = count
	sc.nextRun = &next
	if err != nil {
		sc.lastError = err.Error()
	} else {
		sc.lastError = ""
	}
	sc.mu.Unlock()

	if err != nil {
		sc.logger.Error("Scrape failed", zap.Error(err))
	}
}

func (sc *Scheduler) finish() {
	sc.mu.Lock()
	sc.running = false
	sc.nextRun = nil
	sc.mu.Unlock()

	sc.logger.Info("Scraper scheduler stopped")
}

// Trigger requests an immediate scrape. Returns false when a trigger is
// already pending or the scheduler is not running.
func (sc *Scheduler) Trigger() bool {
	sc.mu.Lock()
	running := sc.running
	sc.mu.Unlock()

	if !running {
		return false
	}

	select {
	case sc.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop shuts the loop down and waits for it to exit.
func (sc *Scheduler) Stop() {
	sc.mu.Lock()
	if !sc.running {
		sc.mu.Unlock()
		return
	}
	sc.mu.Unlock()

	close(sc.stop)
	<-sc.stopped
}

// Status reports the current scheduler state.
func (sc *Scheduler) Status() Status {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return Status{
		Running:   sc.running,
		LastRun:   sc.lastRun,
		LastCount: sc.lastCount,
		LastError: sc.lastError,
		NextRun:   sc.nextRun,
	}
}
