package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultInterval is how often pending recommendations are swept.
const DefaultInterval = 15 * time.Minute

// Sweeper issues recommendations for learners with new sessions.
// adaptive.Service implements it.
type Sweeper interface {
	RecommendPending(ctx context.Context) (int, error)
}

// Scheduler runs the recommendation sweep periodically.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a scheduler. A non-positive interval uses DefaultInterval.
func New(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := gocron.NewScheduler(time.UTC)
	// a slow sweep must not overlap the next one
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the sweep and runs it in the background. The first sweep
// runs immediately.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.sweep); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop terminates scheduled sweeps, waiting for a running one to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

// RunOnce performs a single sweep bounded by ctx.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	issued, err := s.sweeper.RecommendPending(ctx)
	if err != nil {
		s.logger.Error("sweep finished with errors", "issued", issued, "error", err, "duration", time.Since(start))
		return issued, err
	}
	s.logger.Info("sweep finished", "issued", issued, "duration", time.Since(start))
	return issued, nil
}

// sweep is the scheduled job; each run gets at most one interval.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}
