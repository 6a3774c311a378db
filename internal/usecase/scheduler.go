package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

// Scheduler wires the cron-like driver with the workspace sweep.
type Scheduler struct {
	driver    ports.Scheduler
	workspace ports.Workspace
	maxAge    time.Duration
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring sweep of stale
// temporary files.
func NewScheduler(driver ports.Scheduler, workspace ports.Workspace, maxAge time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, workspace: workspace, maxAge: maxAge, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.workspace == nil || s.maxAge <= 0 {
		return nil
	}

	return s.driver.Start(ctx, s.Sweep)
}

// Sweep removes workspace files older than maxAge at trigger time.
func (s *Scheduler) Sweep(trigger time.Time) {
	removed, err := s.workspace.Sweep(s.maxAge, trigger)
	if s.logger == nil {
		return
	}
	if err != nil {
		s.logger.Warn("workspace sweep failed", "error", err)
		return
	}
	s.logger.Debug("workspace sweep finished", "removed", removed)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
