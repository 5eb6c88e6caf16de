package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hazz-dev/healthdash/internal/state"
)

// Trigger starts one re-check. It should not block for the length of the check.
type Trigger func(ctx context.Context) error

// Scheduler fires a Trigger on a fixed interval in its own goroutine.
type Scheduler struct {
	interval time.Duration
	trigger  Trigger
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New creates a new Scheduler. Pass nil logger to use the default logger.
func New(interval time.Duration, trigger Trigger, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		trigger:  trigger,
		logger:   logger,
	}
}

// Start spawns the ticker goroutine. It is non-blocking and does nothing
// when the interval is not positive.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the ticker goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	err := s.trigger(ctx)
	switch {
	case err == nil:
	case errors.Is(err, state.ErrBusy):
		// The previous cycle is still running; skip this tick.
		s.logger.Debug("scheduled check skipped", "reason", err)
	default:
		s.logger.Warn("scheduled check", "error", err)
	}
}
