// Package monitor drives the dashboard: it loads the services document,
// runs evaluation cycles over the cached services and records every outcome
// in the state store.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazz-dev/healthdash/internal/checker"
	"github.com/hazz-dev/healthdash/internal/config"
	"github.com/hazz-dev/healthdash/internal/state"
)

// Loader fetches the list of services to monitor.
type Loader func(ctx context.Context) ([]config.Service, error)

// Evaluator checks a list of services and returns one result per service, in order.
type Evaluator interface {
	EvaluateAll(ctx context.Context, services []config.Service) []checker.HealthResult
}

// Monitor coordinates loads and checks. Long-running work happens in
// background goroutines bound to the context passed to Start.
type Monitor struct {
	store  *state.Store
	load   Loader
	eval   Evaluator
	logger *slog.Logger

	mu  sync.Mutex
	ctx context.Context
	wg  sync.WaitGroup
}

// New creates a Monitor. Pass nil logger to use the default logger.
func New(load Loader, eval Evaluator, store *state.Store, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		store:  store,
		load:   load,
		eval:   eval,
		logger: logger,
		ctx:    context.Background(),
	}
}

// SourceLoader returns a Loader reading the services document from source.
// Each load is abandoned after timeout; zero means no limit.
func SourceLoader(source string, timeout time.Duration) Loader {
	return func(ctx context.Context) ([]config.Service, error) {
		if timeout <= 0 {
			return config.LoadServices(ctx, source, nil)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		services, err := config.LoadServices(ctx, source, nil)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("services document not loaded within %s: %w", timeout, err)
		}
		return services, err
	}
}

// Start loads the services and then runs the first check. It is non-blocking.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	_, err := m.Reload()
	return err
}

// Wait blocks until all background loads and checks have finished.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// Snapshot returns the current state.
func (m *Monitor) Snapshot() state.State {
	return m.store.Snapshot()
}

// Reload re-fetches the services document and checks the new list. It is
// allowed after a failed load, which makes it the retry path.
func (m *Monitor) Reload() (state.State, error) {
	snap, err := m.store.Dispatch(state.LoadStarted{})
	if err != nil {
		return snap, err
	}
	m.spawn(m.loadAndCheck)
	return snap, nil
}

// Recheck evaluates the cached services again without reloading them.
// The returned state is already in the checking phase.
func (m *Monitor) Recheck() (state.State, error) {
	snap, err := m.beginCheck()
	if err != nil {
		return snap, err
	}
	m.spawn(func(ctx context.Context) { m.runCheck(ctx, snap) })
	return snap, nil
}

func (m *Monitor) spawn(fn func(context.Context)) {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn(ctx)
	}()
}

func (m *Monitor) loadAndCheck(ctx context.Context) {
	services, err := m.load(ctx)
	if err != nil {
		m.logger.Error("loading services", "error", err)
		if _, err := m.store.Dispatch(state.LoadFailed{Err: err}); err != nil {
			m.logger.Error("recording load failure", "error", err)
		}
		return
	}
	m.logger.Info("services loaded", "services", len(services))

	if _, err := m.store.Dispatch(state.LoadSucceeded{Services: services}); err != nil {
		m.logger.Error("recording loaded services", "error", err)
		return
	}

	snap, err := m.beginCheck()
	if err != nil {
		m.logger.Warn("starting initial check", "error", err)
		return
	}
	m.runCheck(ctx, snap)
}

func (m *Monitor) beginCheck() (state.State, error) {
	return m.store.Dispatch(state.CheckStarted{CycleID: uuid.NewString()})
}

func (m *Monitor) runCheck(ctx context.Context, snap state.State) {
	results := m.eval.EvaluateAll(ctx, snap.Services)

	healthy := 0
	for _, r := range results {
		if r.Healthy() {
			healthy++
		}
	}
	m.logger.Info("check cycle finished",
		"cycle_id", snap.CycleID,
		"healthy", healthy,
		"unhealthy", len(results)-healthy,
	)

	if _, err := m.store.Dispatch(state.CheckFinished{CycleID: snap.CycleID, Results: results}); err != nil {
		m.logger.Error("recording check results", "cycle_id", snap.CycleID, "error", err)
	}
}
