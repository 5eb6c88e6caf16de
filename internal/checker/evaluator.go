package checker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazz-dev/healthdash/internal/config"
	"github.com/hazz-dev/healthdash/internal/metrics"
)

// Evaluator runs one check per service, all at once, and joins the results.
type Evaluator struct {
	checker Checker
	logger  *slog.Logger
}

// NewEvaluator creates an Evaluator backed by c. Pass nil logger to use the default logger.
func NewEvaluator(c Checker, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{checker: c, logger: logger}
}

// New returns an Evaluator performing HTTP checks bounded by timeout.
func New(timeout time.Duration, logger *slog.Logger) *Evaluator {
	return NewEvaluator(NewHTTPChecker(nil, timeout), logger)
}

// EvaluateAll checks every service concurrently and returns once all checks
// have settled. Results are in the order of services.
func (e *Evaluator) EvaluateAll(ctx context.Context, services []config.Service) []HealthResult {
	start := time.Now()
	results := make([]HealthResult, len(services))

	var g errgroup.Group
	for i, svc := range services {
		i, svc := i, svc
		g.Go(func() error {
			results[i] = e.EvaluateOne(ctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	metrics.CycleDuration.Observe(elapsed.Seconds())
	e.logger.Debug("evaluation finished", "services", len(services), "duration", elapsed)
	return results
}

// EvaluateOne checks a single service. A panicking checker is reported as an
// unhealthy result.
func (e *Evaluator) EvaluateOne(ctx context.Context, svc config.Service) (result HealthResult) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if rec := recover(); rec != nil {
			e.logger.Error("checker panic recovered", "service", svc.Name, "panic", rec)
			result = HealthResult{
				Service:     svc,
				Status:      StatusUnhealthy,
				Error:       fmt.Sprintf("internal error: %v", rec),
				LastChecked: time.Now(),
				ResponseMs:  elapsed.Milliseconds(),
			}
		}
		metrics.ChecksTotal.WithLabelValues(string(result.Status)).Inc()
		metrics.CheckDuration.Observe(elapsed.Seconds())
	}()

	result = e.checker.Check(ctx, svc)

	e.logger.Debug("check result",
		"service", svc.Name,
		"status", result.Status,
		"status_code", result.StatusCode,
		"response_ms", result.ResponseMs,
		"error", result.Error,
	)
	return result
}
