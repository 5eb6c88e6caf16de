package checker

import (
	"context"

	"github.com/hazz-dev/healthdash/internal/config"
)

// Checker performs a single health check. Implementations never fail: every
// problem is reported through the returned HealthResult.
type Checker interface {
	Check(ctx context.Context, svc config.Service) HealthResult
}

// CheckerFunc adapts an ordinary function to the Checker interface.
type CheckerFunc func(ctx context.Context, svc config.Service) HealthResult

func (f CheckerFunc) Check(ctx context.Context, svc config.Service) HealthResult {
	return f(ctx, svc)
}
