package checker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hazz-dev/healthdash/internal/checker"
	"github.com/hazz-dev/healthdash/internal/config"
)

func TestStatusConstants(t *testing.T) {
	assert.Equal(t, checker.Status("healthy"), checker.StatusHealthy)
	assert.Equal(t, checker.Status("unhealthy"), checker.StatusUnhealthy)
}

func TestCheckerFunc(t *testing.T) {
	var c checker.Checker = checker.CheckerFunc(func(_ context.Context, svc config.Service) checker.HealthResult {
		return checker.HealthResult{Service: svc, Status: checker.StatusHealthy, StatusCode: 200}
	})

	result := c.Check(context.Background(), config.Service{Name: "api"})
	assert.Equal(t, "api", result.Name)
	assert.True(t, result.Healthy())
	assert.True(t, result.HasStatusCode())
}
