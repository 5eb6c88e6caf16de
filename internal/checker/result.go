package checker

import (
	"time"

	"github.com/hazz-dev/healthdash/internal/config"
)

// Status represents the health state of a service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// HealthResult is the outcome of a single health check. It carries every
// field of the checked service so it can be rendered on its own.
type HealthResult struct {
	config.Service
	Status Status `json:"status"`
	// StatusCode is zero when no response was received.
	StatusCode int `json:"statusCode,omitempty"`
	// Error is empty whenever a response was received.
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"lastChecked"`
	ResponseMs  int64     `json:"responseMs"`
}

// Healthy reports whether the service answered with a 2xx status.
func (r HealthResult) Healthy() bool {
	return r.Status == StatusHealthy
}

// HasStatusCode reports whether the request completed with a response.
func (r HealthResult) HasStatusCode() bool {
	return r.StatusCode != 0
}
