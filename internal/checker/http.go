package checker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hazz-dev/healthdash/internal/config"
	"github.com/hazz-dev/healthdash/internal/version"
)

// DefaultTimeout bounds the wait for a single health check response.
const DefaultTimeout = 5 * time.Second

const fallbackError = "Failed to connect"

// TimeoutMessage is the error reported when no response arrived within timeout.
func TimeoutMessage(timeout time.Duration) string {
	return fmt.Sprintf("Request timeout (no response after %s)", timeout)
}

// HTTPChecker probes a service's healthcheck URL with a single GET.
type HTTPChecker struct {
	client  *http.Client
	timeout time.Duration
	now     func() time.Time
}

// NewHTTPChecker returns a checker that gives up after timeout. A nil client
// uses a dedicated client without its own timeout; the checker's timer is
// the only bound.
func NewHTTPChecker(client *http.Client, timeout time.Duration) *HTTPChecker {
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPChecker{
		client:  client,
		timeout: timeout,
		now:     time.Now,
	}
}

type probeOutcome struct {
	statusCode int
	err        error
}

// Check issues the request and races it against the timeout timer. Whichever
// completes first decides the result; on timeout the request is cancelled.
func (c *HTTPChecker) Check(ctx context.Context, svc config.Service) HealthResult {
	start := c.now()
	result := HealthResult{Service: svc}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan probeOutcome, 1)
	go func() {
		done <- c.probe(reqCtx, svc.HealthcheckURL)
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			result.Status = StatusUnhealthy
			result.Error = errorMessage(out.err)
			break
		}
		result.StatusCode = out.statusCode
		if out.statusCode >= 200 && out.statusCode <= 299 {
			result.Status = StatusHealthy
		} else {
			result.Status = StatusUnhealthy
		}
	case <-timer.C:
		cancel()
		result.Status = StatusUnhealthy
		result.Error = TimeoutMessage(c.timeout)
	}

	result.LastChecked = c.now()
	result.ResponseMs = result.LastChecked.Sub(start).Milliseconds()
	return result
}

// probe resolves as soon as response headers arrive; the body is not read.
func (c *HTTPChecker) probe(ctx context.Context, url string) probeOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return probeOutcome{err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return probeOutcome{err: err}
	}
	resp.Body.Close()
	return probeOutcome{statusCode: resp.StatusCode}
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackError
}
