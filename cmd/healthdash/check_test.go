package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/healthdash/internal/checker"
	"github.com/hazz-dev/healthdash/internal/config"
)

func TestRunChecks_AllHealthy_OutputFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	services := []config.Service{{Name: "myapi", HealthcheckURL: srv.URL}}

	var buf bytes.Buffer
	err := runChecks(context.Background(), &buf, checker.New(5*time.Second, nil), services)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "SERVICE")
	assert.Contains(t, output, "myapi")
	assert.Contains(t, output, "healthy")
	assert.Contains(t, output, "200")
}

func TestRunChecks_Unhealthy(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	services := []config.Service{
		{Name: "svc1", HealthcheckURL: ok.URL},
		{Name: "svc2", HealthcheckURL: broken.URL},
	}

	var buf bytes.Buffer
	err := runChecks(context.Background(), &buf, checker.New(5*time.Second, nil), services)
	require.Error(t, err)

	output := buf.String()
	assert.Contains(t, output, "svc1")
	assert.Contains(t, output, "svc2")
	assert.Contains(t, output, "unhealthy")
	assert.Contains(t, output, "502")
}

func TestRunChecks_NoServices(t *testing.T) {
	var buf bytes.Buffer
	err := runChecks(context.Background(), &buf, checker.New(time.Second, nil), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No services configured")
}
