package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/healthdash/internal/checker"
	"github.com/hazz-dev/healthdash/internal/config"
	"github.com/hazz-dev/healthdash/internal/state"
)

type mockFetcher struct {
	snap state.State
	err  error
}

func (m *mockFetcher) FetchState(_ context.Context) (state.State, error) {
	return m.snap, m.err
}

func runStatus(t *testing.T, f stateFetcher) (string, error) {
	t.Helper()
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	err := executeStatus(cmd, f)
	return buf.String(), err
}

func TestExecuteStatus_NoResults(t *testing.T) {
	out, err := runStatus(t, &mockFetcher{snap: state.State{Phase: state.PhaseLoading}})
	require.NoError(t, err)
	assert.Contains(t, out, "Phase: loading")
	assert.Contains(t, out, "No check results yet")
}

func TestExecuteStatus_Failed(t *testing.T) {
	out, err := runStatus(t, &mockFetcher{snap: state.State{Phase: state.PhaseFailed, Error: "reading services document"}})
	require.NoError(t, err)
	assert.Contains(t, out, "Phase: failed")
	assert.Contains(t, out, "reading services document")
}

func TestExecuteStatus_WithResults(t *testing.T) {
	snap := state.State{
		Phase: state.PhaseReady,
		Results: []checker.HealthResult{
			{Service: config.Service{Name: "api"}, Status: checker.StatusHealthy, StatusCode: 200, LastChecked: time.Now()},
			{Service: config.Service{Name: "db"}, Status: checker.StatusUnhealthy, Error: "Request timeout (no response after 5s)", LastChecked: time.Now().Add(-2 * time.Minute)},
		},
	}
	out, err := runStatus(t, &mockFetcher{snap: snap})
	require.NoError(t, err)

	assert.Contains(t, out, "api")
	assert.Contains(t, out, "db")
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "unhealthy")
	assert.Contains(t, out, "Request timeout")
	assert.Contains(t, out, "2 minutes ago")
}

func TestExecuteStatus_FetchError(t *testing.T) {
	_, err := runStatus(t, &mockFetcher{err: errors.New("connection refused")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStateClient_FetchState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/state", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": state.State{Phase: state.PhaseChecking, CycleID: "c1"},
		})
	}))
	defer srv.Close()

	snap, err := newStateClient(srv.URL+"/").FetchState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.PhaseChecking, snap.Phase)
	assert.Equal(t, "c1", snap.CycleID)
}

func TestStateClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
	}))
	defer srv.Close()

	_, err := newStateClient(srv.URL).FetchState(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestVersionCmd(t *testing.T) {
	cmd := versionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "healthdash dev")
}
