package state_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/healthdash/internal/checker"
	"github.com/hazz-dev/healthdash/internal/config"
	"github.com/hazz-dev/healthdash/internal/state"
)

var services = []config.Service{
	{Name: "api", HealthcheckURL: "http://api/health"},
	{Name: "web", HealthcheckURL: "http://web/health"},
}

func apply(t *testing.T, s state.State, events ...state.Event) state.State {
	t.Helper()
	for _, ev := range events {
		var err error
		s, err = s.Apply(ev)
		require.NoError(t, err, "applying %T", ev)
	}
	return s
}

func ready(t *testing.T) state.State {
	return apply(t, state.Initial(), state.LoadStarted{}, state.LoadSucceeded{Services: services})
}

func TestApply_LoadCycle(t *testing.T) {
	s := state.Initial()
	assert.Equal(t, state.PhaseIdle, s.Phase)

	s = apply(t, s, state.LoadStarted{})
	assert.Equal(t, state.PhaseLoading, s.Phase)
	assert.True(t, s.Busy())

	s = apply(t, s, state.LoadSucceeded{Services: services})
	assert.Equal(t, state.PhaseReady, s.Phase)
	assert.Equal(t, services, s.Services)
	assert.Empty(t, s.Results)
}

func TestApply_LoadSucceededWithNoServices(t *testing.T) {
	s := apply(t, state.Initial(), state.LoadStarted{}, state.LoadSucceeded{})
	assert.Equal(t, state.PhaseReady, s.Phase)
	assert.NotNil(t, s.Services)
	assert.Empty(t, s.Services)
}

func TestApply_LoadFailed(t *testing.T) {
	s := apply(t, state.Initial(), state.LoadStarted{}, state.LoadFailed{Err: errors.New("no such file")})

	assert.Equal(t, state.PhaseFailed, s.Phase)
	assert.Equal(t, "no such file", s.Error)
	assert.Empty(t, s.Services)
	assert.Empty(t, s.Results)
}

func TestApply_CheckCycle(t *testing.T) {
	s := ready(t)
	s = apply(t, s, state.CheckStarted{CycleID: "c1"})
	assert.Equal(t, state.PhaseChecking, s.Phase)
	assert.Equal(t, "c1", s.CycleID)

	results := []checker.HealthResult{
		{Service: services[0], Status: checker.StatusHealthy, StatusCode: 200},
		{Service: services[1], Status: checker.StatusUnhealthy, StatusCode: 503},
	}
	s = apply(t, s, state.CheckFinished{CycleID: "c1", Results: results})
	assert.Equal(t, state.PhaseReady, s.Phase)
	assert.Equal(t, results, s.Results)
	assert.Equal(t, services, s.Services, "a check never touches the cached config")
}

func TestApply_NewCycleReplacesResults(t *testing.T) {
	s := ready(t)
	s = apply(t, s,
		state.CheckStarted{CycleID: "c1"},
		state.CheckFinished{CycleID: "c1", Results: []checker.HealthResult{{Service: services[0]}, {Service: services[1]}}},
		state.CheckStarted{CycleID: "c2"},
		state.CheckFinished{CycleID: "c2", Results: []checker.HealthResult{{Service: services[1]}}},
	)
	require.Len(t, s.Results, 1)
	assert.Equal(t, "web", s.Results[0].Name)
	assert.Equal(t, "c2", s.CycleID)
}

func TestApply_RetryAfterFailure(t *testing.T) {
	s := apply(t, state.Initial(), state.LoadStarted{}, state.LoadFailed{Err: errors.New("boom")})
	s = apply(t, s, state.LoadStarted{})
	assert.Equal(t, state.PhaseLoading, s.Phase)
	assert.Empty(t, s.Error)

	s = apply(t, s, state.LoadSucceeded{Services: services})
	assert.Equal(t, state.PhaseReady, s.Phase)
}

func TestApply_ReloadClearsResults(t *testing.T) {
	s := ready(t)
	s = apply(t, s,
		state.CheckStarted{CycleID: "c1"},
		state.CheckFinished{CycleID: "c1", Results: []checker.HealthResult{{Service: services[0]}}},
		state.LoadStarted{},
		state.LoadSucceeded{Services: services[:1]},
	)
	assert.Empty(t, s.Results)
	assert.Empty(t, s.CycleID)
	assert.Len(t, s.Services, 1)
}

func TestApply_Refusals(t *testing.T) {
	loading := apply(t, state.Initial(), state.LoadStarted{})
	checking := apply(t, ready(t), state.CheckStarted{CycleID: "c1"})
	failed := apply(t, loading, state.LoadFailed{})

	tests := []struct {
		name string
		from state.State
		ev   state.Event
		want error
	}{
		{"check while idle", state.Initial(), state.CheckStarted{CycleID: "x"}, state.ErrInvalidTransition},
		{"check while failed", failed, state.CheckStarted{CycleID: "x"}, state.ErrInvalidTransition},
		{"check while loading", loading, state.CheckStarted{CycleID: "x"}, state.ErrBusy},
		{"check while checking", checking, state.CheckStarted{CycleID: "x"}, state.ErrBusy},
		{"load while loading", loading, state.LoadStarted{}, state.ErrBusy},
		{"load while checking", checking, state.LoadStarted{}, state.ErrBusy},
		{"finish unknown cycle", checking, state.CheckFinished{CycleID: "other"}, state.ErrInvalidTransition},
		{"finish check while ready", ready(t), state.CheckFinished{CycleID: "c1"}, state.ErrInvalidTransition},
		{"load result while idle", state.Initial(), state.LoadSucceeded{}, state.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Apply(tt.ev)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.from, got, "state must be unchanged on error")
		})
	}
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	in := []config.Service{{Name: "api", HealthcheckURL: "http://api/health"}}
	s := apply(t, state.Initial(), state.LoadStarted{}, state.LoadSucceeded{Services: in})
	in[0].Name = "mutated"
	assert.Equal(t, "api", s.Services[0].Name)
}
