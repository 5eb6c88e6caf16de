// Package state holds the dashboard's application state as an explicit value
// and the transitions allowed between its phases:
//
//	idle -> loading -> ready | failed
//	ready -> checking -> ready
//	ready | failed -> loading
package state

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hazz-dev/healthdash/internal/checker"
	"github.com/hazz-dev/healthdash/internal/config"
)

// Phase is the coarse lifecycle position of the dashboard.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseReady    Phase = "ready"
	PhaseChecking Phase = "checking"
	PhaseFailed   Phase = "failed"
)

var (
	// ErrBusy is returned when a load or check is requested while one is running.
	ErrBusy = errors.New("a load or check is already in progress")
	// ErrInvalidTransition is returned for any other event not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// State is an immutable snapshot of the dashboard.
type State struct {
	Phase    Phase                  `json:"phase"`
	Services []config.Service       `json:"services"`
	Results  []checker.HealthResult `json:"results"`
	// CycleID identifies the evaluation cycle that is running or produced Results.
	CycleID   string    `json:"cycleId,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Initial returns the state before anything has been loaded.
func Initial() State {
	return State{Phase: PhaseIdle}
}

// Event is something that moves the state from one phase to another.
type Event interface {
	apply(s State) (State, error)
}

type (
	LoadStarted   struct{}
	LoadSucceeded struct{ Services []config.Service }
	LoadFailed    struct{ Err error }
	CheckStarted  struct{ CycleID string }
	CheckFinished struct {
		CycleID string
		Results []checker.HealthResult
	}
)

// Apply returns the state that follows s after ev. s itself is not modified.
func (s State) Apply(ev Event) (State, error) {
	next, err := ev.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

// Busy reports whether a load or check is in flight.
func (s State) Busy() bool {
	return s.Phase == PhaseLoading || s.Phase == PhaseChecking
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	s.Services = slices.Clone(s.Services)
	s.Results = slices.Clone(s.Results)
	return s
}

func (LoadStarted) apply(s State) (State, error) {
	switch s.Phase {
	case PhaseIdle, PhaseReady, PhaseFailed:
		s.Phase = PhaseLoading
		s.Error = ""
		return s, nil
	default:
		return s, refuse(s.Phase, "start loading")
	}
}

func (e LoadSucceeded) apply(s State) (State, error) {
	if s.Phase != PhaseLoading {
		return s, refuse(s.Phase, "finish loading")
	}
	s.Phase = PhaseReady
	s.Services = slices.Clone(e.Services)
	if s.Services == nil {
		s.Services = []config.Service{}
	}
	s.Results = nil
	s.CycleID = ""
	s.Error = ""
	return s, nil
}

func (e LoadFailed) apply(s State) (State, error) {
	if s.Phase != PhaseLoading {
		return s, refuse(s.Phase, "fail loading")
	}
	s.Phase = PhaseFailed
	s.Services = nil
	s.Results = nil
	s.CycleID = ""
	s.Error = "failed to load services"
	if e.Err != nil {
		s.Error = e.Err.Error()
	}
	return s, nil
}

func (e CheckStarted) apply(s State) (State, error) {
	if s.Phase != PhaseReady {
		return s, refuse(s.Phase, "start a check")
	}
	s.Phase = PhaseChecking
	s.CycleID = e.CycleID
	return s, nil
}

func (e CheckFinished) apply(s State) (State, error) {
	if s.Phase != PhaseChecking {
		return s, refuse(s.Phase, "finish a check")
	}
	if e.CycleID != s.CycleID {
		return s, fmt.Errorf("%w: cycle %q finished while %q is running", ErrInvalidTransition, e.CycleID, s.CycleID)
	}
	s.Phase = PhaseReady
	s.Results = slices.Clone(e.Results)
	return s, nil
}

func refuse(phase Phase, action string) error {
	if phase == PhaseLoading || phase == PhaseChecking {
		return fmt.Errorf("cannot %s while %s: %w", action, phase, ErrBusy)
	}
	return fmt.Errorf("cannot %s while %s: %w", action, phase, ErrInvalidTransition)
}
