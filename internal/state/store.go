package state

import (
	"log/slog"
	"sync"
	"time"
)

// Store owns the current State and serialises transitions.
type Store struct {
	mu     sync.RWMutex
	cur    State
	now    func() time.Time
	logger *slog.Logger
}

// NewStore returns a Store in the idle phase. Pass nil logger to use the default logger.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{now: time.Now, logger: logger}
	s.cur = Initial()
	s.cur.UpdatedAt = s.now()
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone()
}

// Dispatch applies ev to the current state. On error the state is unchanged.
func (s *Store) Dispatch(ev Event) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.cur.Phase
	next, err := s.cur.Apply(ev)
	if err != nil {
		return s.cur.Clone(), err
	}
	next.UpdatedAt = s.now()
	s.cur = next

	s.logger.Debug("state transition", "from", from, "to", next.Phase, "cycle_id", next.CycleID)
	return s.cur.Clone(), nil
}
