package session

import "sync"

// Store serialises events and swaps the whole State on every successful
// transition, so readers never observe a partial update.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore returns a store in the empty phase.
func NewStore() *Store {
	return &Store{state: State{Phase: PhaseEmpty}}
}

// Dispatch applies e. On error the stored state is left as it was and that
// state is returned.
func (s *Store) Dispatch(e Event) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Apply(s.state, e)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
