package policy

import (
	"fmt"
	"sync"
)

// SaveFunc persists a policy after a successful update.
type SaveFunc func(Policy) error

// Store owns the process-wide policy. Readers take a Snapshot per call, so an
// update is visible to the next conversion and never to one in flight.
type Store struct {
	mu   sync.RWMutex
	cur  Policy
	save SaveFunc
}

// NewStore creates a store seeded with p. save may be nil.
func NewStore(p Policy, save SaveFunc) (*Store, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	return &Store{cur: p, save: save}, nil
}

// Snapshot returns a copy of the current policy.
func (s *Store) Snapshot() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update applies fn to a copy of the current policy, validates the result,
// persists it, and only then makes it current.
func (s *Store) Update(fn func(*Policy)) (Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur
	fn(&next)
	if err := next.Validate(); err != nil {
		return s.cur, fmt.Errorf("policy: %w", err)
	}
	if s.save != nil {
		if err := s.save(next); err != nil {
			return s.cur, fmt.Errorf("policy: save: %w", err)
		}
	}
	s.cur = next
	return next, nil
}
