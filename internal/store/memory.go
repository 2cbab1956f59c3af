// Package store keeps the decisions issued by the running process so the
// API can serve follow-up lookups by ID.
//
// It is an in-process convenience, not a system of record: nothing survives
// a restart, and stored decisions never feed back into scoring. The log is
// bounded so a long-lived server does not grow without limit — when the cap
// is hit, the oldest decisions are evicted first.
package store

import (
	"sync"

	"meridia/risk-engine/internal/domain"
)

// DefaultCapacity bounds the number of retained decisions.
const DefaultCapacity = 10000

// Store is a thread-safe, bounded, in-memory decision log.
type Store struct {
	mu       sync.RWMutex
	capacity int

	decisions map[string]*domain.DecisionRecord
	order     []string // insertion order, oldest first, for eviction
}

// New creates an empty store with the default capacity.
func New() *Store {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates an empty store retaining at most capacity decisions.
func NewWithCapacity(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		capacity:  capacity,
		decisions: make(map[string]*domain.DecisionRecord),
	}
}

// Save records a decision, evicting the oldest entry when at capacity.
func (s *Store) Save(rec *domain.DecisionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.decisions[rec.ID]; !exists {
		for len(s.order) >= s.capacity {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.decisions, oldest)
		}
		s.order = append(s.order, rec.ID)
	}
	s.decisions[rec.ID] = rec
}

// Get retrieves a decision by ID.
func (s *Store) Get(id string) (*domain.DecisionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.decisions[id]
	return rec, ok
}

// Len returns the number of retained decisions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions)
}
