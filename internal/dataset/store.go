package dataset

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when a session has no dataset.
var ErrNotFound = errors.New("no dataset for session")

// Store holds one dataset per session.
type Store interface {
	Get(sessionID string) (Dataset, error)
	Put(sessionID string, ds Dataset)
	Delete(sessionID string)
}

// MemoryStore is a mutex-guarded in-process Store. Get hands out the stored
// value; since datasets are never mutated after Put, callers may use it
// while a concurrent upload replaces the session's entry.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]Dataset
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]Dataset)}
}

func (s *MemoryStore) Get(sessionID string) (Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.sets[sessionID]
	if !ok {
		return Dataset{}, ErrNotFound
	}
	return ds, nil
}

func (s *MemoryStore) Put(sessionID string, ds Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[sessionID] = ds
}

func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, sessionID)
}

// Count returns the number of sessions holding a dataset.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets)
}
