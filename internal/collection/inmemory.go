package collection

import (
	"context"
	"sync"
)

// InMemoryStore is a simple in-process collection store for local/dev use.
type InMemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{collections: make(map[string][]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr, ok := s.collections[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Record, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) Put(_ context.Context, userID string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Record, len(records))
	copy(cp, records)
	s.collections[userID] = cp
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
