package docmap

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests, and the
// fallback when no persistent store is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	maps map[string]*DocumentMap
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{maps: make(map[string]*DocumentMap)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, hash string) (*DocumentMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[hash]
	if !ok || m.Version != MapVersion {
		return nil, ErrNotFound
	}
	return m, nil
}

// PutIfAbsent implements Store.
func (s *MemoryStore) PutIfAbsent(_ context.Context, hash string, m *DocumentMap) (*DocumentMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.maps[hash]; ok && existing.Version == MapVersion {
		return existing, nil
	}
	s.maps[hash] = m
	return m, nil
}

// Len returns the number of stored maps.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.maps)
}
