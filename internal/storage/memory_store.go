package storage

import (
	"context"
	"sync"
)

type memoryStore struct {
	items map[string]string
	mu    sync.RWMutex
}

// NewMemoryStore creates a Store that lives only as long as the process.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
