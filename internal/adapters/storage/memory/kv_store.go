package memory

import (
	"context"
	"sync"
)

// KVStore is a simple in-memory implementation of domain.KeyValueStore.
// It is NOT persistent and is only suitable for tests / throwaway sessions.
type KVStore struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

func NewKVStore() *KVStore {
	return &KVStore{
		values: make(map[string]string),
	}
}

func (s *KVStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.writes++
	return nil
}

// Writes returns how many Set calls the store has served.
func (s *KVStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
