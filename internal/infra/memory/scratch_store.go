package memory

import (
	"context"
	"sync"
)

// ScratchStore is an in-memory implementation of app.ScratchStore.
type ScratchStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewScratchStore() *ScratchStore {
	return &ScratchStore{values: make(map[string]string)}
}

func (s *ScratchStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *ScratchStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *ScratchStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Len is the number of stored keys.
func (s *ScratchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
