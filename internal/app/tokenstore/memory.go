package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the token in process memory. Stores derived with WithKey share
// the same entries.
type MemoryStore struct {
	entries *memoryEntries
	key     string
}

type memoryEntries struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore for AccessTokenKey.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: &memoryEntries{values: make(map[string]string)},
		key:     AccessTokenKey,
	}
}

func (s *MemoryStore) Key() string { return s.key }

func (s *MemoryStore) WithKey(key string) TokenStore {
	return &MemoryStore{entries: s.entries, key: key}
}

func (s *MemoryStore) Get(context.Context) (string, error) {
	s.entries.mu.RLock()
	defer s.entries.mu.RUnlock()
	return s.entries.values[s.key], nil
}

func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.entries.mu.Lock()
	s.entries.values[s.key] = token
	s.entries.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(context.Context) error {
	s.entries.mu.Lock()
	delete(s.entries.values, s.key)
	s.entries.mu.Unlock()
	return nil
}
