// Package memory implements repository.Store in process memory.
//
// It is the default backend and the one tests use: state lives as long as
// the process, exactly like a single browser tab's storage.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/sakif/jobboard/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store is a map guarded by a mutex. The HTTP server may call it from
// several goroutines even though the core serializes its own mutations.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = slices.Clone(value)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
