package options

import (
	"context"
	"sync"

	pkgerrors "github.com/pandeptwidyaop/simple404/pkg/errors"
)

// MemoryStore is an in-process Store. Values are copied on the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string][]byte
	autoload map[string]bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string][]byte),
		autoload: make(map[string]bool),
	}
}

func (s *MemoryStore) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[name]
	if !ok {
		return nil, pkgerrors.ErrOptionNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(_ context.Context, name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[name] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Add(_ context.Context, name string, value []byte, autoload bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[name]; ok {
		return pkgerrors.ErrOptionExists
	}
	s.values[name] = append([]byte(nil), value...)
	s.autoload[name] = autoload
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, name)
	delete(s.autoload, name)
	return nil
}

// Autoload reports the autoload flag the option was added with.
func (s *MemoryStore) Autoload(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoload[name]
}
