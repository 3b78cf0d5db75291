package memory

import (
	"context"
	"sync"

	"github.com/kazkleen/crm/internal/repository"
)

// KV keeps values in process memory. Used by tests and the "memory" backend.
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewKV() *KV {
	return &KV{values: make(map[string][]byte)}
}

func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *KV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *KV) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
