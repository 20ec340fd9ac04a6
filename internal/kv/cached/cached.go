// Package cached wraps a kv.Store with a read-through, write-through LRU cache.
package cached

import (
	"context"
	"sync"

	"nutrilog/internal/cache"
	"nutrilog/internal/kv"
)

type Store struct {
	next  kv.Store
	cache cache.Cache[string]

	// mu serialises writes; writes counts them so a read that raced a write
	// does not cache what it saw.
	mu     sync.Mutex
	writes uint64
}

func New(next kv.Store, c cache.Cache[string]) *Store {
	return &Store{next: next, cache: c}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}

	s.mu.Lock()
	seen := s.writes
	s.mu.Unlock()

	v, err := s.next.Get(ctx, key)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.writes == seen {
		s.cache.Set(key, v)
	}
	s.mu.Unlock()
	return v, nil
}

// Set writes through; the cache is only updated once the backing store accepted the value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if err := s.next.Set(ctx, key, value); err != nil {
		s.cache.Delete(key)
		return err
	}
	s.cache.Set(key, value)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.cache.Delete(key)
	return s.next.Delete(ctx, key)
}
