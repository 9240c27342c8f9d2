// Package memory implements an in-memory kv Store for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	"zenjournal/internal/kv/core"
)

// Store implements core.Store backed by process memory.
type Store struct {
	mu   sync.RWMutex
	vals map[string]string
}

// New returns an empty in-memory store.
func New() *Store { return &Store{vals: make(map[string]string)} }

// Driver returns the kv driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	k, err := core.ValidateKey(key)
	if err != nil {
		return "", false, err
	}
	s.mu.RLock()
	v, ok := s.vals[k]
	s.mu.RUnlock()
	return v, ok, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	k, err := core.ValidateKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.vals[k] = value
	s.mu.Unlock()
	return nil
}

// Remove deletes key returning true if it existed.
func (s *Store) Remove(_ context.Context, key string) (bool, error) {
	k, err := core.ValidateKey(key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.vals[k]
	if ok {
		delete(s.vals, k)
	}
	return ok, nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vals)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
