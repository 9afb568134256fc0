// Package memory is an in-process kv.Store, used for ephemeral sessions and tests.
package memory

import (
	"context"
	"sync"

	"github.com/closetkit/closet/pkg/kv"
)

// Store keeps values in a map. A positive quota caps the total bytes held.
type Store struct {
	mu    sync.RWMutex
	data  map[string][]byte
	quota int64
	used  int64
}

var _ kv.Store = (*Store)(nil)

// New creates a Store. quotaBytes <= 0 disables the quota.
func New(quotaBytes int64) *Store {
	return &Store{data: make(map[string][]byte), quota: quotaBytes}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.used - int64(len(s.data[key])) + int64(len(value))
	if s.quota > 0 && next > s.quota {
		return &kv.QuotaError{Key: key, Size: next, Limit: s.quota}
	}
	s.data[key] = append([]byte(nil), value...)
	s.used = next
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used -= int64(len(s.data[key]))
	delete(s.data, key)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
