// Package kv defines the persistent key-value contract the response cache is
// stored in. Backends live in sub-packages and are interchangeable.
package kv

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("kv: key not found")
	// ErrQuotaExceeded is returned by Set when the value does not fit the store's quota.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
)

// Store is a synchronous string-keyed byte store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value. Errors wrap
	// ErrQuotaExceeded when the store is full.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources.
	Close() error
}

// QuotaError reports a write rejected by a store quota.
type QuotaError struct {
	Key   string
	Size  int64
	Limit int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("kv: writing %q needs %d bytes, quota is %d", e.Key, e.Size, e.Limit)
}

// Unwrap lets errors.Is match ErrQuotaExceeded.
func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
