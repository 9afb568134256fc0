// Package redis is a kv.Store on a Redis server, for sharing one cache across devices.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/closetkit/closet/pkg/kv"
)

// Options configures the Redis connection.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// MaxValueBytes > 0 rejects larger values with kv.ErrQuotaExceeded.
	MaxValueBytes int64
}

// Store namespaces every key with a prefix.
type Store struct {
	client   goredis.UniversalClient
	prefix   string
	maxValue int64
}

var _ kv.Store = (*Store)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts.KeyPrefix, opts.MaxValueBytes), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, prefix string, maxValueBytes int64) *Store {
	return &Store{client: client, prefix: prefix, maxValue: maxValueBytes}
}

// Get returns the value under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set stores value without expiry; age is tracked by the cache itself.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.maxValue > 0 && int64(len(value)) > s.maxValue {
		return &kv.QuotaError{Key: key, Size: int64(len(value)), Limit: s.maxValue}
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		// Redis reports maxmemory rejections as OOM errors.
		if isOOM(err) {
			return fmt.Errorf("redis set: %w: %v", kv.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func isOOM(err error) bool {
	var rerr goredis.Error
	if errors.As(err, &rerr) {
		return strings.HasPrefix(rerr.Error(), "OOM")
	}
	return false
}
