package redis

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/closetkit/closet/pkg/kv"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("CLOSET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CLOSET_TEST_REDIS_ADDR not set")
	}
	s, err := New(context.Background(), Options{Addr: addr, KeyPrefix: "closet-test:", MaxValueBytes: 64})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Delete(ctx, "weatherPicksCache") })

	if err := s.Set(ctx, "weatherPicksCache", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "weatherPicksCache")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v" {
		t.Errorf("got %q", got)
	}
	_ = s.Delete(ctx, "weatherPicksCache")
	if _, err := s.Get(ctx, "weatherPicksCache"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisMaxValue(t *testing.T) {
	s := NewWithClient(nil, "p:", 2)
	err := s.Set(context.Background(), "k", []byte("123"))
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Errorf("expected quota error, got %v", err)
	}
}
