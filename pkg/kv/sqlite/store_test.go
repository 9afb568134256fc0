package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/closetkit/closet/pkg/kv"
)

func newTestStore(t *testing.T, quota int64) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kv_test.db")
	s, err := New(dbPath, quota)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	if err := s.Set(ctx, "weatherPicksCache", []byte(`{"entries":[]}`)); err != nil {
		t.Fatal(err)
	}
	data, err := s.Get(ctx, "weatherPicksCache")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"entries":[]}` {
		t.Errorf("unexpected value: %s", data)
	}

	// Overwrite
	if err := s.Set(ctx, "weatherPicksCache", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	data, _ = s.Get(ctx, "weatherPicksCache")
	if string(data) != "v2" {
		t.Errorf("expected overwrite, got %s", data)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should succeed: %v", err)
	}
}

func TestQuota(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	if err := s.Set(ctx, "a", []byte("123456")); err != nil {
		t.Fatal(err)
	}
	err := s.Set(ctx, "b", []byte("123456"))
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if _, err := s.Get(ctx, "b"); !errors.Is(err, kv.ErrNotFound) {
		t.Error("rejected write should not be stored")
	}

	// Replacing a key only counts the new value.
	if err := s.Set(ctx, "a", []byte("1234567890")); err != nil {
		t.Errorf("replacement within quota should succeed: %v", err)
	}
}

func TestKeys(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()
	_ = s.Set(ctx, "b", []byte("1"))
	_ = s.Set(ctx, "a", []byte("2"))

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("unexpected keys: %v", keys)
	}
}
