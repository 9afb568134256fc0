package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/closetkit/closet/pkg/kv"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	val := []byte("hello")
	if err := s.Set(ctx, "k", val); err != nil {
		t.Fatal(err)
	}
	val[0] = 'J'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("store must copy values, got %s", got)
	}

	_ = s.Delete(ctx, "k")
	if _, err := s.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreQuota(t *testing.T) {
	s := New(8)
	ctx := context.Background()

	if err := s.Set(ctx, "a", []byte("12345")); err != nil {
		t.Fatal(err)
	}
	err := s.Set(ctx, "b", []byte("12345"))
	var qe *kv.QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuotaError, got %v", err)
	}
	if qe.Limit != 8 || qe.Size != 10 {
		t.Errorf("unexpected quota error: %+v", qe)
	}

	_ = s.Delete(ctx, "a")
	if err := s.Set(ctx, "b", []byte("12345")); err != nil {
		t.Errorf("delete should free quota: %v", err)
	}
}
