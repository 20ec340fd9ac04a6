package memory

import (
	"context"
	"errors"
	"testing"

	"nutrilog/internal/kv"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, kv.KeyWaterGlasses, "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, kv.KeyWaterGlasses)
	if err != nil || got != "3" {
		t.Fatalf("unexpected get: value=%q err=%v", got, err)
	}
	if s.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", s.Writes())
	}

	if err := s.Delete(ctx, kv.KeyWaterGlasses); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, kv.KeyWaterGlasses); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestNewWithValuesCopiesInput(t *testing.T) {
	seed := map[string]string{"a": "1"}
	s := NewWithValues(seed)
	seed["a"] = "2"

	snap := s.Snapshot()
	if snap["a"] != "1" {
		t.Fatalf("store must not alias its seed map, got %q", snap["a"])
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()
	if err := s.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
