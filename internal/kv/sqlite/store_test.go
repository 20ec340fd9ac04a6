package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"nutrilog/internal/kv"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, filepath.Join(t.TempDir(), "nested", "nutrilog.db"))

	if _, err := s.Get(ctx, kv.KeyMealCalories); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	blob := `{"breakfast":120,"lunch":0,"snacks":30,"dinner":200}`
	if err := s.Set(ctx, kv.KeyMealCalories, blob); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, kv.KeyMealCalories)
	if err != nil || got != blob {
		t.Fatalf("unexpected get: value=%q err=%v", got, err)
	}

	// Overwrite goes through the upsert path
	if err := s.Set(ctx, kv.KeyMealCalories, "{}"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ := s.Get(ctx, kv.KeyMealCalories); got != "{}" {
		t.Fatalf("expected overwritten value, got %q", got)
	}

	if err := s.Delete(ctx, kv.KeyMealCalories); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, kv.KeyMealCalories); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nutrilog.db")

	first, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := first.Set(ctx, kv.ServingsKey("breakfast"), `{"TOAST":2}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Migrations must be idempotent on an existing database
	second := newTestStore(t, path)
	got, err := second.Get(ctx, kv.ServingsKey("breakfast"))
	if err != nil || got != `{"TOAST":2}` {
		t.Fatalf("unexpected value after reopen: %q err=%v", got, err)
	}
}
