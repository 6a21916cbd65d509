package kv

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/homebase/internal/database"
)

func setupSQLStore(t *testing.T) (*SQLStore, *time.Time) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 2, 5, 8, 0, 0, 0, time.UTC)
	s := NewSQLStore(db)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestSQLStorePutGetDelete(t *testing.T) {
	s, _ := setupSQLStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("get missing = ok %v err %v", ok, err)
	}

	if err := s.Put(ctx, "k", "v1", 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "k", "v2", 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Errorf("get = %q %v %v, want v2", v, ok, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expected key gone after delete")
	}
}

func TestSQLStoreExpiry(t *testing.T) {
	s, now := setupSQLStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "short", "x", 23*time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "forever", "y", 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	*now = now.Add(22 * time.Hour)
	if _, ok, _ := s.Get(ctx, "short"); !ok {
		t.Error("expected key alive before ttl")
	}

	*now = now.Add(2 * time.Hour)
	if _, ok, _ := s.Get(ctx, "short"); ok {
		t.Error("expected key expired after ttl")
	}
	if _, ok, _ := s.Get(ctx, "forever"); !ok {
		t.Error("expected key without ttl to survive")
	}
}

func TestSQLStorePurgeExpired(t *testing.T) {
	s, now := setupSQLStore(t)
	ctx := context.Background()

	s.Put(ctx, "a", "1", time.Hour)
	s.Put(ctx, "b", "2", 3*time.Hour)
	s.Put(ctx, "c", "3", 0)

	*now = now.Add(2 * time.Hour)
	n, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
}

func TestGetPutID(t *testing.T) {
	s, _ := setupSQLStore(t)
	ctx := context.Background()

	if err := PutID(ctx, s, "chore:assigned:user:1", 42, time.Hour); err != nil {
		t.Fatalf("put id: %v", err)
	}
	id, ok, err := GetID(ctx, s, "chore:assigned:user:1")
	if err != nil || !ok || id != 42 {
		t.Errorf("get id = %d %v %v, want 42", id, ok, err)
	}

	s.Put(ctx, "bad", "not-a-number", 0)
	if _, _, err := GetID(ctx, s, "bad"); err == nil {
		t.Error("expected parse error")
	}
}
