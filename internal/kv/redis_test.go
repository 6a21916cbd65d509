package kv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("HOMEBASE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HOMEBASE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	s, err := NewRedisStore(ctx, RedisConfig{Addr: addr, Prefix: "homebase-test:" + uuid.NewString() + ":"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Put(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Errorf("get = %q %v %v", v, ok, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expected key gone")
	}
}

func TestNewRedisStoreRequiresAddr(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), RedisConfig{}); err == nil {
		t.Error("expected error for empty addr")
	}
}
