// Package kv provides the short-lived key-value state used for assignment
// caches and derived household views.
package kv

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Store is a string key-value store with optional per-key expiry.
// A ttl of zero means the key never expires.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetID reads a key holding a decimal id.
func GetID(ctx context.Context, s Store, key string) (int64, bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("kv %s: parse id %q: %w", key, v, err)
	}
	return id, true, nil
}

// PutID stores a decimal id.
func PutID(ctx context.Context, s Store, key string, id int64, ttl time.Duration) error {
	return s.Put(ctx, key, strconv.FormatInt(id, 10), ttl)
}
