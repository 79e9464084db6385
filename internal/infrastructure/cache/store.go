// Package cache provides a namespaced key/value cache with pluggable
// backends. Nothing here is global: callers build a Context in main and
// pass it to whoever needs it.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value backend with per-entry expiry
type Store interface {
	// Get returns the value and whether the key was present and unexpired
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}
