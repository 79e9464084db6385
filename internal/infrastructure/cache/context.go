package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Context is the cache handle passed to services. Keys are namespaced and
// each namespace may carry its own TTL.
type Context struct {
	store      Store
	defaultTTL time.Duration
	ttl        map[string]time.Duration
}

// NewContext creates a Context. The ttl map is copied.
func NewContext(store Store, defaultTTL time.Duration, ttl map[string]time.Duration) *Context {
	copied := make(map[string]time.Duration, len(ttl))
	for ns, d := range ttl {
		copied[strings.ToLower(ns)] = d
	}
	return &Context{store: store, defaultTTL: defaultTTL, ttl: copied}
}

// Store returns the backing store
func (c *Context) Store() Store {
	return c.store
}

// TTL returns the expiry for entries in namespace
func (c *Context) TTL(namespace string) time.Duration {
	if d, ok := c.ttl[strings.ToLower(namespace)]; ok {
		return d
	}
	return c.defaultTTL
}

func namespacedKey(namespace, key string) string {
	return namespace + ":" + key
}

// GetJSON decodes the cached value into dest and reports a hit
func (c *Context) GetJSON(ctx context.Context, namespace, key string, dest any) (bool, error) {
	raw, ok, err := c.store.Get(ctx, namespacedKey(namespace, key))
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A value we cannot decode is as good as absent.
		_ = c.store.Delete(ctx, namespacedKey(namespace, key))
		return false, fmt.Errorf("decode cached %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

// SetJSON stores value under the namespace TTL
func (c *Context) SetJSON(ctx context.Context, namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	return c.store.Set(ctx, namespacedKey(namespace, key), raw, c.TTL(namespace))
}

// Invalidate removes keys from namespace
func (c *Context) Invalidate(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = namespacedKey(namespace, k)
	}
	return c.store.Delete(ctx, full...)
}

// Claim atomically records key in namespace. It returns false when the key
// is already held and unexpired.
func (c *Context) Claim(ctx context.Context, namespace, key string) (bool, error) {
	stamp := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	return c.store.SetNX(ctx, namespacedKey(namespace, key), stamp, c.TTL(namespace))
}

// Close releases the backing store
func (c *Context) Close() error {
	return c.store.Close()
}
