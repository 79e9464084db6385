package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type product struct {
	ID    string `json:"id"`
	Price string `json:"price"`
}

func newTestContext(t *testing.T) (*Context, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	return NewContext(store, time.Minute, map[string]time.Duration{"Product": time.Hour}), store
}

func TestContext_TTLPerNamespace(t *testing.T) {
	c, _ := newTestContext(t)
	assert.Equal(t, time.Hour, c.TTL("product"))
	assert.Equal(t, time.Hour, c.TTL("PRODUCT"))
	assert.Equal(t, time.Minute, c.TTL("idempotency"))
}

func TestContext_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, store := newTestContext(t)

	var miss product
	hit, err := c.GetJSON(ctx, "product", "p1", &miss)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, "product", "p1", product{ID: "p1", Price: "12.50"}))
	_, ok, _ := store.Get(ctx, "product:p1")
	assert.True(t, ok, "keys are stored under their namespace")

	var got product
	hit, err = c.GetJSON(ctx, "product", "p1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, product{ID: "p1", Price: "12.50"}, got)

	require.NoError(t, c.Invalidate(ctx, "product", "p1"))
	hit, err = c.GetJSON(ctx, "product", "p1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestContext_CorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	c, store := newTestContext(t)
	require.NoError(t, store.Set(ctx, "product:bad", []byte("{not json"), time.Hour))

	var got product
	hit, err := c.GetJSON(ctx, "product", "bad", &got)
	assert.Error(t, err)
	assert.False(t, hit)
	_, ok, _ := store.Get(ctx, "product:bad")
	assert.False(t, ok)
}

func TestContext_Claim(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContext(t)

	ok, err := c.Claim(ctx, "idempotency", "shop:1:req-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Claim(ctx, "idempotency", "shop:1:req-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Claim(ctx, "product", "shop:1:req-1")
	require.NoError(t, err)
	assert.True(t, ok, "namespaces do not collide")

	require.NoError(t, c.Invalidate(ctx, "idempotency", "shop:1:req-1"))
	ok, err = c.Claim(ctx, "idempotency", "shop:1:req-1")
	require.NoError(t, err)
	assert.True(t, ok, "an invalidated claim can be taken again")
}
