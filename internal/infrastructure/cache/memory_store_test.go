package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte("v1")
	require.NoError(t, store.Set(ctx, "k", value, time.Hour))
	value[0] = 'x'

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), got, "stored value must not alias the caller's slice")

	require.NoError(t, store.Delete(ctx, "k", "other"))
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("1"), 10*time.Millisecond))
	require.NoError(t, store.Set(ctx, "forever", []byte("1"), 0))
	time.Sleep(20 * time.Millisecond)

	_, ok, _ := store.Get(ctx, "short")
	assert.False(t, ok, "expired entry must not be returned")
	_, ok, _ = store.Get(ctx, "forever")
	assert.True(t, ok)

	store.cleanup()
	assert.Equal(t, 1, store.Size())
}

func TestMemoryStore_SetNX(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "k", []byte("a"), time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetNX(ctx, "k", []byte("b"), time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("a"), got)

	require.NoError(t, store.Set(ctx, "gone", []byte("a"), 5*time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	ok, err = store.SetNX(ctx, "gone", []byte("b"), time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "an expired key can be claimed again")
}

func TestMemoryStore_SetNXIsAtomic(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.SetNX(ctx, "race", []byte("x"), time.Hour); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
