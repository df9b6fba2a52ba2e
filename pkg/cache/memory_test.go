package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	type status struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, mc.Set(ctx, "retrain:last", status{Reason: "drift"}, 0))

	var got status
	require.NoError(t, mc.Get(ctx, "retrain:last", &got))
	assert.Equal(t, "drift", got.Reason)

	var s string
	require.NoError(t, mc.Set(ctx, "plain", "value", time.Minute))
	require.NoError(t, mc.Get(ctx, "plain", &s))
	assert.Equal(t, "value", s)

	require.NoError(t, mc.Delete(ctx, "plain"))
	assert.ErrorIs(t, mc.Get(ctx, "plain", &s), ErrCacheMiss)
}

func TestMemoryExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestMemoryLockOwnership(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	token, ok, err := mc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = mc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, mc.Unlock(ctx, "lock", "someone-else"), ErrLockNotHeld)
	require.NoError(t, mc.Unlock(ctx, "lock", token))

	_, ok, err = mc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLockExpires(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_, ok, _ := mc.TryLock(ctx, "lock", time.Millisecond)
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)

	_, ok, err := mc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", "2", 0))
	time.Sleep(time.Millisecond)
	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", "3", 0))

	assert.NoError(t, mc.Get(ctx, "a", &s))
	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "c", &s))
}
