package redis_a_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/pviana/stockroom-be/internal/adapters/redis_adapter"
	"github.com/pviana/stockroom-be/internal/core/ports"
	"github.com/pviana/stockroom-be/test/helpers"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, ports.CacheRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	type dashboard struct {
		TotalProducts int64 `json:"total_products"`
		TotalStock    int64 `json:"total_stock"`
	}

	err := cache.Set(ctx, "dash:main", dashboard{TotalProducts: 3, TotalStock: 42})
	require.NoError(t, err)

	var got dashboard
	err = cache.Get(ctx, "dash:main", &got)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.TotalProducts)
	assert.Equal(t, int64(42), got.TotalStock)
}

func TestCache_GetMiss(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	var dest string
	err := cache.Get(ctx, "absent", &dest)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	mr, cache := newTestCache(t)

	err := cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond)
	require.NoError(t, err)

	var result string
	require.NoError(t, cache.Get(ctx, "ttl:test", &result))
	assert.Equal(t, "value", result)

	mr.FastForward(200 * time.Millisecond)

	err = cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	fetches := 0
	fetch := func() (interface{}, error) {
		fetches++
		return map[string]int{"stock": 10}, nil
	}

	var first map[string]int
	require.NoError(t, cache.GetOrSet(ctx, "dash:stock", &first, fetch, time.Minute))
	assert.Equal(t, 10, first["stock"])
	assert.Equal(t, 1, fetches)

	// Second read is served from cache; fetch must not run again.
	var second map[string]int
	require.NoError(t, cache.GetOrSet(ctx, "dash:stock", &second, fetch, time.Minute))
	assert.Equal(t, 10, second["stock"])
	assert.Equal(t, 1, fetches)
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "products:list:1", "a"))
	require.NoError(t, cache.Set(ctx, "products:list:2", "b"))
	require.NoError(t, cache.Set(ctx, "dash:main", "c"))

	require.NoError(t, cache.DeletePattern(ctx, "products:*"))

	exists, err := cache.Exists(ctx, "products:list:1")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cache.Exists(ctx, "dash:main")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	ok, err := cache.SetNX(ctx, "worker:lock", "holder-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "worker:lock", "holder-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_BuildKey(t *testing.T) {
	assert.Equal(t, "dash:main", redis_a.BuildKey(redis_a.PrefixDashboard, "main"))
	assert.Equal(t, "movements:IN:50", redis_a.BuildKey(redis_a.PrefixMovements, "IN", "50"))
}
