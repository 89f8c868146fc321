package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-portal/pkg/common/cache"
	"library-portal/pkg/common/config"
)

func newCache(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisWithClient(client, time.Minute), srv
}

func TestIntRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, srv := newCache(t)

	_, ok, err := c.GetInt(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetInt(ctx, "k", 7))
	v, ok, err := c.GetInt(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, time.Minute, srv.TTL("k"))

	// 已存在时不覆盖
	set, err := c.SetIntIfAbsent(ctx, "k", 1)
	require.NoError(t, err)
	assert.False(t, set)
	v, _, _ = c.GetInt(ctx, "k")
	assert.Equal(t, 7, v)

	require.NoError(t, c.Delete(ctx, "k"))
	set, err = c.SetIntIfAbsent(ctx, "k", 1)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestCorruptValueIsDropped(t *testing.T) {
	ctx := context.Background()
	c, srv := newCache(t)

	require.NoError(t, srv.Set("k", "not-a-number"))
	_, ok, err := c.GetInt(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, srv.Exists("k"))
}

func TestUnreachableRedisDegrades(t *testing.T) {
	ctx := context.Background()
	c := cache.NewRedis(config.RedisConfig{Address: "127.0.0.1:1", TTL: time.Minute})

	assert.False(t, c.Available())
	assert.Error(t, c.Ping(ctx))

	_, ok, err := c.GetInt(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.SetInt(ctx, "k", 1))
	assert.NoError(t, c.Close())
}
