package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/folio/internal/cache/redis"
	"github.com/davidbz/folio/internal/domain"
)

func newTestCache(t *testing.T) (*redis.PayloadCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)

	client, err := redis.NewClient(context.Background(), &redis.Config{Addr: server.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewPayloadCache(client), server
}

func TestPayloadCache_GetSet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Get(ctx, "folio:payload:missing")
	require.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "folio:payload:a", []byte(`{"data":[]}`), time.Hour))

	data, err := cache.Get(ctx, "folio:payload:a")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":[]}`, string(data))
}

func TestPayloadCache_Expiry(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, cache.Set(ctx, "forever", []byte("y"), 0))

	server.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "short")
	require.ErrorIs(t, err, domain.ErrCacheMiss)

	data, err := cache.Get(ctx, "forever")
	require.NoError(t, err)
	require.Equal(t, []byte("y"), data)
}

func TestPayloadCache_ServerDown(t *testing.T) {
	cache, server := newTestCache(t)
	server.Close()

	_, err := cache.Get(context.Background(), "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrCacheMiss)
}

func TestNewClient_Unreachable(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	_, err := redis.NewClient(context.Background(), &redis.Config{Addr: addr})
	require.ErrorContains(t, err, "failed to connect to redis")
}

func TestConfig_Enabled(t *testing.T) {
	require.False(t, (&redis.Config{}).Enabled())
	require.True(t, (&redis.Config{Addr: "localhost:6379"}).Enabled())

	var nilCfg *redis.Config
	require.False(t, nilCfg.Enabled())
}

var _ domain.PayloadCache = (*redis.PayloadCache)(nil)

func TestPayloadCache_SetsTTL(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "folio:payload:abc", []byte(`{}`), time.Hour))
	require.True(t, server.Exists("folio:payload:abc"))

	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ttl, err := client.TTL(ctx, "folio:payload:abc").Result()
	require.NoError(t, err)
	require.Equal(t, time.Hour, ttl)
}
