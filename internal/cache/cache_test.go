package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(now time.Time) *Cache {
	c := &Cache{entries: make(map[string]entry), enabled: true}
	c.now = func() time.Time { return now }
	return c
}

func TestCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(time.Now())

	etag := c.Set(ctx, "players:ACT", []byte(`[1]`), time.Minute)
	data, gotTag, ok := c.Get(ctx, "players:ACT")
	require.True(t, ok)
	assert.Equal(t, []byte(`[1]`), data)
	assert.Equal(t, etag, gotTag)
	assert.Equal(t, ComputeETag([]byte(`[1]`)), etag)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(start)
	c.Set(ctx, "games:2025", []byte(`[]`), time.Minute)

	c.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, _, ok := c.Get(ctx, "games:2025")
	assert.False(t, ok)

	stats := c.Stats(ctx)
	assert.Equal(t, 1, stats["expired_keys"])
	c.evict()
	assert.Equal(t, 0, c.Stats(ctx)["total_keys"])
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()
	c := New(false)
	etag := c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.NotEmpty(t, etag)
	_, _, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCacheInvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(time.Now())
	c.Set(ctx, PrefixPlayers+"ACT", []byte("a"), time.Hour)
	c.Set(ctx, PrefixPlayers+"all", []byte("b"), time.Hour)
	c.Set(ctx, PrefixGames+"2025", []byte("c"), time.Hour)

	assert.Equal(t, 2, c.InvalidatePrefix(ctx, PrefixPlayers))
	_, _, ok := c.Get(ctx, PrefixGames+"2025")
	assert.True(t, ok)

	assert.Equal(t, 1, c.InvalidatePrefix(ctx, ""))
}

func TestCheckETagMatch(t *testing.T) {
	etag := `W/"abc"`
	assert.False(t, CheckETagMatch("", etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch(`W/"zzz", W/"abc"`, etag))
	assert.False(t, CheckETagMatch(`W/"zzz"`, etag))
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	defer r.Close()

	var _ Backend = r

	etag := r.Set(ctx, PrefixFields+"QB", []byte(`[{"field_key":"passing_yards"}]`), time.Hour)
	data, gotTag, ok := r.Get(ctx, PrefixFields+"QB")
	require.True(t, ok)
	assert.JSONEq(t, `[{"field_key":"passing_yards"}]`, string(data))
	assert.Equal(t, etag, gotTag)
	assert.True(t, mr.Exists(redisKeyspace+PrefixFields+"QB"))

	mr.FastForward(2 * time.Hour)
	_, _, ok = r.Get(ctx, PrefixFields+"QB")
	assert.False(t, ok)
}

func TestRedisInvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	defer r.Close()

	r.Set(ctx, PrefixGames+"2024", []byte("a"), time.Hour)
	r.Set(ctx, PrefixGames+"2025", []byte("b"), time.Hour)
	r.Set(ctx, PrefixPlayers+"ACT", []byte("c"), time.Hour)

	assert.Equal(t, 2, r.InvalidatePrefix(ctx, PrefixGames))
	_, _, ok := r.Get(ctx, PrefixPlayers+"ACT")
	assert.True(t, ok)
	assert.Equal(t, 1, r.Stats(ctx)["total_keys"])
}

func TestRedisDownIsAMiss(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), nil)
	defer r.Close()
	mr.Close()

	_, _, ok := r.Get(ctx, "players:ACT")
	assert.False(t, ok)
	assert.NotEmpty(t, r.Set(ctx, "players:ACT", []byte("x"), time.Minute))
}
