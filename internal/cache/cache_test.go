package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/cache"
	"docsense/internal/domain"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := cache.NewMemoryCache(0)
	ctx := context.Background()
	page := 2
	in := []domain.Detection{{Text: "hello", Confidence: 0.9, Page: &page, Source: domain.SourceOCRPage}}

	require.NoError(t, c.Set(ctx, "k", in))
	out, err := c.Get(ctx, "k")

	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute)

	_, err := c.Get(context.Background(), "absent")

	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryCache_ReturnsCopy(t *testing.T) {
	c := cache.NewMemoryCache(0)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []domain.Detection{{Text: "a", Confidence: 1}}))

	first, err := c.Get(ctx, "k")
	require.NoError(t, err)
	first[0].Text = "mutated"

	second, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", second[0].Text)
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	c := cache.NewRedisCacheFromClient(client, cache.RedisConfig{Prefix: "test:"})
	defer func() { _ = c.Close() }()

	_, err := c.Get(context.Background(), "k")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, cache.ErrCacheMiss)
}
