//go:build integration

package store_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/url-shortener/internal/shortener"
	"github.com/serroba/url-shortener/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisTestDB keeps integration runs away from data in the default database.
const redisTestDB = 15

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}

	return "localhost:6379"
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
		DB:   redisTestDB,
	})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err())

	return client
}

func TestRedisStoreIntegration(t *testing.T) {
	testRepository(t, func(t *testing.T) shortener.Repository {
		return store.NewRedisStore(newRedisClient(t))
	})

	t.Run("keeps every key in one hash slot", func(t *testing.T) {
		ctx := context.Background()
		client := newRedisClient(t)
		s := store.NewRedisStore(client)

		url := &shortener.ShortURL{Code: "slot123", NormalizedURL: "https://example.com/", CreatedBy: "alice"}
		require.NoError(t, s.Insert(ctx, url))
		require.NoError(t, s.Delete(ctx, url.ID))

		keys, err := client.Keys(ctx, "*").Result()
		require.NoError(t, err)
		require.NotEmpty(t, keys)

		for _, key := range keys {
			assert.True(t, strings.HasPrefix(key, "{shortener}:"), key)
		}

		deleted, err := client.HGet(ctx, "{shortener}:url:slot123", "deleted").Result()
		require.NoError(t, err)
		assert.Equal(t, "1", deleted)
	})

	t.Run("ping", func(t *testing.T) {
		s := store.NewRedisStore(newRedisClient(t))

		assert.NoError(t, s.Ping(context.Background()))
	})
}

func TestRedisCacheRepositoryIntegration(t *testing.T) {
	testRepository(t, func(t *testing.T) shortener.Repository {
		return store.NewRedisCacheRepository(store.NewMemoryStore(), newRedisClient(t), time.Minute)
	})

	t.Run("serves cached records after the store forgets them", func(t *testing.T) {
		ctx := context.Background()
		client := newRedisClient(t)
		backing := store.NewMemoryStore()
		cache := store.NewRedisCacheRepository(backing, client, time.Minute)

		url := &shortener.ShortURL{
			Code:          "cached1",
			OriginalURL:   "https://example.com",
			NormalizedURL: "https://example.com/",
			CreatedBy:     "alice",
			CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, cache.Insert(ctx, url))

		// Deleting behind the decorator's back leaves the cache entry in place.
		require.NoError(t, backing.Delete(ctx, url.ID))

		found, err := cache.GetByCode(ctx, "cached1")
		require.NoError(t, err)
		assert.Equal(t, url.ID, found.ID)
		assert.Equal(t, url.CreatedAt, found.CreatedAt)

		ttl, err := client.TTL(ctx, "cache:url:cached1").Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)
	})
}

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	s := store.NewRateLimitRedisStore(newRedisClient(t))

	for want := int64(1); want <= 3; want++ {
		count, err := s.Record(ctx, "client-a", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	count, err := s.Record(ctx, "client-b", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = s.Record(ctx, "client-c", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	time.Sleep(100 * time.Millisecond)

	count, err = s.Record(ctx, "client-c", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
