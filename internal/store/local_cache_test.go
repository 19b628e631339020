package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/url-shortener/internal/shortener"
	"github.com/serroba/url-shortener/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepository counts lookups that reach the wrapped store.
type countingRepository struct {
	*store.MemoryStore

	lookups int
}

func (c *countingRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	c.lookups++

	return c.MemoryStore.GetByCode(ctx, code)
}

func newLocalCache(t *testing.T, backing shortener.Repository) *store.LocalCacheRepository {
	t.Helper()

	cache, err := store.NewLocalCacheRepository(backing, time.Minute, 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Shutdown() })

	return cache
}

func TestLocalCacheRepository(t *testing.T) {
	testRepository(t, func(t *testing.T) shortener.Repository {
		return newLocalCache(t, store.NewMemoryStore())
	})
}

func TestLocalCacheRepository_ServesLookupsFromCache(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepository{MemoryStore: store.NewMemoryStore()}
	cache := newLocalCache(t, backing)

	url := &shortener.ShortURL{
		Code:          "cached1",
		OriginalURL:   "https://example.com",
		NormalizedURL: "https://example.com/",
		CreatedBy:     "alice",
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Insert(ctx, url))

	for range 3 {
		found, err := cache.GetByCode(ctx, "cached1")
		require.NoError(t, err)
		assert.Equal(t, url.ID, found.ID)
		assert.Equal(t, url.CreatedAt, found.CreatedAt)
	}

	assert.Zero(t, backing.lookups)
}

func TestLocalCacheRepository_FillsOnMiss(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepository{MemoryStore: store.NewMemoryStore()}
	require.NoError(t, backing.Insert(ctx, &shortener.ShortURL{Code: "direct1", NormalizedURL: "https://example.com/"}))

	cache := newLocalCache(t, backing)

	_, err := cache.GetByCode(ctx, "direct1")
	require.NoError(t, err)
	_, err = cache.GetByCode(ctx, "direct1")
	require.NoError(t, err)

	assert.Equal(t, 1, backing.lookups)

	_, err = cache.GetByCode(ctx, "absent1")
	require.ErrorIs(t, err, shortener.ErrNotFound)
}

func TestLocalCacheRepository_EvictsOnDelete(t *testing.T) {
	ctx := context.Background()
	cache := newLocalCache(t, store.NewMemoryStore())

	url := &shortener.ShortURL{Code: "evicted", NormalizedURL: "https://example.com/"}
	require.NoError(t, cache.Insert(ctx, url))
	require.NoError(t, cache.Delete(ctx, url.ID))

	_, err := cache.GetByCode(ctx, "evicted")
	assert.ErrorIs(t, err, shortener.ErrNotFound)
}
