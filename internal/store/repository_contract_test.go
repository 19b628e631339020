package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/serroba/url-shortener/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepository runs the behaviour every shortener.Repository must share.
// newRepo must return an empty repository.
func testRepository(t *testing.T, newRepo func(t *testing.T) shortener.Repository) {
	t.Helper()

	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	record := func(i int) *shortener.ShortURL {
		return &shortener.ShortURL{
			Code:          shortener.Code(fmt.Sprintf("code%03d", i)),
			OriginalURL:   fmt.Sprintf("https://Example.com/%d", i),
			NormalizedURL: fmt.Sprintf("https://example.com/%d", i),
			CreatedBy:     "alice",
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}
	}

	t.Run("insert assigns an id and records are found by code and id", func(t *testing.T) {
		repo := newRepo(t)
		url := record(1)

		require.NoError(t, repo.Insert(ctx, url))
		assert.NotZero(t, url.ID)

		byCode, err := repo.GetByCode(ctx, url.Code)
		require.NoError(t, err)
		assert.Equal(t, url.ID, byCode.ID)
		assert.Equal(t, url.OriginalURL, byCode.OriginalURL)
		assert.Equal(t, url.NormalizedURL, byCode.NormalizedURL)
		assert.Equal(t, "alice", byCode.CreatedBy)
		assert.WithinDuration(t, url.CreatedAt, byCode.CreatedAt, time.Millisecond)

		byID, err := repo.GetByID(ctx, url.ID)
		require.NoError(t, err)
		assert.Equal(t, url.Code, byID.Code)

		exists, err := repo.ExistsByNormalizedURL(ctx, url.NormalizedURL)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByCode(ctx, url.Code)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing records are not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByCode(ctx, "missing")
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = repo.GetByID(ctx, 424242)
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, 424242), shortener.ErrNotFound)

		exists, err := repo.ExistsByCode(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("insert reports the violated attribute", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, record(1)))

		sameCode := record(2)
		sameCode.Code = record(1).Code

		v, ok := shortener.AsUniquenessViolation(repo.Insert(ctx, sameCode))
		require.True(t, ok)
		assert.Equal(t, shortener.FieldCode, v.Field)

		sameURL := record(3)
		sameURL.NormalizedURL = record(1).NormalizedURL

		v, ok = shortener.AsUniquenessViolation(repo.Insert(ctx, sameURL))
		require.True(t, ok)
		assert.Equal(t, shortener.FieldURL, v.Field)
	})

	t.Run("delete frees the url and retires the code", func(t *testing.T) {
		repo := newRepo(t)
		url := record(1)
		require.NoError(t, repo.Insert(ctx, url))

		require.NoError(t, repo.Delete(ctx, url.ID))

		_, err := repo.GetByCode(ctx, url.Code)
		require.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = repo.GetByID(ctx, url.ID)
		require.ErrorIs(t, err, shortener.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, url.ID), shortener.ErrNotFound)

		exists, err := repo.ExistsByNormalizedURL(ctx, url.NormalizedURL)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsByCode(ctx, url.Code)
		require.NoError(t, err)
		assert.True(t, exists)

		again := record(2)
		again.NormalizedURL = url.NormalizedURL
		require.NoError(t, repo.Insert(ctx, again))

		reused := record(3)
		reused.Code = url.Code

		v, ok := shortener.AsUniquenessViolation(repo.Insert(ctx, reused))
		require.True(t, ok)
		assert.Equal(t, shortener.FieldCode, v.Field)
	})

	t.Run("lists live records newest first", func(t *testing.T) {
		repo := newRepo(t)

		ids := make([]int64, 0, 5)

		for i := 1; i <= 5; i++ {
			url := record(i)
			require.NoError(t, repo.Insert(ctx, url))
			ids = append(ids, url.ID)
		}

		require.NoError(t, repo.Delete(ctx, ids[3]))

		page, err := repo.List(ctx, shortener.PageRequest{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.PageSize)
		require.Len(t, page.Items, 2)
		assert.Equal(t, ids[4], page.Items[0].ID)
		assert.Equal(t, ids[2], page.Items[1].ID)

		page, err = repo.List(ctx, shortener.PageRequest{Page: 2, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, ids[1], page.Items[0].ID)
		assert.Equal(t, ids[0], page.Items[1].ID)

		page, err = repo.List(ctx, shortener.PageRequest{Page: 3, PageSize: 2})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 4, page.Total)
	})

	t.Run("concurrent inserts of one url admit exactly one", func(t *testing.T) {
		repo := newRepo(t)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
			rejected int
		)

		for i := range 8 {
			wg.Go(func() {
				url := record(100 + i)
				url.NormalizedURL = "https://example.com/contended"

				err := repo.Insert(ctx, url)

				mu.Lock()
				defer mu.Unlock()

				if err == nil {
					accepted++

					return
				}

				if v, ok := shortener.AsUniquenessViolation(err); ok && v.Field == shortener.FieldURL {
					rejected++
				}
			})
		}

		wg.Wait()

		assert.Equal(t, 1, accepted)
		assert.Equal(t, 7, rejected)
	})
}
