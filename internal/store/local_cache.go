package store

import (
	"context"
	"time"

	"github.com/allegro/bigcache"
	"github.com/goccy/go-json"
	"github.com/serroba/url-shortener/internal/shortener"
)

// LocalCacheRepository wraps a Repository with an in-process cache for lookups by code.
type LocalCacheRepository struct {
	shortener.Repository

	cache *bigcache.BigCache
}

// NewLocalCacheRepository creates an in-process cache decorator holding entries for ttl.
func NewLocalCacheRepository(
	store shortener.Repository, ttl time.Duration, maxSizeMB int,
) (*LocalCacheRepository, error) {
	cache, err := bigcache.NewBigCache(bigcache.Config{
		Shards:             64,
		LifeWindow:         ttl,
		CleanWindow:        ttl / 2,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       512,
		HardMaxCacheSize:   maxSizeMB,
		Verbose:            false,
	})
	if err != nil {
		return nil, err
	}

	return &LocalCacheRepository{
		Repository: store,
		cache:      cache,
	}, nil
}

// Insert stores a short URL in the underlying store and caches it.
func (l *LocalCacheRepository) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := l.Repository.Insert(ctx, shortURL); err != nil {
		return err
	}

	l.set(shortURL)

	return nil
}

// GetByCode retrieves a short URL by its code, checking the cache first.
func (l *LocalCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if data, err := l.cache.Get(string(code)); err == nil {
		var url shortener.ShortURL
		if err = json.Unmarshal(data, &url); err == nil {
			return &url, nil
		}
	}

	url, err := l.Repository.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	l.set(url)

	return url, nil
}

// Delete removes the record from the underlying store and evicts it.
func (l *LocalCacheRepository) Delete(ctx context.Context, id int64) error {
	url, err := l.Repository.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err = l.Repository.Delete(ctx, id); err != nil {
		return err
	}

	_ = l.cache.Delete(string(url.Code))

	return nil
}

// Shutdown releases the cache.
func (l *LocalCacheRepository) Shutdown() error {
	return l.cache.Close()
}

func (l *LocalCacheRepository) set(url *shortener.ShortURL) {
	data, err := json.Marshal(url)
	if err != nil {
		return
	}

	_ = l.cache.Set(string(url.Code), data)
}

// Compile-time check.
var _ shortener.Repository = (*LocalCacheRepository)(nil)
