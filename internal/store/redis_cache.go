package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/url-shortener/internal/shortener"
)

// RedisCacheRepository wraps a Repository with Redis caching for lookups by code.
// Uniqueness checks always go to the wrapped store.
type RedisCacheRepository struct {
	shortener.Repository

	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		Repository: store,
		client:     client,
		prefix:     "cache:url:",
		ttl:        ttl,
	}
}

// Insert stores a short URL in the underlying store and updates the cache.
func (r *RedisCacheRepository) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := r.Repository.Insert(ctx, shortURL); err != nil {
		return err
	}

	// Write-through: update cache after successful insert
	r.cacheURL(ctx, shortURL)

	return nil
}

// GetByCode retrieves a short URL by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if url, err := r.getFromCache(ctx, code); err == nil {
		return url, nil
	}

	url, err := r.Repository.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, url)

	return url, nil
}

// Delete removes the record from the underlying store and evicts it from the cache.
func (r *RedisCacheRepository) Delete(ctx context.Context, id int64) error {
	url, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err = r.Repository.Delete(ctx, id); err != nil {
		return err
	}

	r.client.Del(ctx, r.prefix+string(url.Code))

	return nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	url := &shortener.ShortURL{
		Code:          shortener.Code(result["code"]),
		OriginalURL:   result["original_url"],
		NormalizedURL: result["normalized_url"],
		CreatedBy:     result["created_by"],
	}

	if id, err := strconv.ParseInt(result["id"], 10, 64); err == nil {
		url.ID = id
	}

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			url.CreatedAt = time.Unix(0, nanos).UTC()
		}
	}

	return url, nil
}

func (r *RedisCacheRepository) cacheURL(ctx context.Context, url *shortener.ShortURL) {
	pipe := r.client.Pipeline()
	key := r.prefix + string(url.Code)

	pipe.HSet(ctx, key, map[string]interface{}{
		"id":             url.ID,
		"code":           string(url.Code),
		"original_url":   url.OriginalURL,
		"normalized_url": url.NormalizedURL,
		"created_by":     url.CreatedBy,
		"created_at":     url.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
