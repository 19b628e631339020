package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/url-shortener/internal/shortener"
)

// Keys used by RedisStore. They share the {shortener} hash tag so the scripts
// touch a single slot when Redis runs as a cluster.
//
//	{shortener}:url:<code>      hash with the record, "deleted" set once retired
//	{shortener}:url_normalized  hash normalized url -> code, live records only
//	{shortener}:url_ids         hash id -> code
//	{shortener}:url_listing     sorted set of live codes scored by id
//	{shortener}:url_seq         id sequence
const (
	redisCodePrefix    = "{shortener}:url:"
	redisNormalizedKey = "{shortener}:url_normalized"
	redisIDsKey        = "{shortener}:url_ids"
	redisListingKey    = "{shortener}:url_listing"
	redisSeqKey        = "{shortener}:url_seq"
)

// insertScript checks both unique attributes and writes the record in one step.
// Returns -1 when the code is taken, -2 when the normalized url is taken,
// otherwise the new id.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return -1
end
if redis.call('HEXISTS', KEYS[2], ARGV[2]) == 1 then
	return -2
end
local id = redis.call('INCR', KEYS[5])
redis.call('HSET', KEYS[1],
	'id', id,
	'code', ARGV[1],
	'normalized_url', ARGV[2],
	'original_url', ARGV[3],
	'created_by', ARGV[4],
	'created_at', ARGV[5])
redis.call('HSET', KEYS[2], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[3], id, ARGV[1])
redis.call('ZADD', KEYS[4], id, ARGV[1])
return id
`)

// deleteScript retires the record in KEYS[1] if it is live and has id ARGV[1].
// Returns 0 if there is no such record.
var deleteScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'id') ~= ARGV[1] then
	return 0
end
if redis.call('HGET', KEYS[1], 'deleted') == '1' then
	return 0
end
local normalized = redis.call('HGET', KEYS[1], 'normalized_url')
redis.call('HSET', KEYS[1], 'deleted', '1')
redis.call('HDEL', KEYS[2], normalized)
redis.call('ZREM', KEYS[3], redis.call('HGET', KEYS[1], 'code'))
return 1
`)

// RedisStore is a Redis implementation of shortener.Repository.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed URL store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) ExistsByNormalizedURL(ctx context.Context, normalizedURL string) (bool, error) {
	return r.client.HExists(ctx, redisNormalizedKey, normalizedURL).Result()
}

func (r *RedisStore) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	n, err := r.client.Exists(ctx, redisCodePrefix+string(code)).Result()

	return n > 0, err
}

func (r *RedisStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	keys := []string{
		redisCodePrefix + string(shortURL.Code),
		redisNormalizedKey,
		redisIDsKey,
		redisListingKey,
		redisSeqKey,
	}

	id, err := insertScript.Run(ctx, r.client, keys,
		string(shortURL.Code),
		shortURL.NormalizedURL,
		shortURL.OriginalURL,
		shortURL.CreatedBy,
		shortURL.CreatedAt.UnixNano(),
	).Int64()
	if err != nil {
		return err
	}

	switch id {
	case -1:
		return &shortener.UniquenessViolation{Field: shortener.FieldCode}
	case -2:
		return &shortener.UniquenessViolation{Field: shortener.FieldURL}
	}

	shortURL.ID = id

	return nil
}

func (r *RedisStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	result, err := r.client.HGetAll(ctx, redisCodePrefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 || result["deleted"] == "1" {
		return nil, shortener.ErrNotFound
	}

	return decodeRedisRecord(result), nil
}

func (r *RedisStore) GetByID(ctx context.Context, id int64) (*shortener.ShortURL, error) {
	code, err := r.client.HGet(ctx, redisIDsKey, strconv.FormatInt(id, 10)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return r.GetByCode(ctx, shortener.Code(code))
}

func (r *RedisStore) Delete(ctx context.Context, id int64) error {
	// The id -> code mapping never changes once written, so it is safe to read
	// outside the script.
	code, err := r.client.HGet(ctx, redisIDsKey, strconv.FormatInt(id, 10)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shortener.ErrNotFound
		}

		return err
	}

	keys := []string{redisCodePrefix + code, redisNormalizedKey, redisListingKey}

	deleted, err := deleteScript.Run(ctx, r.client, keys, strconv.FormatInt(id, 10)).Int()
	if err != nil {
		return err
	}

	if deleted == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (r *RedisStore) List(ctx context.Context, req shortener.PageRequest) (*shortener.Page, error) {
	total, err := r.client.ZCard(ctx, redisListingKey).Result()
	if err != nil {
		return nil, err
	}

	start := int64(req.Offset())
	stop := start + int64(req.PageSize) - 1

	codes, err := r.client.ZRevRange(ctx, redisListingKey, start, stop).Result()
	if err != nil {
		return nil, err
	}

	page := &shortener.Page{
		Items:    make([]*shortener.ShortURL, 0, len(codes)),
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    int(total),
	}

	if len(codes) == 0 {
		return page, nil
	}

	pipe := r.client.Pipeline()

	cmds := make([]*redis.MapStringStringCmd, len(codes))
	for i, code := range codes {
		cmds[i] = pipe.HGetAll(ctx, redisCodePrefix+code)
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return nil, err
	}

	for _, cmd := range cmds {
		result := cmd.Val()
		if len(result) == 0 || result["deleted"] == "1" {
			continue
		}

		page.Items = append(page.Items, decodeRedisRecord(result))
	}

	return page, nil
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func decodeRedisRecord(result map[string]string) *shortener.ShortURL {
	url := &shortener.ShortURL{
		Code:          shortener.Code(result["code"]),
		OriginalURL:   result["original_url"],
		NormalizedURL: result["normalized_url"],
		CreatedBy:     result["created_by"],
	}

	if id, err := strconv.ParseInt(result["id"], 10, 64); err == nil {
		url.ID = id
	}

	if nanos, err := strconv.ParseInt(result["created_at"], 10, 64); err == nil {
		url.CreatedAt = time.Unix(0, nanos).UTC()
	}

	return url
}

// Compile-time check.
var _ shortener.Repository = (*RedisStore)(nil)
