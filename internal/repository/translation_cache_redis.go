package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/immxrtalbeast/verbis/internal/domain"
)

// recordScript creates the entry hash only when it does not exist yet, so the
// first writer wins and the TTL is set exactly once.
var recordScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1],
	'text', ARGV[1],
	'source', ARGV[2],
	'target', ARGV[3],
	'translated', ARGV[4],
	'model', ARGV[5],
	'usage_count', ARGV[6],
	'created_at', ARGV[7])
redis.call('PEXPIRE', KEYS[1], ARGV[8])
return 1
`)

// touchScript never resurrects an expired key.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'usage_count', 1)
`)

// RedisTranslationCache stores each entry as a hash whose TTL is the retention
// window, letting redis perform expiry in the background.
type RedisTranslationCache struct {
	client    *redis.Client
	keyPrefix string
	retention time.Duration
}

func NewRedisTranslationCache(client *redis.Client, keyPrefix string, retention time.Duration) *RedisTranslationCache {
	if client == nil {
		panic("redis client cannot be nil for RedisTranslationCache")
	}
	if keyPrefix == "" {
		keyPrefix = "verbis:"
	}
	if retention <= 0 {
		retention = DefaultCacheRetention
	}
	return &RedisTranslationCache{
		client:    client,
		keyPrefix: keyPrefix,
		retention: retention,
	}
}

func (c *RedisTranslationCache) entryKey(key domain.CacheKey) string {
	return fmt.Sprintf("%str:%s", c.keyPrefix, key.Hash())
}

func (c *RedisTranslationCache) Lookup(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	redisKey := c.entryKey(key)
	fields, err := c.client.HGetAll(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: lookup translation %s: %w", redisKey, err)
	}
	if len(fields) == 0 || fields["text"] != key.Text {
		return nil, ErrCacheMiss
	}

	entry, err := parseCacheEntry(key, fields)
	if err != nil {
		return nil, fmt.Errorf("redis: decode translation %s: %w", redisKey, err)
	}
	return entry, nil
}

func (c *RedisTranslationCache) Record(ctx context.Context, entry *domain.CacheEntry) (*domain.CacheEntry, error) {
	if entry == nil {
		return nil, errors.New("cache entry is nil")
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	usage := entry.UsageCount
	if usage < 1 {
		usage = 1
	}

	redisKey := c.entryKey(entry.Key)
	created, err := recordScript.Run(ctx, c.client, []string{redisKey},
		entry.Key.Text,
		entry.Key.SourceLang,
		entry.Key.TargetLang,
		entry.TranslatedText,
		entry.Model,
		usage,
		createdAt.UTC().Format(time.RFC3339Nano),
		c.retention.Milliseconds(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("redis: record translation %s: %w", redisKey, err)
	}

	if created == 1 {
		stored := *entry
		stored.UsageCount = usage
		stored.CreatedAt = createdAt.UTC()
		return &stored, nil
	}

	existing, err := c.Lookup(ctx, entry.Key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return entry, nil
		}
		return nil, err
	}
	return existing, nil
}

func (c *RedisTranslationCache) Touch(ctx context.Context, key domain.CacheKey) error {
	redisKey := c.entryKey(key)
	n, err := touchScript.Run(ctx, c.client, []string{redisKey}).Int64()
	if err != nil {
		return fmt.Errorf("redis: touch translation %s: %w", redisKey, err)
	}
	if n < 0 {
		return ErrCacheMiss
	}
	return nil
}

// PurgeExpired is a no-op: redis drops entries when their TTL elapses.
func (c *RedisTranslationCache) PurgeExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func parseCacheEntry(key domain.CacheKey, fields map[string]string) (*domain.CacheEntry, error) {
	usage, err := strconv.ParseInt(fields["usage_count"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("usage_count: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	return &domain.CacheEntry{
		Key:            key,
		TranslatedText: fields["translated"],
		Model:          fields["model"],
		UsageCount:     usage,
		CreatedAt:      createdAt.UTC(),
	}, nil
}
