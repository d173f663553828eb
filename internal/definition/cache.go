package definition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a Cache when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, val, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// CachedStore is a read-through cache in front of a Store. Definitions are
// write-once, so only the published flag needs invalidation.
type CachedStore struct {
	Store
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachedStore(inner Store, cache Cache, ttl time.Duration, log *slog.Logger) *CachedStore {
	if log == nil {
		log = slog.Default()
	}
	return &CachedStore{Store: inner, cache: cache, ttl: ttl, log: log}
}

func cacheKey(id int64) string { return fmt.Sprintf("psych:test:%d", id) }

func (c *CachedStore) GetTest(ctx context.Context, id int64) (Test, error) {
	key := cacheKey(id)
	if b, err := c.cache.Get(ctx, key); err == nil {
		var t Test
		if err := json.Unmarshal(b, &t); err == nil {
			return t, nil
		}
		c.log.Warn("definition cache: corrupt entry", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		c.log.Warn("definition cache: get failed", "key", key, "err", err)
	}

	t, err := c.Store.GetTest(ctx, id)
	if err != nil {
		return Test{}, err
	}
	if b, err := json.Marshal(t); err == nil {
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			c.log.Warn("definition cache: set failed", "key", key, "err", err)
		}
	}
	return t, nil
}

func (c *CachedStore) SetPublished(ctx context.Context, id int64, published bool) error {
	if err := c.Store.SetPublished(ctx, id, published); err != nil {
		return err
	}
	if err := c.cache.Del(ctx, cacheKey(id)); err != nil {
		c.log.Warn("definition cache: invalidate failed", "test_id", id, "err", err)
	}
	return nil
}
