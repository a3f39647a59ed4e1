package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("wikipedia: cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Fetcher is satisfied by *Client and by CachedClient.
type Fetcher interface {
	FetchSummary(ctx context.Context, topic string) Summary
}

// CachedClient keeps summaries in a Cache. Empty summaries are not cached so
// a transient failure does not stick for the whole TTL.
type CachedClient struct {
	log      *logger.Logger
	next     Fetcher
	cache    Cache
	language string
	ttl      time.Duration
}

func NewCachedClient(log *logger.Logger, next *Client, cache Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{
		log:      log.With("client", "CachedWikipediaClient"),
		next:     next,
		cache:    cache,
		language: next.Language(),
		ttl:      ttl,
	}
}

func CacheKey(language, topic string) string {
	return "wiki:summary:" + strings.ToLower(language) + ":" + strings.ToLower(strings.TrimSpace(topic))
}

func (c *CachedClient) FetchSummary(ctx context.Context, topic string) Summary {
	if strings.TrimSpace(topic) == "" {
		return Summary{}
	}
	key := CacheKey(c.language, topic)

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var s Summary
		if uErr := json.Unmarshal(raw, &s); uErr == nil {
			observability.Current().IncEnrichment("cache_hit")
			return s
		}
	case !errors.Is(err, ErrCacheMiss):
		c.log.Warn("enrichment cache read failed", "key", key, "error", err.Error())
	}

	s := c.next.FetchSummary(ctx, topic)
	if s.Empty() {
		return s
	}
	if b, mErr := json.Marshal(s); mErr == nil {
		if sErr := c.cache.Set(ctx, key, b, c.ttl); sErr != nil {
			c.log.Warn("enrichment cache write failed", "key", key, "error", sErr.Error())
		}
	}
	return s
}
