package did

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "solcred/internal/platform/redis"
)

// RedisCache caches resolved DID documents in Redis. Cache failures degrade
// to resolver lookups; they are logged, never surfaced.
type RedisCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache constructs a RedisCache. Returns nil when the client is nil
// so callers can wire the option unconditionally.
func NewRedisCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(didStr string) string {
	return "did:doc:" + didStr
}

// Get fetches a cached document.
func (c *RedisCache) Get(ctx context.Context, didStr string) (*Document, bool) {
	raw, err := c.client.Get(ctx, cacheKey(didStr)).Bytes()
	if err != nil {
		return nil, false
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.logger.WarnContext(ctx, "corrupt cached DID document, dropping", "did", didStr, "error", err)
		c.client.Del(ctx, cacheKey(didStr))
		return nil, false
	}
	return &doc, true
}

// Set stores a document with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, didStr string, doc Document) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(didStr), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache DID document", "did", didStr, "error", err)
	}
}
