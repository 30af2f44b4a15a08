package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opendesk/helpdesk-service/internal/domain"
)

const catalogCacheKey = "catalog:active"

// CatalogCache is a Redis-backed cache for the active service listing. Every
// failure degrades to a miss; Postgres stays the source of truth.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogCache builds a cache over the shared Redis client.
func NewCatalogCache(r *Redis, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	if r == nil || r.Client == nil {
		return nil
	}
	return &CatalogCache{client: r.Client, ttl: ttl, logger: logger}
}

// Get returns the cached listing if present.
func (c *CatalogCache) Get(ctx context.Context) ([]domain.Service, bool) {
	raw, err := c.client.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var services []domain.Service
	if err := json.Unmarshal(raw, &services); err != nil {
		c.logger.Warn("catalog cache payload corrupt", zap.Error(err))
		return nil, false
	}
	return services, true
}

// Set stores the listing with the configured TTL.
func (c *CatalogCache) Set(ctx context.Context, services []domain.Service) {
	raw, err := json.Marshal(services)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, catalogCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached listing.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, catalogCacheKey).Err(); err != nil {
		c.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
