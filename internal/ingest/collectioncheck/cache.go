// internal/ingest/collectioncheck/cache.go
package collectioncheck

import (
	"context"
	"time"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/common/metrics"
	"stac-ingestor/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "collection:exists:"

// CachedRegistry wraps a Registry with a short-TTL Redis cache on the
// existence read. Collection existence changes rarely relative to ingestion
// volume, so a stale positive for one TTL window is acceptable; writes
// invalidate the key immediately.
type CachedRegistry struct {
	inner  Registry
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRegistry(inner Registry, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedRegistry {
	return &CachedRegistry{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "collection-cache"}),
	}
}

func (c *CachedRegistry) Exists(ctx context.Context, collectionID string) (bool, error) {
	key := cacheKeyPrefix + collectionID

	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		metrics.CollectionCacheHits.WithLabelValues("hit").Inc()
		return val == "1", nil
	} else if err != redis.Nil {
		// Cache trouble is not a validation failure; fall through to the registry.
		c.logger.Warn("collection cache read failed", map[string]interface{}{
			"collectionId": collectionID,
			"error":        err.Error(),
		})
		metrics.CollectionCacheHits.WithLabelValues("error").Inc()
	} else {
		metrics.CollectionCacheHits.WithLabelValues("miss").Inc()
	}

	exists, err := c.inner.Exists(ctx, collectionID)
	if err != nil {
		return false, err
	}

	val := "0"
	if exists {
		val = "1"
	}
	if err := c.redis.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.logger.Warn("collection cache write failed", map[string]interface{}{
			"collectionId": collectionID,
			"error":        err.Error(),
		})
	}

	return exists, nil
}

func (c *CachedRegistry) Register(ctx context.Context, collection models.Collection) error {
	if err := c.inner.Register(ctx, collection); err != nil {
		return err
	}
	c.invalidate(ctx, collection.ID)
	return nil
}

func (c *CachedRegistry) Delete(ctx context.Context, collectionID string) error {
	if err := c.inner.Delete(ctx, collectionID); err != nil {
		return err
	}
	c.invalidate(ctx, collectionID)
	return nil
}

func (c *CachedRegistry) invalidate(ctx context.Context, collectionID string) {
	if err := c.redis.Del(ctx, cacheKeyPrefix+collectionID).Err(); err != nil {
		c.logger.Warn("collection cache invalidation failed", map[string]interface{}{
			"collectionId": collectionID,
			"error":        err.Error(),
		})
	}
}
