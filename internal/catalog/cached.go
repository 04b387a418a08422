// internal/catalog/cached.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"scholarship-matcher/internal/common/logger"
	"scholarship-matcher/internal/common/metrics"
	"scholarship-matcher/internal/models"

	"github.com/redis/go-redis/v9"
)

// CachedProvider keeps the inner provider's catalog in Redis for ttl. Cache
// failures are logged and fall through to the inner provider; they never
// fail a fetch on their own.
type CachedProvider struct {
	inner  Provider
	redis  redis.Cmdable
	key    string
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(inner Provider, rdb redis.Cmdable, prefix string, ttl time.Duration, log logger.Logger) *CachedProvider {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedProvider{
		inner:  inner,
		redis:  rdb,
		key:    prefix + inner.Name(),
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
	}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

func (c *CachedProvider) Key() string { return c.key }

func (c *CachedProvider) Ping(ctx context.Context) error {
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return Ping(ctx, c.inner)
}

func (c *CachedProvider) Fetch(ctx context.Context) ([]models.ScholarshipRecord, error) {
	if records, ok := c.lookup(ctx); ok {
		return records, nil
	}

	records, err := c.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("failed to encode catalog for cache", map[string]interface{}{"error": err})
		return records, nil
	}
	if err := c.redis.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to write catalog cache", map[string]interface{}{
			"key":   c.key,
			"error": err,
		})
	}
	return records, nil
}

// Invalidate drops the cached catalog.
func (c *CachedProvider) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, c.key).Err()
}

func (c *CachedProvider) lookup(ctx context.Context) ([]models.ScholarshipRecord, bool) {
	val, err := c.redis.Get(ctx, c.key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	case err != nil:
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("catalog cache read failed", map[string]interface{}{
			"key":   c.key,
			"error": err,
		})
		return nil, false
	}

	var records []models.ScholarshipRecord
	if err := json.Unmarshal(val, &records); err != nil {
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("discarding undecodable catalog cache entry", map[string]interface{}{
			"key":   c.key,
			"error": err,
		})
		return nil, false
	}
	metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
	return records, true
}
