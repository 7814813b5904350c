// internal/domain/lens/cache.go
package lens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedResolver keeps resolved configurations in Redis for a short TTL.
// Degraded results are never cached so a recovered provider is picked up at once.
type CachedResolver struct {
	inner       ConfigResolver
	redisClient *redis.Client
	ttl         time.Duration
	logger      logrus.FieldLogger
}

// NewCachedResolver wraps a resolver with a Redis cache
func NewCachedResolver(inner ConfigResolver, redisClient *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *CachedResolver {
	return &CachedResolver{
		inner:       inner,
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

// Resolve returns the cached configuration or resolves and caches it
func (c *CachedResolver) Resolve(ctx context.Context, productID uint) (*ResolvedConfig, error) {
	key := configCacheKey(productID)

	data, err := c.redisClient.Get(ctx, key).Result()
	if err == nil {
		var resolved ResolvedConfig
		if err := json.Unmarshal([]byte(data), &resolved); err == nil {
			return &resolved, nil
		}
		c.logger.WithField("product_id", productID).Warn("Discarding unreadable cached lens config")
		if err := c.Invalidate(ctx, productID); err != nil {
			c.logger.WithError(err).WithField("product_id", productID).Warn("Lens config cache cleanup failed")
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).WithField("product_id", productID).Warn("Lens config cache read failed")
	}

	resolved, err := c.inner.Resolve(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !resolved.Degraded {
		if payload, err := json.Marshal(resolved); err == nil {
			if err := c.redisClient.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.logger.WithError(err).WithField("product_id", productID).Warn("Lens config cache write failed")
			}
		}
	}

	return resolved, nil
}

// Invalidate drops the cached configuration of a product
func (c *CachedResolver) Invalidate(ctx context.Context, productID uint) error {
	if err := c.redisClient.Del(ctx, configCacheKey(productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate lens config cache: %w", err)
	}
	return nil
}

func configCacheKey(productID uint) string {
	return fmt.Sprintf("lens_config:product:%d", productID)
}
