package searoute

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
)

// CachedStrategy wraps a DistanceStrategy with an expiring LRU cache keyed by
// quantized coordinates. Only successful results are stored, so a failed or
// timed-out route is retried on the next request.
type CachedStrategy struct {
	inner   domain.DistanceStrategy
	cache   *expirable.LRU[string, domain.RouteDistanceResult]
	metrics *observability.Metrics
}

// NewCachedStrategy creates a cache decorator around a strategy.
func NewCachedStrategy(inner domain.DistanceStrategy, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedStrategy {
	return &CachedStrategy{
		inner:   inner,
		cache:   expirable.NewLRU[string, domain.RouteDistanceResult](maxEntries, nil, ttl),
		metrics: metrics,
	}
}

// Name implements domain.DistanceStrategy.
func (c *CachedStrategy) Name() string { return c.inner.Name() }

// Resolve implements domain.DistanceStrategy.
func (c *CachedStrategy) Resolve(ctx context.Context, origin, dest domain.Coordinate) (domain.RouteDistanceResult, error) {
	key := cacheKey(origin, dest)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.RouteCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.RouteCache.WithLabelValues("miss").Inc()

	result, err := c.inner.Resolve(ctx, origin, dest)
	if err != nil {
		return result, err
	}
	if result.Success {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len returns the number of cached routes.
func (c *CachedStrategy) Len() int { return c.cache.Len() }

func cacheKey(origin, dest domain.Coordinate) string {
	o, d := origin.Quantize(), dest.Quantize()
	return fmt.Sprintf("%.2f,%.2f|%.2f,%.2f", o.Lon, o.Lat, d.Lon, d.Lat)
}
