package estimator

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/voyage-emissions-service/internal/adapter/searoute"
	"github.com/couchcryptid/voyage-emissions-service/internal/config"
	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
)

// NewResolver builds the distance resolver described by cfg: the cached
// SeaRoute strategy when routing is enabled, followed by the geodesic
// fallback unless ROUTING_FALLBACK=none.
func NewResolver(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*domain.Resolver, error) {
	var routed domain.DistanceStrategy
	if cfg.SearouteEnabled {
		client := searoute.NewClient(searoute.Options{
			JavaBin:    cfg.JavaBin,
			JarPath:    cfg.SearouteJar,
			Timeout:    cfg.SearouteTimeout,
			Resolution: cfg.SearouteResolution,
			LengthUnit: cfg.SearouteLengthUnit,
		}, metrics, logger)
		routed = searoute.NewCachedStrategy(client, cfg.RouteCacheSize, cfg.RouteCacheTTL, metrics)
		metrics.RoutingEnabled.Set(1)
	} else {
		metrics.RoutingEnabled.Set(0)
	}

	strategies := cfg.RoutingFallback.Strategies(routed)
	for i, s := range strategies {
		strategies[i] = instrumented{inner: s, metrics: metrics}
	}

	r, err := domain.NewResolver(strategies, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("distance resolver configured", "strategies", r.StrategyNames())
	return r, nil
}

// instrumented counts strategy attempts by method and outcome.
type instrumented struct {
	inner   domain.DistanceStrategy
	metrics *observability.Metrics
}

func (s instrumented) Name() string { return s.inner.Name() }

func (s instrumented) Resolve(ctx context.Context, origin, dest domain.Coordinate) (domain.RouteDistanceResult, error) {
	result, err := s.inner.Resolve(ctx, origin, dest)
	outcome := "success"
	if err != nil || !result.Success {
		outcome = "error"
	}
	s.metrics.RouteRequests.WithLabelValues(s.inner.Name(), outcome).Inc()
	return result, err
}
