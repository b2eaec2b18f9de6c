package domain

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// DistanceStrategy is one way of measuring the sailing distance between two
// quantized coordinates. A returned error, or a result with Success=false,
// passes control to the next strategy.
type DistanceStrategy interface {
	Name() string
	Resolve(ctx context.Context, origin, dest Coordinate) (RouteDistanceResult, error)
}

// FallbackPolicy decides what happens when the routed strategy fails.
type FallbackPolicy string

const (
	// FallbackGeodesic appends the great-circle strategy after the routed one.
	FallbackGeodesic FallbackPolicy = "geodesic"
	// FallbackNone reports the routed failure to the caller.
	FallbackNone FallbackPolicy = "none"
)

// ParseFallbackPolicy validates a policy name.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case FallbackGeodesic:
		return FallbackGeodesic, nil
	case FallbackNone:
		return FallbackNone, nil
	}
	return "", fmt.Errorf("unknown fallback policy %q (want %q or %q)", s, FallbackGeodesic, FallbackNone)
}

// Strategies assembles the ordered strategy list for a policy. routed may be
// nil when the routing engine is disabled.
func (p FallbackPolicy) Strategies(routed DistanceStrategy) []DistanceStrategy {
	var out []DistanceStrategy
	if routed != nil {
		out = append(out, routed)
	}
	if p == FallbackGeodesic {
		out = append(out, GeodesicStrategy{})
	}
	return out
}

// Resolver tries its strategies in order; the first success wins.
type Resolver struct {
	strategies []DistanceStrategy
	logger     *slog.Logger
}

// NewResolver creates a Resolver. At least one strategy is required.
func NewResolver(strategies []DistanceStrategy, logger *slog.Logger) (*Resolver, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("resolver needs at least one distance strategy")
	}
	return &Resolver{strategies: strategies, logger: logger}, nil
}

// StrategyNames lists the strategies in the order they are attempted.
func (r *Resolver) StrategyNames() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve validates and quantizes both endpoints, then runs the strategies.
// Invalid coordinates are returned as an error before any strategy runs.
// Strategy failures never produce an error; they are reported in the result.
func (r *Resolver) Resolve(ctx context.Context, origin, dest Coordinate) (RouteDistanceResult, error) {
	if err := origin.Validate(); err != nil {
		return RouteDistanceResult{}, fmt.Errorf("origin: %w", err)
	}
	if err := dest.Validate(); err != nil {
		return RouteDistanceResult{}, fmt.Errorf("destination: %w", err)
	}
	origin, dest = origin.Quantize(), dest.Quantize()

	var causes []string
	var last string
	for _, s := range r.strategies {
		last = s.Name()
		result, err := s.Resolve(ctx, origin, dest)
		if err == nil && result.Success {
			if len(causes) > 0 {
				r.logger.Warn("distance resolved by fallback strategy",
					"strategy", s.Name(),
					"failures", strings.Join(causes, "; "),
				)
			}
			return result, nil
		}

		cause := result.Error
		if err != nil {
			cause = err.Error()
		}
		if cause == "" {
			cause = "no result"
		}
		r.logger.Warn("distance strategy failed",
			"strategy", s.Name(),
			"origin_lon", origin.Lon, "origin_lat", origin.Lat,
			"dest_lon", dest.Lon, "dest_lat", dest.Lat,
			"error", cause,
		)
		causes = append(causes, s.Name()+": "+cause)

		if ctx.Err() != nil {
			break
		}
	}

	return FailedRouteResult(last, strings.Join(causes, "; ")), nil
}

// Compare runs every strategy on the same pair and returns one result per
// strategy in attempt order, failures included. A great-circle result is
// always present so a routed length can be read against the straight line.
// Invalid coordinates are an error.
func (r *Resolver) Compare(ctx context.Context, origin, dest Coordinate) ([]RouteDistanceResult, error) {
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	if err := dest.Validate(); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	origin, dest = origin.Quantize(), dest.Quantize()

	strategies := r.strategies
	if !slices.ContainsFunc(strategies, func(s DistanceStrategy) bool { return s.Name() == MethodGeodesic }) {
		strategies = append(slices.Clip(strategies), GeodesicStrategy{})
	}

	results := make([]RouteDistanceResult, 0, len(strategies))
	for _, s := range strategies {
		result, err := s.Resolve(ctx, origin, dest)
		switch {
		case err != nil:
			result = FailedRouteResult(s.Name(), err.Error())
		case !result.Success && result.Method == "":
			result.Method = s.Name()
		}
		results = append(results, result)
	}
	return results, nil
}
