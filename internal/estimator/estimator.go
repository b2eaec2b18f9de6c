// Package estimator ties the reference catalog, the distance resolver and the
// cost engine together into voyage estimates.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/voyage-emissions-service/internal/catalog"
	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
)

// DefaultSearchLimit caps port search results when the caller gives no limit.
const DefaultSearchLimit = 20

// DistanceResolver resolves the sailing distance between two coordinates.
// Compare runs every configured method on the pair for side-by-side output.
type DistanceResolver interface {
	Resolve(ctx context.Context, origin, dest domain.Coordinate) (domain.RouteDistanceResult, error)
	Compare(ctx context.Context, origin, dest domain.Coordinate) ([]domain.RouteDistanceResult, error)
}

// Estimator answers port, distance and cost queries.
type Estimator struct {
	catalog  *catalog.Loader
	resolver DistanceResolver
	policy   domain.PhaseInPolicy
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates an Estimator.
func New(loader *catalog.Loader, resolver DistanceResolver, policy domain.PhaseInPolicy, metrics *observability.Metrics, logger *slog.Logger) *Estimator {
	return &Estimator{
		catalog:  loader,
		resolver: resolver,
		policy:   policy,
		metrics:  metrics,
		logger:   logger,
	}
}

// CheckReadiness returns nil once the catalog has loaded.
func (e *Estimator) CheckReadiness(_ context.Context) error {
	if !e.catalog.Loaded() {
		return errors.New("catalog not loaded")
	}
	return nil
}

// Catalog returns the loaded catalog, loading it on first use.
func (e *Estimator) Catalog() (*catalog.Catalog, error) {
	return e.catalog.Get()
}

// SearchPorts returns ports matching query in relevance order.
func (e *Estimator) SearchPorts(query string, limit int) ([]domain.Port, error) {
	c, err := e.catalog.Get()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return c.Ports.Search(query, limit), nil
}

// PortsByCountry lists the ports of one country, sorted by name.
func (e *Estimator) PortsByCountry(country string) ([]domain.Port, error) {
	c, err := e.catalog.Get()
	if err != nil {
		return nil, err
	}
	return c.Ports.ByCountry(country), nil
}

// Distance resolves the sailing distance between two coordinates. Invalid
// coordinates are an error; a strategy failure is reported in the result.
func (e *Estimator) Distance(ctx context.Context, origin, dest domain.Coordinate) (domain.RouteDistanceResult, error) {
	return e.resolver.Resolve(ctx, origin, dest)
}

// CompareDistances resolves the pair with every method, the great circle
// included, without falling back.
func (e *Estimator) CompareDistances(ctx context.Context, origin, dest domain.Coordinate) ([]domain.RouteDistanceResult, error) {
	return e.resolver.Compare(ctx, origin, dest)
}

// Estimate prices one voyage. The vessel is looked up before the distance
// is resolved so an unknown IMO number never starts the routing engine.
func (e *Estimator) Estimate(ctx context.Context, req domain.VoyageRequest) (domain.VoyageEstimate, error) {
	start := time.Now()
	est, err := e.estimate(ctx, req)
	e.metrics.Estimates.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return domain.VoyageEstimate{}, err
	}
	e.metrics.EstimateDuration.WithLabelValues(est.Distance.Method).Observe(time.Since(start).Seconds())
	return est, nil
}

func (e *Estimator) estimate(ctx context.Context, req domain.VoyageRequest) (domain.VoyageEstimate, error) {
	if err := req.Origin.Validate(); err != nil {
		return domain.VoyageEstimate{}, fmt.Errorf("origin: %w", err)
	}
	if err := req.Destination.Validate(); err != nil {
		return domain.VoyageEstimate{}, fmt.Errorf("destination: %w", err)
	}

	c, err := e.catalog.Get()
	if err != nil {
		return domain.VoyageEstimate{}, err
	}
	vessel, err := c.Vessels.Lookup(req.IMONumber)
	if err != nil {
		return domain.VoyageEstimate{}, err
	}

	dist, err := e.resolver.Resolve(ctx, req.Origin, req.Destination)
	if err != nil {
		return domain.VoyageEstimate{}, err
	}
	if !dist.Success {
		return domain.VoyageEstimate{}, fmt.Errorf("%w: %s", domain.ErrDistanceUnavailable, dist.Error)
	}

	originPort, originMatched := c.Ports.LookupByCoordinates(req.Origin.Lon, req.Origin.Lat, domain.DefaultCoordinateTolerance)
	destPort, destMatched := c.Ports.LookupByCoordinates(req.Destination.Lon, req.Destination.Lat, domain.DefaultCoordinateTolerance)

	emissions := domain.EstimateCostForVessel(vessel, originPort, destPort, dist.NauticalMiles(), c.Prices, e.policy)

	id := req.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	est := domain.VoyageEstimate{
		RequestID:   id,
		Distance:    dist,
		Emissions:   emissions,
		EstimatedAt: domain.Now(),
	}
	if originMatched {
		est.OriginPort = &originPort
	}
	if destMatched {
		est.DestinationPort = &destPort
	}

	e.logger.Debug("voyage estimated",
		"request_id", id,
		"imo", vessel.IMONumber,
		"method", dist.Method,
		"distance_nm", emissions.DistanceNM,
		"coverage", emissions.Coverage,
	)
	return est, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCoordinates):
		return "invalid"
	case errors.Is(err, domain.ErrVesselUnknown):
		return "vessel_unknown"
	case errors.Is(err, domain.ErrDistanceUnavailable):
		return "distance_unavailable"
	default:
		return "error"
	}
}
