package domain

import (
	"context"

	"github.com/umahmood/haversine"
)

// EarthRadiusKM is the mean spherical radius used by the geodesic strategy.
// It matches the radius used by the haversine package.
const EarthRadiusKM = 6371.0

// GeodesicStrategy resolves the great-circle distance between two points.
// It never fails for valid input but ignores coastlines, straits, and canals,
// so it understates real sailing distance.
type GeodesicStrategy struct{}

// Name implements DistanceStrategy.
func (GeodesicStrategy) Name() string { return MethodGeodesic }

// Resolve implements DistanceStrategy.
func (GeodesicStrategy) Resolve(_ context.Context, origin, dest Coordinate) (RouteDistanceResult, error) {
	return NewRouteResult(MethodGeodesic, GreatCircleKM(origin, dest), 0), nil
}

// GreatCircleKM returns the haversine distance in kilometres.
func GreatCircleKM(origin, dest Coordinate) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: origin.Lat, Lon: origin.Lon},
		haversine.Coord{Lat: dest.Lat, Lon: dest.Lon},
	)
	return km
}
