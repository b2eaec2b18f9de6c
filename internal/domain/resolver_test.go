package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock strategy ---

type mockStrategy struct {
	name   string
	result RouteDistanceResult
	err    error
	calls  int
	seen   [][2]Coordinate
}

func (m *mockStrategy) Name() string { return m.name }

func (m *mockStrategy) Resolve(_ context.Context, origin, dest Coordinate) (RouteDistanceResult, error) {
	m.calls++
	m.seen = append(m.seen, [2]Coordinate{origin, dest})
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	hamburg  = Coordinate{Lon: 9.9937, Lat: 53.5511}
	shanghai = Coordinate{Lon: 121.8, Lat: 31.2}
)

func TestResolver_FirstSuccessWins(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted, result: NewRouteResult(MethodRouted, 19500, 120)}
	geo := &mockStrategy{name: MethodGeodesic, result: NewRouteResult(MethodGeodesic, 8900, 0)}

	r, err := NewResolver([]DistanceStrategy{routed, geo}, discardLogger())
	require.NoError(t, err)

	result, err := r.Resolve(context.Background(), hamburg, shanghai)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, MethodRouted, result.Method)
	assert.Equal(t, 120, result.WaypointCount)
	assert.Equal(t, 1, routed.calls)
	assert.Equal(t, 0, geo.calls)
}

func TestResolver_FallsBackOnError(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted, err: errors.New("java: executable file not found")}

	r, err := NewResolver(FallbackGeodesic.Strategies(routed), discardLogger())
	require.NoError(t, err)

	result, err := r.Resolve(context.Background(), hamburg, shanghai)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, MethodGeodesic, result.Method)
	assert.Equal(t, 0, result.WaypointCount)
	assert.Equal(t, 1, routed.calls)
}

func TestResolver_FallsBackOnFailedResult(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted, result: FailedRouteResult(MethodRouted, "no route found")}
	geo := &mockStrategy{name: MethodGeodesic, result: NewRouteResult(MethodGeodesic, 100, 0)}

	r, err := NewResolver([]DistanceStrategy{routed, geo}, discardLogger())
	require.NoError(t, err)

	result, err := r.Resolve(context.Background(), hamburg, shanghai)
	require.NoError(t, err)
	assert.Equal(t, MethodGeodesic, result.Method)
	assert.Equal(t, 1, geo.calls)
}

func TestResolver_NoFallbackReportsFailure(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted, err: errors.New("searoute timed out after 60s")}

	r, err := NewResolver(FallbackNone.Strategies(routed), discardLogger())
	require.NoError(t, err)

	result, err := r.Resolve(context.Background(), hamburg, shanghai)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, MethodRouted, result.Method)
	assert.Contains(t, result.Error, "timed out")
	assert.Zero(t, result.DistanceKM)
}

func TestResolver_FailureAlwaysHasError(t *testing.T) {
	silent := &mockStrategy{name: MethodRouted, result: RouteDistanceResult{Success: false}}

	r, err := NewResolver([]DistanceStrategy{silent}, discardLogger())
	require.NoError(t, err)

	result, err := r.Resolve(context.Background(), hamburg, shanghai)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestResolver_InvalidInputRejectedBeforeStrategies(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted, result: NewRouteResult(MethodRouted, 1, 1)}
	r, err := NewResolver([]DistanceStrategy{routed}, discardLogger())
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), Coordinate{Lon: 200, Lat: 0}, shanghai)
	require.ErrorIs(t, err, ErrInvalidCoordinates)
	assert.Contains(t, err.Error(), "origin")

	_, err = r.Resolve(context.Background(), hamburg, Coordinate{Lon: 0, Lat: math.NaN()})
	require.ErrorIs(t, err, ErrInvalidCoordinates)
	assert.Contains(t, err.Error(), "destination")

	assert.Equal(t, 0, routed.calls)
}

func TestResolver_QuantizesInputs(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted, result: NewRouteResult(MethodRouted, 42, 3)}
	r, err := NewResolver([]DistanceStrategy{routed}, discardLogger())
	require.NoError(t, err)

	a, err := r.Resolve(context.Background(), Coordinate{Lon: 9.9937, Lat: 53.5511}, shanghai)
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), Coordinate{Lon: 9.9941, Lat: 53.5549}, shanghai)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	require.Len(t, routed.seen, 2)
	assert.Equal(t, Coordinate{Lon: 9.99, Lat: 53.55}, routed.seen[0][0])
	assert.Equal(t, routed.seen[0], routed.seen[1])
}

func TestResolver_RequiresStrategy(t *testing.T) {
	_, err := NewResolver(FallbackNone.Strategies(nil), discardLogger())
	require.Error(t, err)
}

func TestResolver_StrategyNames(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted}
	r, err := NewResolver(FallbackGeodesic.Strategies(routed), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{MethodRouted, MethodGeodesic}, r.StrategyNames())
}

func TestParseFallbackPolicy(t *testing.T) {
	p, err := ParseFallbackPolicy("Geodesic")
	require.NoError(t, err)
	assert.Equal(t, FallbackGeodesic, p)

	p, err = ParseFallbackPolicy("none")
	require.NoError(t, err)
	assert.Equal(t, FallbackNone, p)

	_, err = ParseFallbackPolicy("silent")
	require.Error(t, err)
}

func TestGeodesicStrategy(t *testing.T) {
	result, err := GeodesicStrategy{}.Resolve(context.Background(), hamburg, shanghai)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, MethodGeodesic, result.Method)
	assert.Equal(t, 0, result.WaypointCount)
	assert.InDelta(t, 8542.6, result.DistanceKM, 0.1, "Hamburg to Shanghai great circle")
	assert.InEpsilon(t, referenceHaversine(hamburg, shanghai), result.RawDistanceKM, 1e-9)
}

func TestGreatCircleKM_MatchesHaversineFormula(t *testing.T) {
	pairs := [][2]Coordinate{
		{hamburg, shanghai},
		{{Lon: 4.48, Lat: 51.92}, {Lon: 103.82, Lat: 1.30}},
		{{Lon: -74.1, Lat: 40.7}, {Lon: -118.3, Lat: 33.7}},
		{{Lon: 179.9, Lat: 0}, {Lon: -179.9, Lat: 0}},
	}
	for _, p := range pairs {
		assert.InEpsilon(t, referenceHaversine(p[0], p[1]), GreatCircleKM(p[0], p[1]), 1e-9)
	}
	assert.Zero(t, GreatCircleKM(hamburg, hamburg))
}

func TestGeodesicNeverExceedsRoutedDistance(t *testing.T) {
	// Approximate sea-route lengths for the same pairs.
	routedKM := map[[2]Coordinate]float64{
		{hamburg, shanghai}:                                 19420,
		{{Lon: 4.48, Lat: 51.92}, {Lon: 103.82, Lat: 1.30}}: 15440,
		{{Lon: -74.1, Lat: 40.7}, {Lon: -118.3, Lat: 33.7}}: 9700,
	}
	for pair, routed := range routedKM {
		assert.LessOrEqual(t, GreatCircleKM(pair[0], pair[1]), routed)
	}
}

func TestRouteResult_NauticalMilesDerivedFromKM(t *testing.T) {
	for _, km := range []float64{0, 1, 1.852, 123.456789, 19420.04, 8911.987654} {
		r := NewRouteResult(MethodRouted, km, 0)
		assert.Equal(t, km/KilometresPerNauticalMile, r.NauticalMiles())
		assert.Equal(t, math.Round(km*10)/10, r.DistanceKM)
		assert.Equal(t, math.Round(km/KilometresPerNauticalMile*10)/10, r.DistanceNM)
	}
}

func TestFailedRouteResult_DefaultsCause(t *testing.T) {
	r := FailedRouteResult(MethodRouted, "")
	assert.False(t, r.Success)
	assert.NotEmpty(t, r.Error)
}

func TestCoordinate_Quantize(t *testing.T) {
	assert.Equal(t, Coordinate{Lon: -74.01, Lat: 40.71}, Coordinate{Lon: -74.0059, Lat: 40.7128}.Quantize())
}

func referenceHaversine(a, b Coordinate) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadiusKM * 2 * math.Asin(math.Sqrt(h))
}

func TestResolver_CompareRunsEveryStrategy(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted, result: NewRouteResult(MethodRouted, 19500, 120)}
	geo := &mockStrategy{name: MethodGeodesic, result: NewRouteResult(MethodGeodesic, 8542.6, 0)}

	r, err := NewResolver([]DistanceStrategy{routed, geo}, discardLogger())
	require.NoError(t, err)

	results, err := r.Compare(context.Background(), hamburg, shanghai)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, MethodRouted, results[0].Method)
	assert.Equal(t, MethodGeodesic, results[1].Method)
	assert.Equal(t, 1, routed.calls)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, hamburg.Quantize(), routed.seen[0][0])
}

func TestResolver_CompareAddsGreatCircle(t *testing.T) {
	routed := &mockStrategy{name: MethodRouted, err: errors.New("searoute timed out")}

	r, err := NewResolver(FallbackNone.Strategies(routed), discardLogger())
	require.NoError(t, err)

	results, err := r.Compare(context.Background(), hamburg, shanghai)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.Equal(t, MethodRouted, results[0].Method)
	assert.Contains(t, results[0].Error, "searoute timed out")

	assert.True(t, results[1].Success)
	assert.Equal(t, MethodGeodesic, results[1].Method)
	assert.Equal(t, []string{MethodRouted}, r.StrategyNames(), "resolution order is unchanged")
}

func TestResolver_CompareRejectsInvalidCoordinates(t *testing.T) {
	r, err := NewResolver([]DistanceStrategy{GeodesicStrategy{}}, discardLogger())
	require.NoError(t, err)

	_, err = r.Compare(context.Background(), Coordinate{Lon: 200}, shanghai)
	require.ErrorIs(t, err, ErrInvalidCoordinates)
}
