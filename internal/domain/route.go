package domain

// KilometresPerNauticalMile is the fixed km → nm conversion factor.
const KilometresPerNauticalMile = 1.852

// Distance method tags reported in RouteDistanceResult.Method.
const (
	MethodRouted   = "routed"
	MethodGeodesic = "geodesic-fallback"
)

// RouteDistanceResult is the outcome of one distance resolution.
//
// DistanceKM and DistanceNM are display values rounded to one decimal.
// RawDistanceKM keeps the unrounded length; cost calculations must use
// NauticalMiles instead of DistanceNM.
type RouteDistanceResult struct {
	DistanceKM    float64 `json:"distance_km"`
	DistanceNM    float64 `json:"distance_nm"`
	RawDistanceKM float64 `json:"raw_distance_km"`
	Method        string  `json:"method"`
	WaypointCount int     `json:"waypoint_count"`
	Success       bool    `json:"success"`
	Error         string  `json:"error,omitempty"`

	// Engine diagnostics, populated by the routed strategy only.
	RouteName        string  `json:"route_name,omitempty"`
	OriginApproachKM float64 `json:"origin_approach_km,omitempty"`
	DestApproachKM   float64 `json:"dest_approach_km,omitempty"`
}

// NauticalMiles returns the unrounded distance in nautical miles.
func (r RouteDistanceResult) NauticalMiles() float64 {
	return r.RawDistanceKM / KilometresPerNauticalMile
}

// NewRouteResult builds a successful result from an unrounded kilometre length.
// Both display values derive from km so they can never drift apart.
func NewRouteResult(method string, km float64, waypoints int) RouteDistanceResult {
	return RouteDistanceResult{
		DistanceKM:    roundTo(km, 1),
		DistanceNM:    roundTo(km/KilometresPerNauticalMile, 1),
		RawDistanceKM: km,
		Method:        method,
		WaypointCount: waypoints,
		Success:       true,
	}
}

// FailedRouteResult builds a failed result. An empty cause is replaced so a
// failure always carries a description.
func FailedRouteResult(method, cause string) RouteDistanceResult {
	if cause == "" {
		cause = "distance resolution failed"
	}
	return RouteDistanceResult{
		Method:  method,
		Success: false,
		Error:   cause,
	}
}
