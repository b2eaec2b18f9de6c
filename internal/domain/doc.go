// Package domain models maritime voyage distances and EU ETS emission costs.
//
// # Data Sources
//
// Ports come from a JSON array of records (name, country, region, lon, lat,
// optional alternate alias, optional is_eea flag). Vessel emission factors come
// from the EU MRV (Monitoring, Reporting and Verification) public CSV export,
// keyed by IMO number. EUA (EU Allowance) prices come from a small year,price
// CSV. All three are loaded once at startup by the catalog package and never
// mutated afterwards.
//
// # Coordinate Conventions
//
// Coordinates are WGS-84 degrees in lon,lat order, matching GeoJSON and the
// SeaRoute engine:
//
//	lon ∈ [-180, 180], lat ∈ [-90, 90]
//
// Before any distance strategy runs, both endpoints are quantized to two
// decimal places (~1.1 km). Two requests differing only in the third decimal
// therefore resolve to the same route and share a cache entry.
//
// # Distance Units
//
// Kilometres are canonical. Nautical miles are always derived from the
// unrounded kilometre value:
//
//	distance_nm = distance_km / 1.852
//
// Reported distances are rounded to one decimal place; cost calculations use
// [RouteDistanceResult.NauticalMiles], which is never rounded.
//
// Distance methods:
//
//	routed            SeaRoute shipping-lane network (straits, canals, coastlines)
//	geodesic-fallback haversine great circle on a 6371 km sphere; understates
//	                  real sailing distance and is always tagged as such
//
// # MRV Data Conventions
//
// Emission factors are kilograms of gas per nautical mile. The MRV export uses
// the literal "Division by zero!" where a ship reported no distance; such rows
// are dropped at load time, never coerced to zero.
//
// # EU ETS Rules
//
// Coverage by port jurisdiction:
//
//	EEA → EEA          100%
//	EEA ↔ non-EEA       50%
//	non-EEA → non-EEA    0%
//
// Phase-in by year (first regulated year Y0 is configurable, 2024 by default):
//
//	Y0      40%  CO₂
//	Y0+1    70%  CO₂
//	Y0+2+  100%  CO₂eq (CH₄ and N₂O enter the scheme)
//
// Years before Y0 are outside the scheme and carry a 0% phase-in.
//
//	cost = emissions_kg / 1000 × price_per_tonne × phase_in × coverage
package domain
