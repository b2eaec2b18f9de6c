package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultCoordinateTolerance is the per-axis match window, in degrees, for
	// LookupByCoordinates.
	DefaultCoordinateTolerance = 0.01

	// minQueryLength guards against one-letter queries that match nearly every port.
	minQueryLength = 2
)

// Match tiers, lowest sorts first.
const (
	tierCountryCode = iota
	tierName
	tierOther
)

// PortDirectory is an immutable, ordered set of ports. It is safe for
// concurrent use.
type PortDirectory struct {
	ports []Port
}

// NewPortDirectory validates and copies ports into a directory. Storage order
// is preserved; it decides ties in LookupByCoordinates.
func NewPortDirectory(ports []Port) (*PortDirectory, error) {
	if len(ports) == 0 {
		return nil, ErrNoPorts
	}
	for i, p := range ports {
		if err := p.Coordinate().Validate(); err != nil {
			return nil, fmt.Errorf("port %d (%s): %w", i, p.Name, err)
		}
	}
	stored := make([]Port, len(ports))
	copy(stored, ports)
	return &PortDirectory{ports: stored}, nil
}

// Len returns the number of ports.
func (d *PortDirectory) Len() int { return len(d.ports) }

// All returns a copy of every port in storage order.
func (d *PortDirectory) All() []Port {
	out := make([]Port, len(d.ports))
	copy(out, d.ports)
	return out
}

type rankedPort struct {
	port Port
	tier int
}

// Search returns ports matching query, best matches first.
//
// An exact, case-insensitive country match ranks first so that "TR" lists
// Turkish ports ahead of names that merely contain "tr". Name substring
// matches come next, then country, region, or alternate substring matches.
// Ties sort by name. Results are truncated to limit after sorting; limit <= 0
// returns every match. Queries shorter than two characters return nothing.
func (d *PortDirectory) Search(query string, limit int) []Port {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return []Port{}
	}
	q := strings.ToLower(query)

	var ranked []rankedPort
	for _, p := range d.ports {
		tier, ok := matchTier(p, query, q)
		if !ok {
			continue
		}
		ranked = append(ranked, rankedPort{port: p, tier: tier})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].tier != ranked[j].tier {
			return ranked[i].tier < ranked[j].tier
		}
		return ranked[i].port.Name < ranked[j].port.Name
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]Port, len(ranked))
	for i, r := range ranked {
		out[i] = r.port
	}
	return out
}

func matchTier(p Port, query, lowered string) (int, bool) {
	switch {
	case strings.EqualFold(p.Country, query):
		return tierCountryCode, true
	case strings.Contains(strings.ToLower(p.Name), lowered):
		return tierName, true
	case strings.Contains(strings.ToLower(p.Country), lowered),
		strings.Contains(strings.ToLower(p.Region), lowered),
		p.Alternate != "" && strings.Contains(strings.ToLower(p.Alternate), lowered):
		return tierOther, true
	}
	return 0, false
}

// ByCountry returns every port whose country contains country, sorted by name.
func (d *PortDirectory) ByCountry(country string) []Port {
	c := strings.ToLower(strings.TrimSpace(country))
	if c == "" {
		return []Port{}
	}
	out := []Port{}
	for _, p := range d.ports {
		if strings.Contains(strings.ToLower(p.Country), c) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupByCoordinates returns the port within tolerance degrees of lon and lat
// on both axes. A non-positive tolerance uses DefaultCoordinateTolerance.
//
// Two ports can legitimately sit inside the same window; the first one in
// storage order wins. Callers that need the nearest port must not rely on
// this method.
func (d *PortDirectory) LookupByCoordinates(lon, lat, tolerance float64) (Port, bool) {
	if tolerance <= 0 {
		tolerance = DefaultCoordinateTolerance
	}
	for _, p := range d.ports {
		if math.Abs(p.Lon-lon) < tolerance && math.Abs(p.Lat-lat) < tolerance {
			return p, true
		}
	}
	return Port{}, false
}

