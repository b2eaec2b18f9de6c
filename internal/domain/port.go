package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidCoordinates is returned for a longitude or latitude outside WGS-84 bounds.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrNoPorts is returned when a port directory would be built from an empty set.
	ErrNoPorts = errors.New("port directory is empty")
)

// Coordinate is a WGS-84 position in degrees, lon/lat order.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Validate reports whether the coordinate lies inside WGS-84 bounds.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: lon %v outside [-180,180]", ErrInvalidCoordinates, c.Lon)
	}
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat %v outside [-90,90]", ErrInvalidCoordinates, c.Lat)
	}
	return nil
}

// Quantize rounds both axes to two decimal places.
func (c Coordinate) Quantize() Coordinate {
	return Coordinate{Lon: roundTo(c.Lon, 2), Lat: roundTo(c.Lat, 2)}
}

// Port is a named location in the port directory.
type Port struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Region    string  `json:"region"`
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
	Alternate string  `json:"alternate,omitempty"`
	IsEEA     bool    `json:"is_eea"`
}

// Coordinate returns the port position.
func (p Port) Coordinate() Coordinate {
	return Coordinate{Lon: p.Lon, Lat: p.Lat}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
