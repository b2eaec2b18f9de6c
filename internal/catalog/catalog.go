// Package catalog loads the static reference data: the port directory, the
// vessel emission factors, and the EUA price schedule.
//
// Data is loaded once per process and never reloaded; restart the process to
// pick up new files.
package catalog

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// Sources names the files a catalog is built from. When Snapshot is set it is
// used instead of the three source files.
type Sources struct {
	PortsFile   string
	VesselsFile string
	PricesFile  string
	Snapshot    string
}

// Catalog is the immutable reference data set.
type Catalog struct {
	Ports       *domain.PortDirectory
	Vessels     *domain.VesselRegistry
	Prices      domain.PriceSchedule
	VesselStats VesselLoadStats

	// Source is the snapshot path, or empty when built from source files.
	Source string
}

// Load builds a catalog from src.
func Load(src Sources) (*Catalog, error) {
	if src.Snapshot != "" {
		return LoadSnapshot(src.Snapshot)
	}

	ports, err := LoadPorts(src.PortsFile)
	if err != nil {
		return nil, err
	}
	profiles, stats, err := LoadVessels(src.VesselsFile)
	if err != nil {
		return nil, err
	}
	if stats.Loaded == 0 {
		return nil, fmt.Errorf("%s: no usable vessel rows (%d dropped)", src.VesselsFile, stats.Dropped)
	}
	prices, err := LoadPrices(src.PricesFile)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		Ports:       ports,
		Vessels:     domain.NewVesselRegistry(profiles),
		Prices:      prices,
		VesselStats: stats,
	}, nil
}

// Loader loads a catalog on first use and hands the same result, or the same
// error, to every later caller.
type Loader struct {
	get    func() (*Catalog, error)
	loaded atomic.Bool
}

// NewLoader returns a Loader for src. Nothing is read until Get is called.
func NewLoader(src Sources, logger *slog.Logger) *Loader {
	l := &Loader{}
	l.get = sync.OnceValues(func() (*Catalog, error) {
		c, err := Load(src)
		if err != nil {
			logger.Error("catalog load failed", "error", err)
			return nil, err
		}
		logger.Info("catalog loaded",
			"ports", c.Ports.Len(),
			"vessels", c.Vessels.Len(),
			"vessel_rows_dropped", c.VesselStats.Dropped,
			"vessel_rows_duplicate", c.VesselStats.Duplicates,
			"price_years", len(c.Prices),
			"snapshot", c.Source,
		)
		l.loaded.Store(true)
		return c, nil
	})
	return l
}

// Get returns the catalog, loading it on the first call.
func (l *Loader) Get() (*Catalog, error) { return l.get() }

// Loaded reports whether a catalog has been loaded successfully.
func (l *Loader) Loaded() bool { return l.loaded.Load() }

// Static returns a Loader that always yields c.
func Static(c *Catalog) *Loader {
	l := &Loader{get: func() (*Catalog, error) { return c, nil }}
	l.loaded.Store(true)
	return l
}
