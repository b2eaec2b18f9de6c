package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// snapshotVersion is bumped whenever the snapshot layout changes.
const snapshotVersion = 1

// ErrSnapshotVersion is returned for a snapshot written by an incompatible build.
var ErrSnapshotVersion = errors.New("unsupported catalog snapshot version")

type pricePoint struct {
	Year  int     `json:"year"`
	Price float64 `json:"price"`
}

// snapshot is the msgpack layout of a compiled catalog.
type snapshot struct {
	Version     int                            `json:"version"`
	CreatedAt   time.Time                      `json:"created_at"`
	Ports       []domain.Port                  `json:"ports"`
	Vessels     []domain.VesselEmissionProfile `json:"vessels"`
	VesselStats VesselLoadStats                `json:"vessel_stats"`
	Prices      []pricePoint                   `json:"prices"`
}

// WriteSnapshot stores c as zstd-compressed msgpack at path. The file is
// written next to its destination and renamed into place.
func WriteSnapshot(path string, c *Catalog) error {
	snap := snapshot{
		Version:     snapshotVersion,
		CreatedAt:   domain.Now(),
		Ports:       c.Ports.All(),
		Vessels:     c.Vessels.All(),
		VesselStats: c.VesselStats,
	}
	for _, y := range c.Prices.Years() {
		snap.Prices = append(snap.Prices, pricePoint{Year: y, Price: c.Prices[y]})
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw, err := zstd.NewWriter(tmp)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("create snapshot: %w", err)
	}
	enc := msgpack.NewEncoder(zw)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(&snap); err != nil {
		_ = zw.Close()
		_ = tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadSnapshot reads a catalog written by WriteSnapshot. The snapshot is
// validated the same way as the source files.
func LoadSnapshot(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer zr.Close()

	var snap snapshot
	dec := msgpack.NewDecoder(zr)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("%s: decode snapshot: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%s: %w %d", path, ErrSnapshotVersion, snap.Version)
	}

	ports, err := domain.NewPortDirectory(snap.Ports)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, v := range snap.Vessels {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	prices := make(domain.PriceSchedule, len(snap.Prices))
	for _, p := range snap.Prices {
		prices[p.Year] = p.Price
	}

	return &Catalog{
		Ports:       ports,
		Vessels:     domain.NewVesselRegistry(snap.Vessels),
		Prices:      prices,
		VesselStats: snap.VesselStats,
		Source:      path,
	}, nil
}
