package catalog

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// Accepted header names for the vessel emission-factor columns. The long
// names are those of the EU MRV public export.
var (
	imoColumns   = []string{"IMO Number", "imo_number", "imo"}
	co2Columns   = []string{"CO₂ emissions per distance [kg CO₂ / n mile]", "co2_per_nm"}
	co2eqColumns = []string{"CO₂eq emissions per distance [kg CO₂eq / n mile]", "co2eq_per_nm"}
)

// DroppedRow records why a vessel row was excluded.
type DroppedRow struct {
	Line   int    `json:"line"`
	IMO    string `json:"imo,omitempty"`
	Reason string `json:"reason"`
}

// VesselLoadStats summarises a vessel load for diagnostics.
type VesselLoadStats struct {
	Total       int          `json:"total"`
	Loaded      int          `json:"loaded"`
	Dropped     int          `json:"dropped"`
	Duplicates  int          `json:"duplicates"`
	DroppedRows []DroppedRow `json:"dropped_rows,omitempty"`
}

// maxDroppedRows bounds the per-row diagnostics kept in VesselLoadStats.
const maxDroppedRows = 100

func (s *VesselLoadStats) drop(line int, imo, reason string) {
	s.Dropped++
	if len(s.DroppedRows) < maxDroppedRows {
		s.DroppedRows = append(s.DroppedRows, DroppedRow{Line: line, IMO: imo, Reason: reason})
	}
}

// LoadVessels reads the vessel emission-factor CSV. Rows with an empty IMO
// number, a non-numeric factor (the MRV export writes "Division by zero!"
// for vessels without distance data), or a negative factor are dropped and
// counted. For repeated IMO numbers the first row wins.
func LoadVessels(path string) ([]domain.VesselEmissionProfile, VesselLoadStats, error) {
	var stats VesselLoadStats

	rc, err := openSource(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open vessels: %w", err)
	}
	defer rc.Close()

	table, err := newCSVTable(path, rc)
	if err != nil {
		return nil, stats, err
	}
	imoCol, err := table.column(imoColumns...)
	if err != nil {
		return nil, stats, err
	}
	co2Col, err := table.column(co2Columns...)
	if err != nil {
		return nil, stats, err
	}
	co2eqCol, err := table.column(co2eqColumns...)
	if err != nil {
		return nil, stats, err
	}

	var profiles []domain.VesselEmissionProfile
	seen := make(map[string]struct{})
	for {
		rec, line, err := table.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		stats.Total++

		imo := field(rec, imoCol)
		if imo == "" {
			stats.drop(line, "", "missing IMO number")
			continue
		}
		co2, err := parseFactor(field(rec, co2Col))
		if err != nil {
			stats.drop(line, imo, "co2: "+err.Error())
			continue
		}
		co2eq, err := parseFactor(field(rec, co2eqCol))
		if err != nil {
			stats.drop(line, imo, "co2eq: "+err.Error())
			continue
		}

		if _, dup := seen[imo]; dup {
			stats.Duplicates++
			continue
		}
		seen[imo] = struct{}{}
		profiles = append(profiles, domain.VesselEmissionProfile{IMONumber: imo, CO2PerNM: co2, CO2eqPerNM: co2eq})
	}

	stats.Loaded = len(profiles)
	return profiles, stats, nil
}

func parseFactor(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %v", v)
	}
	return v, nil
}
