package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrVesselUnknown is returned when an IMO number has no emission profile.
var ErrVesselUnknown = errors.New("vessel unknown")

// VesselEmissionProfile holds per-distance emission factors in kg per nautical mile.
type VesselEmissionProfile struct {
	IMONumber  string  `json:"imo_number"`
	CO2PerNM   float64 `json:"co2_per_nm"`
	CO2eqPerNM float64 `json:"co2eq_per_nm"`
}

// Validate rejects profiles without an IMO number or with negative factors.
func (v VesselEmissionProfile) Validate() error {
	if v.IMONumber == "" {
		return errors.New("missing IMO number")
	}
	if v.CO2PerNM < 0 || v.CO2eqPerNM < 0 {
		return fmt.Errorf("IMO %s: negative emission factor", v.IMONumber)
	}
	return nil
}

// VesselRegistry is an immutable IMO-keyed set of emission profiles.
type VesselRegistry struct {
	byIMO map[string]VesselEmissionProfile
}

// NewVesselRegistry indexes profiles by IMO number. The first profile for a
// given IMO wins.
func NewVesselRegistry(profiles []VesselEmissionProfile) *VesselRegistry {
	byIMO := make(map[string]VesselEmissionProfile, len(profiles))
	for _, p := range profiles {
		if _, ok := byIMO[p.IMONumber]; ok {
			continue
		}
		byIMO[p.IMONumber] = p
	}
	return &VesselRegistry{byIMO: byIMO}
}

// Lookup returns the profile for imo or ErrVesselUnknown.
func (r *VesselRegistry) Lookup(imo string) (VesselEmissionProfile, error) {
	p, ok := r.byIMO[imo]
	if !ok {
		return VesselEmissionProfile{}, fmt.Errorf("%w: IMO %s", ErrVesselUnknown, imo)
	}
	return p, nil
}

// Len returns the number of vessels.
func (r *VesselRegistry) Len() int { return len(r.byIMO) }

// IMONumbers returns every known IMO number, sorted.
func (r *VesselRegistry) IMONumbers() []string {
	out := make([]string, 0, len(r.byIMO))
	for imo := range r.byIMO {
		out = append(out, imo)
	}
	sort.Strings(out)
	return out
}

// All returns every profile ordered by IMO number.
func (r *VesselRegistry) All() []VesselEmissionProfile {
	out := make([]VesselEmissionProfile, 0, len(r.byIMO))
	for _, imo := range r.IMONumbers() {
		out = append(out, r.byIMO[imo])
	}
	return out
}
