package domain

import (
	"errors"
	"fmt"
)

// EmissionsBasis selects which emission factor a regulatory year charges on.
type EmissionsBasis string

const (
	BasisCO2   EmissionsBasis = "co2"
	BasisCO2eq EmissionsBasis = "co2eq"
)

// PhaseTier is the share of emissions charged in a year and the basis it is
// charged on.
type PhaseTier struct {
	Fraction float64        `json:"fraction" yaml:"fraction"`
	Basis    EmissionsBasis `json:"basis" yaml:"basis"`
}

// PhaseInPolicy describes the yearly ramp of the ETS scheme. Tiers[i] applies
// to FirstYear+i; every later year uses Full. Years before FirstYear are not
// regulated.
type PhaseInPolicy struct {
	FirstYear int         `yaml:"first_year"`
	Tiers     []PhaseTier `yaml:"tiers"`
	Full      PhaseTier   `yaml:"full"`
}

// DefaultPhaseInPolicy returns the maritime EU ETS ramp: 40% and 70% on CO₂
// for the first two years, then 100% on CO₂eq.
func DefaultPhaseInPolicy(firstYear int) PhaseInPolicy {
	return PhaseInPolicy{
		FirstYear: firstYear,
		Tiers: []PhaseTier{
			{Fraction: 0.40, Basis: BasisCO2},
			{Fraction: 0.70, Basis: BasisCO2},
		},
		Full: PhaseTier{Fraction: 1.00, Basis: BasisCO2eq},
	}
}

// Validate checks fractions and bases.
func (p PhaseInPolicy) Validate() error {
	if p.FirstYear <= 0 {
		return errors.New("phase-in first year must be positive")
	}
	for i, t := range append(append([]PhaseTier{}, p.Tiers...), p.Full) {
		if t.Fraction < 0 || t.Fraction > 1 {
			return fmt.Errorf("phase-in tier %d: fraction %v outside [0,1]", i, t.Fraction)
		}
		if t.Basis != BasisCO2 && t.Basis != BasisCO2eq {
			return fmt.Errorf("phase-in tier %d: unknown basis %q", i, t.Basis)
		}
	}
	return nil
}

// Rule returns the phase-in tier for year. Years before FirstYear are
// unregulated and charged at 0%; they never fall through to the Full tier.
func (p PhaseInPolicy) Rule(year int) PhaseTier {
	offset := year - p.FirstYear
	switch {
	case offset < 0:
		return PhaseTier{Fraction: 0, Basis: BasisCO2}
	case offset < len(p.Tiers):
		return p.Tiers[offset]
	default:
		return p.Full
	}
}
