package domain

// YearCost is the projected ETS cost for one calendar year.
type YearCost struct {
	Cost              float64        `json:"cost"`
	CoveredEmissionsT float64        `json:"covered_emissions_t"`
	PhaseInPct        int            `json:"phase_in_pct"`
	PricePerTonne     float64        `json:"price_per_tonne"`
	Basis             EmissionsBasis `json:"basis"`
}

// EmissionCostResult is the emissions and year-indexed cost schedule of a voyage.
type EmissionCostResult struct {
	IMONumber           string           `json:"imo_number"`
	DistanceNM          float64          `json:"distance_nm"`
	CO2EmissionsKG      float64          `json:"co2_emissions_kg"`
	CO2eqEmissionsKG    float64          `json:"co2eq_emissions_kg"`
	Coverage            float64          `json:"coverage"`
	CoverageDescription string           `json:"coverage_description"`
	OriginEEA           bool             `json:"origin_eea"`
	DestEEA             bool             `json:"dest_eea"`
	CostsByYear         map[int]YearCost `json:"costs_by_year"`
}

// Coverage returns the share of a voyage's emissions inside the ETS scope:
// 1.0 between two EEA ports, 0.5 when exactly one end is in the EEA, and 0
// otherwise.
func Coverage(originEEA, destEEA bool) float64 {
	switch {
	case originEEA && destEEA:
		return 1.0
	case originEEA || destEEA:
		return 0.5
	default:
		return 0.0
	}
}

func coverageDescription(originEEA, destEEA bool) string {
	switch {
	case originEEA && destEEA:
		return "100% (EEA to EEA)"
	case originEEA || destEEA:
		return "50% (mixed route)"
	default:
		return "0% (non-EEA route)"
	}
}

// CostEngine prices voyages for vessels in its registry.
type CostEngine struct {
	vessels *VesselRegistry
	policy  PhaseInPolicy
}

// NewCostEngine creates a CostEngine.
func NewCostEngine(vessels *VesselRegistry, policy PhaseInPolicy) *CostEngine {
	return &CostEngine{vessels: vessels, policy: policy}
}

// Policy returns the engine's phase-in policy.
func (e *CostEngine) Policy() PhaseInPolicy { return e.policy }

// EstimateCost looks up imo and prices the voyage. An unknown vessel fails with
// ErrVesselUnknown; a zero cost therefore always means zero coverage or an
// unregulated year, never missing data.
func (e *CostEngine) EstimateCost(imo string, origin, dest Port, distanceNM float64, prices PriceSchedule) (EmissionCostResult, error) {
	vessel, err := e.vessels.Lookup(imo)
	if err != nil {
		return EmissionCostResult{}, err
	}
	return EstimateCostForVessel(vessel, origin, dest, distanceNM, prices, e.policy), nil
}

// EstimateCostForVessel prices a voyage for every year in prices. distanceNM
// should be unrounded; only the reported values are rounded. An empty price
// schedule yields an empty cost map.
func EstimateCostForVessel(vessel VesselEmissionProfile, origin, dest Port, distanceNM float64, prices PriceSchedule, policy PhaseInPolicy) EmissionCostResult {
	co2KG := distanceNM * vessel.CO2PerNM
	co2eqKG := distanceNM * vessel.CO2eqPerNM
	coverage := Coverage(origin.IsEEA, dest.IsEEA)

	costs := make(map[int]YearCost, len(prices))
	for _, year := range prices.Years() {
		price := prices[year]
		rule := policy.Rule(year)

		basisKG := co2KG
		if rule.Basis == BasisCO2eq {
			basisKG = co2eqKG
		}

		cost := (basisKG / 1000) * price * rule.Fraction * coverage
		costs[year] = YearCost{
			Cost:              roundTo(cost, 2),
			CoveredEmissionsT: roundTo(basisKG/1000*rule.Fraction*coverage, 2),
			PhaseInPct:        int(roundTo(rule.Fraction*100, 0)),
			PricePerTonne:     price,
			Basis:             rule.Basis,
		}
	}

	return EmissionCostResult{
		IMONumber:           vessel.IMONumber,
		DistanceNM:          roundTo(distanceNM, 1),
		CO2EmissionsKG:      roundTo(co2KG, 2),
		CO2eqEmissionsKG:    roundTo(co2eqKG, 2),
		Coverage:            coverage,
		CoverageDescription: coverageDescription(origin.IsEEA, dest.IsEEA),
		OriginEEA:           origin.IsEEA,
		DestEEA:             dest.IsEEA,
		CostsByYear:         costs,
	}
}
