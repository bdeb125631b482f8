/*
Copyright © 2018 the soilcn authors.
This file is part of soilcn.

soilcn is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

soilcn is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with soilcn.  If not, see <http://www.gnu.org/licenses/>.
*/

package soilcn

import "fmt"

// PoolEngine is a holder for the calculations that evolve one family of
// soil pools (e.g., carbon or nitrogen) over a year. The driver calls
// SetStartState on every engine, then AdjustPool on every engine, then
// Close on every engine. Each method receives the state returned by the
// previous call and returns the updated state.
type PoolEngine interface {
	// SetStartState initializes the engine's pools for the year.
	SetStartState(s SimulationState, y Year) (SimulationState, error)

	// AdjustPool applies the within-year fluxes to the engine's pools.
	AdjustPool(s SimulationState, y Year) (SimulationState, error)

	// Close finishes the year and writes the engine's results to
	// y.Current.
	Close(s SimulationState, y Year) (SimulationState, error)
}

// Year binds the records needed to simulate y.Current.
// Previous is nil for the equilibrium year and Next is nil for the
// last year.
type Year struct {
	Field                   string
	Previous, Current, Next *YearRecord
	Defaults                *FarmDefaults
	Climate                 *ClimateContext
}

// Equilibrium returns whether the year is initialized with the
// steady-state formulas.
func (y Year) Equilibrium() bool { return y.Current.Index == 0 }

// RequirePrevious returns an error if the year needs a previous record
// and does not have one.
func (y Year) RequirePrevious() error {
	if !y.Equilibrium() && y.Previous == nil {
		return fmt.Errorf("soilcn: field %s year %d: missing previous-year record", y.Field, y.Current.Year)
	}
	return nil
}

// Pool identifies one of the soil pools held in a SimulationState.
type Pool int

// These are the pools tracked by the simulation.
const (
	YoungCarbon Pool = iota
	OldCarbon
	OrganicN
	MineralN
	MicrobialN
	CropResidueN
	ManureResidueN
)

func (p Pool) String() string {
	switch p {
	case YoungCarbon:
		return "young carbon"
	case OldCarbon:
		return "old carbon"
	case OrganicN:
		return "organic N"
	case MineralN:
		return "mineral N"
	case MicrobialN:
		return "microbial N"
	case CropResidueN:
		return "crop residue N"
	case ManureResidueN:
		return "manure residue N"
	default:
		panic(fmt.Sprintf("unknown pool: %d", int(p)))
	}
}

// EmissionFluxes are the nitrogen losses from one pool [kg N/ha].
type EmissionFluxes struct {
	DirectN2ON, NON          float64
	LeachingN2ON, NO3N       float64
	VolatilizationN2ON, NH4N float64
}

// Direct returns the nitrogen lost from nitrification and denitrification.
func (e EmissionFluxes) Direct() float64 { return e.DirectN2ON + e.NON }

// Leaching returns the nitrogen lost through leaching.
func (e EmissionFluxes) Leaching() float64 { return e.LeachingN2ON + e.NO3N }

// Volatilization returns the nitrogen lost through volatilization.
func (e EmissionFluxes) Volatilization() float64 { return e.VolatilizationN2ON + e.NH4N }

// Total returns all of the nitrogen lost.
func (e EmissionFluxes) Total() float64 {
	return e.Direct() + e.Leaching() + e.Volatilization()
}

// Add returns the sum of e and o.
func (e EmissionFluxes) Add(o EmissionFluxes) EmissionFluxes {
	return EmissionFluxes{
		DirectN2ON:         e.DirectN2ON + o.DirectN2ON,
		NON:                e.NON + o.NON,
		LeachingN2ON:       e.LeachingN2ON + o.LeachingN2ON,
		NO3N:               e.NO3N + o.NO3N,
		VolatilizationN2ON: e.VolatilizationN2ON + o.VolatilizationN2ON,
		NH4N:               e.NH4N + o.NH4N,
	}
}

// TotalN2ON returns the direct and indirect N2O-N.
func (e EmissionFluxes) TotalN2ON() float64 {
	return e.DirectN2ON + e.LeachingN2ON + e.VolatilizationN2ON
}

// SimulationState holds the pool values for one field in one year. It is
// passed by value from one calculation step to the next; steps return an
// updated copy instead of modifying shared state.
// Carbon values are in kg C/ha and nitrogen values are in kg N/ha.
type SimulationState struct {
	YoungAboveGround, YoungBelowGround, YoungManure float64
	Old                                             float64

	// OldPrevious is the old pool at the end of the previous year, or
	// the equilibrium old pool in the first year.
	OldPrevious float64

	// AboveGroundResidue and BelowGroundResidue are the residue nitrogen
	// remaining in the field.
	AboveGroundResidue, BelowGroundResidue float64

	CropResidue   float64
	Manure        float64
	ManureRelease float64
	Mineral       float64
	Organic       float64
	Microbial     float64

	Fixation    float64
	TotalInputs float64

	CropResidueEmissions EmissionFluxes
	MineralEmissions     EmissionFluxes
	OrganicEmissions     EmissionFluxes
	Emissions            EmissionFluxes

	// Removed is the nitrogen actually subtracted from the pools for
	// emissions. It is less than the emission total only if a pool ran out.
	Removed float64

	// Snapshots of intermediate pool values.
	CropResiduesBeforeAdjustment              float64
	CropResiduesAfterAdjustment               float64
	MineralBeforeAdjustment                   float64
	MineralAfterAdjustment                    float64
	OrganicBeforeEmissions                    float64
	OrganicAfterEmissions                     float64
	MicrobialPoolAfterOldPoolDemandAdjustment float64
	MicrobialPoolAfterCropDemandAdjustment    float64

	BalanceResidual            float64
	OldPoolNitrogenRequirement float64
	CropNitrogenDemand         float64
	Deficit                    float64

	Diagnostics []Diagnostic
}

// Young returns the total young carbon pool.
func (s SimulationState) Young() float64 {
	return s.YoungAboveGround + s.YoungBelowGround + s.YoungManure
}

// Value returns the current value of pool p.
func (s SimulationState) Value(p Pool) float64 {
	switch p {
	case YoungCarbon:
		return s.Young()
	case OldCarbon:
		return s.Old
	case OrganicN:
		return s.Organic
	case MineralN:
		return s.Mineral
	case MicrobialN:
		return s.Microbial
	case CropResidueN:
		return s.CropResidue
	case ManureResidueN:
		return s.Manure
	default:
		panic(fmt.Sprintf("unknown pool: %d", int(p)))
	}
}

// Negative returns the pools with negative values.
func (s SimulationState) Negative() []Pool {
	var o []Pool
	for p := YoungCarbon; p <= ManureResidueN; p++ {
		if s.Value(p) < 0 {
			o = append(o, p)
		}
	}
	return o
}

// Diagnose returns a copy of s with a diagnostic added.
func (s SimulationState) Diagnose(kind DiagnosticKind, format string, args ...interface{}) SimulationState {
	d := make([]Diagnostic, len(s.Diagnostics), len(s.Diagnostics)+1)
	copy(d, s.Diagnostics)
	s.Diagnostics = append(d, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
	return s
}
