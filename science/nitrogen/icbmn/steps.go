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

package icbmn

import (
	"fmt"
	"math"

	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/science/carbon/icbm"
	"github.com/spatialmodel/soilcn/science/emission/n2oef"
	"gonum.org/v1/gonum/floats"
)

// AboveGroundResidueNitrogen returns the nitrogen in the above-ground
// crop residue of r, where cc is the carbon concentration of plant dry
// matter.
func AboveGroundResidueNitrogen(r *soilcn.YearRecord, cc float64) float64 {
	if cc <= 0 {
		return 0
	}
	return r.CarbonInputFromStraw / cc * r.NitrogenContentInStraw
}

// BelowGroundResidueNitrogen returns the nitrogen in the roots and
// extra-root material of r.
func BelowGroundResidueNitrogen(r *soilcn.YearRecord, cc float64) float64 {
	if cc <= 0 {
		return 0
	}
	return (r.CarbonInputFromRoots*r.NitrogenContentInRoots +
		r.CarbonInputFromExtraroots*r.NitrogenContentInExtraroot) / cc
}

// EquilibriumCropResidues sets the residue nitrogen pools for the first
// year from the residue nitrogen inputs ag and bg.
func EquilibriumCropResidues(s soilcn.SimulationState, ag, bg, k, cf float64) soilcn.SimulationState {
	var err error
	if s.AboveGroundResidue, err = icbm.EquilibriumYoungPool(ag, k, cf); err != nil {
		s = s.Diagnose(soilcn.NumericDegeneracy, "above-ground residue nitrogen pool: %v", err)
	}
	if s.BelowGroundResidue, err = icbm.EquilibriumYoungPool(bg, k, cf); err != nil {
		s = s.Diagnose(soilcn.NumericDegeneracy, "below-ground residue nitrogen pool: %v", err)
	}
	total := ag + bg
	s.CropResidue = total - total*math.Exp(-k*cf)
	return s
}

// IntervalCropResidues sets the residue nitrogen pools from the previous
// year's pools and inputs. The nitrogen released is the amount that
// left the pools during the year.
func IntervalCropResidues(s soilcn.SimulationState, agPool, agInput, bgPool, bgInput, k, cf float64) soilcn.SimulationState {
	s.AboveGroundResidue = icbm.IntervalYoungPool(agPool, agInput, k, cf)
	s.BelowGroundResidue = icbm.IntervalYoungPool(bgPool, bgInput, k, cf)
	s.CropResidue = (agPool + agInput - s.AboveGroundResidue) + (bgPool + bgInput - s.BelowGroundResidue)
	return s
}

// EquilibriumManure sets the manure residue pool for the first year. The
// whole equilibrium pool is released to the organic pool.
func EquilibriumManure(s soilcn.SimulationState, manureN, k, cf float64) soilcn.SimulationState {
	var err error
	if s.Manure, err = icbm.EquilibriumYoungPool(manureN, k, cf); err != nil {
		s = s.Diagnose(soilcn.NumericDegeneracy, "manure residue nitrogen pool: %v", err)
	}
	s.ManureRelease = s.Manure
	return s
}

// IntervalManure sets the manure residue pool from the previous year's
// pool and manure nitrogen input.
func IntervalManure(s soilcn.SimulationState, prevPool, prevInput, k, cf float64) soilcn.SimulationState {
	s.Manure = icbm.IntervalYoungPool(prevPool, prevInput, k, cf)
	s.ManureRelease = prevPool + prevInput - s.Manure
	return s
}

// OrganicStartState adds the organic nitrogen applied to the field
// (kg N over area hectares) to the organic pool carried over from the
// previous year.
func OrganicStartState(s soilcn.SimulationState, prevOrganic, applied, area float64) soilcn.SimulationState {
	s.Organic = prevOrganic + applied/area
	return s
}

// MineralizedNitrogen returns the nitrogen released by one year of
// decomposition of the old carbon pool oldPrev:
// (oldPrev - oldPrev·e^(-cf·kOld)) × ratio.
func MineralizedNitrogen(oldPrev, kOld, cf, ratio float64) float64 {
	return (oldPrev - oldPrev*math.Exp(-cf*kOld)) * ratio
}

// Mineralize assigns the mineralized nitrogen to the mineral pool.
func Mineralize(s soilcn.SimulationState, kOld, cf, ratio float64) soilcn.SimulationState {
	s.Mineral = MineralizedNitrogen(s.OldPrevious, kOld, cf, ratio)
	return s
}

// GrossCropNitrogenDemand returns the nitrogen taken up into the product,
// straw, roots and extra-root material of r. Carbon inputs are converted to
// dry matter with the carbon concentration cc; the product nitrogen
// concentration is per unit wet mass. An error is returned if cc or the
// moisture content make the calculation undefined; in that case the
// affected terms are zero.
func GrossCropNitrogenDemand(r *soilcn.YearRecord, cc float64) (float64, error) {
	if cc <= 0 {
		return 0, fmt.Errorf("icbmn: carbon concentration must be positive but is %g", cc)
	}
	var err error
	var product float64
	if r.MoistureContentOfCrop < 1 && r.MoistureContentOfCrop >= 0 {
		product = r.CarbonInputFromProduct / cc / (1 - r.MoistureContentOfCrop) * r.NitrogenContentInProduct
	} else {
		err = fmt.Errorf("icbmn: moisture content must be in [0, 1) but is %g", r.MoistureContentOfCrop)
	}
	return product + AboveGroundResidueNitrogen(r, cc) + BelowGroundResidueNitrogen(r, cc), err
}

// CropNitrogenDemand returns the crop nitrogen demand on the soil given
// the gross demand and the fraction met by fixation.
func CropNitrogenDemand(gross, fixation float64) float64 {
	return gross * (1 - fixation)
}

// TotalInputsBeforeReductions sums the nitrogen available before
// emissions and uptake.
func TotalInputsBeforeReductions(s soilcn.SimulationState) soilcn.SimulationState {
	s.TotalInputs = floats.Sum([]float64{s.CropResidue, s.ManureRelease, s.Mineral, s.Organic, s.Fixation})
	return s
}

// DirectEmissions calculates the direct emissions from each source pool.
// The organic emissions are calculated before the manure release is
// added to the organic pool.
func DirectEmissions(s soilcn.SimulationState, residue, mineral, organic n2oef.Factors) soilcn.SimulationState {
	s.CropResidueEmissions = n2oef.DirectFluxes(s.CropResidue, residue)
	s.MineralEmissions = n2oef.DirectFluxes(s.Mineral, mineral)
	s.OrganicEmissions = n2oef.DirectFluxes(s.Organic, organic)
	return s
}

// IndirectEmissions calculates the leaching and volatilization emissions
// from each source pool.
func IndirectEmissions(s soilcn.SimulationState, residue, mineral, organic n2oef.Factors) soilcn.SimulationState {
	s.CropResidueEmissions = n2oef.IndirectFluxes(s.CropResidueEmissions, s.CropResidue, residue)
	s.MineralEmissions = n2oef.IndirectFluxes(s.MineralEmissions, s.Mineral, mineral)
	s.OrganicEmissions = n2oef.IndirectFluxes(s.OrganicEmissions, s.Organic, organic)
	return s
}

// subtract removes the emissions e from pool in the order direct,
// leaching, volatilization, never removing more than remains.
// It returns the new pool value and the amount removed.
func subtract(pool float64, e soilcn.EmissionFluxes) (float64, float64) {
	var removed float64
	for _, flux := range []float64{e.Direct(), e.Leaching(), e.Volatilization()} {
		take := math.Min(math.Max(flux, 0), math.Max(pool, 0))
		pool -= take
		removed += take
	}
	return pool, removed
}

// IncorporateManure adds the nitrogen released from the manure residue
// pool to the organic pool.
func IncorporateManure(s soilcn.SimulationState) soilcn.SimulationState {
	s.Organic += s.ManureRelease
	return s
}

// SubtractOrganicEmissions removes the organic emissions from the
// organic pool.
func SubtractOrganicEmissions(s soilcn.SimulationState) soilcn.SimulationState {
	s.OrganicBeforeEmissions = s.Organic
	var removed float64
	s.Organic, removed = subtract(s.Organic, s.OrganicEmissions)
	s.OrganicAfterEmissions = s.Organic
	s.Removed += removed
	return s
}

// AdjustPools removes the emissions from their source pools.
func AdjustPools(s soilcn.SimulationState) soilcn.SimulationState {
	var r1, r2 float64
	s.CropResiduesBeforeAdjustment = s.CropResidue
	s.CropResidue, r1 = subtract(s.CropResidue, s.CropResidueEmissions)
	s.MineralBeforeAdjustment = s.Mineral
	s.Mineral, r2 = subtract(s.Mineral, s.MineralEmissions)
	s.Removed = r1 + r2
	s.CropResiduesAfterAdjustment = s.CropResidue
	s.MineralAfterAdjustment = s.Mineral
	s = IncorporateManure(s)
	return SubtractOrganicEmissions(s)
}

// CloseNitrogenBudget checks that the inputs equal the pools plus the
// fixed nitrogen plus the emissions. The residual is stored and a
// BalanceMismatch diagnostic is added if it is larger than tol.
func CloseNitrogenBudget(s soilcn.SimulationState, tol float64) soilcn.SimulationState {
	emitted := s.CropResidueEmissions.Total() + s.MineralEmissions.Total() + s.OrganicEmissions.Total()
	outputs := floats.Sum([]float64{s.CropResidue, s.Mineral, s.Organic, s.Fixation, emitted})
	s.BalanceResidual = s.TotalInputs - outputs
	if !floats.EqualWithinAbsOrRel(s.TotalInputs, outputs, tol, tol) {
		s = s.Diagnose(soilcn.BalanceMismatch, "nitrogen budget residual %g kg N/ha (inputs %g, pools and emissions %g)",
			s.BalanceResidual, s.TotalInputs, outputs)
	}
	return s
}

// TransferToMicrobes moves the nitrogen remaining in the crop residue and
// mineral pools into the microbial pool, where it is available to meet
// demand.
func TransferToMicrobes(s soilcn.SimulationState) soilcn.SimulationState {
	s.Microbial += s.CropResidue + s.Mineral
	s.CropResidue, s.Mineral = 0, 0
	return s
}

// OldPoolNitrogenRequirement returns the nitrogen needed to support the
// change in old pool carbon from oldPrev to oldCur.
func OldPoolNitrogenRequirement(oldCur, oldPrev, ratio float64) float64 {
	return (oldCur - oldPrev) * ratio
}

// AdjustPoolsAfterDemand takes demand from the microbial pool. If the
// microbial pool is not large enough the rest is taken from the organic
// pool, and any demand that neither can supply is recorded as a deficit.
// A negative demand adds nitrogen to the microbial pool.
func AdjustPoolsAfterDemand(s soilcn.SimulationState, demand float64) soilcn.SimulationState {
	s.Microbial -= demand
	if s.Microbial >= 0 {
		return s
	}
	take := math.Min(-s.Microbial, math.Max(s.Organic, 0))
	s.Organic -= take
	s.Microbial += take
	if s.Microbial < 0 {
		s.Deficit += -s.Microbial
		s.Microbial = 0
	}
	return s
}

// SumEmissions totals the emissions from all sources.
func SumEmissions(s soilcn.SimulationState) soilcn.SimulationState {
	s.Emissions = s.CropResidueEmissions.Add(s.MineralEmissions).Add(s.OrganicEmissions)
	return s
}

// BalancePools returns the nitrogen in dying microbes to the organic pool.
func BalancePools(s soilcn.SimulationState, microbeDeath float64) soilcn.SimulationState {
	if s.Microbial <= 0 {
		return s
	}
	dead := s.Microbial * microbeDeath
	s.Microbial -= dead
	s.Organic += dead
	return s
}

// AssignFinalValues writes the nitrogen results in s to r.
func AssignFinalValues(s soilcn.SimulationState, r *soilcn.YearRecord) {
	r.AboveGroundResiduePool = s.AboveGroundResidue
	r.BelowGroundResiduePool = s.BelowGroundResidue
	r.CropResiduesBeforeAdjustment = s.CropResiduesBeforeAdjustment
	r.CropResiduesAfterAdjustment = s.CropResiduesAfterAdjustment
	r.ManurePool = s.Manure
	r.ManureRelease = s.ManureRelease
	r.MineralPool = s.MineralBeforeAdjustment
	r.MineralPoolAfterAdjustment = s.MineralAfterAdjustment
	r.OrganicPoolBeforeEmissions = s.OrganicBeforeEmissions
	r.OrganicPoolAfterEmissions = s.OrganicAfterEmissions
	r.OrganicPool = s.Organic
	r.MicrobePool = s.Microbial
	r.MicrobialPoolAfterOldPoolDemandAdjustment = s.MicrobialPoolAfterOldPoolDemandAdjustment
	r.MicrobialPoolAfterCropDemandAdjustment = s.MicrobialPoolAfterCropDemandAdjustment
	r.FixationNitrogen = s.Fixation
	r.TotalInputsBeforeReductions = s.TotalInputs
	r.BalanceResidual = s.BalanceResidual
	r.OldPoolNitrogenRequirement = s.OldPoolNitrogenRequirement
	r.CropNitrogenDemand = s.CropNitrogenDemand
	r.TotalUptake = s.CropNitrogenDemand + s.OldPoolNitrogenRequirement
	r.NitrogenDeficit = s.Deficit

	e := s.Emissions
	r.DirectN2ON = e.DirectN2ON
	r.NON = e.NON
	r.LeachingN2ON = e.LeachingN2ON
	r.NO3NLeached = e.NO3N
	r.VolatilizationN2ON = e.VolatilizationN2ON
	r.NH4NVolatilized = e.NH4N
	r.TotalN2ON = e.TotalN2ON()
	r.TotalN2O = r.TotalN2ON * soilcn.N2ONToN2O
	r.TotalNO = e.NON * soilcn.NONToNO
	r.TotalNO3 = e.NO3N * soilcn.NO3NToNO3
	r.TotalNH3 = e.NH4N * soilcn.NH3NToNH3
}
