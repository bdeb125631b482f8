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

// Package icbmn tracks soil nitrogen pools in lock-step with the
// ICBM carbon pools in package icbm. It must be run after the carbon
// engine in the same year, because mineralization and the old-pool
// nitrogen requirement are calculated from the carbon state.
package icbmn

import (
	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/science/emission/n2oef"
)

// Engine fulfils the github.com/spatialmodel/soilcn.PoolEngine interface
// for the soil nitrogen pools.
type Engine struct{}

// SetStartState calculates the residue, manure, organic, microbial and
// mineral nitrogen pools at the start of the year and the total
// nitrogen inputs before reductions.
func (e Engine) SetStartState(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	if err := y.RequirePrevious(); err != nil {
		return s, err
	}
	d := y.Defaults
	r := y.Current
	cf := d.DecompositionFactor(r)
	k := d.DecompositionRateConstantYoungPool

	r.AboveGroundResidueNitrogen = AboveGroundResidueNitrogen(r, d.CarbonConcentration)
	r.BelowGroundResidueNitrogen = BelowGroundResidueNitrogen(r, d.CarbonConcentration)

	if y.Equilibrium() {
		s = EquilibriumCropResidues(s, r.AboveGroundResidueNitrogen, r.BelowGroundResidueNitrogen, k, cf)
		s = EquilibriumManure(s, r.ManureResidueNitrogen, k, cf)
		s = OrganicStartState(s, 0, r.OrganicNitrogenApplied, r.Area)
		s.Microbial = 0
	} else {
		p := y.Previous
		s = IntervalCropResidues(s, p.AboveGroundResiduePool, p.AboveGroundResidueNitrogen,
			p.BelowGroundResiduePool, p.BelowGroundResidueNitrogen, k, cf)
		s = IntervalManure(s, p.ManurePool, p.ManureResidueNitrogen, k, cf)
		s = OrganicStartState(s, p.OrganicPool, r.OrganicNitrogenApplied, r.Area)
		s.Microbial = p.MicrobePool
	}

	s = Mineralize(s, d.DecompositionRateConstantOldPool, cf, d.OldPoolCarbonN)

	gross, err := GrossCropNitrogenDemand(r, d.CarbonConcentration)
	if err != nil {
		s = s.Diagnose(soilcn.NumericDegeneracy, "crop nitrogen demand: %v", err)
	}
	s.Fixation = gross * d.NitrogenFixationFraction(r)
	return TotalInputsBeforeReductions(s), nil
}

// AdjustPool calculates the emissions, removes them from the pools,
// checks the nitrogen budget and then meets the old-pool and crop
// nitrogen demands from the microbial pool.
func (e Engine) AdjustPool(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	d := y.Defaults
	r := y.Current
	residue, mineral, organic := n2oef.SourceFactors(d, y.Climate)

	s = DirectEmissions(s, residue, mineral, organic)
	s = IndirectEmissions(s, residue, mineral, organic)
	s = AdjustPools(s)
	s = CloseNitrogenBudget(s, d.BalanceTolerance)

	s = TransferToMicrobes(s)
	s.OldPoolNitrogenRequirement = OldPoolNitrogenRequirement(s.Old, s.OldPrevious, d.OldPoolCarbonN)
	s = AdjustPoolsAfterDemand(s, s.OldPoolNitrogenRequirement)
	s.MicrobialPoolAfterOldPoolDemandAdjustment = s.Microbial

	// The degeneracy, if any, was already recorded in SetStartState.
	gross, _ := GrossCropNitrogenDemand(r, d.CarbonConcentration)
	s.CropNitrogenDemand = CropNitrogenDemand(gross, d.NitrogenFixationFraction(r))
	s = AdjustPoolsAfterDemand(s, s.CropNitrogenDemand)
	s.MicrobialPoolAfterCropDemandAdjustment = s.Microbial
	return s, nil
}

// Close sums the emissions, returns dead microbial nitrogen to the
// organic pool and writes the nitrogen results to the year record.
func (e Engine) Close(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	s = SumEmissions(s)
	s = BalancePools(s, y.Defaults.MicrobeDeath)
	AssignFinalValues(s, y.Current)
	return s, nil
}
