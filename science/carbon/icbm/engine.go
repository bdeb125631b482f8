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

package icbm

import (
	"github.com/spatialmodel/soilcn"
)

// Engine fulfils the github.com/spatialmodel/soilcn.PoolEngine interface
// for the soil carbon pools.
type Engine struct{}

// SetStartState calculates the young and old carbon pools for the year.
func (e Engine) SetStartState(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	if err := y.RequirePrevious(); err != nil {
		return s, err
	}
	if y.Equilibrium() {
		return equilibrium(s, y), nil
	}
	return interval(s, y), nil
}

func equilibrium(s soilcn.SimulationState, y soilcn.Year) soilcn.SimulationState {
	d := y.Defaults
	cf := d.DecompositionFactor(y.Current)
	k := d.DecompositionRateConstantYoungPool
	in := inputs(y.Current)
	h := humification(d)

	var young [3]float64
	var humified float64
	for i := range in {
		v, err := EquilibriumYoungPool(in[i], k, cf)
		if err != nil {
			s = s.Diagnose(soilcn.NumericDegeneracy, "%s young carbon pool (k=%g, cf=%g): %v", poolNames[i], k, cf, err)
		}
		young[i] = v
		humified += h[i] * in[i]
	}
	s.YoungAboveGround, s.YoungBelowGround, s.YoungManure = young[0], young[1], young[2]

	old, err := EquilibriumOldPool(humified, d.DecompositionRateConstantOldPool, cf)
	if err != nil {
		s = s.Diagnose(soilcn.NumericDegeneracy, "old carbon pool (k=%g, cf=%g): %v",
			d.DecompositionRateConstantOldPool, cf, err)
	}
	s.Old = old
	s.OldPrevious = old
	return s
}

func interval(s soilcn.SimulationState, y soilcn.Year) soilcn.SimulationState {
	d := y.Defaults
	cf := d.DecompositionFactor(y.Current)
	k := d.DecompositionRateConstantYoungPool
	prev := y.Previous
	in := inputs(prev)
	h := humification(d)
	prevYoung := [3]float64{
		prev.YoungPoolAboveGroundCarbon,
		prev.YoungPoolBelowGroundCarbon,
		prev.YoungPoolManureCarbon,
	}

	var young [3]float64
	var transfer float64
	for i := range in {
		young[i] = IntervalYoungPool(prevYoung[i], in[i], k, cf)
		transfer += HumifiedTransfer(h[i], prevYoung[i], in[i], k, cf)
	}
	s.YoungAboveGround, s.YoungBelowGround, s.YoungManure = young[0], young[1], young[2]
	s.OldPrevious = prev.OldPoolCarbon
	s.Old = IntervalOldPool(prev.OldPoolCarbon, transfer, d.DecompositionRateConstantOldPool, cf)
	return s
}

// AdjustPool does nothing: the carbon pools have no within-year demands.
func (e Engine) AdjustPool(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	return s, nil
}

// Close writes the carbon pools to the year record.
func (e Engine) Close(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	r := y.Current
	r.YoungPoolAboveGroundCarbon = s.YoungAboveGround
	r.YoungPoolBelowGroundCarbon = s.YoungBelowGround
	r.YoungPoolManureCarbon = s.YoungManure
	r.YoungPoolCarbon = s.Young()
	r.OldPoolCarbon = s.Old
	r.SoilCarbon = s.Young() + s.Old
	if y.Previous != nil {
		r.ChangeInSoilCarbon = r.SoilCarbon - y.Previous.SoilCarbon
	} else {
		r.ChangeInSoilCarbon = 0
	}
	return s, nil
}
