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

// Package icbm implements the Introductory Carbon Balance Model, a
// two-pool (young and old) soil carbon model, as a soilcn.PoolEngine.
//
// Reference: Andrén, O. and Kätterer, T. (1997) ICBM: The Introductory
// Carbon Balance Model for exploration of soil carbon balances.
// Ecological Applications 7(4):1226-1236.
package icbm

import (
	"errors"
	"math"

	"github.com/spatialmodel/soilcn"
)

// ErrUndefinedEquilibrium is returned when decomposition is so slow that
// a steady-state pool would be infinite.
var ErrUndefinedEquilibrium = errors.New("icbm: undefined equilibrium")

// minDecay is the smallest fraction of a pool that may decompose in a year
// for the equilibrium formulas to be used.
const minDecay = 1.e-12

// retention returns the fraction of a pool remaining after one year of
// decomposition with rate k and factor cf.
func retention(k, cf float64) float64 { return math.Exp(-k * cf) }

// decay returns the fraction of a pool that decomposes in one year, or
// ErrUndefinedEquilibrium if it is too small.
func decay(k, cf float64) (float64, error) {
	d := 1 - retention(k, cf)
	if !(d > minDecay) || math.IsInf(d, 0) {
		return 0, ErrUndefinedEquilibrium
	}
	return d, nil
}

// EquilibriumYoungPool returns the steady-state young pool for a constant
// annual input: input·e^(-k·cf) / (1 - e^(-k·cf)). If the equilibrium
// is undefined it returns 0 and ErrUndefinedEquilibrium.
func EquilibriumYoungPool(input, k, cf float64) (float64, error) {
	d, err := decay(k, cf)
	if err != nil {
		return 0, err
	}
	return input * retention(k, cf) / d, nil
}

// IntervalYoungPool returns the young pool after one year given the
// previous year's closing pool and input.
func IntervalYoungPool(prevPool, prevInput, k, cf float64) float64 {
	return (prevPool + prevInput) * retention(k, cf)
}

// HumifiedTransfer returns the carbon moved from a young pool to the old
// pool during one year, where h is the humification coefficient.
func HumifiedTransfer(h, prevPool, prevInput, k, cf float64) float64 {
	return h * (prevPool + prevInput) * (1 - retention(k, cf))
}

// EquilibriumOldPool returns the steady-state old pool given the
// humified input Σ h·I and the old pool decomposition rate kOld.
// It is the fixed point of IntervalOldPool when the young pools are at
// equilibrium.
func EquilibriumOldPool(humifiedInput, kOld, cf float64) (float64, error) {
	d, err := decay(kOld, cf)
	if err != nil {
		return 0, err
	}
	return humifiedInput / d, nil
}

// IntervalOldPool returns the old pool after one year.
func IntervalOldPool(prevOld, transfer, kOld, cf float64) float64 {
	return prevOld*retention(kOld, cf) + transfer
}

// inputs are the carbon inputs to the three young pools, in the order
// above-ground residue, below-ground residue, manure.
func inputs(r *soilcn.YearRecord) [3]float64 {
	return [3]float64{
		r.CarbonInputFromStraw,
		r.CarbonInputFromRoots + r.CarbonInputFromExtraroots,
		r.ManureCarbonInput,
	}
}

func humification(d *soilcn.FarmDefaults) [3]float64 {
	return [3]float64{
		d.HumificationCoefficientAboveGround,
		d.HumificationCoefficientBelowGround,
		d.HumificationCoefficientManure,
	}
}

var poolNames = [3]string{"above-ground", "below-ground", "manure"}
