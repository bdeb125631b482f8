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

// Package n2oef calculates direct and indirect nitrogen emissions from
// soil nitrogen fluxes and from land-applied manure.
package n2oef

import (
	"math"

	"github.com/spatialmodel/soilcn"
)

// Defaults used when no climate data are available.
const (
	// DefaultEmissionFactor is the direct N2O-N emission factor [kg N2O-N/kg N].
	DefaultEmissionFactor = 0.01

	// DefaultLeachingFraction is the fraction of nitrogen lost to leaching.
	DefaultLeachingFraction = 0.24
)

// ClimateEmissionFactor returns the direct N2O-N emission factor for a
// site with growing-season precipitation p and potential
// evapotranspiration pe [mm]. The smaller of the two controls soil
// moisture, and so denitrification.
func ClimateEmissionFactor(p, pe float64) float64 {
	return math.Exp(0.00558*math.Min(p, pe) - 7.701)
}

// LeachingFraction returns the fraction of nitrogen lost to leaching for
// growing-season precipitation p and potential evapotranspiration pe,
// bounded by [min, max].
func LeachingFraction(p, pe, min, max float64) float64 {
	if pe <= 0 {
		return max
	}
	f := 0.3247*p/pe - 0.0247
	return math.Max(min, math.Min(max, f))
}

// Factors are the emission parameters for one nitrogen source.
type Factors struct {
	// Direct is the N2O-N emission factor for nitrification and
	// denitrification.
	Direct float64

	// NORatio is the ratio of NO-N to N2O-N.
	NORatio float64

	LeachingFraction float64
	Leaching         float64 // N2O-N per unit N leached

	VolatilizationFraction float64
	Volatilization         float64 // N2O-N per unit N volatilized
}

// SourceFactors returns the emission factors for nitrogen from crop
// residues, mineralization and organic inputs. If c is nil the default
// emission factor and leaching fraction are used.
func SourceFactors(d *soilcn.FarmDefaults, c *soilcn.ClimateContext) (residue, mineral, organic Factors) {
	ef, leach := DefaultEmissionFactor, DefaultLeachingFraction
	if c != nil {
		p, pe := c.GrowingSeasonPrecipitation(), c.GrowingSeasonEvapotranspiration()
		ef = ClimateEmissionFactor(p, pe)
		leach = LeachingFraction(p, pe, d.MinimumLeachingFraction, d.MaximumLeachingFraction)
	}
	base := Factors{
		Direct:           ef,
		NORatio:          d.NORatio,
		LeachingFraction: leach,
		Leaching:         d.EmissionFactorLeaching,
		Volatilization:   d.EmissionFactorVolatilization,
	}
	residue, mineral, organic = base, base, base
	residue.VolatilizationFraction = d.FractionVolatilizedCropResidue
	mineral.VolatilizationFraction = d.FractionVolatilizedMineral
	organic.VolatilizationFraction = d.FractionVolatilizedOrganic
	return
}

// Direct returns the N2O-N and NO-N emitted directly from n [kg N].
func Direct(n float64, f Factors) (n2oN, noN float64) {
	n2oN = n * f.Direct
	return n2oN, n2oN * f.NORatio
}

// Leaching returns the indirect N2O-N from the leached part of n and the
// remaining nitrate-N that is leached.
func Leaching(n float64, f Factors) (n2oN, no3N float64) {
	leached := n * f.LeachingFraction
	n2oN = leached * f.Leaching
	return n2oN, leached - n2oN
}

// Volatilization returns the indirect N2O-N from the volatilized part of
// n and the remaining ammonium-N that is volatilized.
func Volatilization(n float64, f Factors) (n2oN, nh4N float64) {
	volatilized := n * f.VolatilizationFraction
	n2oN = volatilized * f.Volatilization
	return n2oN, volatilized - n2oN
}

// DirectFluxes returns the direct emissions from n.
func DirectFluxes(n float64, f Factors) soilcn.EmissionFluxes {
	var e soilcn.EmissionFluxes
	e.DirectN2ON, e.NON = Direct(nonNegative(n), f)
	return e
}

// IndirectFluxes adds the leaching and volatilization emissions from n
// to e.
func IndirectFluxes(e soilcn.EmissionFluxes, n float64, f Factors) soilcn.EmissionFluxes {
	n = nonNegative(n)
	e.LeachingN2ON, e.NO3N = Leaching(n, f)
	e.VolatilizationN2ON, e.NH4N = Volatilization(n, f)
	return e
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
