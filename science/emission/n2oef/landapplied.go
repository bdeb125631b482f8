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

package n2oef

import (
	"fmt"
	"math"
	"time"

	"github.com/spatialmodel/soilcn"
)

// ammoniaEmissionFactors are the fractions of TAN volatilized as NH3-N
// by application method and manure state.
var ammoniaEmissionFactors = map[soilcn.ApplicationMethod]map[soilcn.ManureState]float64{
	soilcn.Broadcast: {
		soilcn.Liquid: 0.40,
		soilcn.Solid:  0.30,
	},
	soilcn.Incorporated: {
		soilcn.Liquid: 0.20,
		soilcn.Solid:  0.15,
	},
	soilcn.ShallowInjection: {
		soilcn.Liquid: 0.12,
		soilcn.Solid:  0.12,
	},
	soilcn.DeepInjection: {
		soilcn.Liquid: 0.02,
		soilcn.Solid:  0.02,
	},
}

// band is a row in a lookup table: values below upper use factor.
type band struct{ upper, factor float64 }

// temperatureBands adjust volatilization by mean monthly temperature [°C].
var temperatureBands = []band{
	{upper: 0, factor: 0.25},
	{upper: 5, factor: 0.5},
	{upper: 15, factor: 1},
	{upper: 25, factor: 1.25},
	{upper: math.Inf(1), factor: 1.5},
}

// moistureBands adjust leaching by the ratio of monthly precipitation to
// potential evapotranspiration.
var moistureBands = []band{
	{upper: 0.25, factor: 0.25},
	{upper: 0.5, factor: 0.5},
	{upper: 1, factor: 0.75},
	{upper: math.Inf(1), factor: 1},
}

func lookup(table []band, v float64) float64 {
	for _, b := range table {
		if v < b.upper {
			return b.factor
		}
	}
	return table[len(table)-1].factor
}

// AmmoniaEmissionFactor returns the fraction of TAN volatilized when
// manure in state s is applied with method m.
func AmmoniaEmissionFactor(m soilcn.ApplicationMethod, s soilcn.ManureState) (float64, error) {
	if states, ok := ammoniaEmissionFactors[m]; ok {
		if ef, ok := states[s]; ok {
			return ef, nil
		}
	}
	return 0, fmt.Errorf("n2oef: no ammonia emission factor for %s %s manure", m, s)
}

// ClimateAdjustments returns the factors that scale volatilization and
// leaching for the month of a manure application. Sub-zero
// temperatures reduce volatilization and dry months reduce leaching.
// If c is nil both factors are 1.
func ClimateAdjustments(c *soilcn.ClimateContext, p soilcn.Period) (volatilization, leaching float64) {
	if c == nil {
		return 1, 1
	}
	precip, temp, pet := c.Month(p)
	volatilization = lookup(temperatureBands, temp)
	if pet <= 0 {
		return volatilization, 1
	}
	return volatilization, lookup(moistureBands, precip/pet)
}

// ManureEmissions are the indirect emissions from one manure application.
type ManureEmissions struct {
	LeachingN2ON       float64 // kg N
	AmmoniaN           float64 // kg N
	VolatilizationN2ON float64 // kg N
}

// IndirectN2O returns the indirect N2O [kg N2O].
func (e ManureEmissions) IndirectN2O() float64 {
	return (e.LeachingN2ON + e.VolatilizationN2ON) * soilcn.N2ONToN2O
}

// AppliedFraction returns the fraction of the manure available on day
// that is used by applying amountPerHectare to area hectares. It cannot
// be more than 1.
func AppliedFraction(day *soilcn.DailyEmissionRecord, amountPerHectare, area float64) float64 {
	if day.TotalVolume <= 0 {
		return 0
	}
	return math.Min(1, amountPerHectare*area/day.TotalVolume)
}

// Application returns the indirect emissions from applying manure from
// day to area hectares. The returned error is non-nil if no ammonia
// emission factor is available; the emissions are still calculated
// with no volatilization.
func Application(day *soilcn.DailyEmissionRecord, app soilcn.ManureApplication, area float64,
	c *soilcn.ClimateContext, d *soilcn.FarmDefaults) (ManureEmissions, error) {

	fraction := AppliedFraction(day, app.AmountPerHectare, area)
	volAdj, leachAdj := ClimateAdjustments(c, soilcn.PeriodFromDate(app.Date))

	var e ManureEmissions
	e.LeachingN2ON = day.NitrogenAvailable * fraction * day.LeachingFraction * leachAdj * day.EmissionFactorLeaching

	ef, err := AmmoniaEmissionFactor(app.Method, app.State)
	e.AmmoniaN = day.TAN * fraction * ef * volAdj
	e.VolatilizationN2ON = e.AmmoniaN * d.EmissionFactorVolatilization
	return e, err
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LandAppliedManure calculates the indirect emissions from every manure
// application in fields that falls on one of the given days, attaches
// them to the daily records, and sums them onto the year records of
// the fields. Previous results on the days and records are replaced.
// Missing emission factors, and applications larger than the manure
// available on the day, are attached to the year records as
// LookupFailure diagnostics.
func LandAppliedManure(days []*soilcn.DailyEmissionRecord, d *soilcn.FarmDefaults, fields ...*soilcn.Field) {
	for _, day := range days {
		day.LeachingN2ON, day.AmmoniaN, day.VolatilizationN2ON, day.TotalIndirectN2O = 0, 0, 0, 0
		day.FieldIndirectN2O = make(map[string]float64)
	}
	diags := make(map[*soilcn.YearRecord][]soilcn.Diagnostic)
	for _, f := range fields {
		for _, r := range f.Years {
			r.LandAppliedManureIndirectN2O, r.LandAppliedManureNH3 = 0, 0
			diags[r] = nil
		}
	}
	for _, day := range days {
		for _, f := range fields {
			for _, r := range f.Years {
				for _, app := range r.ManureApplications {
					if !sameDay(app.Date, day.Date) {
						continue
					}
					if app.AmountPerHectare*r.Area > day.TotalVolume {
						diags[r] = append(diags[r], soilcn.Diagnostic{
							Kind: soilcn.LookupFailure,
							Message: fmt.Sprintf("n2oef: %g applied on %s is more than the %g available; all of it is used",
								app.AmountPerHectare*r.Area, day.Date.Format("2006-01-02"), day.TotalVolume),
						})
					}
					e, err := Application(day, app, r.Area, f.Climate, d)
					if err != nil {
						diags[r] = append(diags[r], soilcn.Diagnostic{Kind: soilcn.LookupFailure, Message: err.Error()})
					}
					n2o := e.IndirectN2O()
					day.LeachingN2ON += e.LeachingN2ON
					day.AmmoniaN += e.AmmoniaN
					day.VolatilizationN2ON += e.VolatilizationN2ON
					day.TotalIndirectN2O += n2o
					day.FieldIndirectN2O[f.Name] += n2o
					r.LandAppliedManureIndirectN2O += n2o
					r.LandAppliedManureNH3 += e.AmmoniaN * soilcn.NH3NToNH3
				}
			}
		}
	}
	for _, f := range fields {
		for _, r := range f.Years {
			r.SetManureDiagnostics(diags[r]...)
		}
	}
}
