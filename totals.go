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

import (
	"fmt"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/unit"
)

const m2PerHectare = 1.e4

var kilogramPerMeter2 = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2}

// FarmTotal holds whole-farm totals for one year. All values are masses.
type FarmTotal struct {
	Year int

	SoilCarbon *unit.Unit
	N2O        *unit.Unit
	NO         *unit.Unit
	NO3        *unit.Unit
	NH3        *unit.Unit

	// ManureN2O and ManureNH3 are the emissions from land-applied manure.
	ManureN2O *unit.Unit
	ManureNH3 *unit.Unit
}

// perHectare converts a per-hectare value on area hectares to a mass.
func perHectare(v, area float64) *unit.Unit {
	return unit.Mul(unit.New(v/m2PerHectare, kilogramPerMeter2), unit.New(area*m2PerHectare, unit.Meter2))
}

// FarmTotals sums the per-hectare results of the given fields over
// their areas, by year, in ascending year order.
func FarmTotals(fields ...*Field) ([]FarmTotal, error) {
	byYear := make(map[int]*FarmTotal)
	for _, f := range fields {
		for _, r := range f.Years {
			t, ok := byYear[r.Year]
			if !ok {
				t = &FarmTotal{
					Year:       r.Year,
					SoilCarbon: unit.New(0, unit.Kilogram),
					N2O:        unit.New(0, unit.Kilogram),
					NO:         unit.New(0, unit.Kilogram),
					NO3:        unit.New(0, unit.Kilogram),
					NH3:        unit.New(0, unit.Kilogram),
					ManureN2O:  unit.New(0, unit.Kilogram),
					ManureNH3:  unit.New(0, unit.Kilogram),
				}
				byYear[r.Year] = t
			}
			for _, v := range []struct {
				total *unit.Unit
				add   *unit.Unit
			}{
				{t.SoilCarbon, perHectare(r.SoilCarbon, r.Area)},
				{t.N2O, perHectare(r.TotalN2O, r.Area)},
				{t.NO, perHectare(r.TotalNO, r.Area)},
				{t.NO3, perHectare(r.TotalNO3, r.Area)},
				{t.NH3, perHectare(r.TotalNH3, r.Area)},
				{t.ManureN2O, unit.New(r.LandAppliedManureIndirectN2O, unit.Kilogram)},
				{t.ManureNH3, unit.New(r.LandAppliedManureNH3, unit.Kilogram)},
			} {
				if err := v.add.Check(unit.Kilogram); err != nil {
					return nil, fmt.Errorf("soilcn: field %s year %d: %v", f.Name, r.Year, err)
				}
				v.total.Add(v.add)
			}
		}
	}
	o := make([]FarmTotal, 0, len(byYear))
	for _, t := range byYear {
		o = append(o, *t)
	}
	sort.Slice(o, func(i, j int) bool { return o[i].Year < o[j].Year })
	return o, nil
}

// CarbonTrend fits a line to the soil carbon of f against year and
// returns its slope [kg C/ha/year] and coefficient of determination.
// At least two years are required.
func CarbonTrend(f *Field) (slope, rsquared float64, err error) {
	if len(f.Years) < 2 {
		return 0, 0, fmt.Errorf("soilcn: field %s needs at least 2 years for a carbon trend but has %d", f.Name, len(f.Years))
	}
	x := make([]float64, len(f.Years))
	y := make([]float64, len(f.Years))
	for i, r := range f.Years {
		x[i] = float64(r.Year)
		y[i] = r.SoilCarbon
	}
	slope, _, rsquared, _, _, _ = stats.LinearRegression(x, y)
	return slope, rsquared, nil
}
