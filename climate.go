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
	"time"

	"gonum.org/v1/gonum/floats"
)

// Period is a month of the year.
type Period int

// These are the months of the year.
const (
	Jan Period = iota
	Feb
	Mar
	Apr
	May
	Jun
	Jul
	Aug
	Sep
	Oct
	Nov
	Dec
)

func (p Period) String() string {
	switch p {
	case Jan:
		return "Jan"
	case Feb:
		return "Feb"
	case Mar:
		return "Mar"
	case Apr:
		return "Apr"
	case May:
		return "May"
	case Jun:
		return "Jun"
	case Jul:
		return "Jul"
	case Aug:
		return "Aug"
	case Sep:
		return "Sep"
	case Oct:
		return "Oct"
	case Nov:
		return "Nov"
	case Dec:
		return "Dec"
	default:
		panic(fmt.Sprintf("unknown period: %d", int(p)))
	}
}

// PeriodFromDate returns the period that t falls in.
func PeriodFromDate(t time.Time) Period {
	return Period(t.Month() - time.January)
}

// growingSeason holds the months from May through October.
var growingSeason = []Period{May, Jun, Jul, Aug, Sep, Oct}

// ClimateContext holds the monthly climate normals for a field.
// Each slice has one value per Period.
type ClimateContext struct {
	Precipitation      []float64 // mm
	Temperature        []float64 // °C
	Evapotranspiration []float64 // mm, potential
}

// Check returns an error if c does not have one value for each month.
func (c *ClimateContext) Check() error {
	for name, v := range map[string][]float64{
		"Precipitation":      c.Precipitation,
		"Temperature":        c.Temperature,
		"Evapotranspiration": c.Evapotranspiration,
	} {
		if len(v) != 12 {
			return fmt.Errorf("soilcn: climate %s has %d values but needs 12", name, len(v))
		}
	}
	return nil
}

// Month returns the precipitation, temperature and potential
// evapotranspiration for month p.
func (c *ClimateContext) Month(p Period) (precip, temp, pet float64) {
	return c.Precipitation[p], c.Temperature[p], c.Evapotranspiration[p]
}

// GrowingSeasonPrecipitation returns the May–October precipitation [mm].
func (c *ClimateContext) GrowingSeasonPrecipitation() float64 {
	return seasonSum(c.Precipitation)
}

// GrowingSeasonEvapotranspiration returns the May–October potential
// evapotranspiration [mm].
func (c *ClimateContext) GrowingSeasonEvapotranspiration() float64 {
	return seasonSum(c.Evapotranspiration)
}

// AnnualPrecipitation returns the total precipitation [mm].
func (c *ClimateContext) AnnualPrecipitation() float64 {
	return floats.Sum(c.Precipitation)
}

func seasonSum(v []float64) float64 {
	s := make([]float64, len(growingSeason))
	for i, p := range growingSeason {
		s[i] = v[p]
	}
	return floats.Sum(s)
}
