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

package cropdata

import (
	"strings"
	"sync"
)

// defaultTable holds IPCC (2019) Tier 2 default residue parameters.
const defaultTable = `Crop,Intercept,Slope,RootShootRatio,NitrogenContent,LigninContent,MoistureContent
Wheat,0.52,1.51,0.24,0.006,0.053,12
Durum,0.52,1.51,0.24,0.006,0.053,12
Barley,0.59,0.98,0.22,0.007,0.046,12
Oats,0.89,0.91,0.25,0.007,0.049,12
Rye,0.88,1.09,0.22,0.005,0.054,12
Triticale,0.88,1.09,0.22,0.006,0.054,12
GrainCorn,0.61,1.03,0.22,0.006,0.053,15.5
SilageCorn,0.61,1.03,0.22,0.006,0.053,65
Soybeans,1.35,0.93,0.19,0.008,0.085,13
DryFieldPeas,0.85,1.13,0.19,0.008,0.084,13
Lentils,0.85,1.13,0.19,0.008,0.084,13
Beans,0.85,1.13,0.19,0.008,0.084,13
FlaxSeed,0.88,1.09,0.22,0.005,0.087,9
Canola,0.88,1.09,0.22,0.008,0.071,8.5
Potatoes,1.06,0.10,0.20,0.019,0.073,80
TameGrass,0,0.30,0.80,0.015,0.070,0
`

var (
	defaultOnce sync.Once
	defaultTbl  *Table
)

// Default returns the built-in crop parameter table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := ReadTable(strings.NewReader(defaultTable))
		if err != nil {
			panic(err)
		}
		defaultTbl = t
	})
	return defaultTbl
}
