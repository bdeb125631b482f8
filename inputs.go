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

	"github.com/spatialmodel/soilcn/cropdata"
)

// FillCropDefaults returns a function that fills in crop parameters
// missing from the year records using table t. Nitrogen concentrations
// and moisture content are filled when zero. If a record has a yield but
// no carbon inputs, the carbon inputs are estimated from the yield.
// Crops missing from the table get LookupFailure diagnostics and keep
// their zero values. The diagnostics are attached to the records each
// time the year is simulated.
func FillCropDefaults(t *cropdata.Table) FieldManipulator {
	return func(f *Field) error {
		if f.Defaults == nil {
			return fmt.Errorf("soilcn: field %s has no farm defaults", f.Name)
		}
		cc := f.Defaults.CarbonConcentration
		for _, r := range f.Years {
			r.inputDiagnostics = nil
			c, ok := t.Lookup(r.CropType)
			if !ok {
				r.inputDiagnostics = append(r.inputDiagnostics, Diagnostic{
					Kind:    LookupFailure,
					Message: fmt.Sprintf("no crop parameters for %q; using zero values", r.CropType),
				})
				continue
			}
			fill(&r.NitrogenContentInStraw, c.NitrogenContent)
			fill(&r.NitrogenContentInRoots, c.NitrogenContent)
			fill(&r.NitrogenContentInExtraroot, c.NitrogenContent)
			fill(&r.MoistureContentOfCrop, c.MoistureContent/100)

			if r.Yield > 0 && r.CarbonInputFromProduct == 0 && r.CarbonInputFromStraw == 0 &&
				r.CarbonInputFromRoots == 0 && r.CarbonInputFromExtraroots == 0 {
				rc := c.ResidueCarbon(r.Yield, cc)
				r.CarbonInputFromProduct = rc.Product
				r.CarbonInputFromStraw = rc.Straw
				r.CarbonInputFromRoots = rc.Roots
				r.CarbonInputFromExtraroots = rc.Extraroots
			}
		}
		return nil
	}
}

func fill(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

// ManureInputs returns a function that sets the manure residue nitrogen
// of each year record to the nitrogen applied in its manure
// applications [kg N/ha].
func ManureInputs() FieldManipulator {
	return func(f *Field) error {
		for _, r := range f.Years {
			if len(r.ManureApplications) == 0 {
				continue
			}
			var n float64
			for _, a := range r.ManureApplications {
				n += a.AmountPerHectare * a.NitrogenContent
			}
			r.ManureResidueNitrogen = n
		}
		return nil
	}
}
