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
	"math"
	"strings"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestLookup(t *testing.T) {
	tbl := Default()
	if tbl.Len() != 16 {
		t.Errorf("have %d crops, want 16", tbl.Len())
	}
	for _, test := range []struct {
		crop   string
		ok     bool
		nitro  float64
		typ    string
		moistr float64
	}{
		{crop: "Wheat", ok: true, nitro: 0.006, typ: "Wheat", moistr: 12},
		{crop: "Flax", ok: true, nitro: 0.005, typ: "FlaxSeed", moistr: 9},
		{crop: "FieldPeas", ok: true, nitro: 0.008, typ: "DryFieldPeas", moistr: 13},
		{crop: "Fallow", ok: true, typ: "Fallow"},
		{crop: "Kumquat", ok: false},
	} {
		c, ok := tbl.Lookup(test.crop)
		if ok != test.ok {
			t.Errorf("%s: ok = %v, want %v", test.crop, ok, test.ok)
		}
		if c.NitrogenContent != test.nitro || c.Type != test.typ || c.MoistureContent != test.moistr {
			t.Errorf("%s: have %+v", test.crop, c)
		}
	}
	if c, _ := tbl.Lookup(Fallow); c.Slope != 0 || c.Intercept != 0 || c.RootShootRatio != 0 {
		t.Errorf("fallow should have zero parameters: %+v", c)
	}
}

func TestReadTable(t *testing.T) {
	const in = `Crop,Intercept,Slope,RootShootRatio,NitrogenContent,LigninContent,MoistureContent
Millet, 0.5, 1.4, 0.2, 0.007, 0.05, 11

,,,,,,
`
	tbl, err := ReadTable(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	c, ok := tbl.Lookup("Millet")
	if !ok {
		t.Fatal("Millet not found")
	}
	if c.Slope != 1.4 || c.MoistureContent != 11 {
		t.Errorf("have %+v", c)
	}
}

func TestReadTableErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"Crop,Intercept\nMillet,0.5\n",
		"Crop,a,b,c,d,e,f\nMillet,x,1,1,1,1,1\n",
		"Crop,a,b,c,d,e,f\nMillet,1,1,1,1,1,1\nMillet,1,1,1,1,1,1\n",
	} {
		if _, err := ReadTable(strings.NewReader(in)); err == nil {
			t.Errorf("want an error for %q", in)
		}
	}
}

func TestResidueCarbon(t *testing.T) {
	c, _ := Default().Lookup("Wheat")
	rc := c.ResidueCarbon(3000, 0.45)
	straw := (3*1.51 + 0.52) * 1000
	want := ResidueCarbon{
		Product: 3000 * 0.45,
		Straw:   straw * 0.45,
		Roots:   (straw + 3000) * 0.24 * 0.45,
	}
	if different(rc.Product, want.Product, 1.e-12) || different(rc.Straw, want.Straw, 1.e-12) ||
		different(rc.Roots, want.Roots, 1.e-12) || rc.Extraroots != 0 {
		t.Errorf("have %+v, want %+v", rc, want)
	}
	if zero := c.ResidueCarbon(0, 0.45); zero != (ResidueCarbon{}) {
		t.Errorf("no yield should give no residue: %+v", zero)
	}
}
