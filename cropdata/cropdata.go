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

// Package cropdata holds default residue parameters for crops used by the
// steady-state soil carbon method: the above-ground residue regression,
// root:shoot ratio, residue nitrogen and lignin contents, and product
// moisture content.
package cropdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Crop holds the residue parameters for one crop type.
type Crop struct {
	Type string

	// Intercept [t dry matter/ha] and Slope [-] of the regression of
	// above-ground residue on dry matter yield.
	Intercept, Slope float64

	// RootShootRatio is the ratio of below-ground to above-ground biomass.
	RootShootRatio float64

	// NitrogenContent and LigninContent are fractions of residue dry matter.
	NitrogenContent, LigninContent float64

	// MoistureContent is the moisture content of the harvested product [%].
	MoistureContent float64
}

// Table holds crop parameters indexed by crop type.
type Table struct {
	crops map[string]Crop
}

// aliases map crop types to the crop whose parameters they share.
var aliases = map[string]string{
	"Flax":      "FlaxSeed",
	"FieldPeas": "DryFieldPeas",
}

// Fallow is the crop type for land left unplanted; all of its parameters
// are zero.
const Fallow = "Fallow"

// Lookup returns the parameters for cropType. Fallow returns zero
// values and ok == true. If cropType is not in the table, zero values and
// ok == false are returned.
func (t *Table) Lookup(cropType string) (c Crop, ok bool) {
	if cropType == Fallow {
		return Crop{Type: Fallow}, true
	}
	key := cropType
	if a, ok := aliases[cropType]; ok {
		key = a
	}
	c, ok = t.crops[key]
	return c, ok
}

// Len returns the number of crops in the table.
func (t *Table) Len() int { return len(t.crops) }

// ReadTable reads a crop parameter table from CSV. The first line is a
// header; each following line holds the crop type, intercept, slope,
// root:shoot ratio, nitrogen content, lignin content and moisture
// content. Blank lines are skipped.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cropdata: reading table: %v", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("cropdata: empty table")
	}
	t := &Table{crops: make(map[string]Crop)}
	for i, line := range lines[1:] {
		if blank(line) {
			continue
		}
		if len(line) < 7 {
			return nil, fmt.Errorf("cropdata: line %d: want 7 columns but have %d", i+2, len(line))
		}
		var v [6]float64
		for j := range v {
			if v[j], err = strconv.ParseFloat(strings.TrimSpace(line[j+1]), 64); err != nil {
				return nil, fmt.Errorf("cropdata: line %d: %v", i+2, err)
			}
		}
		c := Crop{
			Type:            strings.TrimSpace(line[0]),
			Intercept:       v[0],
			Slope:           v[1],
			RootShootRatio:  v[2],
			NitrogenContent: v[3],
			LigninContent:   v[4],
			MoistureContent: v[5],
		}
		if _, ok := t.crops[c.Type]; ok {
			return nil, fmt.Errorf("cropdata: line %d: duplicate crop type %s", i+2, c.Type)
		}
		t.crops[c.Type] = c
	}
	return t, nil
}

func blank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ResidueCarbon holds the carbon inputs estimated from a crop yield
// [kg C/ha].
type ResidueCarbon struct {
	Product, Straw, Roots, Extraroots float64
}

// ResidueCarbon estimates the carbon in the product, above-ground
// residue and roots of the crop from the dry matter yield [kg/ha], where
// cc is the carbon concentration of dry matter. Above-ground residue is
// yield·Slope + Intercept; roots are RootShootRatio times the total
// above-ground biomass. Extra-root material is not estimated.
func (c Crop) ResidueCarbon(yield, cc float64) ResidueCarbon {
	if yield <= 0 {
		return ResidueCarbon{}
	}
	const kgPerTonne = 1000.
	straw := (yield/kgPerTonne*c.Slope + c.Intercept) * kgPerTonne
	roots := (straw + yield) * c.RootShootRatio
	return ResidueCarbon{
		Product: yield * cc,
		Straw:   straw * cc,
		Roots:   roots * cc,
	}
}
