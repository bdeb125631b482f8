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

package soilcnutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/cloud"
	"github.com/spatialmodel/soilcn/cropdata"
	"github.com/spatialmodel/soilcn/science/carbon/icbm"
	"github.com/spatialmodel/soilcn/science/nitrogen/icbmn"
)

// Farm holds the inputs for all fields on a farm, as read from a
// TOML farm file. Values in the file that are written as numbers
// must include a decimal point when the corresponding variable is
// a floating point value (e.g., Area = 40.0).
type Farm struct {
	// Defaults are the farm-wide parameters. Parameters that are not
	// given in the file keep their published default values.
	Defaults *soilcn.FarmDefaults

	// Climate is the farm climate. It may be overridden for
	// individual fields.
	Climate *soilcn.ClimateContext

	Fields []FieldConfig

	// Days are the days that manure is available for land
	// application.
	Days []*soilcn.DailyEmissionRecord
}

// FieldConfig holds the inputs for one field.
type FieldConfig struct {
	Name    string
	Climate *soilcn.ClimateContext
	Years   []*soilcn.YearRecord
}

// ReadFarm reads a farm from TOML-formatted data in r. Keys in the
// file that do not match any farm variable are logged as warnings.
func ReadFarm(r io.Reader, log logrus.FieldLogger) (*Farm, error) {
	farm := &Farm{Defaults: soilcn.DefaultFarmDefaults()}
	md, err := toml.DecodeReader(r, farm)
	if err != nil {
		return nil, fmt.Errorf("soilcnutil: reading farm file: %v", err)
	}
	for _, k := range md.Undecoded() {
		log.WithField("key", k.String()).Warn("unused farm file variable")
	}
	if len(farm.Fields) == 0 {
		return nil, fmt.Errorf("soilcnutil: farm file contains no fields")
	}
	names := make(map[string]struct{})
	for i, f := range farm.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("soilcnutil: field %d has no name", i)
		}
		if _, ok := names[f.Name]; ok {
			return nil, fmt.Errorf("soilcnutil: duplicate field name %s", f.Name)
		}
		names[f.Name] = struct{}{}
	}
	return farm, nil
}

// openFarm reads the farm file at path, which may be a local file or
// a blob storage location.
func openFarm(ctx context.Context, path string, log logrus.FieldLogger) (*Farm, error) {
	if cloud.IsBlob(path) {
		b, err := cloud.ReadBlob(ctx, path)
		if err != nil {
			return nil, err
		}
		return ReadFarm(bytes.NewReader(b), log)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("soilcnutil: opening farm file: %v", err)
	}
	defer f.Close()
	return ReadFarm(f, log)
}

// readCropTable reads the crop parameter table at path, or returns
// the default table if path is empty.
func readCropTable(path string) (*cropdata.Table, error) {
	if path == "" {
		return cropdata.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("soilcnutil: opening crop table: %v", err)
	}
	defer f.Close()
	return cropdata.ReadTable(f)
}

// Simulations converts the farm into fields ready to be simulated
// with the carbon and nitrogen engines. Crop defaults are filled in
// from crops and manure nitrogen is derived from the manure
// applications before the first year. Any additional init functions
// are run after those.
func (farm *Farm) Simulations(crops *cropdata.Table, log logrus.FieldLogger, init ...soilcn.FieldManipulator) []*soilcn.Field {
	fields := make([]*soilcn.Field, len(farm.Fields))
	for i, fc := range farm.Fields {
		climate := farm.Climate
		if fc.Climate != nil {
			climate = fc.Climate
		}
		fields[i] = &soilcn.Field{
			Name:     fc.Name,
			Years:    fc.Years,
			Defaults: farm.Defaults,
			Climate:  climate,
			Engines:  []soilcn.PoolEngine{icbm.Engine{}, icbmn.Engine{}},
			InitFuncs: append([]soilcn.FieldManipulator{
				soilcn.FillCropDefaults(crops),
				soilcn.ManureInputs(),
			}, init...),
			CleanupFuncs: []soilcn.FieldManipulator{soilcn.Log()},
			Log:          log.WithField("field", fc.Name),
		}
	}
	return fields
}
