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
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/cropdata"
)

func quietLogger() (*logrus.Logger, *bytes.Buffer) {
	l := logrus.New()
	b := new(bytes.Buffer)
	l.Out = b
	return l, b
}

func readTestFarm(t *testing.T) *Farm {
	f, err := os.Open("testdata/farm.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	log, _ := quietLogger()
	farm, err := ReadFarm(f, log)
	if err != nil {
		t.Fatal(err)
	}
	return farm
}

func TestReadFarm(t *testing.T) {
	farm := readTestFarm(t)
	if len(farm.Fields) != 3 {
		t.Fatalf("have %d fields", len(farm.Fields))
	}
	if len(farm.Days) != 2 || farm.Days[0].TotalVolume != 2000 {
		t.Errorf("days: %+v", farm.Days)
	}
	north := farm.Fields[0]
	if north.Name != "north" || len(north.Years) != 3 {
		t.Fatalf("north: %+v", north)
	}
	r := north.Years[1]
	if r.Year != 1991 || r.CropType != "Wheat" || r.Area != 40 || r.Yield != 2600 {
		t.Errorf("year record: %+v", r)
	}
	if len(r.ManureApplications) != 1 {
		t.Fatalf("manure applications: %+v", r.ManureApplications)
	}
	app := r.ManureApplications[0]
	if app.State != soilcn.Solid || app.Method != soilcn.Incorporated || app.Date.Year() != 1991 {
		t.Errorf("manure application: %+v", app)
	}
	if err := farm.Climate.Check(); err != nil {
		t.Error(err)
	}
	// Values not in the file keep their defaults.
	want := soilcn.DefaultFarmDefaults()
	if farm.Defaults.DecompositionRateConstantYoungPool != want.DecompositionRateConstantYoungPool {
		t.Errorf("young pool rate constant %g", farm.Defaults.DecompositionRateConstantYoungPool)
	}
}

func TestReadFarmUndecoded(t *testing.T) {
	log, buf := quietLogger()
	_, err := ReadFarm(strings.NewReader(`
Colour = "green"
[[Fields]]
Name = "a"
`), log)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Colour") {
		t.Errorf("unused variable not logged: %s", buf.String())
	}
}

func TestReadFarmErrors(t *testing.T) {
	for name, farm := range map[string]string{
		"syntax":    "[[Fields]\n",
		"no fields": "[Defaults]\nMicrobeDeath = 0.1\n",
		"no name":   "[[Fields]]\n[[Fields.Years]]\nYear = 1990\n",
		"duplicate": "[[Fields]]\nName = \"a\"\n[[Fields]]\nName = \"a\"\n",
	} {
		log, _ := quietLogger()
		if _, err := ReadFarm(strings.NewReader(farm), log); err == nil {
			t.Errorf("%s: want an error", name)
		}
	}
}

func TestSimulations(t *testing.T) {
	farm := readTestFarm(t)
	farm.Fields[2].Climate = &soilcn.ClimateContext{}
	log, _ := quietLogger()
	fields := farm.Simulations(cropdata.Default(), log)
	if len(fields) != 3 {
		t.Fatalf("have %d fields", len(fields))
	}
	if fields[0].Climate != farm.Climate || fields[2].Climate != farm.Fields[2].Climate {
		t.Error("field climate override not applied")
	}
	if fields[0].Defaults != farm.Defaults {
		t.Error("fields should share the farm defaults")
	}
	if err := fields[0].Simulate(); err != nil {
		t.Fatal(err)
	}
	if r := fields[0].Years[0]; r.ManureResidueNitrogen != 12 || !(r.SoilCarbon > 0) {
		t.Errorf("year record: %+v", r)
	}
}

func TestReadCropTable(t *testing.T) {
	tbl, err := readCropTable("")
	if err != nil {
		t.Fatal(err)
	}
	if tbl != cropdata.Default() {
		t.Error("an empty path should give the default table")
	}
	f, err := ioutil.TempFile("", "crops")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString("crop,intercept,slope,rs,n,lignin,moisture\nWheat,0.52,1.51,0.24,0.006,0.053,12\n")
	f.Close()
	tbl, err = readCropTable(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 1 {
		t.Errorf("have %d crops", tbl.Len())
	}
	if _, err := readCropTable("missing.csv"); err == nil {
		t.Error("want an error for a missing file")
	}
}
