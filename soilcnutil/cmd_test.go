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
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/soilcn/cloud"
	"github.com/tealeg/xlsx"
)

func TestVersion(t *testing.T) {
	var b bytes.Buffer
	Root.SetOutput(&b)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(b.String(), "soilcn v") {
		t.Errorf("have %q", b.String())
	}
}

func setRunConfig(outputFile, plotDir string) {
	Cfg.Set("config", "")
	Cfg.Set("FarmFile", "testdata/farm.toml")
	Cfg.Set("OutputFile", outputFile)
	Cfg.Set("LogFile", "")
	Cfg.Set("PlotDir", plotDir)
	Cfg.Set("CacheSize", 10)
	Cfg.Set("NumProcessors", 2)
	Cfg.Set("Timeout", "1m")
}

func TestRunCommand(t *testing.T) {
	dir, err := ioutil.TempDir("", "soilcn")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	setRunConfig(filepath.Join(dir, "results.xls"), dir)

	var b bytes.Buffer
	Root.SetOutput(&b)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"run"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	for _, f := range []string{"results.xlsx", "results.log", "north.png", "south.png", "east.png"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Error(err)
		}
	}
	f, err := xlsx.OpenFile(filepath.Join(dir, "results.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	s, ok := f.Sheet["Results"]
	if !ok {
		t.Fatal("missing Results sheet")
	}
	// One header row and one row per field and year.
	if len(s.Rows) != 10 {
		t.Errorf("have %d rows", len(s.Rows))
	}
	if len(f.Sheet["Manure"].Rows) != 3 {
		t.Errorf("have %d manure rows", len(f.Sheet["Manure"].Rows))
	}
	log, err := ioutil.ReadFile(filepath.Join(dir, "results.log"))
	if err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"field cache", "farm total", "simulation complete"} {
		if !strings.Contains(string(log), msg) {
			t.Errorf("log is missing %q", msg)
		}
	}
}

func TestRunCommandBlob(t *testing.T) {
	const bucketDir = "testbucket"
	if err := os.Mkdir(bucketDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucketDir)
	setRunConfig("file://"+bucketDir+"/results.xlsx", "")
	Cfg.Set("CacheSize", 0)

	Root.SetOutput(ioutil.Discard)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"run"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	b, err := cloud.ReadBlob(ctx, "file://"+bucketDir+"/results.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xlsx.OpenBinary(b); err != nil {
		t.Error(err)
	}
	if _, err := cloud.ReadBlob(ctx, "file://"+bucketDir+"/results.log"); err != nil {
		t.Error(err)
	}
}

func TestCheckOutputVars(t *testing.T) {
	os.Setenv("SOILCN_TEST_VAR", "SoilCarbon")
	defer os.Unsetenv("SOILCN_TEST_VAR")
	vars, err := checkOutputVars(map[string]string{"C": "${SOILCN_TEST_VAR} *\n2"})
	if err != nil {
		t.Fatal(err)
	}
	if vars["C"] != "SoilCarbon * 2" {
		t.Errorf("have %q", vars["C"])
	}
	if _, err := checkOutputVars(nil); err == nil {
		t.Error("want an error for no variables")
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("want an error for an empty path")
	}
	if _, err := checkOutputFile("missingdir/out.xlsx"); err == nil {
		t.Error("want an error for a missing directory")
	}
	if f, err := checkOutputFile("out.xlsx"); err != nil || f != "out.xlsx" {
		t.Errorf("have %s, %v", f, err)
	}
}

func TestCheckLogFile(t *testing.T) {
	if f := checkLogFile("", "dir/out.xlsx"); f != "dir/out.log" {
		t.Errorf("have %s", f)
	}
	if f := checkLogFile("run.log", "dir/out.xlsx"); f != "run.log" {
		t.Errorf("have %s", f)
	}
}

func TestPlotFile(t *testing.T) {
	for _, test := range []struct {
		dir, field, want string
	}{
		{"", "north", ""},
		{"plots", "north field", filepath.Join("plots", "north_field.png")},
		{"s3://bucket/plots/", "a/b", "s3://bucket/plots/a_b.png"},
	} {
		if f := plotFile(test.dir, test.field); f != test.want {
			t.Errorf("%s %s: have %s, want %s", test.dir, test.field, f, test.want)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	if d, err := parseTimeout("90s"); err != nil || d != 90*time.Second {
		t.Errorf("have %v, %v", d, err)
	}
	if _, err := parseTimeout("-1s"); err == nil {
		t.Error("want an error for a negative timeout")
	}
	if _, err := parseTimeout("soon"); err == nil {
		t.Error("want an error for an invalid timeout")
	}
}

func TestGetStringMapString(t *testing.T) {
	want := map[string]string{"SoilCarbon": "SoilCarbon"}
	cfg := viper.New()
	for _, v := range []interface{}{
		want,
		map[string]interface{}{"SoilCarbon": "SoilCarbon"},
		`{"SoilCarbon": "SoilCarbon"}`,
	} {
		cfg.Set("vars", v)
		have, err := GetStringMapString("vars", cfg)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(have, want) {
			t.Errorf("%#v: have %v", v, have)
		}
	}
	cfg.Set("vars", 5)
	if _, err := GetStringMapString("vars", cfg); err == nil {
		t.Error("want an error for an invalid type")
	}
	cfg.Set("vars", "{")
	if _, err := GetStringMapString("vars", cfg); err == nil {
		t.Error("want an error for invalid json")
	}
}
