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

package soilcn_test

import (
	"context"
	"fmt"
	"io/ioutil"
	"math"
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/cropdata"
	"github.com/spatialmodel/soilcn/science/carbon/icbm"
	"github.com/spatialmodel/soilcn/science/nitrogen/icbmn"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func testField(name string, nYears int) *soilcn.Field {
	f := &soilcn.Field{
		Name:     name,
		Defaults: soilcn.DefaultFarmDefaults(),
		Engines:  []soilcn.PoolEngine{icbm.Engine{}, icbmn.Engine{}},
		InitFuncs: []soilcn.FieldManipulator{
			soilcn.FillCropDefaults(cropdata.Default()),
			soilcn.ManureInputs(),
		},
		Log: quietLogger(),
	}
	for i := 0; i < nYears; i++ {
		f.Years = append(f.Years, &soilcn.YearRecord{
			Year:                     1990 + i,
			CropType:                 "Wheat",
			Area:                     40,
			Yield:                    2500 + 100*float64(i%3),
			NitrogenContentInProduct: 0.021,
			ClimateParameter:         1.05,
			ManagementFactor:         1,
			OrganicNitrogenApplied:   200,
			ManureCarbonInput:        150,
			ManureApplications: []soilcn.ManureApplication{{
				Date:             time.Date(1990+i, time.May, 10, 0, 0, 0, 0, time.UTC),
				State:            soilcn.Solid,
				Method:           soilcn.Incorporated,
				AmountPerHectare: 20,
				NitrogenContent:  0.6,
			}},
		})
	}
	return f
}

func TestRun(t *testing.T) {
	f := testField("north", 6)
	if f.Status() != soilcn.Uninitialized {
		t.Errorf("status before running: %v", f.Status())
	}
	if err := f.Simulate(); err != nil {
		t.Fatal(err)
	}
	if f.Status() != soilcn.YearClosed {
		t.Errorf("status after running: %v", f.Status())
	}
	for i, r := range f.Years {
		if r.Index != i {
			t.Errorf("year %d: index %d", r.Year, r.Index)
		}
		if r.HasDiagnostic(soilcn.BalanceMismatch) || r.HasDiagnostic(soilcn.NumericDegeneracy) {
			t.Errorf("year %d: unexpected diagnostics %v", r.Year, r.Diagnostics)
		}
		if !(r.SoilCarbon > 0) || math.IsNaN(r.TotalN2O) || !(r.TotalN2O > 0) {
			t.Errorf("year %d: soil carbon %g, N2O %g", r.Year, r.SoilCarbon, r.TotalN2O)
		}
		if !(r.MineralPool > 0) || r.MineralPoolAfterAdjustment > r.MineralPool {
			t.Errorf("year %d: mineral pool %g, after adjustment %g", r.Year, r.MineralPool, r.MineralPoolAfterAdjustment)
		}
		if r.ManureResidueNitrogen != 12 {
			t.Errorf("year %d: manure residue nitrogen %g", r.Year, r.ManureResidueNitrogen)
		}
		if i > 0 && r.ChangeInSoilCarbon != r.SoilCarbon-f.Years[i-1].SoilCarbon {
			t.Errorf("year %d: change in soil carbon %g", r.Year, r.ChangeInSoilCarbon)
		}
	}
}

// Running a closed field again gives exactly the same results.
func TestRunIdempotent(t *testing.T) {
	f := testField("south", 5)
	if err := f.Simulate(); err != nil {
		t.Fatal(err)
	}
	first := make([]soilcn.YearRecord, len(f.Years))
	for i, r := range f.Years {
		first[i] = *r
	}
	if err := f.Run(); err != nil {
		t.Fatal(err)
	}
	for i, r := range f.Years {
		if diff := pretty.Diff(first[i], *r); len(diff) > 0 {
			t.Errorf("year %d changed on the second run: %v", r.Year, diff)
		}
	}
}

func TestRunLookupFailure(t *testing.T) {
	f := testField("east", 2)
	f.Years[1].CropType = "Moonflower"
	if err := f.Simulate(); err != nil {
		t.Fatal(err)
	}
	if !f.Years[1].HasDiagnostic(soilcn.LookupFailure) {
		t.Errorf("want a LookupFailure diagnostic, have %v", f.Years[1].Diagnostics)
	}
	if f.Years[0].HasDiagnostic(soilcn.LookupFailure) {
		t.Errorf("unexpected diagnostics %v", f.Years[0].Diagnostics)
	}
	// The diagnostic survives re-running.
	if err := f.Run(); err != nil {
		t.Fatal(err)
	}
	if !f.Years[1].HasDiagnostic(soilcn.LookupFailure) {
		t.Error("LookupFailure lost on the second run")
	}
}

func TestRunShapeErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(f *soilcn.Field)
	}{
		{"no years", func(f *soilcn.Field) { f.Years = nil }},
		{"no defaults", func(f *soilcn.Field) { f.Defaults = nil }},
		{"gap", func(f *soilcn.Field) { f.Years[2].Year += 1 }},
		{"nil record", func(f *soilcn.Field) { f.Years[1] = nil }},
		{"zero area", func(f *soilcn.Field) { f.Years[0].Area = 0 }},
		{"bad climate", func(f *soilcn.Field) { f.Climate = &soilcn.ClimateContext{} }},
	} {
		f := testField(test.name, 3)
		test.modify(f)
		if err := f.Run(); err == nil {
			t.Errorf("%s: want an error", test.name)
		}
	}
}

// A budget that does not close is recorded, and the year still closes.
func TestRunBalanceMismatch(t *testing.T) {
	f := testField("west", 3)
	f.Defaults.FractionVolatilizedMineral = 2
	if err := f.Simulate(); err != nil {
		t.Fatal(err)
	}
	if !f.Years[0].HasDiagnostic(soilcn.BalanceMismatch) {
		t.Errorf("want a BalanceMismatch diagnostic, have %v", f.Years[0].Diagnostics)
	}
	if f.Status() != soilcn.YearClosed {
		t.Errorf("status: %v", f.Status())
	}
	if !(f.Years[2].SoilCarbon > 0) {
		t.Error("later years should still be simulated")
	}
}

func TestRunFields(t *testing.T) {
	var fields []*soilcn.Field
	for i := 0; i < 7; i++ {
		fields = append(fields, testField(fmt.Sprintf("field%d", i), 4))
	}
	if err := soilcn.RunFields(context.Background(), 3, fields...); err != nil {
		t.Fatal(err)
	}
	serial := testField("serial", 4)
	if err := serial.Simulate(); err != nil {
		t.Fatal(err)
	}
	for _, f := range fields {
		if f.Status() != soilcn.YearClosed {
			t.Errorf("%s: status %v", f.Name, f.Status())
		}
		last, want := f.Years[3], serial.Years[3]
		if last.SoilCarbon != want.SoilCarbon || last.TotalN2O != want.TotalN2O {
			t.Errorf("%s: parallel and serial results differ", f.Name)
		}
	}

	bad := testField("bad", 2)
	bad.Years = nil
	if err := soilcn.RunFields(context.Background(), 2, testField("ok", 2), bad); err == nil {
		t.Error("want an error from the bad field")
	}
}

func TestRunFieldsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := soilcn.RunFields(ctx, 2, testField("a", 2), testField("b", 2)); err != context.Canceled {
		t.Errorf("want context.Canceled, have %v", err)
	}
}

// blockingEngine waits until its channel is closed.
type blockingEngine struct{ wait chan struct{} }

func (e blockingEngine) SetStartState(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	<-e.wait
	return s, nil
}
func (e blockingEngine) AdjustPool(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	return s, nil
}
func (e blockingEngine) Close(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	return s, nil
}

func TestRunFieldsDeadline(t *testing.T) {
	wait := make(chan struct{})
	defer close(wait)
	f := testField("slow", 2)
	f.Engines = append(f.Engines, blockingEngine{wait: wait})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := soilcn.RunFields(ctx, 1, f); err != context.DeadlineExceeded {
		t.Errorf("want context.DeadlineExceeded, have %v", err)
	}
}

type failingEngine struct{}

func (failingEngine) SetStartState(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	return s, fmt.Errorf("failed")
}
func (failingEngine) AdjustPool(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	return s, nil
}
func (failingEngine) Close(s soilcn.SimulationState, y soilcn.Year) (soilcn.SimulationState, error) {
	return s, nil
}

func TestRunEngineError(t *testing.T) {
	f := testField("failing", 2)
	f.Engines = []soilcn.PoolEngine{failingEngine{}}
	if err := f.Run(); err == nil {
		t.Error("want the engine error")
	}
	if f.Status() != soilcn.YearInProgress {
		t.Errorf("status: %v", f.Status())
	}
}

// Time spent waiting before the field starts is not counted.
func TestLogWalltime(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	f := testField("queued", 2)
	f.Log = log
	f.CleanupFuncs = []soilcn.FieldManipulator{soilcn.Log()}
	const wait = 200 * time.Millisecond
	time.Sleep(wait)
	if err := f.Simulate(); err != nil {
		t.Fatal(err)
	}
	e := hook.LastEntry()
	if e == nil || e.Message != "field simulation complete" {
		t.Fatalf("last log entry: %v", e)
	}
	d, err := time.ParseDuration(e.Data["walltime"].(string))
	if err != nil {
		t.Fatal(err)
	}
	if d >= wait {
		t.Errorf("walltime %v includes the time before the field started", d)
	}
}
