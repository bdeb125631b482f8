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
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RunStatus is the state of the year-iteration driver.
type RunStatus int

// These are the driver states.
const (
	Uninitialized RunStatus = iota
	YearInProgress
	YearClosed
)

func (s RunStatus) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case YearInProgress:
		return "YearInProgress"
	case YearClosed:
		return "YearClosed"
	default:
		panic(fmt.Sprintf("unknown run status: %d", int(s)))
	}
}

// Status returns the driver state of the field.
func (f *Field) Status() RunStatus { return f.status }

func (f *Field) log() logrus.FieldLogger {
	if f.Log == nil {
		return logrus.StandardLogger()
	}
	return f.Log
}

// Init runs the initialization functions.
func (f *Field) Init() error {
	f.status = Uninitialized
	f.startTime = time.Now()
	for _, fn := range f.InitFuncs {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup runs the cleanup functions.
func (f *Field) Cleanup() error {
	for _, fn := range f.CleanupFuncs {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// checkShape returns an error if the field's inputs cannot be simulated.
func (f *Field) checkShape() error {
	if len(f.Years) == 0 {
		return fmt.Errorf("soilcn: field %s has no years to simulate", f.Name)
	}
	if f.Defaults == nil {
		return fmt.Errorf("soilcn: field %s has no farm defaults", f.Name)
	}
	if f.Climate != nil {
		if err := f.Climate.Check(); err != nil {
			return fmt.Errorf("soilcn: field %s: %v", f.Name, err)
		}
	}
	for i, r := range f.Years {
		if r == nil {
			return fmt.Errorf("soilcn: field %s: missing record for year index %d", f.Name, i)
		}
		if r.Area <= 0 {
			return fmt.Errorf("soilcn: field %s year %d: area must be positive but is %g", f.Name, r.Year, r.Area)
		}
		if i > 0 && r.Year != f.Years[i-1].Year+1 {
			return fmt.Errorf("soilcn: field %s: year %d follows year %d; missing previous-year record",
				f.Name, r.Year, f.Years[i-1].Year)
		}
	}
	return nil
}

// bind begins year i.
func (f *Field) bind(i int) Year {
	y := Year{
		Field:    f.Name,
		Current:  f.Years[i],
		Defaults: f.Defaults,
		Climate:  f.Climate,
	}
	if i > 0 {
		y.Previous = f.Years[i-1]
	}
	if i < len(f.Years)-1 {
		y.Next = f.Years[i+1]
	}
	y.Current.Index = i
	y.Current.Diagnostics = append([]Diagnostic(nil), y.Current.inputDiagnostics...)
	y.Current.Diagnostics = append(y.Current.Diagnostics, y.Current.manureDiagnostics...)
	f.status = YearInProgress
	return y
}

// Run simulates every year of the field in order. Recoverable problems
// are attached to the year records as diagnostics; an error is only
// returned if the inputs are malformed or an engine fails.
func (f *Field) Run() error {
	if err := f.checkShape(); err != nil {
		return err
	}
	for i := range f.Years {
		y := f.bind(i)
		if err := y.RequirePrevious(); err != nil {
			return err
		}
		s, err := f.runYear(y)
		if err != nil {
			return err
		}
		for _, p := range s.Negative() {
			s = s.Diagnose(BalanceMismatch, "%s pool is negative: %g", p, s.Value(p))
		}
		y.Current.Diagnostics = append(y.Current.Diagnostics, s.Diagnostics...)
		logDiagnostics(f.log(), f.Name, y.Current)
		f.status = YearClosed
	}
	return nil
}

// runYear runs the engines over one year.
func (f *Field) runYear(y Year) (SimulationState, error) {
	var s SimulationState
	var err error
	for _, e := range f.Engines {
		if s, err = e.SetStartState(s, y); err != nil {
			return s, err
		}
	}
	for _, e := range f.Engines {
		if s, err = e.AdjustPool(s, y); err != nil {
			return s, err
		}
	}
	for _, e := range f.Engines {
		if s, err = e.Close(s, y); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Simulate initializes, runs and cleans up f.
func (f *Field) Simulate() error {
	if err := f.Init(); err != nil {
		return err
	}
	if err := f.Run(); err != nil {
		return err
	}
	return f.Cleanup()
}

// Restore copies results from a previous simulation of a field with
// identical inputs into f and marks f as closed.
func (f *Field) Restore(results []YearRecord) error {
	if len(results) != len(f.Years) {
		return fmt.Errorf("soilcn: field %s has %d years but %d results were given",
			f.Name, len(f.Years), len(results))
	}
	for i, r := range results {
		if f.Years[i] == nil {
			f.Years[i] = new(YearRecord)
		}
		*f.Years[i] = r
		f.Years[i].Diagnostics = append([]Diagnostic(nil), r.Diagnostics...)
	}
	f.status = YearClosed
	return nil
}

// RunFields simulates the given fields concurrently using nprocs
// goroutines (or one per CPU if nprocs < 1). Fields share no pool state,
// so no synchronization is needed beyond waiting for the results. If ctx
// is done before all fields finish, ctx.Err() is returned and the results
// of fields still running should be discarded.
func RunFields(ctx context.Context, nprocs int, fields ...*Field) error {
	if nprocs < 1 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	errs := make([]error, len(fields))
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			for ii := pp; ii < len(fields); ii += nprocs {
				if ctx.Err() != nil {
					errs[ii] = ctx.Err()
					continue
				}
				errs[ii] = fields[ii].Simulate()
			}
			wg.Done()
		}(pp)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Log returns a FieldManipulator that writes a summary of the simulated
// years to the field's logger.
// The walltime is measured from when the field was initialized.
func Log() FieldManipulator {
	return func(f *Field) error {
		var walltime time.Duration
		if !f.startTime.IsZero() {
			walltime = time.Since(f.startTime)
		}
		last := f.Years[len(f.Years)-1]
		var nDiag int
		for _, r := range f.Years {
			nDiag += len(r.Diagnostics)
		}
		f.log().WithFields(logrus.Fields{
			"field":       f.Name,
			"years":       len(f.Years),
			"soilCarbon":  last.SoilCarbon,
			"totalN2O":    last.TotalN2O,
			"diagnostics": nDiag,
			"walltime":    walltime.String(),
		}).Info("field simulation complete")
		return nil
	}
}
