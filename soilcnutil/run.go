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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/science/emission/n2oef"
	"github.com/spf13/cobra"
)

// Run simulates a farm and writes the results.
//
// cmd is the cobra.Command instance where Run is called from. Log
// messages are written to its standard output.
//
// logFile is the path to the desired logfile location.
//
// farmFile is the path to the TOML farm file. It can be a blob storage
// location.
//
// cropTable is the path to a CSV file of crop parameters. If it is
// empty, the built-in table is used.
//
// outputFile is the path where the XLSX results should be written.
// Its extension is replaced with .xlsx.
//
// plotDir is the directory where a soil carbon plot for each field
// should be written. If it is empty, no plots are created.
//
// outputVars maps output variable names to the expressions that define
// them.
//
// nprocs is the number of fields to simulate at once, timeout is the
// time limit for the simulations (zero for no limit), and if cacheSize
// is greater than zero, fields with identical inputs are only
// simulated once.
//
// All of the output paths can refer to blob storage locations, in which
// case the outputs are written locally and then uploaded.
func Run(cmd *cobra.Command, logFile, farmFile, cropTable, outputFile, plotDir string,
	outputVars map[string]string, nprocs int, timeout time.Duration, cacheSize int) error {

	startTime := time.Now()
	outputFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".xlsx"

	var upload uploader

	logfile, err := os.Create(upload.maybeUpload(logFile))
	if err != nil {
		return fmt.Errorf("soilcn: problem creating log file: %v", err)
	}
	log := logrus.New()
	log.Out = io.MultiWriter(cmd.OutOrStdout(), logfile)

	o, err := soilcn.NewOutputter(upload.maybeUpload(outputFile), outputVars, nil)
	if err != nil {
		logfile.Close()
		return err
	}
	if upload.err != nil {
		logfile.Close()
		return upload.err
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err = simulate(ctx, log, o, &upload, farmFile, cropTable, plotDir, nprocs, cacheSize)
	if err != nil {
		log.Error(err)
		logfile.Close()
		return err
	}
	log.WithField("walltime", time.Since(startTime).String()).Info("simulation complete")
	if err := logfile.Close(); err != nil {
		return err
	}
	return upload.upload(context.Background(), log)
}

func simulate(ctx context.Context, log logrus.FieldLogger, o *soilcn.Outputter, upload *uploader,
	farmFile, cropTable, plotDir string, nprocs, cacheSize int) error {

	log.WithField("file", farmFile).Info("reading farm file")
	farm, err := openFarm(ctx, farmFile, log)
	if err != nil {
		return err
	}
	crops, err := readCropTable(cropTable)
	if err != nil {
		return err
	}
	fields := farm.Simulations(crops, log, o.CheckOutputVars())

	log.WithFields(logrus.Fields{
		"fields":     len(fields),
		"processors": nprocs,
	}).Info("simulating fields")
	if cacheSize > 0 {
		c := NewFieldCache(nprocs, cacheSize)
		err = c.RunFields(ctx, fields...)
		received, simulated := c.Requests()
		log.WithFields(logrus.Fields{
			"requests":  received,
			"simulated": simulated,
		}).Info("field cache")
	} else {
		err = soilcn.RunFields(ctx, nprocs, fields...)
	}
	if err != nil {
		return err
	}

	n2oef.LandAppliedManure(farm.Days, farm.Defaults, fields...)
	// Land-applied manure diagnostics are added after the fields close.
	for _, f := range fields {
		for _, r := range f.Years {
			for _, d := range r.Diagnostics {
				if d.Kind == soilcn.LookupFailure && strings.HasPrefix(d.Message, "n2oef:") {
					log.WithFields(logrus.Fields{
						"field": f.Name,
						"year":  r.Year,
						"kind":  d.Kind.String(),
					}).Warn(d.Message)
				}
			}
		}
	}

	totals, err := soilcn.FarmTotals(fields...)
	if err != nil {
		return err
	}
	for _, t := range totals {
		log.WithFields(logrus.Fields{
			"year":       t.Year,
			"soilCarbon": fmt.Sprintf("%.6g", t.SoilCarbon),
			"N2O":        fmt.Sprintf("%.6g", t.N2O),
			"manureN2O":  fmt.Sprintf("%.6g", t.ManureN2O),
		}).Info("farm total")
	}

	for _, f := range fields {
		if len(f.Years) < 2 {
			continue
		}
		slope, r2, err := soilcn.CarbonTrend(f)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"field":    f.Name,
			"slope":    slope,
			"rsquared": r2,
		}).Info("soil carbon trend")
	}

	log.WithField("file", o.FileName()).Info("writing output")
	if err := o.Output(farm.Days, fields...); err != nil {
		return err
	}
	if plotDir != "" {
		for _, f := range fields {
			if err := writePlot(upload.maybeUpload(plotFile(plotDir, f.Name)), f); err != nil {
				return err
			}
		}
		if upload.err != nil {
			return upload.err
		}
	}
	return nil
}

func writePlot(path string, f *soilcn.Field) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("soilcn: creating plot file: %v", err)
	}
	if err := soilcn.PlotPools(w, f); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
