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

// Package soilcnutil contains the command-line interface for soilcn.
package soilcnutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/soilcn"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to soilcn.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "FarmFile",
			usage: `
              FarmFile is the path to the TOML file holding the farm defaults,
              climate, fields, yearly crop and manure inputs, and manure
              application days. It can include environment variables and can
              be a blob storage location (e.g., gs://bucket/farm.toml).`,
			shorthand:  "f",
			defaultVal: "farm.toml",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CropTable",
			usage: `
              CropTable is the path to a CSV file of crop residue parameters with
              the columns crop, intercept, slope, root:shoot ratio, nitrogen
              content, lignin content, and moisture content (%). If it is empty,
              the built-in table is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output XLSX file location. It can
              include environment variables and can be a blob storage location.`,
			shorthand:  "o",
			defaultVal: "soilcn_output.xlsx",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotDir",
			usage: `
              PlotDir is the directory where a soil carbon plot should be saved
              for each field. If it is empty, no plots are created.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved in
              the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which model variables should be included in the
              output file. Each value is an expression of year record variables.`,
			defaultVal: map[string]string{
				"SoilCarbon":       "SoilCarbon",
				"ChangeSoilCarbon": "ChangeInSoilCarbon",
				"TotalN2O":         "TotalN2O",
				"NitrogenUptake":   "TotalUptake",
				"NitrogenLosses":   "sum(TotalN2ON, NON, NO3NLeached, NH4NVolatilized)",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NumProcessors",
			usage: `
              NumProcessors is the number of fields to simulate at the same time.
              If it is less than 1, one field is simulated per CPU.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Timeout",
			usage: `
              Timeout is the time limit for simulating all fields (e.g., 10m).
              Zero means no limit.`,
			defaultVal: "0s",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CacheSize",
			usage: `
              CacheSize is the number of field results to hold in memory so that
              fields with identical inputs are only simulated once. Zero turns
              off the cache.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SOILCN")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(v)
				set.StringP(option.name, option.shorthand, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("soilcn: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "soilcn",
	Short: "A multi-year soil carbon and nitrogen model.",
	Long: `soilcn simulates the carbon and nitrogen pools of farm fields over a sequence
of years, along with the nitrous oxide, nitric oxide, nitrate and ammonia
losses that result. Use the subcommands specified below to access the model
functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SOILCN_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of soilcn.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("soilcn v%s\n", soilcn.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that simulates a farm.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run simulates every field in the farm file and writes the yearly
results to an XLSX file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		vars, err := GetStringMapString("OutputVariables", Cfg)
		if err != nil {
			return err
		}
		outputVars, err := checkOutputVars(vars)
		if err != nil {
			return err
		}
		timeout, err := parseTimeout(Cfg.Get("Timeout"))
		if err != nil {
			return err
		}
		return Run(
			cmd,
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
			os.ExpandEnv(Cfg.GetString("FarmFile")),
			os.ExpandEnv(Cfg.GetString("CropTable")),
			outputFile,
			Cfg.GetString("PlotDir"),
			outputVars,
			Cfg.GetInt("NumProcessors"),
			timeout,
			Cfg.GetInt("CacheSize"),
		)
	},
	DisableAutoGenTag: true,
}
