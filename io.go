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
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/floats"
)

// Outputter is a holder for output parameters.
//
// fileName contains the path where the output will be saved.
//
// outputVariables maps the names of the variables for which data
// should be returned to expressions that define how the
// requested data should be calculated. These expressions can utilize
// YearRecord variables, user-defined variables, and functions.
//
// modelVariables is automatically generated based on the YearRecord variables
// that are required to calculate the requested output variables.
//
// Functions are defined in the outputFunctions variable.
type Outputter struct {
	fileName        string
	outputVariables map[string]string
	modelVariables  []string
	outputFunctions map[string]govaluate.ExpressionFunction
}

// NewOutputter initializes a new Outputter holder and adds a set of default
// output functions. Default functions include:
//
// 'exp(x)' which applies the exponetional function e^x.
//
// 'sum(x, y, ...)' which sums its arguments.
func NewOutputter(fileName string, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	defaultOutputFuncs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("soilcn: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			v, ok := arg[0].(float64)
			if !ok {
				return nil, fmt.Errorf("soilcn: invalid argument %v for function 'exp'", arg[0])
			}
			return math.Exp(v), nil
		},
		"sum": func(arg ...interface{}) (interface{}, error) {
			if len(arg) == 0 {
				return nil, fmt.Errorf("soilcn: function 'sum' needs at least 1 argument")
			}
			v := make([]float64, len(arg))
			for i, a := range arg {
				f, ok := a.(float64)
				if !ok {
					return nil, fmt.Errorf("soilcn: invalid argument %v for function 'sum'", a)
				}
				v[i] = f
			}
			return floats.Sum(v), nil
		},
	}

	for key, val := range outputFunctions {
		defaultOutputFuncs[key] = val
	}

	o := Outputter{
		fileName:        fileName,
		outputVariables: make(map[string]string),
		outputFunctions: defaultOutputFuncs,
	}
	for k, v := range outputVariables {
		o.outputVariables[k] = v
	}

	// Variables in braces are expanded into the expressions that define
	// them.
	regx := regexp.MustCompile("\\{(.*?)\\}")
	for _, val := range o.outputVariables {
		for _, m := range regx.FindAllString(val, -1) {
			if strings.Count(m, "{") > 1 || strings.Count(m, "}") > 1 {
				return nil, fmt.Errorf("soilcn: unsupported use of braces {} in output variable expression '%s'", val)
			}
			o.outputVariables[m] = m[1 : len(m)-1]
		}
	}

	err := o.checkForDerivatives()

	for k := range o.outputVariables {
		if strings.Contains(k, "{") {
			delete(o.outputVariables, k)
		}
	}

	return &o, err
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

var identChar = regexp.MustCompile("[a-zA-Z0-9_]")

func checkPrefix(s string) bool {
	return s != "" && identChar.MatchString(s[0:1])
}

func checkSuffix(s string) bool {
	return s != "" && identChar.MatchString(s[len(s)-1:])
}

// checkForDerivatives identifies the unique YearRecord variables that are
// required to calculate the requested output variables. Any user-defined
// output variable that appears in another expression is replaced by the
// expression that defines it.
func (o *Outputter) checkForDerivatives() error {
	o.modelVariables = make([]string, 0, len(o.outputVariables))
	for key, val := range o.outputVariables {
		o.outputVariables[key] = strings.Replace(val, "{", "", -1)
		o.outputVariables[key] = strings.Replace(o.outputVariables[key], "}", "", -1)
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(o.outputVariables[key], o.outputFunctions)
		if err != nil {
			return fmt.Errorf("soilcn: output variable %s: %v", key, err)
		}
		uniqueVars := removeDuplicates(expression.Vars())
		o.modelVariables = append(o.modelVariables, uniqueVars...)
		for _, uniqueVar := range uniqueVars {
			if uniqueVar == key {
				continue
			}
			if def := o.outputVariables[uniqueVar]; def != "" && def != uniqueVar {
				// 'Pool' is not a standalone variable where it appears
				// as 'OrganicPool'.
				splitVal := strings.Split(val, uniqueVar)
				for i := 0; i < len(splitVal)-1; i++ {
					isSuffix := checkSuffix(splitVal[i])
					isPrefix := checkPrefix(splitVal[i+1])
					splitVal[i] = splitVal[i] + uniqueVar
					if !isSuffix && !isPrefix {
						splitVal[i] = strings.Replace(splitVal[i], uniqueVar, "("+def+")", -1)
					}
				}
				o.outputVariables[key] = strings.Join(splitVal, "")
				return o.checkForDerivatives()
			}
		}
	}
	o.modelVariables = removeDuplicates(o.modelVariables)
	return nil
}

// OutputOptions returns the names of the YearRecord variables that
// can be used in output expressions, along with their descriptions
// and units.
func OutputOptions() (names []string, descriptions []string, units []string) {
	t := reflect.TypeOf(YearRecord{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		desc := f.Tag.Get("desc")
		if desc == "" || f.Type.Kind() != reflect.Float64 {
			continue
		}
		names = append(names, f.Name)
		descriptions = append(descriptions, desc)
		units = append(units, f.Tag.Get("units"))
	}
	return
}

// checkModelVars checks whether the YearRecord variables required to
// calculate the requested output variables exist.
func (o *Outputter) checkModelVars() error {
	names, _, _ := OutputOptions()
	available := make(map[string]struct{})
	for _, n := range names {
		available[n] = struct{}{}
	}
	for _, v := range o.modelVariables {
		if _, ok := available[v]; !ok {
			return fmt.Errorf("soilcn: undefined variable name '%s'", v)
		}
	}
	return nil
}

// CheckOutputVars ensures the output variables can be calculated.
func (o *Outputter) CheckOutputVars() FieldManipulator {
	return func(f *Field) error {
		return o.checkModelVars()
	}
}

// VariableNames returns the names of the output variables in sorted
// order.
func (o *Outputter) VariableNames() []string {
	vars := make([]string, 0, len(o.outputVariables))
	for v := range o.outputVariables {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// ResultTable holds one row per field and year.
type ResultTable struct {
	Field  []string
	Year   []int
	Values map[string][]float64
}

func recordValue(r *YearRecord, name string) float64 {
	return reflect.ValueOf(r).Elem().FieldByName(name).Float()
}

// Results evaluates the output expressions for every year of the
// given fields.
func (o *Outputter) Results(fields ...*Field) (*ResultTable, error) {
	if err := o.checkModelVars(); err != nil {
		return nil, err
	}
	exprs := make(map[string]*govaluate.EvaluableExpression)
	for k, v := range o.outputVariables {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(v, o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("soilcn: output variable %s: %v", k, err)
		}
		exprs[k] = e
	}
	res := &ResultTable{Values: make(map[string][]float64)}
	params := make(map[string]interface{}, len(o.modelVariables))
	for _, f := range fields {
		for _, r := range f.Years {
			for _, v := range o.modelVariables {
				params[v] = recordValue(r, v)
			}
			res.Field = append(res.Field, f.Name)
			res.Year = append(res.Year, r.Year)
			for k, e := range exprs {
				vI, err := e.Evaluate(params)
				if err != nil {
					return nil, fmt.Errorf("soilcn: evaluating output variable %s: %v", k, err)
				}
				v, ok := vI.(float64)
				if !ok {
					return nil, fmt.Errorf("soilcn: output variable %s evaluates to %v, not a number", k, vI)
				}
				res.Values[k] = append(res.Values[k], v)
			}
		}
	}
	return res, nil
}

// Write writes the output variables for fields, the expressions that
// define them, and the land-applied manure emissions on days to w as
// a Microsoft Excel workbook.
func (o *Outputter) Write(w io.Writer, days []*DailyEmissionRecord, fields ...*Field) error {
	res, err := o.Results(fields...)
	if err != nil {
		return err
	}
	vars := o.VariableNames()

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Results")
	if err != nil {
		return fmt.Errorf("soilcn: creating output: %v", err)
	}
	header := sheet.AddRow()
	header.AddCell().SetString("Field")
	header.AddCell().SetString("Year")
	for _, v := range vars {
		header.AddCell().SetString(v)
	}
	for i := range res.Field {
		row := sheet.AddRow()
		row.AddCell().SetString(res.Field[i])
		row.AddCell().SetInt(res.Year[i])
		for _, v := range vars {
			row.AddCell().SetFloat(res.Values[v][i])
		}
	}

	sheet, err = file.AddSheet("Variables")
	if err != nil {
		return fmt.Errorf("soilcn: creating output: %v", err)
	}
	header = sheet.AddRow()
	header.AddCell().SetString("Variable")
	header.AddCell().SetString("Expression")
	for _, v := range vars {
		row := sheet.AddRow()
		row.AddCell().SetString(v)
		row.AddCell().SetString(o.outputVariables[v])
	}

	sheet, err = file.AddSheet("Manure")
	if err != nil {
		return fmt.Errorf("soilcn: creating output: %v", err)
	}
	header = sheet.AddRow()
	for _, h := range []string{"Date", "LeachingN2ON", "AmmoniaN", "VolatilizationN2ON", "TotalIndirectN2O"} {
		header.AddCell().SetString(h)
	}
	for _, d := range days {
		row := sheet.AddRow()
		row.AddCell().SetString(d.Date.Format("2006-01-02"))
		for _, v := range []float64{d.LeachingN2ON, d.AmmoniaN, d.VolatilizationN2ON, d.TotalIndirectN2O} {
			row.AddCell().SetFloat(v)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("soilcn: writing output: %v", err)
	}
	return nil
}

// Output writes the results to the Outputter's file, replacing its
// extension with .xlsx.
func (o *Outputter) Output(days []*DailyEmissionRecord, fields ...*Field) error {
	fileBase := strings.TrimSuffix(o.fileName, filepath.Ext(o.fileName))
	o.fileName = fileBase + ".xlsx"
	f, err := os.Create(o.fileName)
	if err != nil {
		return fmt.Errorf("soilcn: creating output file: %v", err)
	}
	if err := o.Write(f, days, fields...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName returns the path the output is written to.
func (o *Outputter) FileName() string { return o.fileName }
