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

	"github.com/sirupsen/logrus"
)

// DiagnosticKind classifies a recoverable problem found during a simulation.
type DiagnosticKind int

const (
	// LookupFailure means a required parameter was missing or could not
	// cover the input, and a zero or capped value was used instead.
	LookupFailure DiagnosticKind = iota

	// NumericDegeneracy means an equilibrium was undefined and a zero
	// sentinel value was used instead.
	NumericDegeneracy

	// BalanceMismatch means the nitrogen budget did not close.
	BalanceMismatch
)

func (k DiagnosticKind) String() string {
	switch k {
	case LookupFailure:
		return "LookupFailure"
	case NumericDegeneracy:
		return "NumericDegeneracy"
	case BalanceMismatch:
		return "BalanceMismatch"
	default:
		panic(fmt.Sprintf("unknown diagnostic kind: %d", int(k)))
	}
}

// Diagnostic is a recoverable problem attached to a YearRecord.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return d.Kind.String() + ": " + d.Message
}

// HasDiagnostic returns whether r carries a diagnostic of the given kind.
func (r *YearRecord) HasDiagnostic(kind DiagnosticKind) bool {
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// AddDiagnostic attaches a diagnostic to r.
func (r *YearRecord) AddDiagnostic(kind DiagnosticKind, format string, args ...interface{}) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// SetManureDiagnostics replaces the diagnostics from the land-applied
// manure calculation. They stay on r when the field is run again.
func (r *YearRecord) SetManureDiagnostics(diags ...Diagnostic) {
	old := append([]Diagnostic(nil), r.manureDiagnostics...)
	var kept []Diagnostic
	for _, d := range r.Diagnostics {
		if i := indexDiagnostic(old, d); i >= 0 {
			old = append(old[:i], old[i+1:]...)
			continue
		}
		kept = append(kept, d)
	}
	r.manureDiagnostics = append([]Diagnostic(nil), diags...)
	r.Diagnostics = append(kept, r.manureDiagnostics...)
}

func indexDiagnostic(diags []Diagnostic, d Diagnostic) int {
	for i, dd := range diags {
		if dd == d {
			return i
		}
	}
	return -1
}

func logDiagnostics(log logrus.FieldLogger, field string, r *YearRecord) {
	for _, d := range r.Diagnostics {
		log.WithFields(logrus.Fields{
			"field": field,
			"year":  r.Year,
			"kind":  d.Kind.String(),
		}).Warn(d.Message)
	}
}
