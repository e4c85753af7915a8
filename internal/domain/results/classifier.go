package results

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/labwatch/labwatch/internal/domain/alerts"
	"github.com/labwatch/labwatch/internal/domain/catalog"
)

// ErrInvalidValue is returned for non-finite measurements. A NaN that
// slipped through upstream parsing must fail loudly rather than classify
// as "in range".
var ErrInvalidValue = errors.New("result value is not a finite number")

// TestLookup resolves a test name to its reference definition.
// *catalog.Service satisfies it.
type TestLookup interface {
	Lookup(name string) (*catalog.TestDefinition, bool)
}

// Classifier decides whether a result breaches its test's critical or
// panic bounds. It is stateless apart from the read-only catalog and is
// safe for concurrent use.
type Classifier struct {
	catalog TestLookup
	logger  zerolog.Logger
}

func NewClassifier(catalog TestLookup, logger zerolog.Logger) *Classifier {
	return &Classifier{catalog: catalog, logger: logger}
}

// Classify returns an alert when the result breaches a bound, nil when it
// is unremarkable. Checks run most-severe-first so a value past both panic
// and critical bounds reports once, at PANIC. Boundary values equal to a
// threshold do not trigger; only strict inequality does.
//
// Unknown tests return no alert: the reference table may lag behind the
// live test catalog, so they are logged for catalog maintenance rather
// than treated as failures.
func (cl *Classifier) Classify(r Result) (*alerts.Alert, error) {
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return nil, fmt.Errorf("%w: %s=%v", ErrInvalidValue, r.TestName, r.Value)
	}

	def, ok := cl.catalog.Lookup(r.TestName)
	if !ok {
		cl.logger.Debug().
			Str("test", r.TestName).
			Str("subject_id", r.SubjectID).
			Msg("result for test absent from reference table, skipping")
		return nil, nil
	}

	if def.AlertOnly {
		return cl.newAlert(r, def, def.FixedSeverity,
			fmt.Sprintf("%s: positive %s reported", def.FixedSeverity, def.Name)), nil
	}

	if def.PanicLow != nil && r.Value < *def.PanicLow {
		return cl.newAlert(r, def, catalog.SeverityPanic,
			fmt.Sprintf("PANIC LOW: %s = %s %s (< %s)", def.Name, fmtNum(r.Value), def.Unit, fmtNum(*def.PanicLow))), nil
	}
	if def.PanicHigh != nil && r.Value > *def.PanicHigh {
		return cl.newAlert(r, def, catalog.SeverityPanic,
			fmt.Sprintf("PANIC HIGH: %s = %s %s (> %s)", def.Name, fmtNum(r.Value), def.Unit, fmtNum(*def.PanicHigh))), nil
	}
	if def.CriticalLow != nil && r.Value < *def.CriticalLow {
		return cl.newAlert(r, def, catalog.SeverityCritical,
			fmt.Sprintf("CRITICAL LOW: %s = %s %s (< %s)", def.Name, fmtNum(r.Value), def.Unit, fmtNum(*def.CriticalLow))), nil
	}
	if def.CriticalHigh != nil && r.Value > *def.CriticalHigh {
		return cl.newAlert(r, def, catalog.SeverityCritical,
			fmt.Sprintf("CRITICAL HIGH: %s = %s %s (> %s)", def.Name, fmtNum(r.Value), def.Unit, fmtNum(*def.CriticalHigh))), nil
	}

	return nil, nil
}

func (cl *Classifier) newAlert(r Result, def *catalog.TestDefinition, sev catalog.Severity, msg string) *alerts.Alert {
	return &alerts.Alert{
		SubjectID: r.SubjectID,
		TestName:  def.Name,
		Value:     r.Value,
		Unit:      def.Unit,
		Severity:  sev,
		Message:   msg,
	}
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
