package catalog

import (
	"fmt"
)

// Severity is the tier assigned to a critical-value alert.
type Severity string

const (
	// SeverityPanic marks a value past a panic bound. Highest tier.
	SeverityPanic Severity = "PANIC"
	// SeverityCritical marks a value past a critical bound.
	SeverityCritical Severity = "CRITICAL"
)

// ValidSeverity reports whether s is a known severity tier.
func ValidSeverity(s Severity) bool {
	return s == SeverityPanic || s == SeverityCritical
}

// TestDefinition describes one lab analyte and its reference bounds.
// A nil bound means "no limit on that side": a test with no panic_low
// never panics low. AlertOnly tests (e.g. a positive blood culture)
// carry no numeric bounds and always fire at FixedSeverity.
type TestDefinition struct {
	Name          string   `json:"name"`
	Unit          string   `json:"unit,omitempty"`
	NormalLow     *float64 `json:"normal_low,omitempty"`
	NormalHigh    *float64 `json:"normal_high,omitempty"`
	CriticalLow   *float64 `json:"critical_low,omitempty"`
	CriticalHigh  *float64 `json:"critical_high,omitempty"`
	PanicLow      *float64 `json:"panic_low,omitempty"`
	PanicHigh     *float64 `json:"panic_high,omitempty"`
	AlertOnly     bool     `json:"alert_only,omitempty"`
	FixedSeverity Severity `json:"fixed_severity,omitempty"`
}

// Validate checks the bound-ordering invariant:
//
//	panic_low <= critical_low < normal_low <= normal_high < critical_high <= panic_high
//
// Each adjacent pair is checked only when both bounds are present; either
// side may be entirely absent.
func (d *TestDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("test definition has no name")
	}
	if d.AlertOnly {
		if !ValidSeverity(d.FixedSeverity) {
			return fmt.Errorf("%s: alert-only test requires a fixed severity, got %q", d.Name, d.FixedSeverity)
		}
		if d.NormalLow != nil || d.NormalHigh != nil || d.CriticalLow != nil ||
			d.CriticalHigh != nil || d.PanicLow != nil || d.PanicHigh != nil {
			return fmt.Errorf("%s: alert-only test must not define numeric bounds", d.Name)
		}
		return nil
	}

	type pair struct {
		lo, hi *float64
		strict bool
		desc   string
	}
	pairs := []pair{
		{d.PanicLow, d.CriticalLow, false, "panic_low <= critical_low"},
		{d.CriticalLow, d.NormalLow, true, "critical_low < normal_low"},
		{d.NormalLow, d.NormalHigh, false, "normal_low <= normal_high"},
		{d.NormalHigh, d.CriticalHigh, true, "normal_high < critical_high"},
		{d.CriticalHigh, d.PanicHigh, false, "critical_high <= panic_high"},
	}
	for _, p := range pairs {
		if p.lo == nil || p.hi == nil {
			continue
		}
		if p.strict && !(*p.lo < *p.hi) {
			return fmt.Errorf("%s: bound ordering violated: %s (%v, %v)", d.Name, p.desc, *p.lo, *p.hi)
		}
		if !p.strict && !(*p.lo <= *p.hi) {
			return fmt.Errorf("%s: bound ordering violated: %s (%v, %v)", d.Name, p.desc, *p.lo, *p.hi)
		}
	}
	return nil
}

// EscalationPolicy maps a severity tier to its notification roles and the
// time budget (minutes) before each unacknowledged tier auto-escalates.
type EscalationPolicy struct {
	Severity          Severity `json:"severity"`
	Primary           []string `json:"primary"`
	EscalationMinutes int      `json:"escalation_minutes"`
	Secondary         []string `json:"secondary"`
	Final             []string `json:"final"`
}

// Validate checks that the policy is routable.
func (p *EscalationPolicy) Validate() error {
	if !ValidSeverity(p.Severity) {
		return fmt.Errorf("escalation policy has unknown severity %q", p.Severity)
	}
	if len(p.Primary) == 0 {
		return fmt.Errorf("%s policy: primary contact list is empty", p.Severity)
	}
	if p.EscalationMinutes <= 0 {
		return fmt.Errorf("%s policy: escalation_minutes must be positive, got %d", p.Severity, p.EscalationMinutes)
	}
	return nil
}
