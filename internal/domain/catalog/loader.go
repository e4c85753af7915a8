package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML shape of the catalog:
//
//	tests:
//	  - name: glucose
//	    unit: mg/dL
//	    normal: {low: 70, high: 100}
//	    critical: {low: 40, high: 500}
//	    panic: {low: 30, high: 600}
//	  - name: positive_blood_culture
//	    alert_only: true
//	    severity: CRITICAL
//	policies:
//	  - severity: PANIC
//	    primary: [attending_physician, charge_nurse]
//	    escalation_minutes: 5
//	    secondary: [medical_director, nursing_supervisor]
//	    final: [chief_medical_officer]
type catalogFile struct {
	Tests    []testEntry   `yaml:"tests"`
	Policies []policyEntry `yaml:"policies"`
}

type bound struct {
	Low  *float64 `yaml:"low"`
	High *float64 `yaml:"high"`
}

type testEntry struct {
	Name      string   `yaml:"name"`
	Unit      string   `yaml:"unit"`
	Normal    bound    `yaml:"normal"`
	Critical  bound    `yaml:"critical"`
	Panic     bound    `yaml:"panic"`
	AlertOnly bool     `yaml:"alert_only"`
	Severity  Severity `yaml:"severity"`
}

type policyEntry struct {
	Severity          Severity `yaml:"severity"`
	Primary           []string `yaml:"primary"`
	EscalationMinutes int      `yaml:"escalation_minutes"`
	Secondary         []string `yaml:"secondary"`
	Final             []string `yaml:"final"`
}

func (e testEntry) definition() TestDefinition {
	return TestDefinition{
		Name:          e.Name,
		Unit:          e.Unit,
		NormalLow:     e.Normal.Low,
		NormalHigh:    e.Normal.High,
		CriticalLow:   e.Critical.Low,
		CriticalHigh:  e.Critical.High,
		PanicLow:      e.Panic.Low,
		PanicHigh:     e.Panic.High,
		AlertOnly:     e.AlertOnly,
		FixedSeverity: e.Severity,
	}
}

// Load builds the reference range table and escalation matrix from a YAML
// file. An empty path selects the built-in defaults. Validation failures
// abort the load: a half-usable catalog must never reach the classifier.
func Load(path string) (*Table, *PolicySet, error) {
	if path == "" {
		table, err := NewTable(DefaultTestDefinitions())
		if err != nil {
			return nil, nil, err
		}
		policies, err := NewPolicySet(DefaultEscalationPolicies())
		if err != nil {
			return nil, nil, err
		}
		return table, policies, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	if len(file.Tests) == 0 {
		return nil, nil, fmt.Errorf("catalog file %s defines no tests", path)
	}

	defs := make([]TestDefinition, 0, len(file.Tests))
	for _, e := range file.Tests {
		defs = append(defs, e.definition())
	}
	table, err := NewTable(defs)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog file %s: %w", path, err)
	}

	// Policies are optional in the file; fall back to the built-in matrix.
	var policies *PolicySet
	if len(file.Policies) == 0 {
		policies, err = NewPolicySet(DefaultEscalationPolicies())
	} else {
		entries := make([]EscalationPolicy, 0, len(file.Policies))
		for _, p := range file.Policies {
			entries = append(entries, EscalationPolicy{
				Severity:          p.Severity,
				Primary:           p.Primary,
				EscalationMinutes: p.EscalationMinutes,
				Secondary:         p.Secondary,
				Final:             p.Final,
			})
		}
		policies, err = NewPolicySet(entries)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("catalog file %s: %w", path, err)
	}

	return table, policies, nil
}
