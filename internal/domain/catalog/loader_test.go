package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	table, policies, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() == 0 {
		t.Fatal("default table is empty")
	}

	def, ok := table.Lookup("potassium")
	if !ok {
		t.Fatal("potassium missing from default table")
	}
	if *def.CriticalHigh != 6.5 || *def.PanicHigh != 7.0 {
		t.Errorf("unexpected potassium bounds: critical_high=%v panic_high=%v", *def.CriticalHigh, *def.PanicHigh)
	}

	if _, ok := policies.ForSeverity(SeverityPanic); !ok {
		t.Error("no PANIC escalation policy in defaults")
	}
	if _, ok := policies.ForSeverity(SeverityCritical); !ok {
		t.Error("no CRITICAL escalation policy in defaults")
	}
}

func TestLoad_DefaultsAllValid(t *testing.T) {
	for _, d := range DefaultTestDefinitions() {
		if err := d.Validate(); err != nil {
			t.Errorf("default definition %s invalid: %v", d.Name, err)
		}
	}
	for _, p := range DefaultEscalationPolicies() {
		if err := p.Validate(); err != nil {
			t.Errorf("default policy %s invalid: %v", p.Severity, err)
		}
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	content := `
tests:
  - name: glucose
    unit: mg/dL
    normal: {low: 70, high: 100}
    critical: {low: 40, high: 400}
    panic: {low: 30, high: 500}
  - name: positive_blood_culture
    alert_only: true
    severity: CRITICAL
policies:
  - severity: PANIC
    primary: [attending_physician]
    escalation_minutes: 5
    secondary: [medical_director]
    final: [chief_medical_officer]
  - severity: CRITICAL
    primary: [attending_physician]
    escalation_minutes: 15
    secondary: [charge_nurse]
    final: [medical_director]
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	table, policies, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 tests, got %d", table.Len())
	}

	def, ok := table.Lookup("glucose")
	if !ok {
		t.Fatal("glucose missing")
	}
	if *def.PanicLow != 30 {
		t.Errorf("expected panic_low 30, got %v", *def.PanicLow)
	}

	blood, ok := table.Lookup("positive_blood_culture")
	if !ok || !blood.AlertOnly || blood.FixedSeverity != SeverityCritical {
		t.Errorf("unexpected alert-only definition: %+v", blood)
	}

	p, ok := policies.ForSeverity(SeverityCritical)
	if !ok || p.EscalationMinutes != 15 {
		t.Errorf("unexpected CRITICAL policy: %+v", p)
	}
}

func TestLoad_YAMLFileMissingPoliciesFallsBack(t *testing.T) {
	content := `
tests:
  - name: inr
    critical: {high: 4.5}
    panic: {high: 6.0}
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	_, policies, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := policies.ForSeverity(SeverityPanic); !ok {
		t.Error("expected built-in policies when file defines none")
	}
}

func TestLoad_InvalidCatalogRejected(t *testing.T) {
	content := `
tests:
  - name: broken
    critical: {low: 5.0}
    panic: {low: 6.0}
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Error("expected error for panic_low > critical_low")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewTable_DuplicateName(t *testing.T) {
	_, err := NewTable([]TestDefinition{
		{Name: "glucose", CriticalHigh: f(500)},
		{Name: "glucose", CriticalHigh: f(400)},
	})
	if err == nil {
		t.Error("expected error for duplicate test name")
	}
}
