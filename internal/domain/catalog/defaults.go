package catalog

func f(v float64) *float64 { return &v }

// DefaultTestDefinitions returns the built-in reference range table, used
// when no catalog file is configured. Bounds follow the hospital critical
// value list: chemistry, hematology, blood gases, cardiac markers, and the
// alert-only microbiology results.
func DefaultTestDefinitions() []TestDefinition {
	return []TestDefinition{
		// Chemistry panel
		{Name: "glucose", Unit: "mg/dL", NormalLow: f(70), NormalHigh: f(100), CriticalLow: f(40), CriticalHigh: f(500), PanicLow: f(30), PanicHigh: f(600)},
		{Name: "sodium", Unit: "mEq/L", NormalLow: f(136), NormalHigh: f(145), CriticalLow: f(120), CriticalHigh: f(160), PanicLow: f(115), PanicHigh: f(165)},
		{Name: "potassium", Unit: "mEq/L", NormalLow: f(3.5), NormalHigh: f(5.0), CriticalLow: f(2.5), CriticalHigh: f(6.5), PanicLow: f(2.0), PanicHigh: f(7.0)},
		{Name: "calcium", Unit: "mg/dL", NormalLow: f(8.5), NormalHigh: f(10.5), CriticalLow: f(6.0), CriticalHigh: f(13.0), PanicLow: f(5.0), PanicHigh: f(14.0)},
		{Name: "creatinine", Unit: "mg/dL", NormalLow: f(0.6), NormalHigh: f(1.2), CriticalHigh: f(7.0), PanicHigh: f(10.0)},

		// Hematology
		{Name: "hemoglobin", Unit: "g/dL", NormalLow: f(12.0), NormalHigh: f(16.0), CriticalLow: f(7.0), CriticalHigh: f(20.0), PanicLow: f(5.0), PanicHigh: f(22.0)},
		{Name: "wbc", Unit: "K/uL", NormalLow: f(4.5), NormalHigh: f(11.0), CriticalLow: f(2.0), CriticalHigh: f(30.0), PanicLow: f(1.0), PanicHigh: f(50.0)},
		{Name: "platelets", Unit: "K/uL", NormalLow: f(150), NormalHigh: f(450), CriticalLow: f(50), CriticalHigh: f(1000), PanicLow: f(20), PanicHigh: f(1500)},
		{Name: "inr", NormalLow: f(0.8), NormalHigh: f(1.2), CriticalHigh: f(4.5), PanicHigh: f(6.0)},

		// Blood gases
		{Name: "ph", NormalLow: f(7.35), NormalHigh: f(7.45), CriticalLow: f(7.20), CriticalHigh: f(7.60), PanicLow: f(7.10), PanicHigh: f(7.70)},
		{Name: "pco2", Unit: "mmHg", NormalLow: f(35), NormalHigh: f(45), CriticalLow: f(20), CriticalHigh: f(60), PanicLow: f(15), PanicHigh: f(70)},
		{Name: "po2", Unit: "mmHg", NormalLow: f(80), NormalHigh: f(100), CriticalLow: f(50), PanicLow: f(40)},

		// Cardiac markers
		{Name: "troponin", Unit: "ng/mL", CriticalHigh: f(0.04), PanicHigh: f(0.1)},
		{Name: "bnp", Unit: "pg/mL", CriticalHigh: f(900), PanicHigh: f(2000)},

		// Microbiology: any positive result is reported immediately.
		{Name: "positive_blood_culture", AlertOnly: true, FixedSeverity: SeverityCritical},
		{Name: "csf_positive", AlertOnly: true, FixedSeverity: SeverityCritical},
	}
}

// DefaultEscalationPolicies returns the built-in escalation matrix, used
// when no policy file is configured.
func DefaultEscalationPolicies() []EscalationPolicy {
	return []EscalationPolicy{
		{
			Severity:          SeverityPanic,
			Primary:           []string{"attending_physician", "charge_nurse"},
			EscalationMinutes: 5,
			Secondary:         []string{"medical_director", "nursing_supervisor"},
			Final:             []string{"chief_medical_officer"},
		},
		{
			Severity:          SeverityCritical,
			Primary:           []string{"attending_physician"},
			EscalationMinutes: 15,
			Secondary:         []string{"charge_nurse", "on_call_physician"},
			Final:             []string{"medical_director"},
		},
	}
}
