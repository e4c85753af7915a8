package results

import "time"

// Result is one lab measurement arriving from the result feed.
//
// CollectedAt and ReportedAt are optional; when both are present the
// ingestion path records a turnaround-time sample for reporting.
type Result struct {
	SubjectID   string     `json:"subject_id"`
	TestName    string     `json:"test_name"`
	Value       float64    `json:"value"`
	Unit        string     `json:"unit,omitempty"`
	ObservedAt  time.Time  `json:"observed_at,omitempty"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
}
