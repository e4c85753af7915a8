package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/labwatch/labwatch/internal/domain/catalog"
)

// Status tracks an alert through the escalation state machine:
//
//	raised -> acknowledged                       (terminal, cancels timers)
//	raised -> escalated_secondary -> escalated_final
//
// Acknowledgment from any state cancels all pending escalation timers.
type Status string

const (
	StatusRaised             Status = "raised"
	StatusAcknowledged       Status = "acknowledged"
	StatusEscalatedSecondary Status = "escalated_secondary"
	StatusEscalatedFinal     Status = "escalated_final"
)

// Alert is one critical-value alert in the ledger.
type Alert struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	SubjectID      string           `db:"subject_id" json:"subject_id"`
	TestName       string           `db:"test_name" json:"test_name"`
	Value          float64          `db:"value" json:"value"`
	Unit           string           `db:"unit" json:"unit,omitempty"`
	Severity       catalog.Severity `db:"severity" json:"severity"`
	Message        string           `db:"message" json:"message"`
	RaisedAt       time.Time        `db:"raised_at" json:"raised_at"`
	Acknowledged   bool             `db:"acknowledged" json:"acknowledged"`
	AcknowledgedAt *time.Time       `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	Escalated      bool             `db:"escalated" json:"escalated"`
	Status         Status           `db:"status" json:"status"`
}

// Summary aggregates the ledger for dashboard consumption.
// AcknowledgmentRate is acknowledged/total and 0 when the ledger is empty.
// MeanTimeToAckMinutes covers acknowledged alerts only and is nil when
// nothing has been acknowledged yet.
type Summary struct {
	Total                int                      `json:"total"`
	BySeverity           map[catalog.Severity]int `json:"by_severity"`
	Acknowledged         int                      `json:"acknowledged"`
	AcknowledgmentRate   float64                  `json:"acknowledgment_rate"`
	MeanTimeToAckMinutes *float64                 `json:"mean_time_to_ack_minutes,omitempty"`
}
