package reporting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of available reporting measures. All of
// them read the alert ledger; they are only served when a database pool is
// configured.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "alert-volume-by-severity",
		Name:        "Alert Volume by Severity",
		Description: "Count of alerts grouped by severity tier",
		SQL:         `SELECT severity, COUNT(*) AS total FROM alert GROUP BY severity ORDER BY total DESC`,
	},
	{
		ID:          "alert-volume-by-test",
		Name:        "Alert Volume by Test",
		Description: "Count of alerts grouped by test name",
		SQL:         `SELECT test_name, COUNT(*) AS total FROM alert GROUP BY test_name ORDER BY total DESC`,
	},
	{
		ID:          "escalation-rate",
		Name:        "Escalation Rate",
		Description: "Share of alerts that escalated past the primary tier",
		SQL:         `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE escalated) AS escalated FROM alert`,
	},
	{
		ID:          "acknowledgment-latency",
		Name:        "Acknowledgment Latency",
		Description: "Mean minutes from raise to acknowledgment, per severity",
		SQL: `SELECT severity, AVG(EXTRACT(EPOCH FROM (acknowledged_at - raised_at)) / 60.0) AS mean_minutes
			FROM alert WHERE acknowledged GROUP BY severity`,
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// EvaluateMeasure runs a measure's SQL and returns rows as column maps.
func EvaluateMeasure(ctx context.Context, pool *pgxpool.Pool, m *MeasureDefinition) (*MeasureReport, error) {
	rows, err := pool.Query(ctx, m.SQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &MeasureReport{
		MeasureID:   m.ID,
		MeasureName: m.Name,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	}, nil
}
