package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labwatch/labwatch/internal/domain/catalog"
)

// repoPG is the durable ledger for deployments that set DATABASE_URL.
type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const alertCols = `id, subject_id, test_name, value, unit, severity, message,
	raised_at, acknowledged, acknowledged_at, escalated, status`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.SubjectID, &a.TestName, &a.Value, &a.Unit, &a.Severity, &a.Message,
		&a.RaisedAt, &a.Acknowledged, &a.AcknowledgedAt, &a.Escalated, &a.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Record(ctx context.Context, a *Alert) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO alert (id, subject_id, test_name, value, unit, severity, message,
			raised_at, acknowledged, acknowledged_at, escalated, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.SubjectID, a.TestName, a.Value, a.Unit, a.Severity, a.Message,
		a.RaisedAt, a.Acknowledged, a.AcknowledgedAt, a.Escalated, a.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return scanAlert(r.pool.QueryRow(ctx, `SELECT `+alertCols+` FROM alert WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Alert, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alert`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+alertCols+` FROM alert ORDER BY raised_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) MarkAcknowledged(ctx context.Context, id uuid.UUID, at time.Time) (*Alert, bool, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE alert SET acknowledged = TRUE, acknowledged_at = $2, status = $3
		WHERE id = $1 AND acknowledged = FALSE
		RETURNING `+alertCols, id, at, StatusAcknowledged)
	a, err := scanAlert(row)
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	// No row updated: either already acknowledged or genuinely missing.
	a, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return a, false, nil
}

func (r *repoPG) MarkEscalated(ctx context.Context, id uuid.UUID, status Status) (*Alert, error) {
	return scanAlert(r.pool.QueryRow(ctx, `
		UPDATE alert SET escalated = TRUE, status = $2
		WHERE id = $1
		RETURNING `+alertCols, id, status))
}

func (r *repoPG) Summary(ctx context.Context) (*Summary, error) {
	s := &Summary{BySeverity: make(map[catalog.Severity]int)}

	rows, err := r.pool.Query(ctx, `SELECT severity, COUNT(*) FROM alert GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sev catalog.Severity
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, err
		}
		s.BySeverity[sev] = n
		s.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var meanSeconds *float64
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE acknowledged),
		       AVG(EXTRACT(EPOCH FROM acknowledged_at - raised_at)) FILTER (WHERE acknowledged)
		FROM alert`).Scan(&s.Acknowledged, &meanSeconds)
	if err != nil {
		return nil, err
	}
	if s.Total > 0 {
		s.AcknowledgmentRate = float64(s.Acknowledged) / float64(s.Total)
	}
	if meanSeconds != nil {
		mean := *meanSeconds / 60
		s.MeanTimeToAckMinutes = &mean
	}
	return s, nil
}
