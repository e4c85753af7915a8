package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an alert ID is absent from the ledger.
var ErrNotFound = errors.New("alert not found")

// Repository is the alert ledger: append-only, insertion order preserved.
// Alerts are never deleted; only the acknowledgment and escalation fields
// mutate after Record.
type Repository interface {
	Record(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	List(ctx context.Context, limit, offset int) ([]*Alert, int, error)
	// MarkAcknowledged sets the acknowledgment fields. changed=false means
	// the alert was already acknowledged (idempotent no-op).
	MarkAcknowledged(ctx context.Context, id uuid.UUID, at time.Time) (a *Alert, changed bool, err error)
	MarkEscalated(ctx context.Context, id uuid.UUID, status Status) (*Alert, error)
	Summary(ctx context.Context) (*Summary, error)
}
