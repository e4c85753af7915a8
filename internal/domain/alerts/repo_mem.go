package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/labwatch/labwatch/internal/domain/catalog"
)

// MemoryRepository is the default ledger: an append-only in-memory slice.
// One mutex owns every write, so concurrent Record calls from multiple
// ingestion sources can never interleave entries or lose them. Entries are
// retained for the life of the process; retention policy is deferred to
// the PostgreSQL ledger.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*Alert
	byID    map[uuid.UUID]*Alert
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[uuid.UUID]*Alert)}
}

func (r *MemoryRepository) Record(_ context.Context, a *Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *a
	r.entries = append(r.entries, &stored)
	r.byID[stored.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]*Alert, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := len(r.entries)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]*Alert, 0, end-offset)
	for _, a := range r.entries[offset:end] {
		cp := *a
		out = append(out, &cp)
	}
	return out, total, nil
}

func (r *MemoryRepository) MarkAcknowledged(_ context.Context, id uuid.UUID, at time.Time) (*Alert, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if a.Acknowledged {
		cp := *a
		return &cp, false, nil
	}
	a.Acknowledged = true
	a.AcknowledgedAt = &at
	a.Status = StatusAcknowledged
	cp := *a
	return &cp, true, nil
}

func (r *MemoryRepository) MarkEscalated(_ context.Context, id uuid.UUID, status Status) (*Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Escalated = true
	a.Status = status
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) Summary(_ context.Context) (*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &Summary{BySeverity: make(map[catalog.Severity]int)}
	var ackMinutes float64
	for _, a := range r.entries {
		s.Total++
		s.BySeverity[a.Severity]++
		if a.Acknowledged {
			s.Acknowledged++
			if a.AcknowledgedAt != nil {
				ackMinutes += a.AcknowledgedAt.Sub(a.RaisedAt).Minutes()
			}
		}
	}
	if s.Total > 0 {
		s.AcknowledgmentRate = float64(s.Acknowledged) / float64(s.Total)
	}
	if s.Acknowledged > 0 {
		mean := ackMinutes / float64(s.Acknowledged)
		s.MeanTimeToAckMinutes = &mean
	}
	return s, nil
}
