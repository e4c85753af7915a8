package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labwatch/labwatch/internal/domain/catalog"
	"github.com/labwatch/labwatch/internal/platform/escalation"
)

// ErrPolicyNotFound is returned when an alert's severity has no escalation
// policy. The alert is still recorded in the ledger; only routing is
// skipped. It signals a configuration gap, not a lost alert.
var ErrPolicyNotFound = errors.New("no escalation policy for severity")

// Notifier delivers an alert to one contact role. Implementations live in
// platform/notification; tests use mocks.
type Notifier interface {
	Notify(ctx context.Context, role string, a *Alert) error
}

// PolicyProvider resolves the escalation policy for a severity tier.
// *catalog.Service satisfies it.
type PolicyProvider interface {
	PolicyFor(severity catalog.Severity) (*catalog.EscalationPolicy, bool)
}

// Service owns the alert ledger and drives the escalation state machine.
//
// The mutex serializes acknowledgment against timer callbacks: marking an
// alert acknowledged and cancelling its timer happen atomically, and a
// timer that fires concurrently re-checks the acknowledged flag under the
// same mutex, so an acknowledged alert can never auto-escalate.
type Service struct {
	repo     Repository
	policies PolicyProvider
	notifier Notifier
	sched    *escalation.Scheduler
	logger   zerolog.Logger

	mu sync.Mutex

	notifyFailures atomic.Int64
}

func NewService(repo Repository, policies PolicyProvider, notifier Notifier, sched *escalation.Scheduler, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		policies: policies,
		notifier: notifier,
		sched:    sched,
		logger:   logger,
	}
}

// Raise records the alert in the ledger, notifies the primary tier, and
// schedules auto-escalation. The ledger write happens first and is never
// rolled back: routing failures (ErrPolicyNotFound) leave the alert
// recorded but unrouted.
func (s *Service) Raise(ctx context.Context, a *Alert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.RaisedAt.IsZero() {
		a.RaisedAt = time.Now().UTC()
	}
	a.Status = StatusRaised

	if err := s.repo.Record(ctx, a); err != nil {
		return fmt.Errorf("record alert: %w", err)
	}

	s.logger.Warn().
		Str("alert_id", a.ID.String()).
		Str("subject_id", a.SubjectID).
		Str("test", a.TestName).
		Str("severity", string(a.Severity)).
		Msg(a.Message)

	policy, ok := s.policies.PolicyFor(a.Severity)
	if !ok {
		s.logger.Error().
			Str("alert_id", a.ID.String()).
			Str("severity", string(a.Severity)).
			Msg("alert recorded but unrouted: no escalation policy")
		return fmt.Errorf("%w: %s", ErrPolicyNotFound, a.Severity)
	}

	s.notifyTier(ctx, policy.Primary, a)

	// Budgets are measured from raise time, not dispatch completion, so
	// escalation timing stays deterministic under notification latency.
	budget := time.Duration(policy.EscalationMinutes) * time.Minute
	s.sched.Schedule(a.ID, a.RaisedAt.Add(budget), func(now time.Time) {
		s.escalate(a.ID, StatusEscalatedSecondary, now)
	})
	return nil
}

// Acknowledge marks the alert acknowledged and cancels its pending
// escalation timer atomically. Idempotent: acknowledging an acknowledged
// alert returns the alert unchanged and fires no events.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID) (*Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, changed, err := s.repo.MarkAcknowledged(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !changed {
		return a, nil
	}
	s.sched.Cancel(id)
	s.logger.Info().
		Str("alert_id", id.String()).
		Str("subject_id", a.SubjectID).
		Msg("alert acknowledged")
	return a, nil
}

// escalate runs on the scheduler goroutine when a tier budget expires.
func (s *Service) escalate(id uuid.UUID, to Status, now time.Time) {
	ctx := context.Background()

	s.mu.Lock()
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("alert_id", id.String()).Msg("escalation lookup failed")
		return
	}
	if a.Acknowledged {
		s.mu.Unlock()
		return
	}
	a, err = s.repo.MarkEscalated(ctx, id, to)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("alert_id", id.String()).Msg("escalation update failed")
		return
	}

	policy, ok := s.policies.PolicyFor(a.Severity)
	if !ok {
		s.mu.Unlock()
		return
	}
	if to == StatusEscalatedSecondary {
		// Final tier fires a further equal budget after raise.
		budget := time.Duration(policy.EscalationMinutes) * time.Minute
		s.sched.Schedule(id, a.RaisedAt.Add(2*budget), func(now time.Time) {
			s.escalate(id, StatusEscalatedFinal, now)
		})
	}
	s.mu.Unlock()

	roles := policy.Secondary
	if to == StatusEscalatedFinal {
		roles = policy.Final
	}
	s.logger.Warn().
		Str("alert_id", id.String()).
		Str("status", string(to)).
		Time("fired_at", now).
		Msg("alert unacknowledged past budget, escalating")
	s.notifyTier(ctx, roles, a)
}

// notifyTier fans out to every role in a tier, best effort. A failed
// channel is logged and counted but never blocks the remaining roles.
func (s *Service) notifyTier(ctx context.Context, roles []string, a *Alert) {
	for _, role := range roles {
		if err := s.notifier.Notify(ctx, role, a); err != nil {
			s.notifyFailures.Add(1)
			s.logger.Warn().Err(err).
				Str("alert_id", a.ID.String()).
				Str("role", role).
				Msg("notification failed")
		}
	}
}

// NotifyFailures returns the count of failed notification dispatches.
func (s *Service) NotifyFailures() int64 {
	return s.notifyFailures.Load()
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Alert, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.repo.Summary(ctx)
}
