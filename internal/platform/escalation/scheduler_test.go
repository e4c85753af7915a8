package escalation

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSchedulerFiresDueTasks(t *testing.T) {
	s := NewScheduler()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var fired []uuid.UUID
	early := uuid.New()
	late := uuid.New()
	s.Schedule(early, base.Add(5*time.Minute), func(time.Time) { fired = append(fired, early) })
	s.Schedule(late, base.Add(10*time.Minute), func(time.Time) { fired = append(fired, late) })

	s.FireDue(base.Add(5 * time.Minute))
	if len(fired) != 1 || fired[0] != early {
		t.Fatalf("expected only early task to fire, got %v", fired)
	}
	if s.Pending(early) {
		t.Error("fired key still pending")
	}
	if !s.Pending(late) {
		t.Error("late key should still be pending")
	}

	s.FireDue(base.Add(10 * time.Minute))
	if len(fired) != 2 {
		t.Fatalf("expected both tasks fired, got %v", fired)
	}
}

func TestSchedulerCancelPreventsFire(t *testing.T) {
	s := NewScheduler()
	base := time.Now()

	key := uuid.New()
	fired := false
	s.Schedule(key, base.Add(time.Minute), func(time.Time) { fired = true })

	if !s.Cancel(key) {
		t.Fatal("expected Cancel to report a pending deadline")
	}
	s.FireDue(base.Add(time.Hour))
	if fired {
		t.Error("canceled task fired")
	}
	if s.Cancel(key) {
		t.Error("second Cancel should report nothing pending")
	}
}

func TestSchedulerRescheduleReplacesDeadline(t *testing.T) {
	s := NewScheduler()
	base := time.Now()

	key := uuid.New()
	var firedAt string
	s.Schedule(key, base.Add(time.Minute), func(time.Time) { firedAt = "first" })
	s.Schedule(key, base.Add(2*time.Minute), func(time.Time) { firedAt = "second" })

	s.FireDue(base.Add(time.Minute))
	if firedAt != "" {
		t.Fatalf("replaced deadline fired early: %q", firedAt)
	}

	s.FireDue(base.Add(2 * time.Minute))
	if firedAt != "second" {
		t.Fatalf("expected replacement task, got %q", firedAt)
	}
}

func TestSchedulerOrdersByDeadline(t *testing.T) {
	s := NewScheduler()
	base := time.Now()

	var order []int
	for i, offset := range []time.Duration{3 * time.Minute, time.Minute, 2 * time.Minute} {
		i := i
		s.Schedule(uuid.New(), base.Add(offset), func(time.Time) { order = append(order, i) })
	}

	s.FireDue(base.Add(time.Hour))
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 0 {
		t.Fatalf("expected deadline order [1 2 0], got %v", order)
	}
}

func TestSchedulerNextDeadlineSkipsCanceled(t *testing.T) {
	s := NewScheduler()
	base := time.Now()

	first := uuid.New()
	s.Schedule(first, base.Add(time.Minute), func(time.Time) {})
	s.Schedule(uuid.New(), base.Add(2*time.Minute), func(time.Time) {})
	s.Cancel(first)

	at, ok := s.nextDeadline()
	if !ok {
		t.Fatal("expected a live deadline")
	}
	if !at.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected next deadline at +2m, got %v", at)
	}
}
