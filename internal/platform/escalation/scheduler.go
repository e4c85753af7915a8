// Package escalation provides a cancellable deferred-action scheduler for
// alert escalation timers. Deadlines live in a min-heap keyed by alert ID
// and are driven by a single goroutine, so many pending timers never cost
// a goroutine each.
package escalation

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task runs when a deadline fires. It receives the fire time.
type Task func(now time.Time)

type entry struct {
	key      uuid.UUID
	at       time.Time
	run      Task
	canceled bool
	index    int
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler holds at most one pending deadline per key. Scheduling a key
// that already has a pending deadline replaces it.
type Scheduler struct {
	mu      sync.Mutex
	heap    entryHeap
	pending map[uuid.UUID]*entry
	wake    chan struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: make(map[uuid.UUID]*entry),
		wake:    make(chan struct{}, 1),
	}
}

// Schedule registers run to fire at the given time for the given key.
func (s *Scheduler) Schedule(key uuid.UUID, at time.Time, run Task) {
	s.mu.Lock()
	if old, ok := s.pending[key]; ok {
		old.canceled = true
		delete(s.pending, key)
	}
	e := &entry{key: key, at: at, run: run}
	heap.Push(&s.heap, e)
	s.pending[key] = e
	s.mu.Unlock()
	s.poke()
}

// Cancel drops the pending deadline for a key, if any. Returns whether a
// deadline was pending.
func (s *Scheduler) Cancel(key uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[key]
	if !ok {
		return false
	}
	e.canceled = true
	delete(s.pending, key)
	return true
}

// Pending reports whether a deadline is pending for the key.
func (s *Scheduler) Pending(key uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// FireDue runs every task due at or before now and returns how many ran.
// Run drives this from the wall clock; tests drive it with synthetic
// times to make escalation deterministic.
func (s *Scheduler) FireDue(now time.Time) int {
	tasks := s.dueTasks(now)
	for _, task := range tasks {
		task(now)
	}
	return len(tasks)
}

// dueTasks pops every entry due at or before now and returns its task.
// Canceled entries are discarded silently.
func (s *Scheduler) dueTasks(now time.Time) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Task
	for len(s.heap) > 0 {
		next := s.heap[0]
		if next.canceled {
			heap.Pop(&s.heap)
			continue
		}
		if next.at.After(now) {
			break
		}
		heap.Pop(&s.heap)
		delete(s.pending, next.key)
		due = append(due, next.run)
	}
	return due
}

// nextDeadline returns the earliest live deadline, ok=false when none.
func (s *Scheduler) nextDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.heap) > 0 {
		if s.heap[0].canceled {
			heap.Pop(&s.heap)
			continue
		}
		return s.heap[0].at, true
	}
	return time.Time{}, false
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drives the scheduler until ctx is done. Tasks run on this goroutine;
// they must be short and must not call back into Run.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.FireDue(time.Now())

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if at, ok := s.nextDeadline(); ok {
			timer.Reset(time.Until(at))
		} else {
			timer.Reset(time.Hour)
		}

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-s.wake:
		}
	}
}
