// Package reporting aggregates operational metrics for the lab: specimen
// turnaround times kept in memory, and SQL-backed alert volume measures for
// database deployments.
package reporting

import (
	"sort"
	"sync"
	"time"
)

// TurnaroundStats summarizes collected-to-reported latency for one test.
type TurnaroundStats struct {
	TestName      string  `json:"test_name"`
	Count         int     `json:"count"`
	MeanMinutes   float64 `json:"mean_minutes"`
	MedianMinutes float64 `json:"median_minutes"`
	P90Minutes    float64 `json:"p90_minutes"`
}

// Service accumulates turnaround samples per test. Samples are kept as raw
// minutes so percentiles stay exact at this volume.
type Service struct {
	mu      sync.RWMutex
	samples map[string][]float64
}

func NewService() *Service {
	return &Service{samples: make(map[string][]float64)}
}

// Observe records one collected-to-reported interval. Samples with
// reported before collected are discarded as clock noise.
func (s *Service) Observe(testName string, collected, reported time.Time) {
	minutes := reported.Sub(collected).Minutes()
	if minutes < 0 {
		return
	}
	s.mu.Lock()
	s.samples[testName] = append(s.samples[testName], minutes)
	s.mu.Unlock()
}

// Stats returns per-test turnaround summaries, sorted by test name.
func (s *Service) Stats() []TurnaroundStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TurnaroundStats, 0, len(s.samples))
	for name, values := range s.samples {
		out = append(out, summarize(name, values))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestName < out[j].TestName })
	return out
}

// StatsFor returns the summary for one test, ok=false when no samples.
func (s *Service) StatsFor(testName string) (TurnaroundStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values, ok := s.samples[testName]
	if !ok {
		return TurnaroundStats{}, false
	}
	return summarize(testName, values), true
}

func summarize(name string, values []float64) TurnaroundStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	return TurnaroundStats{
		TestName:      name,
		Count:         n,
		MeanMinutes:   sum / float64(n),
		MedianMinutes: percentile(sorted, 0.5),
		P90Minutes:    percentile(sorted, 0.9),
	}
}

// percentile uses nearest-rank on a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
