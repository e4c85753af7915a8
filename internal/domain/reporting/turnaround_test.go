package reporting

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labwatch/labwatch/internal/platform/auth"
)

func observeMinutes(s *Service, test string, minutes ...float64) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, m := range minutes {
		s.Observe(test, base, base.Add(time.Duration(m*float64(time.Minute))))
	}
}

func TestStats_MeanMedianP90(t *testing.T) {
	s := NewService()
	observeMinutes(s, "glucose", 10, 20, 30, 40, 50, 60, 70, 80, 90, 100)

	stats, ok := s.StatsFor("glucose")
	if !ok {
		t.Fatal("expected stats for glucose")
	}
	if stats.Count != 10 {
		t.Errorf("expected 10 samples, got %d", stats.Count)
	}
	if math.Abs(stats.MeanMinutes-55) > 0.001 {
		t.Errorf("expected mean 55, got %v", stats.MeanMinutes)
	}
	if stats.MedianMinutes != 50 {
		t.Errorf("expected median 50, got %v", stats.MedianMinutes)
	}
	if stats.P90Minutes != 90 {
		t.Errorf("expected p90 90, got %v", stats.P90Minutes)
	}
}

func TestStats_SingleSample(t *testing.T) {
	s := NewService()
	observeMinutes(s, "troponin", 42)

	stats, ok := s.StatsFor("troponin")
	if !ok || stats.Count != 1 {
		t.Fatalf("expected one sample, got %+v", stats)
	}
	if stats.MeanMinutes != 42 || stats.MedianMinutes != 42 || stats.P90Minutes != 42 {
		t.Errorf("single sample should dominate all stats: %+v", stats)
	}
}

func TestStats_SortedByTestName(t *testing.T) {
	s := NewService()
	observeMinutes(s, "wbc", 5)
	observeMinutes(s, "glucose", 5)
	observeMinutes(s, "potassium", 5)

	all := s.Stats()
	if len(all) != 3 {
		t.Fatalf("expected 3 tests, got %d", len(all))
	}
	if all[0].TestName != "glucose" || all[1].TestName != "potassium" || all[2].TestName != "wbc" {
		t.Errorf("not sorted: %v", all)
	}
}

func TestObserve_DiscardsNegativeIntervals(t *testing.T) {
	s := NewService()
	base := time.Now()
	s.Observe("glucose", base, base.Add(-time.Minute))
	if _, ok := s.StatsFor("glucose"); ok {
		t.Error("negative interval should be discarded")
	}
}

func TestHandler_Turnaround(t *testing.T) {
	s := NewService()
	observeMinutes(s, "glucose", 30, 60)

	e := echo.New()
	NewHandler(s, nil).RegisterRoutes(e.Group("/api/v1", auth.DevAuthMiddleware()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/turnaround", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"glucose"`) {
		t.Errorf("turnaround: got %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/turnaround/unknown", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unsampled test, got %d", rec.Code)
	}
}

func TestHandler_MeasuresWithoutDatabase(t *testing.T) {
	e := echo.New()
	NewHandler(NewService(), nil).RegisterRoutes(e.Group("/api/v1", auth.DevAuthMiddleware()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/measures", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("listing measures needs no database, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/measures/alert-volume-by-severity/evaluate", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without database, got %d", rec.Code)
	}
}

func TestFindMeasure(t *testing.T) {
	if FindMeasure("alert-volume-by-severity") == nil {
		t.Error("expected measure to exist")
	}
	if FindMeasure("no-such-measure") != nil {
		t.Error("expected nil for unknown measure")
	}
	for _, m := range PredefinedMeasures {
		if m.SQL == "" || m.Name == "" || m.Description == "" {
			t.Errorf("measure %s is incomplete", m.ID)
		}
	}
}
