package results

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/labwatch/labwatch/internal/domain/alerts"
	"github.com/labwatch/labwatch/internal/domain/catalog"
	"github.com/labwatch/labwatch/internal/platform/escalation"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, *alerts.Alert) error { return nil }

type recordingTurnaround struct {
	mu      sync.Mutex
	samples []string
}

func (r *recordingTurnaround) Observe(testName string, _, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, testName)
}

func newIngestService(t *testing.T) (*Service, *alerts.Service, *recordingTurnaround) {
	t.Helper()
	table, err := catalog.NewTable(catalog.DefaultTestDefinitions())
	if err != nil {
		t.Fatal(err)
	}
	policies, err := catalog.NewPolicySet(catalog.DefaultEscalationPolicies())
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.NewService(table, policies)
	alertSvc := alerts.NewService(alerts.NewMemoryRepository(), cat, nopNotifier{}, escalation.NewScheduler(), zerolog.Nop())
	tat := &recordingTurnaround{}
	svc := NewService(NewClassifier(cat, zerolog.Nop()), alertSvc, tat, zerolog.Nop())
	return svc, alertSvc, tat
}

func TestIngest_CriticalResultRaisesAlert(t *testing.T) {
	svc, alertSvc, _ := newIngestService(t)

	a, err := svc.Ingest(context.Background(), Result{SubjectID: "P1", TestName: "potassium", Value: 6.8})
	if err != nil {
		t.Fatal(err)
	}
	if a == nil || a.Severity != catalog.SeverityCritical {
		t.Fatalf("expected CRITICAL alert, got %+v", a)
	}

	stored, err := alertSvc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("alert not in ledger: %v", err)
	}
	if stored.Message != "CRITICAL HIGH: potassium = 6.8 mEq/L (> 6.5)" {
		t.Errorf("unexpected message: %q", stored.Message)
	}
}

func TestIngest_NormalResultNoAlert(t *testing.T) {
	svc, alertSvc, _ := newIngestService(t)

	a, err := svc.Ingest(context.Background(), Result{SubjectID: "P1", TestName: "glucose", Value: 90})
	if err != nil || a != nil {
		t.Fatalf("expected quiet ingestion, got %+v, %v", a, err)
	}
	if _, total, _ := alertSvc.List(context.Background(), 10, 0); total != 0 {
		t.Errorf("ledger should stay empty, has %d", total)
	}
}

func TestIngest_RecordsTurnaroundSample(t *testing.T) {
	svc, _, tat := newIngestService(t)

	collected := time.Now().UTC().Add(-45 * time.Minute)
	reported := time.Now().UTC()
	_, err := svc.Ingest(context.Background(), Result{
		SubjectID:   "P1",
		TestName:    "glucose",
		Value:       90,
		CollectedAt: &collected,
		ReportedAt:  &reported,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(tat.samples) != 1 || tat.samples[0] != "glucose" {
		t.Errorf("expected one turnaround sample, got %v", tat.samples)
	}

	// Without both timestamps no sample is recorded.
	_, _ = svc.Ingest(context.Background(), Result{SubjectID: "P1", TestName: "glucose", Value: 90})
	if len(tat.samples) != 1 {
		t.Errorf("sample recorded without timestamps: %v", tat.samples)
	}
}
