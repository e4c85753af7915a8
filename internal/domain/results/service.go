package results

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/labwatch/labwatch/internal/domain/alerts"
)

// TurnaroundRecorder receives collected-to-reported samples for tests
// whose results carry both timestamps. *reporting.Service satisfies it.
type TurnaroundRecorder interface {
	Observe(testName string, collected, reported time.Time)
}

// Service is the ingestion entry point: classify a result, raise an alert
// when it is critical, and feed turnaround reporting.
type Service struct {
	classifier *Classifier
	alerts     *alerts.Service
	turnaround TurnaroundRecorder
	logger     zerolog.Logger
}

func NewService(classifier *Classifier, alertSvc *alerts.Service, turnaround TurnaroundRecorder, logger zerolog.Logger) *Service {
	return &Service{
		classifier: classifier,
		alerts:     alertSvc,
		turnaround: turnaround,
		logger:     logger,
	}
}

// Ingest classifies one result. A nil alert with nil error means the value
// was unremarkable. When the result is critical, the alert is recorded and
// routed before returning; a routing failure (alerts.ErrPolicyNotFound)
// comes back alongside the recorded alert so callers can distinguish
// "recorded but unrouted" from success.
func (s *Service) Ingest(ctx context.Context, r Result) (*alerts.Alert, error) {
	if s.turnaround != nil && r.CollectedAt != nil && r.ReportedAt != nil {
		s.turnaround.Observe(r.TestName, *r.CollectedAt, *r.ReportedAt)
	}

	alert, err := s.classifier.Classify(r)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, nil
	}

	if err := s.alerts.Raise(ctx, alert); err != nil {
		return alert, err
	}
	return alert, nil
}
