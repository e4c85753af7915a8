package notification

import (
	"context"
	"strconv"

	"github.com/labwatch/labwatch/internal/domain/alerts"
)

// AlertDispatcher adapts the Manager to the alert service's Notifier
// interface. Each tier role becomes one rendered delivery.
type AlertDispatcher struct {
	manager *Manager
}

func NewAlertDispatcher(manager *Manager) *AlertDispatcher {
	return &AlertDispatcher{manager: manager}
}

func (d *AlertDispatcher) Notify(ctx context.Context, role string, a *alerts.Alert) error {
	data := map[string]string{
		"severity":   string(a.Severity),
		"test":       a.TestName,
		"subject_id": a.SubjectID,
		"value":      strconv.FormatFloat(a.Value, 'g', -1, 64),
		"unit":       a.Unit,
		"message":    a.Message,
		"alert_id":   a.ID.String(),
	}
	tpl := TemplateCriticalValue
	if a.Escalated {
		tpl = "escalation-notice"
	}
	_, err := d.manager.SendToRole(ctx, role, tpl, data)
	return err
}
