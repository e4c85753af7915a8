// Package notification delivers critical-value alerts to clinical staff over
// email, SMS, and pager, with template rendering, an in-memory delivery log,
// retry support, and Echo HTTP handlers for inspection.
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Channel is the medium a notification travels over.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPager Channel = "pager"
)

// Delivery represents a single outbound notification and its outcome.
type Delivery struct {
	ID         string            `json:"id"`
	Channel    Channel           `json:"channel"`
	Role       string            `json:"role,omitempty"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject,omitempty"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is the interface for sending SMS messages. Pager delivery rides
// the same gateway.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// TemplateCriticalValue is the template every alert tier renders.
const TemplateCriticalValue = "critical-value"

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateCriticalValue,
			Name:    "Critical Value Alert",
			Subject: "{{severity}} lab value: {{test}} for patient {{subject_id}}",
			Body:    "{{message}}. Patient {{subject_id}}. Acknowledge in the alert console; unacknowledged alerts auto-escalate.",
		},
		{
			ID:      "escalation-notice",
			Name:    "Escalation Notice",
			Subject: "ESCALATION: unacknowledged {{severity}} alert for patient {{subject_id}}",
			Body:    "A {{severity}} alert ({{test}}) for patient {{subject_id}} has passed its acknowledgment window: {{message}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SMSCall records a single call to SendSMS.
type SMSCall struct {
	To   string
	Body string
}

// MockSMSSender is a test double for SMSSender.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
	FailError  string
}

// SendSMS records the call and optionally returns an error.
func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded SMS calls.
func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Manager orchestrates sending, storage, and retrieval of deliveries.
type Manager struct {
	emailSender EmailSender
	smsSender   SMSSender
	templates   *TemplateEngine
	directory   *Directory

	mu         sync.RWMutex
	deliveries map[string]*Delivery
	order      []string
}

// NewManager constructs a Manager.
func NewManager(email EmailSender, sms SMSSender, tpl *TemplateEngine, dir *Directory) *Manager {
	return &Manager{
		emailSender: email,
		smsSender:   sms,
		templates:   tpl,
		directory:   dir,
		deliveries:  make(map[string]*Delivery),
	}
}

// Send dispatches a delivery through its channel, assigns an ID and
// timestamps, and records the outcome.
func (m *Manager) Send(ctx context.Context, d *Delivery) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()
	d.Status = "pending"

	sendErr := m.dispatch(ctx, d)
	if sendErr != nil {
		d.Status = "failed"
		d.Error = sendErr.Error()
	} else {
		d.Status = "sent"
		sentAt := time.Now().UTC()
		d.SentAt = &sentAt
	}

	m.mu.Lock()
	if _, seen := m.deliveries[d.ID]; !seen {
		m.order = append(m.order, d.ID)
	}
	m.deliveries[d.ID] = d
	m.mu.Unlock()

	return sendErr
}

func (m *Manager) dispatch(ctx context.Context, d *Delivery) error {
	switch d.Channel {
	case ChannelEmail:
		return m.emailSender.SendEmail(ctx, d.Recipient, d.Subject, d.Body)
	case ChannelSMS, ChannelPager:
		return m.smsSender.SendSMS(ctx, d.Recipient, d.Body)
	default:
		return fmt.Errorf("unsupported channel: %s", d.Channel)
	}
}

// SendToRole resolves a role through the directory, renders a template, and
// delivers over the role's preferred channel.
func (m *Manager) SendToRole(ctx context.Context, role, templateID string, data map[string]string) (*Delivery, error) {
	contact, ok := m.directory.Lookup(role)
	if !ok {
		return nil, fmt.Errorf("no contact on file for role %q", role)
	}

	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	d := &Delivery{
		Channel:    contact.Channel,
		Role:       role,
		Recipient:  contact.Recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
		Data:       data,
	}
	if err := m.Send(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

// Get retrieves a delivery by ID.
func (m *Manager) Get(_ context.Context, id string) (*Delivery, error) {
	m.mu.RLock()
	d, ok := m.deliveries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("delivery %q not found", id)
	}
	return d, nil
}

// ListByRole returns deliveries addressed to a role, oldest first, up to
// limit.
func (m *Manager) ListByRole(_ context.Context, role string, limit int) ([]*Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Delivery
	for _, id := range m.order {
		d := m.deliveries[id]
		if d.Role == role {
			result = append(result, d)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

// Retry re-sends a failed delivery. Returns an error if the delivery is not
// in "failed" status.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	d, ok := m.deliveries[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("delivery %q not found", id)
	}
	if d.Status != "failed" {
		return fmt.Errorf("delivery %q is not in failed status (current: %s)", id, d.Status)
	}

	sendErr := m.dispatch(ctx, d)

	m.mu.Lock()
	if sendErr != nil {
		d.Status = "failed"
		d.Error = sendErr.Error()
	} else {
		d.Status = "sent"
		sentAt := time.Now().UTC()
		d.SentAt = &sentAt
		d.Error = ""
	}
	m.mu.Unlock()

	return sendErr
}

// Stats returns counts of deliveries grouped by status.
func (m *Manager) Stats(_ context.Context) map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int)
	for _, d := range m.deliveries {
		stats[d.Status]++
	}
	return stats
}

// Handler exposes delivery inspection over HTTP via Echo.
type Handler struct {
	manager *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{manager: mgr}
}

// RegisterRoutes registers all notification routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications/stats", h.HandleStats)
	g.GET("/notifications/:id", h.HandleGet)
	g.GET("/notifications", h.HandleList)
	g.POST("/notifications/:id/retry", h.HandleRetry)
}

// HandleGet handles GET /notifications/:id.
func (h *Handler) HandleGet(c echo.Context) error {
	d, err := h.manager.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, d)
}

// HandleList handles GET /notifications?role=...
func (h *Handler) HandleList(c echo.Context) error {
	role := c.QueryParam("role")
	if role == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "role query parameter is required"})
	}

	list, err := h.manager.ListByRole(c.Request().Context(), role, 100)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, list)
}

// HandleRetry handles POST /notifications/:id/retry.
func (h *Handler) HandleRetry(c echo.Context) error {
	id := c.Param("id")
	if err := h.manager.Retry(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	d, _ := h.manager.Get(c.Request().Context(), id)
	return c.JSON(http.StatusOK, d)
}

// HandleStats handles GET /notifications/stats.
func (h *Handler) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Stats(c.Request().Context()))
}
