package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is one observability record emitted by the orchestrator.
type Event struct {
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Alerter is the observability port: the orchestrator records events
// without knowing where they are routed.
type Alerter interface {
	Record(ctx context.Context, event Event)
}

var _ Alerter = (*Dispatcher)(nil)

// Dispatcher routes every event to the structured log and additionally
// posts critical events to a webhook when one is configured. A webhook
// failure is itself only logged; alerting never fails the run.
type Dispatcher struct {
	webhookURL string
	client     *http.Client
}

func NewDispatcher(webhookURL string) *Dispatcher {
	return &Dispatcher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Dispatcher) Record(ctx context.Context, event Event) {
	args := make([]any, 0, len(event.Fields)*2)
	for k, v := range event.Fields {
		args = append(args, k, v)
	}

	switch event.Severity {
	case SeverityCritical:
		slog.Error(event.Message, args...)
	case SeverityWarning:
		slog.Warn(event.Message, args...)
	default:
		slog.Info(event.Message, args...)
	}

	if event.Severity == SeverityCritical && d.webhookURL != "" {
		d.post(ctx, event)
	}
}

func (d *Dispatcher) post(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Failed to marshal alert event", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		slog.Warn("Failed to build alert webhook request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		slog.Warn("Alert webhook delivery failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("Alert webhook returned non-2xx status", "status", resp.StatusCode)
	}
}
