// Package webhook handles asynchronous review alerts for rejected
// transactions.
//
// Alerts are sent in a goroutine so they never block the HTTP response.
// Failed deliveries are logged but not retried (a production system would
// use a persistent queue with exponential backoff).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"meridia/risk-engine/internal/domain"
)

// Payload is the body sent to the configured alert URL.
type Payload struct {
	Event       string                `json:"event"` // always "transaction_rejected"
	TriggeredAt time.Time             `json:"triggered_at"`
	Decision    domain.DecisionRecord `json:"decision"`
}

// Notifier sends rejection alerts to a single configured endpoint.
// A Notifier with an empty URL is valid and does nothing.
type Notifier struct {
	url    string
	client *http.Client
}

// New creates a Notifier with a sensible default HTTP client timeout.
func New(url string) *Notifier {
	return &Notifier{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// NotifyAsync fires an alert in the background when the decision is a
// rejection and an endpoint is configured.
func (n *Notifier) NotifyAsync(rec *domain.DecisionRecord) {
	if n.url == "" || rec.Decision != domain.DecisionRejected {
		return
	}
	go n.send(rec)
}

// send delivers a single alert and logs the outcome.
func (n *Notifier) send(rec *domain.DecisionRecord) {
	payload := Payload{
		Event:       "transaction_rejected",
		TriggeredAt: time.Now().UTC(),
		Decision:    *rec,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("webhook: failed to marshal payload", "decision_id", rec.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		slog.Error("webhook: failed to build request", "decision_id", rec.ID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Risk-Event", "transaction_rejected")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("webhook: delivery failed", "url", n.url, "decision_id", rec.ID, "error", err)
		return
	}
	defer resp.Body.Close()

	slog.Info("webhook: delivered",
		"url", n.url,
		"status", resp.StatusCode,
		"decision_id", rec.ID,
		"risk_score", rec.RiskScore,
	)
}
