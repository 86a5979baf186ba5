// Package notify delivers on-call escalation alerts. Delivery is
// fire-and-forget from the engine's point of view: the workflow result
// never depends on whether the page actually landed, so failures are
// logged and retried a bounded number of times, then dropped.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Escalation is one on-call alert raised by finalizing a clerking note.
type Escalation struct {
	PatientID   string   `json:"patient_id,omitempty"`
	PatientName string   `json:"patient_name"`
	NoteID      string   `json:"note_id"`
	Problems    []string `json:"problems"`
	RaisedAt    time.Time `json:"raised_at"`
}

// OncallNotifier pushes an escalation to whoever carries the pager.
type OncallNotifier interface {
	Escalate(ctx context.Context, e Escalation) error
}

// WebhookNotifier POSTs escalations as JSON to a configured endpoint,
// retrying transient failures with a short backoff.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	retries int
	backoff time.Duration
	logger  zerolog.Logger
}

func NewWebhookNotifier(url string, logger zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		retries: 3,
		backoff: 500 * time.Millisecond,
		logger:  logger,
	}
}

func (n *WebhookNotifier) Escalate(ctx context.Context, e Escalation) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal escalation: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < n.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.backoff):
			}
		}
		if lastErr = n.post(ctx, payload); lastErr == nil {
			return nil
		}
		n.logger.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("escalation delivery failed")
	}
	return fmt.Errorf("escalate after %d attempts: %w", n.retries, lastErr)
}

func (n *WebhookNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes escalations to the structured log only. Used when no
// webhook is configured (development, tests).
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Escalate(_ context.Context, e Escalation) error {
	n.logger.Info().
		Str("patient", e.PatientName).
		Str("note_id", e.NoteID).
		Strs("problems", e.Problems).
		Msg("on-call escalation")
	return nil
}
