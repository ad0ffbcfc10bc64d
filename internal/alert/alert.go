// Package alert delivers operator notifications for failed self-tests and
// compliance breaches. Call sites treat delivery as fire-and-forget:
// errors are logged, never propagated.
package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"drsnap/internal/config"
)

type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Nop is used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error {
	return nil
}

type Webhook struct {
	url         string
	authToken   string
	environment string
	client      *http.Client
}

func New(cfg *config.Config) Notifier {
	if !cfg.AlertsEnabled() {
		return Nop{}
	}
	return &Webhook{
		url:         cfg.Alerts.WebhookURL,
		authToken:   cfg.Alerts.AuthToken,
		environment: cfg.Environment,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Notify(ctx context.Context, subject, body string) error {
	payload := map[string]string{
		"subject":     subject,
		"body":        body,
		"environment": w.environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+w.authToken)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
