package alert

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drsnap/internal/config"
)

func webhookConfig(url string) *config.Config {
	return &config.Config{
		Environment: "staging",
		Alerts: config.AlertConfig{
			WebhookURL: url,
			AuthToken:  "tok-123",
		},
	}
}

func TestNewReturnsNopWhenUnconfigured(t *testing.T) {
	n := New(&config.Config{Environment: "staging"})
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.Notify(context.Background(), "subject", "body"))
}

func TestWebhookNotify(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(webhookConfig(srv.URL))
	require.NoError(t, n.Notify(context.Background(), "dr self-test failed", "verdict: failed"))

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "dr self-test failed", gotPayload["subject"])
	assert.Equal(t, "verdict: failed", gotPayload["body"])
	assert.Equal(t, "staging", gotPayload["environment"])
	assert.NotEmpty(t, gotPayload["timestamp"])
}

func TestWebhookNotifyNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(webhookConfig(srv.URL))
	err := n.Notify(context.Background(), "s", "b")
	assert.ErrorContains(t, err, "status 502")
}

func TestWebhookNotifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	n := New(webhookConfig(srv.URL))
	err := n.Notify(context.Background(), "s", "b")
	assert.ErrorContains(t, err, "failed to deliver notification")
}
