// Package notify delivers outbound case notifications. Delivery is
// best-effort: the orchestration service logs failures and moves on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/application/port"
)

// Config holds webhook notifier settings
type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

// WebhookNotifier posts notification events as JSON to a configured endpoint
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(cfg Config, logger *zap.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify posts the event to the webhook endpoint
func (n *WebhookNotifier) Notify(ctx context.Context, event *port.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	n.logger.Debug("Notification delivered",
		zap.String("case_number", event.CaseNumber),
		zap.String("to_state", event.ToState))
	return nil
}

// LogNotifier is the fallback when no webhook is configured: events are
// written to the log and reported as delivered.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event
func (n *LogNotifier) Notify(_ context.Context, event *port.NotificationEvent) error {
	n.logger.Info("Notification",
		zap.String("case_number", event.CaseNumber),
		zap.String("recipient", event.Recipient),
		zap.String("message", event.Message))
	return nil
}

// Verify interface compliance
var (
	_ port.Notifier = (*WebhookNotifier)(nil)
	_ port.Notifier = (*LogNotifier)(nil)
)
