package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"flowscope/internal/model"

	"github.com/sirupsen/logrus"
)

// WebhookNotifier POSTs each alert as JSON to a configured endpoint.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
	logger  *logrus.Logger
}

// WebhookPayload is the body sent for each alert.
type WebhookPayload struct {
	ID        string           `json:"id"`
	Type      model.AlertType  `json:"type"`
	Severity  model.Severity   `json:"severity"`
	Message   string           `json:"message"`
	Flow      model.FlowRecord `json:"flow"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewWebhookNotifier creates a webhook notifier for the given URL.
func NewWebhookNotifier(url string, enabled bool, logger *logrus.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		enabled: enabled,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SendAlert implements the Notifier interface - POSTs the alert.
func (wn *WebhookNotifier) SendAlert(alert model.Alert) error {
	if !wn.enabled {
		return nil
	}

	payload := WebhookPayload{
		ID:        alert.ID,
		Type:      alert.Type,
		Severity:  alert.Severity,
		Message:   alert.Message,
		Flow:      alert.Flow,
		Timestamp: alert.Timestamp,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), "POST", wn.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert webhook: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	wn.logger.Debugf("Alert %s delivered to webhook", alert.ID)
	return nil
}

// IsEnabled reports whether the notifier will deliver anything.
func (wn *WebhookNotifier) IsEnabled() bool {
	return wn.enabled
}
