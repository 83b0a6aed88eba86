// Package alerting posts dataset refresh failures to a chat or generic
// webhook.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Webhook payload formats.
const (
	TypeSlack   = "slack"
	TypeDiscord = "discord"
	TypeGeneric = "generic"
)

// AlertConfig holds alerting configuration.
type AlertConfig struct {
	// WebhookURL is a Slack, Discord or custom endpoint. Empty disables alerts.
	WebhookURL string
	// WebhookType determines the payload format; empty means detect from URL.
	WebhookType string
	// MinFailuresBeforeAlert is the number of consecutive failed refreshes
	// before an alert is sent.
	MinFailuresBeforeAlert int
	// Timeout for HTTP requests
	Timeout time.Duration
}

// Enabled reports whether a webhook is configured.
func (c AlertConfig) Enabled() bool { return c.WebhookURL != "" }

// DetectType picks the payload format from the webhook host.
func DetectType(url string) string {
	switch {
	case strings.Contains(url, "slack.com"):
		return TypeSlack
	case strings.Contains(url, "discord.com"):
		return TypeDiscord
	default:
		return TypeGeneric
	}
}

// Alerter sends alerts to configured webhooks.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
}

// NewAlerter creates a new alerter instance.
func NewAlerter(cfg AlertConfig) *Alerter {
	if cfg.WebhookType == "" {
		cfg.WebhookType = DetectType(cfg.WebhookURL)
	}
	if cfg.MinFailuresBeforeAlert <= 0 {
		cfg.MinFailuresBeforeAlert = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// RefreshAlert describes a run of failed dataset refreshes.
type RefreshAlert struct {
	JobName             string
	Source              string
	ConsecutiveFailures int
	LastError           string
	Duration            time.Duration
	Timestamp           time.Time
}

// SendRefreshAlert posts alert once the consecutive failure threshold is
// reached. A nil or disabled Alerter does nothing.
func (a *Alerter) SendRefreshAlert(ctx context.Context, alert RefreshAlert) error {
	if a == nil || !a.cfg.Enabled() {
		return nil
	}

	if alert.ConsecutiveFailures < a.cfg.MinFailuresBeforeAlert {
		log.Printf("alerting: %d failures below threshold (%d), skipping",
			alert.ConsecutiveFailures, a.cfg.MinFailuresBeforeAlert)
		return nil
	}

	var payload []byte
	var err error

	switch a.cfg.WebhookType {
	case TypeSlack:
		payload, err = buildSlackPayload(alert)
	case TypeDiscord:
		payload, err = buildDiscordPayload(alert)
	default:
		payload, err = buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Printf("alerting: sent alert for %d consecutive refresh failures", alert.ConsecutiveFailures)
	return nil
}

func buildSlackPayload(alert RefreshAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf(":x: Dataset refresh failing: %s", alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Source:*\n%s", alert.Source)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Consecutive failures:*\n%d", alert.ConsecutiveFailures)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Last error:*\n%s", alert.LastError),
				},
			},
		},
	}
	return json.Marshal(payload)
}

func buildDiscordPayload(alert RefreshAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("Dataset refresh failing: %s", alert.JobName),
				"description": fmt.Sprintf("%d consecutive failures", alert.ConsecutiveFailures),
				"color":       16711680, // red
				"fields": []map[string]interface{}{
					{"name": "Source", "value": alert.Source, "inline": false},
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
					{"name": "Last error", "value": alert.LastError, "inline": false},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}

func buildGenericPayload(alert RefreshAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"alert_type":           "dataset_refresh_failure",
		"job_name":             alert.JobName,
		"source":               alert.Source,
		"consecutive_failures": alert.ConsecutiveFailures,
		"last_error":           alert.LastError,
		"duration_ms":          alert.Duration.Milliseconds(),
		"timestamp":            alert.Timestamp.Format(time.RFC3339),
	}
	return json.Marshal(payload)
}
