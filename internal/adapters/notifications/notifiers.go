// Package notifications delivers emergency alerts to external channels.
// Notifiers implement ports.EventSink and ignore every topic except the
// alert ones, so they can sit in the daemon's sink chain unchanged.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// SlackNotifier posts alert events to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Slack notifier for the given webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish implements ports.EventSink.
func (n *SlackNotifier) Publish(ctx context.Context, topic string, payload interface{}) error {
	alert, ok := alertFromEvent(topic, payload)
	if !ok {
		return nil
	}

	color := "#EF4444"
	if topic == ports.TopicAlertResolved {
		color = "#10B981"
	}

	body, err := json.Marshal(map[string]interface{}{
		"text": slackText(topic, alert),
		"attachments": []map[string]interface{}{
			{
				"color": color,
				"fields": []map[string]interface{}{
					{"title": "Alert", "value": alert.Title, "short": true},
					{"title": "Status", "value": string(alert.Status), "short": true},
					{"title": "Reported by", "value": alert.ReportedBy, "short": true},
					{"title": "Details", "value": alert.Message, "short": false},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack notification failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func slackText(topic string, alert *domain.Alert) string {
	if topic == ports.TopicAlertResolved {
		return fmt.Sprintf(":white_check_mark: Resolved: %s", alert.Title)
	}
	return fmt.Sprintf(":rotating_light: %s alert: %s", alert.Type, alert.Title)
}

// SMTPConfig holds mail delivery settings for the EmailNotifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// EmailNotifier mails raised alerts to a fixed recipient list.
type EmailNotifier struct {
	config SMTPConfig
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates an email notifier.
func NewEmailNotifier(config SMTPConfig) *EmailNotifier {
	return &EmailNotifier{config: config, send: smtp.SendMail}
}

// Publish implements ports.EventSink. Only raised alerts are mailed;
// acknowledgements and resolutions stay on the faster channels.
func (n *EmailNotifier) Publish(ctx context.Context, topic string, payload interface{}) error {
	if topic != ports.TopicAlertRaised {
		return nil
	}
	alert, ok := payload.(*domain.Alert)
	if !ok || len(n.config.To) == 0 {
		return nil
	}

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)
	msg := buildEmailMessage(n.config.From, n.config.To, alert)
	if err := n.send(addr, auth, n.config.From, n.config.To, msg); err != nil {
		return fmt.Errorf("email notification failed: %w", err)
	}
	return nil
}

func buildEmailMessage(from string, to []string, alert *domain.Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: [%s] %s\r\n", alert.Type, alert.Title)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")

	fmt.Fprintf(&b, "Alert:       %s\n", alert.Title)
	fmt.Fprintf(&b, "Type:        %s\n", alert.Type)
	fmt.Fprintf(&b, "Reported by: %s\n", alert.ReportedBy)
	fmt.Fprintf(&b, "Raised at:   %s\n", alert.CreatedAt.Format(time.RFC3339))
	if alert.TaskID != nil {
		fmt.Fprintf(&b, "Task:        %s\n", alert.TaskID)
	}
	if alert.DeviceID != nil {
		fmt.Fprintf(&b, "Device:      %s\n", alert.DeviceID)
	}
	if alert.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", alert.Message)
	}
	return []byte(b.String())
}

// alertFromEvent extracts the alert payload from alert topics.
func alertFromEvent(topic string, payload interface{}) (*domain.Alert, bool) {
	switch topic {
	case ports.TopicAlertRaised, ports.TopicAlertResolved:
	default:
		return nil, false
	}
	alert, ok := payload.(*domain.Alert)
	return alert, ok
}

var (
	_ ports.EventSink = (*SlackNotifier)(nil)
	_ ports.EventSink = (*EmailNotifier)(nil)
)
