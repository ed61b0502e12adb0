// Package notify carries match notifications out of the pipeline. The
// matching engine decides who gets notified; delivery here is
// fire-and-forget, failures are logged and never retried.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Notification is one deliverable message. Channel selects the
// transport; Recipient is an email address or a webhook URL.
type Notification struct {
	Channel      string   `json:"channel"`
	Recipient    string   `json:"recipient,omitempty"`
	Subject      string   `json:"subject"`
	TenderID     int64    `json:"tenderId"`
	TenderName   string   `json:"tenderName"`
	CriteriaID   int64    `json:"criteriaId"`
	CriteriaName string   `json:"criteriaName"`
	DetailURL    string   `json:"detailUrl,omitempty"`
	TenderNames  []string `json:"tenderNames,omitempty"` // digest only
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// WebhookNotifier posts the notification as JSON to the recipient URL
// (chat channel integrations).
type WebhookNotifier struct {
	client *http.Client
}

func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Recipient, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// LogNotifier is the fallback when no delivery backend is configured
// (email sending lives outside this service). It makes every decided
// notification visible to operators.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	log.Printf("[notify] %s -> %s: %s (tender %d, criteria %d)",
		n.Channel, n.Recipient, n.Subject, n.TenderID, n.CriteriaID)
	return nil
}

// ChannelNotifier routes chat notifications to the webhook backend and
// everything else to the email backend.
type ChannelNotifier struct {
	Chat  Notifier
	Email Notifier
}

func (c *ChannelNotifier) Notify(ctx context.Context, n Notification) error {
	if n.Channel == "chat" && c.Chat != nil {
		return c.Chat.Notify(ctx, n)
	}
	if c.Email != nil {
		return c.Email.Notify(ctx, n)
	}
	return LogNotifier{}.Notify(ctx, n)
}
