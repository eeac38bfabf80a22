package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type WebhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Timestamp   time.Time `json:"timestamp"`
	Fields      []Field   `json:"fields,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// WebhookSink posts toasts as Discord-style embeds
type WebhookSink struct {
	webhookURL string
	source     string
	httpClient *http.Client
}

// NewWebhookSink returns nil when webhookURL is empty
func NewWebhookSink(webhookURL, source string) *WebhookSink {
	if webhookURL == "" {
		return nil
	}
	return &WebhookSink{
		webhookURL: webhookURL,
		source:     source,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *WebhookSink) Forward(ctx context.Context, t Toast) error {
	embed := Embed{
		Title:       fmt.Sprintf("%s: %s", w.source, t.Title),
		Description: t.Message,
		Color:       colorForKind(t.Kind),
		Timestamp:   t.Created,
		Fields: []Field{
			{Name: "kind", Value: string(t.Kind), Inline: true},
			{Name: "toast_id", Value: t.ID, Inline: true},
		},
	}
	return w.Send(ctx, WebhookMessage{Embeds: []Embed{embed}})
}

func (w *WebhookSink) Send(ctx context.Context, msg WebhookMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status: %d", resp.StatusCode)
	}
	return nil
}

func colorForKind(k Kind) int {
	switch k {
	case KindError:
		return 0xF44336
	case KindWarning:
		return 0xFF9800
	case KindSuccess:
		return 0x4CAF50
	default:
		return 0x808080
	}
}
