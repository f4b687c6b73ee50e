package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trendwatch/report"
)

// Webhook posts reports to a feishu, dingtalk, wework, or ntfy endpoint.
// Each vendor wraps the message in its own JSON envelope; ntfy takes the
// raw body.
type Webhook struct {
	kind   string
	url    string
	client *http.Client
}

// NewWebhook wires one webhook channel. kind must be one of feishu,
// dingtalk, wework, or ntfy.
func NewWebhook(kind, url string, client *http.Client) (*Webhook, error) {
	switch kind {
	case "feishu", "dingtalk", "wework", "ntfy":
	default:
		return nil, fmt.Errorf("webhook: unknown kind %q", kind)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{kind: kind, url: url, client: client}, nil
}

// Name identifies the channel in logs.
func (w *Webhook) Name() string { return w.kind }

// Format is the markup convention the channel expects.
func (w *Webhook) Format() report.Format {
	switch w.kind {
	case "feishu":
		return report.FormatFeishu
	case "dingtalk":
		return report.FormatDingTalk
	case "wework":
		return report.FormatWeWork
	default:
		return report.FormatNtfy
	}
}

// Send delivers one rendered message in the vendor's envelope.
func (w *Webhook) Send(ctx context.Context, text string) error {
	var (
		body        []byte
		contentType = "application/json"
		err         error
	)

	switch w.kind {
	case "feishu":
		body, err = json.Marshal(map[string]any{
			"msg_type": "text",
			"content":  map[string]string{"text": text},
		})
	case "dingtalk":
		title := text
		if i := strings.IndexByte(title, '\n'); i > 0 {
			title = title[:i]
		}
		body, err = json.Marshal(map[string]any{
			"msgtype":  "markdown",
			"markdown": map[string]string{"title": title, "text": text},
		})
	case "wework":
		body, err = json.Marshal(map[string]any{
			"msgtype":  "markdown",
			"markdown": map[string]string{"content": text},
		})
	case "ntfy":
		body = []byte(text)
		contentType = "text/plain; charset=utf-8"
	}
	if err != nil {
		return fmt.Errorf("webhook %s: encoding payload: %w", w.kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: creating request: %w", w.kind, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: posting: %w", w.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook %s: status %d: %s", w.kind, resp.StatusCode, snippet)
	}
	return nil
}
