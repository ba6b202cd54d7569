// Package notify pushes passing records to a Telegram channel. Delivery is
// best effort; a failed send never blocks persistence.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/sirenfeed/siren/internal/pipeline"
	"github.com/sirenfeed/siren/internal/retry"
)

const defaultAPIBase = "https://api.telegram.org"

type Notifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	log     *slog.Logger
}

// New returns nil when token or chat ID is empty, which disables
// notifications entirely.
func New(token, chatID string, log *slog.Logger) *Notifier {
	if token == "" || chatID == "" {
		return nil
	}
	return &Notifier{
		token:   token,
		chatID:  chatID,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Send delivers one record, retrying with backoff on transient failure.
func (n *Notifier) Send(ctx context.Context, rec pipeline.Record) error {
	if n == nil {
		return nil
	}
	text := formatRecord(rec)
	return retry.WithRetry(ctx, retry.Config{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}, func() error {
		return n.sendOnce(ctx, text)
	})
}

func (n *Notifier) sendOnce(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API status %d", resp.StatusCode)
	}
	return nil
}

func formatRecord(rec pipeline.Record) string {
	marker := "❗"
	if rec.HighImportance {
		marker = "‼️"
	}
	return fmt.Sprintf("%s <b>%s</b>\n\n%s\n\n<i>%s</i>\n\n%s",
		marker,
		html.EscapeString(rec.Title),
		html.EscapeString(rec.Summary),
		html.EscapeString(rec.ImportanceReasoning),
		rec.Link)
}
