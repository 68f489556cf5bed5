// Package notify delivers run outcomes to places other than the terminal.
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

	"robobackup/internal/domain"
	"robobackup/internal/logging"
)

// Webhook posts an interactive card to a chat webhook (Feishu/Lark card
// schema 2.0).
type Webhook struct {
	URL    string
	Client *http.Client
	Logger logging.Logger
}

func NewWebhook(url string, logger logging.Logger) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Logger: logger,
	}
}

type card map[string]any

func (w *Webhook) Notify(ctx context.Context, outcome domain.Outcome) error {
	data, err := json.Marshal(buildCard(outcome))
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		w.Logger.Verbosef("Webhook error response: %s", strings.TrimSpace(string(body)))
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}

func buildCard(o domain.Outcome) card {
	template := "green"
	if !o.Succeeded() {
		template = "red"
	}

	var content strings.Builder
	content.WriteString(o.Message)
	if o.Command != "" {
		fmt.Fprintf(&content, "\n\n**Command**\n`%s`", o.Command)
	}
	if o.LogPath != "" {
		fmt.Fprintf(&content, "\n\n**Log** %s", o.LogPath)
	}

	return card{
		"msg_type": "interactive",
		"card": card{
			"schema": "2.0",
			"header": card{
				"title": card{
					"tag":     "plain_text",
					"content": o.Title,
				},
				"subtitle": card{
					"tag":     "plain_text",
					"content": "robobackup " + o.Mode.String(),
				},
				"template": template,
			},
			"body": card{
				"direction": "vertical",
				"elements": []card{
					{
						"tag":        "markdown",
						"text_align": "left",
						"content":    content.String(),
					},
				},
			},
		},
	}
}
