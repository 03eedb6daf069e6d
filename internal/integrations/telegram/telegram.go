// Package telegram sends notifications through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxAttempts  = 3
	initialDelay = 500 * time.Millisecond
)

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notifier posts messages to one chat through a bot
type Notifier struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
	log     *logrus.Logger
	delay   time.Duration
}

// NewNotifier creates a notifier; baseURL is usually https://api.telegram.org
func NewNotifier(baseURL, token, chatID string, log *logrus.Logger) *Notifier {
	return &Notifier{
		baseURL: baseURL,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
		delay:   initialDelay,
	}
}

// Send delivers message to the configured chat. The destination is added as
// a header line since the bot writes to a single operator chat.
func (n *Notifier) Send(ctx context.Context, destination, message string) bool {
	text := message
	if destination != "" {
		text = fmt.Sprintf("To: %s\n%s", destination, message)
	}
	if err := n.sendMessage(ctx, text); err != nil {
		n.log.Errorf("[TELEGRAM] Failed to send message: %v", err)
		return false
	}
	n.log.Info("[TELEGRAM] Message sent")
	return true
}

func (n *Notifier) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: n.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(n.delay << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if ctx.Err() != nil {
				return lastErr
			}
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr apiResponse
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Description != "" {
				lastErr = fmt.Errorf("telegram API error (%d): %s", resp.StatusCode, apiErr.Description)
			} else {
				lastErr = fmt.Errorf("telegram API error (%d)", resp.StatusCode)
			}
			// only rate limits and server errors are worth another try
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return lastErr
		}
		return nil
	}

	return fmt.Errorf("max attempts (%d) exceeded: %w", maxAttempts, lastErr)
}
