// Package notify implements the optional fire-and-forget usage ping sent to
// a personal Telegram chat after a successful subscribe. It is an observer:
// never awaited by the request path and allowed to fail silently (logged).
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notifier observes successful subscribe requests.
type Notifier interface {
	SubscriberJoined(email string)
}

// Telegram posts usage pings via the Telegram bot sendMessage API.
type Telegram struct {
	apiBase string
	token   string
	chatID  string
	http    *http.Client
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		apiBase: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// SubscriberJoined fires the ping in the background and returns immediately.
func (t *Telegram) SubscriberJoined(email string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.send(ctx, fmt.Sprintf("New subscriber on Yoruba Proverbs: %s", email)); err != nil {
			slog.Warn("notify: usage ping failed", "err", err)
		}
	}()
}

func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage: status %d", resp.StatusCode)
	}
	return nil
}
