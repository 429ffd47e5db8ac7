package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"proxyprobe/internal/model"
)

const defaultAPI = "https://api.telegram.org"

type Notifier struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
	limiter  *rate.Limiter
}

func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiURL:   defaultAPI,
		client:   &http.Client{Timeout: 10 * time.Second},
		// one message per second to a single chat
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SendMessage sends a text message to the configured chat.
func (n *Notifier) SendMessage(ctx context.Context, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	jsonBody, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram API error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// NotifyNew sends one message per endpoint that was recorded for the first
// time. It returns how many were sent before the first error.
func (n *Notifier) NotifyNew(ctx context.Context, results []model.TrialResult) (int, error) {
	sent := 0
	for _, r := range results {
		if !r.OK() || r.AlreadyRecorded {
			continue
		}
		if err := n.SendMessage(ctx, formatResult(r)); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func formatResult(r model.TrialResult) string {
	head := "egress " + r.ObservedAddress
	if r.Country != "" {
		head += " (" + r.Country + ")"
	}
	return head + "\n" + r.Endpoint
}
