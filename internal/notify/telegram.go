package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/metalagman/tasks/internal/config"
	"github.com/rs/zerolog/log"
)

const defaultTelegramAPI = "https://api.telegram.org"

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

// NewTelegram creates a Telegram sender. A nil client uses http.DefaultClient.
func NewTelegram(cfg config.Telegram, client *http.Client) *Telegram {
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = defaultTelegramAPI
	}
	return &Telegram{client: client, baseURL: base, token: cfg.BotToken, chatID: cfg.ChatID}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send posts message to the configured chat.
func (t *Telegram) Send(ctx context.Context, message string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram: bot token or chat id is missing")
	}
	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: message})
	if err != nil {
		return fmt.Errorf("telegram: encode request: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	log.Info().Str("chat_id", t.chatID).Msg("telegram message delivered")
	return nil
}
