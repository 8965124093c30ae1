package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const telegramAPI = "https://api.telegram.org"

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// telegramResult is the Bot API envelope; ok=false can arrive with a 200.
type telegramResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// TelegramSender posts focus alerts to one chat through the Bot API.
type TelegramSender struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
}

func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		apiBase: telegramAPI,
		token:   token,
		chatID:  chatID,
		client:  newHTTPClient(),
	}
}

// Send calls sendMessage with the title in bold above message.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	body, err := postJSON(ctx, t.client, endpoint, telegramMessage{
		ChatID:                t.chatID,
		Text:                  fmt.Sprintf("*%s*\n%s", title, message),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		// The bot token is part of the URL; keep it out of logged errors.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = t.apiBase + "/bot<redacted>/sendMessage"
		}
		return fmt.Errorf("telegram: %w", err)
	}

	var res telegramResult
	if json.Unmarshal(body, &res) == nil && !res.OK && res.Description != "" {
		return fmt.Errorf("telegram: %s", res.Description)
	}
	return nil
}

func (t *TelegramSender) Name() string { return "telegram" }
