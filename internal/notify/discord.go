package notify

import (
	"context"
	"fmt"
	"net/http"
)

// discordMaxContent is the webhook limit on message content length.
const discordMaxContent = 2000

type discordMessage struct {
	Content         string                 `json:"content"`
	AllowedMentions discordAllowedMentions `json:"allowed_mentions"`
}

// discordAllowedMentions with an empty Parse list stops market titles from
// pinging roles or @everyone.
type discordAllowedMentions struct {
	Parse []string `json:"parse"`
}

// DiscordSender posts focus alerts to a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{webhookURL: webhookURL, client: newHTTPClient()}
}

// Send posts the title in bold above message, truncated to the webhook limit.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	msg := discordMessage{
		Content:         truncateRunes(fmt.Sprintf("**%s**\n%s", title, message), discordMaxContent),
		AllowedMentions: discordAllowedMentions{Parse: []string{}},
	}
	if _, err := postJSON(ctx, d.client, d.webhookURL, msg); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

func (d *DiscordSender) Name() string { return "discord" }

// truncateRunes cuts s to at most n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
