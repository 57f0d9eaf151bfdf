package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
)

var emojiMap = map[string]string{
	"positive": "👍",
	"negative": "👎",
}

// Discord posts messages to a Discord webhook. An empty webhook URL disables
// delivery entirely.
type Discord struct {
	webhookURL string
	client     *resty.Client
}

func NewDiscord(webhookURL string, timeout time.Duration) *Discord {
	client := resty.New()
	// The webhook must never stall the response pipeline
	client.SetTimeout(timeout)

	return &Discord{
		webhookURL: webhookURL,
		client:     client,
	}
}

func (d *Discord) Notify(ctx context.Context, message string) error {
	if d.webhookURL == "" {
		log.Println("DISCORD_WEBHOOK_URL is not set, skipping notification")
		return nil
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"content": message}).
		Post(d.webhookURL)
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// BuildFeedbackMessage composes the notification line for a single submission.
// Username may be empty when no owner context is available.
func BuildFeedbackMessage(username, content, evaluation string) string {
	emoji, ok := emojiMap[evaluation]
	if !ok {
		emoji = "💬"
	}

	if username == "" {
		return fmt.Sprintf("**%s New feedback**\n\n%s", emoji, content)
	}
	return fmt.Sprintf("**%s New feedback from %s**\n\n%s", emoji, username, content)
}
