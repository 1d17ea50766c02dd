package slackbot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"
)

// Notifier posts sync cycle results to one channel.
type Notifier struct {
	api       *slack.Client
	channelID string
}

func NewNotifier(token, channelID string, opts ...slack.Option) *Notifier {
	return &Notifier{
		api:       slack.New(token, opts...),
		channelID: channelID,
	}
}

func (n *Notifier) Notify(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	_, _, err := n.api.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("post to %s: %w", n.channelID, err)
	}
	log.Printf("slack notify channel=%s chars=%d", n.channelID, len(text))
	return nil
}

// NotifyCycle posts the outcome of one sync cycle.
func (n *Notifier) NotifyCycle(ctx context.Context, ok bool, message string) error {
	return n.Notify(ctx, CycleMessage(ok, message))
}

func CycleMessage(ok bool, message string) string {
	if ok {
		return "Sync complete: " + message
	}
	return "Sync failed: " + message
}
