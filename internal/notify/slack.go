// Package notify posts a run summary to Slack after each poll.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"
)

// Summary is the run outcome a notifier reports.
type Summary struct {
	RunID          string
	AgentsTotal    int
	AgentsExcluded int
	NewMessages    int
	SendFailures   int
	Duration       time.Duration
}

// Notifier posts run summaries to a Slack channel.
type Notifier struct {
	api     *slack.Client
	channel string
}

// New creates a notifier. Extra options are passed through to the Slack
// client, which lets tests point it at a fake API server.
func New(token, channel string, opts ...slack.Option) *Notifier {
	return &Notifier{
		api:     slack.New(token, opts...),
		channel: channel,
	}
}

// Notify posts a one-line run summary.
func (n *Notifier) Notify(ctx context.Context, s Summary) error {
	text := fmt.Sprintf("graphpoll run %s: %d agents (%d excluded), %d new messages, %d send failures in %s",
		s.RunID, s.AgentsTotal, s.AgentsExcluded, s.NewMessages, s.SendFailures, s.Duration.Truncate(time.Millisecond))
	_, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	return nil
}
