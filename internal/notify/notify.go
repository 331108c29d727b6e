// Package notify posts run-completion notifications to a Slack incoming
// webhook. Notification failures are reported but never affect the run
// outcome.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/sudodev-ai/sudodev/pkg/model"
)

// SlackNotifier sends run results to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
}

// NewSlack creates a notifier for the given webhook URL.
func NewSlack(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

// RunFinished posts a one-line summary of a completed run.
func (n *SlackNotifier) RunFinished(ctx context.Context, r *model.RunResult) error {
	emoji := ":x:"
	verdict := "unresolved"
	if r.Resolved() {
		emoji = ":white_check_mark:"
		verdict = "resolved"
	}

	text := fmt.Sprintf("%s SudoDev run for `%s`: %s (phase: %s, attempts: %d, took %s)",
		emoji, r.InstanceID, verdict, r.Phase, r.Attempts,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	if r.Error != "" {
		text += "\nerror: " + r.Error
	}

	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	return nil
}
