package prompt

import (
	"strings"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// question renders the first-entry message of a prompt.
func question(opts domain.PromptOptions) []domain.Message {
	if opts.Text == "" {
		return nil
	}
	msg := domain.TextMessage(opts.Text)
	msg.Suggestions = opts.Choices
	return []domain.Message{msg}
}

// retry renders the message sent after a rejected reply.
func retry(opts domain.PromptOptions) []domain.Message {
	if opts.RetryText == "" {
		return question(opts)
	}
	msg := domain.TextMessage(opts.RetryText)
	msg.Suggestions = opts.Choices
	return []domain.Message{msg}
}

// reply returns the trimmed text of a message turn.
func reply(turn domain.Turn) (string, bool) {
	if !turn.IsMessage() {
		return "", false
	}
	return strings.TrimSpace(turn.Text), true
}
