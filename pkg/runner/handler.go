package runner

import (
	"context"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// IOHandler is the strategy for talking to the console user, so the same
// loop serves people (TextHandler) and scripts (JSONHandler).
type IOHandler interface {
	// Output presents the bot's replies.
	Output(ctx context.Context, msgs []domain.Message) error

	// Input reads the next user message. It returns io.EOF when the user is done.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a note from the host rather than the bot.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms markdown before it is printed, e.g. to ANSI.
type ContentRenderer func(string) (string, error)
