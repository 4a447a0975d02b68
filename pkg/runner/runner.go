package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/calendarbot/internal/logging"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// DefaultSessionKey identifies the console conversation.
var DefaultSessionKey = domain.SessionKey{ConversationID: "console", UserID: "console-user"}

// Runner feeds console lines to a TurnHandler until the input ends or the
// user types exit or quit.
type Runner struct {
	bot     ports.TurnHandler
	handler IOHandler
	key     domain.SessionKey
	greet   bool
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy (default: TextHandler on stdio).
func WithHandler(h IOHandler) Option {
	return func(r *Runner) { r.handler = h }
}

// WithSessionKey sets the conversation and user the console speaks as.
func WithSessionKey(key domain.SessionKey) Option {
	return func(r *Runner) { r.key = key }
}

// WithGreeting sends a conversation update before the first prompt, so the
// bot can welcome the user.
func WithGreeting(greet bool) Option {
	return func(r *Runner) { r.greet = greet }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a Runner for bot.
func New(bot ports.TurnHandler, opts ...Option) *Runner {
	r := &Runner{
		bot:    bot,
		key:    DefaultSessionKey,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run executes the loop. It returns nil on io.EOF, exit or ctx cancellation.
func (r *Runner) Run(ctx context.Context) error {
	if r.greet {
		turn := domain.Turn{
			Type:         domain.TurnConversationUpdate,
			Key:          r.key,
			MembersAdded: []string{r.key.UserID},
			RecipientID:  "bot",
		}
		if err := r.exchange(ctx, turn); err != nil {
			return err
		}
	}

	for {
		text, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if text == "" {
			continue
		}
		if cmd := strings.ToLower(text); cmd == "exit" || cmd == "quit" {
			return r.handler.SystemOutput(ctx, "Bye!")
		}

		if err := r.exchange(ctx, domain.NewMessageTurn(r.key, text)); err != nil {
			return err
		}
	}
}

func (r *Runner) exchange(ctx context.Context, turn domain.Turn) error {
	msgs, err := r.bot.Turn(ctx, turn)
	if err != nil {
		r.logger.Error("turn failed", "session", r.key.String(), "err", err)
		return fmt.Errorf("turn failed: %w", err)
	}
	if err := r.handler.Output(ctx, msgs); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}
