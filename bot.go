package calendarbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/calendarbot/internal/flows"
	"github.com/aretw0/calendarbot/internal/logging"
	"github.com/aretw0/calendarbot/internal/runtime"
	"github.com/aretw0/calendarbot/pkg/adapters/memory"
	"github.com/aretw0/calendarbot/pkg/adapters/when"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
	"github.com/aretw0/calendarbot/pkg/session"
)

// DefaultWelcome greets users joining a conversation with the bot.
const DefaultWelcome = "Welcome to Microsoft Graph CalendarBot. Type anything to get started."

// FaultReply is sent when a turn fails past the point where a step could
// answer the user itself.
const FaultReply = "The bot encountered an error or bug. To continue to run this bot, please fix the bot source code."

// Bot is the high-level entry point. It owns the dialog engine and the
// session manager and implements ports.TurnHandler.
type Bot struct {
	engine   *runtime.Engine
	sessions *session.Manager

	deps    flows.Deps
	store   ports.SessionStore
	locker  ports.DistributedLocker
	welcome string
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.TurnHandler = (*Bot)(nil)

// New wires the calendar flows with the given collaborators.
func New(opts ...Option) (*Bot, error) {
	b := &Bot{
		welcome: DefaultWelcome,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.deps.Auth == nil {
		return nil, errors.New("calendarbot: an Authenticator is required")
	}
	if b.deps.Calendar == nil {
		return nil, errors.New("calendarbot: a Calendar is required")
	}
	if b.deps.Recognizer == nil {
		b.deps.Recognizer = when.New()
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	b.deps.Logger = b.logger
	if b.deps.Location == nil {
		b.deps.Location = time.Local
	}
	loc := b.deps.Location

	engine, err := runtime.NewEngine(
		flows.Sequences(b.deps),
		runtime.WithEntry(flows.MainSequence, nil),
		runtime.WithFilter(flows.LogoutFilter(b.deps)),
		runtime.WithLifecycleHooks(b.deps.Hooks),
		runtime.WithLogger(b.logger),
		runtime.WithClock(func() time.Time { return b.now().In(loc) }),
	)
	if err != nil {
		return nil, fmt.Errorf("calendarbot: %w", err)
	}
	b.engine = engine

	sessionOpts := []session.Option{session.WithLogger(b.logger), session.WithClock(b.now)}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker))
	}
	b.sessions = session.NewManager(b.store, sessionOpts...)

	return b, nil
}

// Turn processes one inbound turn. Turns of the same session are serialized;
// the session is saved after every turn.
//
// A step fault is logged, the session is reset and the user receives
// FaultReply; the error is not returned. Storage and lock failures are.
func (b *Bot) Turn(ctx context.Context, turn domain.Turn) ([]domain.Message, error) {
	if !turn.Key.Valid() {
		return nil, domain.ErrInvalidSessionKey
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = b.now()
	}

	if turn.Type == domain.TurnConversationUpdate {
		return b.greet(turn), nil
	}

	var out []domain.Message
	var runErr error
	err := b.sessions.Update(ctx, turn.Key, func(ctx context.Context, s *domain.Session) error {
		out, runErr = b.engine.Run(ctx, s, turn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if runErr != nil {
		b.logger.Error("turn failed", "session", turn.Key.String(), "err", runErr)
		return append(out, domain.TextMessage(FaultReply)), nil
	}
	return out, nil
}

func (b *Bot) greet(turn domain.Turn) []domain.Message {
	var out []domain.Message
	for _, member := range turn.MembersAdded {
		if member != turn.RecipientID {
			out = append(out, domain.TextMessage(b.welcome))
		}
	}
	return out
}

// Inspect returns the registered sequences.
func (b *Bot) Inspect() []ports.SequenceInfo {
	return b.engine.Inspect()
}

// Sessions exposes the session manager for administration.
func (b *Bot) Sessions() *session.Manager {
	return b.sessions
}
