package calendarbot

import (
	"log/slog"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithAuthenticator sets the identity provider used by the sign-in prompt
// and the logout interrupt. Required.
func WithAuthenticator(a ports.Authenticator) Option {
	return func(b *Bot) { b.deps.Auth = a }
}

// WithCalendar sets the calendar service. Required.
func WithCalendar(c ports.Calendar) Option {
	return func(b *Bot) { b.deps.Calendar = c }
}

// WithRecognizer replaces the default English date recognizer.
func WithRecognizer(r ports.Recognizer) Option {
	return func(b *Bot) { b.deps.Recognizer = r }
}

// WithStore sets where sessions are persisted (default: in memory).
func WithStore(s ports.SessionStore) Option {
	return func(b *Bot) { b.store = s }
}

// WithLocker serializes turns of one session across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(b *Bot) { b.locker = l }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) { b.deps.Hooks = b.deps.Hooks.Merge(hooks) }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// WithTokenTimeout bounds how long a sign-in card waits.
func WithTokenTimeout(d time.Duration) Option {
	return func(b *Bot) { b.deps.TokenTimeout = d }
}

// WithUpcomingWindow sets the look-ahead of "show calendar".
func WithUpcomingWindow(d time.Duration) Option {
	return func(b *Bot) { b.deps.UpcomingWindow = d }
}

// WithLocation sets the zone dates are resolved and shown in.
func WithLocation(loc *time.Location) Option {
	return func(b *Bot) { b.deps.Location = loc }
}

// WithWelcome replaces the greeting sent to members joining a conversation.
func WithWelcome(text string) Option {
	return func(b *Bot) { b.welcome = text }
}
