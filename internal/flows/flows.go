// Package flows defines the conversations of the calendar bot: the main menu
// and the new-event wizard, plus the logout interrupt composed ahead of both.
package flows

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/calendarbot/internal/logging"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
	"github.com/aretw0/calendarbot/pkg/prompt"
)

// Sequence names.
const (
	MainSequence     = "main"
	NewEventSequence = "new-event"
)

// OptionNoPrompt restarts the main sequence without the login prompt.
const OptionNoPrompt = "no-prompt"

// DefaultUpcomingWindow is how far ahead "show calendar" looks.
const DefaultUpcomingWindow = 7 * 24 * time.Hour

// MaxUpcomingEvents caps the events shown by "show calendar".
const MaxUpcomingEvents = 3

// Prompt names shared by the sequences.
const (
	promptOAuth     = "oauth"
	promptChoice    = "choice"
	promptSubject   = "subject"
	promptConfirm   = "confirm"
	promptAttendees = "attendees"
	promptStart     = "start"
	promptEnd       = "end"
)

const (
	msgSignedOut     = "You have been signed out."
	msgLoginFailed   = "We couldn't log you in. Please try again later."
	msgWentWrong     = "Something went wrong. Please try again."
	msgNotUnderstood = "I'm sorry, I didn't understand. Please try again."
)

// Deps are the collaborators the flows call.
type Deps struct {
	Auth       ports.Authenticator
	Calendar   ports.Calendar
	Recognizer ports.Recognizer
	Logger     *slog.Logger
	Hooks      domain.LifecycleHooks

	// TokenTimeout bounds the wait for a sign-in. Zero means 5 minutes.
	TokenTimeout time.Duration

	// UpcomingWindow is the look-ahead of "show calendar". Zero means 7 days.
	UpcomingWindow time.Duration

	// Location is the zone natural-language dates are resolved in. Nil means Local.
	Location *time.Location
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.UpcomingWindow <= 0 {
		d.UpcomingWindow = DefaultUpcomingWindow
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	return d
}

// Sequences builds the main and new-event sequences. Main comes first and is
// the entry sequence.
func Sequences(d Deps) []domain.Sequence {
	d = d.withDefaults()
	oauth := prompt.NewOAuth(d.Auth, prompt.OAuthSettings{
		Title:   "Login",
		Text:    "Please login",
		Timeout: d.TokenTimeout,
	})
	return []domain.Sequence{
		newMainFlow(d, oauth).sequence(),
		newEventFlow(d, oauth).sequence(),
	}
}

// IsLogout reports whether text asks to sign out.
func IsLogout(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(t, "log out") || strings.HasPrefix(t, "logout")
}

// LogoutFilter signs the user out on "log out" / "logout", whatever the
// session is waiting for.
func LogoutFilter(d Deps) domain.Filter {
	d = d.withDefaults()
	return func(ctx context.Context, turn domain.Turn) (bool, []domain.Message, error) {
		if !turn.IsMessage() || !IsLogout(turn.Text) {
			return false, nil, nil
		}
		d.signOut(ctx, turn.Key)
		return true, []domain.Message{domain.TextMessage(msgSignedOut)}, nil
	}
}

// signOut revokes the user's token. Failures are logged; the user is told
// they are signed out either way.
func (d Deps) signOut(ctx context.Context, key domain.SessionKey) {
	err := d.Hooks.TrackCall(ctx, "sign_out", func() error {
		return d.Auth.SignOut(ctx, key)
	})
	if err != nil {
		d.Logger.Error("Could not sign out", "session", key.String(), "err", err)
	}
}

// now returns the step clock in the configured zone.
func (d Deps) now(sc *domain.StepContext) time.Time {
	return sc.Now.In(d.Location)
}
