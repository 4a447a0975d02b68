package ports

import (
	"context"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// Authenticator obtains and revokes access tokens for chat users.
type Authenticator interface {
	// Token returns the current token of the user, or domain.ErrTokenUnavailable.
	Token(ctx context.Context, key domain.SessionKey) (string, error)

	// SignInLink returns the URL the user follows to sign in.
	SignInLink(ctx context.Context, key domain.SessionKey) (string, error)

	// SignOut forgets the user's token.
	SignOut(ctx context.Context, key domain.SessionKey) error
}

// CodeRedeemer is implemented by authenticators that hand the user a magic
// code to paste back into the chat after signing in.
type CodeRedeemer interface {
	Redeem(ctx context.Context, key domain.SessionKey, code string) (string, error)
}

// Calendar is the calendar and profile service of a signed-in user.
type Calendar interface {
	Profile(ctx context.Context, token string) (domain.Profile, error)

	// UpcomingEvents returns at most max events between start and end,
	// ordered by start time ascending.
	UpcomingEvents(ctx context.Context, token string, start, end time.Time, max int) ([]domain.Event, error)

	CreateEvent(ctx context.Context, token string, draft domain.EventDraft) (domain.Event, error)
}

// Recognizer resolves natural-language date and time expressions.
type Recognizer interface {
	// Recognize returns zero or more candidates, relative to ref.
	Recognize(ctx context.Context, text string, ref time.Time) ([]domain.Candidate, error)
}
