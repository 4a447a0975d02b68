package prompt

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/aretw0/calendarbot/pkg/cards"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// DefaultTokenTimeout is how long a sign-in card stays valid.
const DefaultTokenTimeout = 5 * time.Minute

const stateExpires = "expires"

var magicCode = regexp.MustCompile(`^\d{6}$`)

// OAuthSettings configure the sign-in card and its lifetime.
type OAuthSettings struct {
	Title   string
	Text    string
	Timeout time.Duration
}

// OAuth resolves to the user's access token. It resolves silently when the
// user is already signed in; otherwise it sends a sign-in card and waits for a
// tokens/response event, a magic code, or the timeout. On timeout it resolves
// to the empty token.
type OAuth struct {
	auth     ports.Authenticator
	settings OAuthSettings
}

// NewOAuth creates a token prompt backed by auth.
func NewOAuth(auth ports.Authenticator, settings OAuthSettings) *OAuth {
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTokenTimeout
	}
	if settings.Title == "" {
		settings.Title = "Login"
	}
	if settings.Text == "" {
		settings.Text = "Please login"
	}
	return &OAuth{auth: auth, settings: settings}
}

func (p *OAuth) Begin(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	if token, ok := p.current(ctx, call.Key); ok {
		return domain.Recognized(token), nil, nil
	}
	msgs, err := p.card(ctx, call.Key)
	if err != nil {
		return domain.PromptResult{}, nil, err
	}
	call.State[stateExpires] = call.Now.Add(p.settings.Timeout).UTC().Format(time.RFC3339Nano)
	return domain.Waiting(), msgs, nil
}

func (p *OAuth) Continue(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	if p.expired(call) {
		return domain.Recognized(""), nil, nil
	}

	if token, ok := call.Turn.Token(); ok {
		return domain.Recognized(token), nil, nil
	}
	text, ok := reply(call.Turn)
	if !ok {
		return domain.Waiting(), nil, nil
	}

	if redeemer, ok := p.auth.(ports.CodeRedeemer); ok && magicCode.MatchString(text) {
		token, err := redeemer.Redeem(ctx, call.Key, text)
		if err == nil && token != "" {
			return domain.Recognized(token), nil, nil
		}
	}
	if token, ok := p.current(ctx, call.Key); ok {
		return domain.Recognized(token), nil, nil
	}

	msgs, err := p.card(ctx, call.Key)
	if err != nil {
		return domain.PromptResult{}, nil, err
	}
	return domain.Invalid("not signed in"), msgs, nil
}

func (p *OAuth) current(ctx context.Context, key domain.SessionKey) (string, bool) {
	token, err := p.auth.Token(ctx, key)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

func (p *OAuth) card(ctx context.Context, key domain.SessionKey) ([]domain.Message, error) {
	link, err := p.auth.SignInLink(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("sign-in link: %w", err)
	}
	msg := cards.Attach(cards.SignIn(p.settings.Title, p.settings.Text, link))
	msg.Text = p.settings.Text
	return []domain.Message{msg}, nil
}

func (p *OAuth) expired(call *domain.PromptCall) bool {
	raw, ok := call.State[stateExpires]
	if !ok {
		return false
	}
	expires, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return true
	}
	return call.Now.After(expires)
}
