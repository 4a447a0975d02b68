package oauth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/aretw0/calendarbot/internal/logging"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	// DefaultStateTTL bounds how long a sign-in link stays usable.
	DefaultStateTTL = 10 * time.Minute
	// DefaultCodeTTL bounds how long a magic code can be redeemed.
	DefaultCodeTTL = 5 * time.Minute
)

// DefaultScopes are the Graph permissions the bot needs.
var DefaultScopes = []string{"openid", "profile", "offline_access", "User.Read", "MailboxSettings.Read", "Calendars.ReadWrite"}

// ErrUnknownState is returned by Complete for states that were never issued
// or have expired.
var ErrUnknownState = errors.New("unknown or expired sign-in state")

// Config describes the Azure AD application.
type Config struct {
	ClientID     string
	ClientSecret string
	Tenant       string
	RedirectURL  string
	Scopes       []string
	// AuthURL and TokenURL override the Azure AD endpoints derived from Tenant.
	AuthURL  string
	TokenURL string
}

// OAuth2 builds the golang.org/x/oauth2 configuration.
func (c Config) OAuth2() *oauth2.Config {
	tenant := c.Tenant
	if tenant == "" {
		tenant = "common"
	}
	endpoint := endpoints.AzureAD(tenant)
	if c.AuthURL != "" {
		endpoint.AuthURL = c.AuthURL
	}
	if c.TokenURL != "" {
		endpoint.TokenURL = c.TokenURL
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  c.RedirectURL,
		Scopes:       scopes,
	}
}

// Authenticator implements ports.Authenticator and ports.CodeRedeemer.
type Authenticator struct {
	config   *oauth2.Config
	tokens   ports.TokenStore
	stateTTL time.Duration
	codeTTL  time.Duration
	logger   *slog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithStateTTL sets how long a sign-in link stays valid.
func WithStateTTL(d time.Duration) Option {
	return func(a *Authenticator) { a.stateTTL = d }
}

// WithCodeTTL sets how long a magic code stays valid.
func WithCodeTTL(d time.Duration) Option {
	return func(a *Authenticator) { a.codeTTL = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// New creates an Authenticator.
func New(config *oauth2.Config, tokens ports.TokenStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		config:   config,
		tokens:   tokens,
		stateTTL: DefaultStateTTL,
		codeTTL:  DefaultCodeTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func tokenKey(key domain.SessionKey) string { return "oauth:token:" + key.UserID }
func codeKey(key domain.SessionKey) string  { return "oauth:code:" + key.ID() }
func stateKey(state string) string          { return "oauth:state:" + state }

// Token returns the user's access token, refreshing it when it has expired
// and a refresh token is available.
func (a *Authenticator) Token(ctx context.Context, key domain.SessionKey) (string, error) {
	tok, err := a.load(ctx, key)
	if err != nil {
		return "", err
	}
	if tok.Valid() {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" {
		return "", domain.ErrTokenUnavailable
	}

	fresh, err := a.config.TokenSource(ctx, tok).Token()
	if err != nil {
		a.logger.Warn("token refresh failed", "user", key.UserID, "err", err)
		return "", domain.ErrTokenUnavailable
	}
	if err := a.store(ctx, key, fresh); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// SignInLink issues a new state for key and returns the authorization URL.
func (a *Authenticator) SignInLink(ctx context.Context, key domain.SessionKey) (string, error) {
	state := uuid.NewString()
	if err := a.tokens.Put(ctx, stateKey(state), []byte(key.ID()), a.stateTTL); err != nil {
		return "", fmt.Errorf("failed to store sign-in state: %w", err)
	}
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// SignOut forgets the user's token.
func (a *Authenticator) SignOut(ctx context.Context, key domain.SessionKey) error {
	if err := a.tokens.Delete(ctx, tokenKey(key)); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Completion is the result of a successful callback.
type Completion struct {
	Key       domain.SessionKey
	Token     string
	MagicCode string
}

// Complete exchanges an authorization code for a token. The state must have
// been issued by SignInLink and is consumed.
func (a *Authenticator) Complete(ctx context.Context, state, code string) (Completion, error) {
	raw, err := a.tokens.Get(ctx, stateKey(state))
	if err != nil {
		if errors.Is(err, domain.ErrTokenUnavailable) {
			return Completion{}, ErrUnknownState
		}
		return Completion{}, err
	}
	_ = a.tokens.Delete(ctx, stateKey(state))

	key, err := domain.ParseSessionKey(string(raw))
	if err != nil {
		return Completion{}, err
	}

	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return Completion{}, fmt.Errorf("code exchange failed: %w", err)
	}
	if err := a.store(ctx, key, tok); err != nil {
		return Completion{}, err
	}

	magic, err := newMagicCode()
	if err != nil {
		return Completion{}, err
	}
	if err := a.tokens.Put(ctx, codeKey(key), []byte(magic), a.codeTTL); err != nil {
		return Completion{}, fmt.Errorf("failed to store magic code: %w", err)
	}

	a.logger.Info("user signed in", "session", key.String())
	return Completion{Key: key, Token: tok.AccessToken, MagicCode: magic}, nil
}

// Redeem trades a magic code issued by Complete for the user's token.
func (a *Authenticator) Redeem(ctx context.Context, key domain.SessionKey, code string) (string, error) {
	want, err := a.tokens.Get(ctx, codeKey(key))
	if err != nil {
		return "", err
	}
	if string(want) != code {
		return "", domain.ErrTokenUnavailable
	}
	_ = a.tokens.Delete(ctx, codeKey(key))
	return a.Token(ctx, key)
}

func (a *Authenticator) load(ctx context.Context, key domain.SessionKey) (*oauth2.Token, error) {
	raw, err := a.tokens.Get(ctx, tokenKey(key))
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &tok, nil
}

func (a *Authenticator) store(ctx context.Context, key domain.SessionKey, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := a.tokens.Put(ctx, tokenKey(key), raw, 0); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func newMagicCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate magic code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
