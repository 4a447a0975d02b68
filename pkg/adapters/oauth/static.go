package oauth

import (
	"context"
	"regexp"
	"sync"

	"github.com/aretw0/calendarbot/pkg/domain"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

// Static hands every user the same preconfigured token. It backs the local
// console, where there is no browser redirect. After SignOut, any six digit
// code signs the user back in.
type Static struct {
	token string
	link  string

	mu        sync.Mutex
	signedOut map[string]bool
}

// NewStatic creates a Static authenticator. An empty token means nobody is
// signed in until a code is redeemed, which then also fails.
func NewStatic(token, link string) *Static {
	return &Static{token: token, link: link, signedOut: make(map[string]bool)}
}

func (s *Static) Token(_ context.Context, key domain.SessionKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.signedOut[key.UserID] {
		return "", domain.ErrTokenUnavailable
	}
	return s.token, nil
}

func (s *Static) SignInLink(context.Context, domain.SessionKey) (string, error) {
	return s.link, nil
}

func (s *Static) SignOut(_ context.Context, key domain.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedOut[key.UserID] = true
	return nil
}

func (s *Static) Redeem(ctx context.Context, key domain.SessionKey, code string) (string, error) {
	if !sixDigits.MatchString(code) {
		return "", domain.ErrTokenUnavailable
	}
	s.mu.Lock()
	delete(s.signedOut, key.UserID)
	s.mu.Unlock()
	return s.Token(ctx, key)
}
