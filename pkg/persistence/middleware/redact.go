package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

// DefaultRedactPatterns hide attendee addresses and anything token shaped.
var DefaultRedactPatterns = []string{`(?i)attendees`, `(?i)token`}

type redactMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks context bag and prompt state entries whose key
// matches one of the patterns when a session is loaded. It is meant for
// read-only views such as the session admin commands; writes pass through.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	return m.next.Save(ctx, sessionID, session)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	masked := session.Clone()
	maskMap(masked.Values, m.patterns)
	maskMap(masked.Options, m.patterns)
	if masked.Pending != nil {
		for k := range masked.Pending.State {
			if m.matches(k) {
				masked.Pending.State[k] = Mask
			}
		}
	}
	return masked, nil
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func maskMap(values map[string]any, patterns []*regexp.Regexp) {
	for k, v := range values {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				values[k] = Mask
				masked = true
				break
			}
		}
		if sub, ok := v.(map[string]any); ok && !masked {
			cp := make(map[string]any, len(sub))
			for sk, sv := range sub {
				cp[sk] = sv
			}
			maskMap(cp, patterns)
			values[k] = cp
		}
	}
}
