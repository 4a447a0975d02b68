package ports

import (
	"context"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// SessionStore defines the interface for persisting sessions between turns.
// Turns of one conversation may be separated by arbitrary wall-clock time.
type SessionStore interface {
	// Save persists the session under the given ID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all active session IDs.
	List(ctx context.Context) ([]string, error)
}

// TokenStore keeps opaque token material with an optional expiry.
type TokenStore interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns domain.ErrTokenUnavailable when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	Delete(ctx context.Context, key string) error
}
