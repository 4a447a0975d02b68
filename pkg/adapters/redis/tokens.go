package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// TokenStore implements ports.TokenStore using Redis key expiry.
type TokenStore struct {
	client *backend.Client
	prefix string
}

// NewTokenStore creates a token store sharing client.
func NewTokenStore(client *backend.Client, prefix string) *TokenStore {
	return &TokenStore{client: client, prefix: prefix}
}

func (t *TokenStore) key(k string) string {
	return t.prefix + "token:" + k
}

// Put stores value under key. A zero ttl never expires.
func (t *TokenStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.client.Set(ctx, t.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Get returns domain.ErrTokenUnavailable for missing or expired keys.
func (t *TokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := t.client.Get(ctx, t.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrTokenUnavailable
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	return val, nil
}

// Delete removes key.
func (t *TokenStore) Delete(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.key(key)).Err()
}
