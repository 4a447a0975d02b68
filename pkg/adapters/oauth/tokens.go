package oauth

import (
	"context"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/patrickmn/go-cache"
)

// MemoryTokenStore implements ports.TokenStore on top of go-cache.
type MemoryTokenStore struct {
	cache *cache.Cache
}

// NewMemoryTokenStore creates an in-process token store. Expired entries
// are purged every cleanup interval.
func NewMemoryTokenStore(cleanup time.Duration) *MemoryTokenStore {
	return &MemoryTokenStore{cache: cache.New(cache.NoExpiration, cleanup)}
}

// Put stores value under key. A zero ttl never expires.
func (s *MemoryTokenStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	s.cache.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Get returns domain.ErrTokenUnavailable for missing or expired keys.
func (s *MemoryTokenStore) Get(_ context.Context, key string) ([]byte, error) {
	v, found := s.cache.Get(key)
	if !found {
		return nil, domain.ErrTokenUnavailable
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// Delete removes key.
func (s *MemoryTokenStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
