package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/calendarbot/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, sessionID string, s *domain.Session) error { return nil }
func (nopStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := domain.SessionKey{ConversationID: "conv", UserID: fmt.Sprintf("user-%d", i)}
		_ = mgr.Update(ctx, key, func(context.Context, *domain.Session) error { return nil })
		_ = mgr.Delete(ctx, key.ID())
	}

	lockCount := len(mgr.locks)
	t.Logf("Sessions Created: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
