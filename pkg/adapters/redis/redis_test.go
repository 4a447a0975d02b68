package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/calendarbot/pkg/adapters/redis"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	tests.RunSessionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute), redis.WithPrefix("test:"))
	ctx := context.Background()
	key := domain.SessionKey{ConversationID: "c", UserID: "u"}

	require.NoError(t, store.Save(ctx, key.ID(), domain.NewSession(key)))
	assert.True(t, mr.Exists("test:session:"+key.ID()))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key.ID()}, ids)

	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, key.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	// The index is pruned by score against the wall clock, which miniredis
	// does not move; the key itself is gone.
	assert.False(t, mr.Exists("test:session:"+key.ID()))
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "resource1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:resource1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:resource1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := setup(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker2.Lock(short, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "second locker must wait")

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestRedisLocker_RenewsWhileHeld(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()
	ttl := 300 * time.Millisecond

	unlock, err := locker.Lock(ctx, "slow-turn", ttl)
	require.NoError(t, err)

	// A turn outliving several TTLs keeps its lock.
	for range 3 {
		mr.FastForward(250 * time.Millisecond)
		require.True(t, mr.Exists("test:lock:slow-turn"))
		assert.Eventually(t, func() bool {
			return mr.TTL("test:lock:slow-turn") > 250*time.Millisecond
		}, 2*time.Second, 10*time.Millisecond, "lock must be renewed")
	}

	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = redis.NewLocker(client, "test:").Lock(short, "slow-turn", ttl)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "another replica must still wait")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:slow-turn"))
}

func TestRedisLocker_UnlockAfterExpiryKeepsForeignLock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	other, err := locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("test:lock:k"), "stale owner must not release the new lock")
	require.NoError(t, other(ctx))
}

func TestRedisTokenStore(t *testing.T) {
	mr, client := setup(t)
	tokens := redis.NewTokenStore(client, "test:")
	ctx := context.Background()

	_, err := tokens.Get(ctx, "user")
	assert.ErrorIs(t, err, domain.ErrTokenUnavailable)

	require.NoError(t, tokens.Put(ctx, "user", []byte(`{"access_token":"x"}`), time.Minute))
	val, err := tokens.Get(ctx, "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"x"}`, string(val))

	mr.FastForward(2 * time.Minute)
	_, err = tokens.Get(ctx, "user")
	assert.ErrorIs(t, err, domain.ErrTokenUnavailable)

	require.NoError(t, tokens.Put(ctx, "user", []byte("y"), 0))
	require.NoError(t, tokens.Delete(ctx, "user"))
	_, err = tokens.Get(ctx, "user")
	assert.ErrorIs(t, err, domain.ErrTokenUnavailable)
}
