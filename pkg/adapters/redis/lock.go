package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/calendarbot/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock only if we still own it.
var unlockScript = backend.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// extendScript pushes the expiry back only if we still own the lock.
var extendScript = backend.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Locker implements ports.DistributedLocker using Redis.
//
// A held lock is renewed every third of its TTL until it is released, so the
// TTL only bounds how long a crashed replica keeps a session, not how long a
// turn may take.
type Locker struct {
	client   *backend.Client
	prefix   string
	interval time.Duration
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client:   client,
		prefix:   prefix,
		interval: 100 * time.Millisecond,
	}
}

// Lock acquires a distributed lock for the given key using Redis SET NX PX,
// polling until it succeeds or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	owner := uuid.NewString()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, owner, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			stop := l.keepAlive(lockKey, owner, ttl)
			return func(ctx context.Context) error {
				stop()
				return unlockScript.Run(ctx, l.client, []string{lockKey}, owner).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// keepAlive renews lockKey until the returned stop is called or the lock is
// found to belong to someone else.
func (l *Locker) keepAlive(lockKey, owner string, ttl time.Duration) (stop func()) {
	every := ttl / 3
	if every <= 0 {
		every = time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := extendScript.Run(ctx, l.client, []string{lockKey}, owner, ttl.Milliseconds()).Int()
				if err == nil && n == 0 {
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
