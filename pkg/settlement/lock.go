package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// AccountLocker serializes settlement runs per funding account. Because the
// sequence number is drawn from the account's pending-transaction count, two
// concurrent submissions race on the same nonce and one loses; the lock keeps
// that race rare rather than routine.
type AccountLocker interface {
	// Acquire blocks until the account lock is held or ctx is done, and
	// returns a release function.
	Acquire(ctx context.Context, account string) (release func(), err error)
}

// RedisLocker implements AccountLocker on a shared Redis instance so the lock
// holds across processes.
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisLocker creates a Redis-backed account locker.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{
		client:        client,
		ttl:           5 * time.Minute,
		retryInterval: 250 * time.Millisecond,
	}
}

func lockKey(account string) string {
	return "paydeck:settlement:lock:" + account
}

// Acquire polls SET NX until the lock is obtained. The TTL guards against a
// crashed holder wedging the account forever.
func (l *RedisLocker) Acquire(ctx context.Context, account string) (func(), error) {
	key := lockKey(account)

	for {
		acquired, err := l.client.SetNX(ctx, key, "locked", l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire account lock %s: %w", key, err)
		}

		if acquired {
			return func() {
				_ = l.client.Del(context.WithoutCancel(ctx), key).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
}

// LocalLocker implements AccountLocker with in-process mutexes, for
// deployments running a single instance and for tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalLocker creates an in-process account locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) Acquire(_ context.Context, account string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[account]

	if !ok {
		lock = &sync.Mutex{}
		l.locks[account] = lock
	}
	l.mu.Unlock()

	lock.Lock()

	return lock.Unlock, nil
}
