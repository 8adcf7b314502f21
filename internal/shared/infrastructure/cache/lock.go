package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a lock stays held past the wait budget.
var ErrLockTimeout = errors.New("lock wait timed out")

// Locker hands out short-lived exclusive locks by key.
type Locker interface {
	// Acquire blocks until the lock is held, ctx ends or the wait budget runs
	// out. The returned release func is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(context.Context), err error)
}

// NoopLocker grants every lock immediately.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (func(context.Context), error) {
	return func(context.Context) {}, nil
}

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewRedisLocker creates a locker whose locks expire after ttl and whose
// Acquire gives up after wait.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}

	released := false
	return func(ctx context.Context) {
		if released {
			return
		}
		released = true
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
