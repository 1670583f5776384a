package redislock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("schedule lock not acquired")

	// ErrLockUnavailable marks a WithLocks failure that happened before fn ran.
	ErrLockUnavailable = errors.New("schedule lock unavailable")
)

// Locker serialises work on a set of schedule keys across instances.
type Locker interface {
	// Acquire takes every key or none. The returned release is safe to call once.
	Acquire(ctx context.Context, keys []string) (release func(), err error)
}

// WithLocks runs fn while holding keys. If the keys cannot be taken fn does
// not run and the error wraps ErrLockUnavailable.
func WithLocks(ctx context.Context, l Locker, keys []string, fn func(ctx context.Context) error) error {
	release, err := l.Acquire(ctx, keys)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLockUnavailable, err)
	}
	defer release()
	return fn(ctx)
}

// NoopLocker grants every request immediately.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, []string) (func(), error) {
	return func() {}, nil
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewRedisLocker builds a Locker on SET NX keys that expire after ttl.
// Acquire polls for up to wait before giving up with ErrLockNotAcquired.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) Locker {
	return &redisLocker{client: client, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
}

func (l *redisLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	var held []string
	releaseHeld := func() {
		// Release with a fresh context so a cancelled request still frees its keys.
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for _, k := range held {
			_ = l.release(rctx, k, token)
		}
		held = nil
	}

	for _, key := range keys {
		for {
			ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
			if err != nil {
				releaseHeld()
				return nil, fmt.Errorf("acquire schedule lock: %w", err)
			}
			if ok {
				held = append(held, key)
				break
			}
			if time.Now().After(deadline) {
				releaseHeld()
				return nil, ErrLockNotAcquired
			}
			select {
			case <-ctx.Done():
				releaseHeld()
				return nil, ctx.Err()
			case <-time.After(l.poll):
			}
		}
	}

	return releaseHeld, nil
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release schedule lock: %w", err)
	}
	return nil
}

// normalize dedupes and sorts keys so concurrent callers acquire in the same order.
func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// StaffKey and ResourceKey name the lock keys for a schedule owner.
func StaffKey(id uuid.UUID) string    { return "lock:schedule:staff:" + id.String() }
func ResourceKey(id uuid.UUID) string { return "lock:schedule:resource:" + id.String() }
