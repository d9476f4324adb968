package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token,
// so an expired lease never frees a lock taken over by another holder.
const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`

// redisScripter is the subset of *redis.Client used by Redis.
type redisScripter interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Redis is a Locker backed by SET NX PX, shared by every service replica.
type Redis struct {
	client redisScripter
	wait   time.Duration
	retry  time.Duration
}

// RedisOption customises a Redis locker.
type RedisOption func(*Redis)

// WithWait bounds how long Acquire polls for a held key before giving up.
func WithWait(wait time.Duration) RedisOption {
	return func(r *Redis) {
		if wait >= 0 {
			r.wait = wait
		}
	}
}

// WithRetryInterval sets the polling interval while waiting for a held key.
func WithRetryInterval(interval time.Duration) RedisOption {
	return func(r *Redis) {
		if interval > 0 {
			r.retry = interval
		}
	}
}

// NewRedis wraps a go-redis client.
func NewRedis(client redisScripter, opts ...RedisOption) *Redis {
	r := &Redis{client: client, wait: 2 * time.Second, retry: 25 * time.Millisecond}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire polls SET NX until it wins key, the wait budget elapses or ctx is done.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("lock: ttl must be positive, got %s", ttl)
	}
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return &redisLease{client: r.client, key: key, token: token}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}

		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-timer.C:
		}
	}
}

type redisLease struct {
	client   redisScripter
	key      string
	token    string
	released bool
}

func (l *redisLease) Release(ctx context.Context) error {
	if l.released {
		return nil
	}
	l.released = true
	if err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("lock: release %s: %w", l.key, err)
	}
	return nil
}
