// Package lock provides a best-effort distributed mutex on Redis, used to
// serialise invoice number allocation across API replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock not acquired")

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker runs fn while holding a named lock.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Local is an in-process Locker for single-replica deployments.
type Local struct {
	mu chan struct{}
}

func NewLocal() *Local {
	return &Local{mu: make(chan struct{}, 1)}
}

func (l *Local) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	select {
	case l.mu <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.mu }()

	return fn(ctx)
}

type Redis struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
	wait   time.Duration
}

func NewRedis(client *redis.Client, ttl, wait time.Duration) *Redis {
	return &Redis{
		client: client,
		script: redis.NewScript(releaseScript),
		ttl:    ttl,
		wait:   wait,
	}
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token, err := r.acquire(ctx, key)
	if err != nil {
		return err
	}

	defer func() {
		// Release on a fresh context so a cancelled request still frees the key.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if err := r.script.Run(relCtx, r.client, []string{key}, token).Err(); err != nil {
			slog.Warn("releasing lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}

func (r *Redis) acquire(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("acquiring lock %s: %w", key, err)
		}

		if ok {
			return token, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
