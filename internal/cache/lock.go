package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another process owns the lock.
var ErrLockHeld = errors.New("lock held by another owner")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLockKey returns the redis key guarding an owner's overdue sweep.
func SweepLockKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("ledger:sweep:%s:lock", ownerID)
}

// Locker hands out short-lived exclusive locks backed by redis. A nil Locker grants every
// lock, which is what single-process deployments without redis get.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client, ttl: ttl}
}

// Acquire takes the lock under key and returns its release func. ErrLockHeld means someone
// else has it.
func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	if l == nil {
		return func(context.Context) error { return nil }, nil
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

// Ping checks the redis connection.
func (l *Locker) Ping(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.client.Ping(ctx).Err()
}
