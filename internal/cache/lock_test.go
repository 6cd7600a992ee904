package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client, time.Minute), mr
}

func TestLocker_AcquireIsExclusive(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()
	key := SweepLockKey(uuid.MustParse("7f1c2a3e-0000-4000-8000-000000000001"))

	release, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))

	_, err = locker.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(key))

	_, err = locker.Acquire(ctx, key)
	assert.NoError(t, err)
}

func TestLocker_ReleaseLeavesForeignLock(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()
	key := "ledger:sweep:test:lock"

	release, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	// the lock expired and someone else took it
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set(key, "other"))

	require.NoError(t, release(ctx))
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}

func TestLocker_Expires(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)
	_, err = locker.Acquire(ctx, "k")
	assert.NoError(t, err)
}

func TestLocker_NilGrantsEverything(t *testing.T) {
	var locker *Locker
	assert.Nil(t, NewLocker(nil, time.Minute))

	release, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)
	assert.NoError(t, release(context.Background()))
	assert.NoError(t, locker.Ping(context.Background()))
}

func TestSweepLockKey(t *testing.T) {
	id := uuid.MustParse("7f1c2a3e-0000-4000-8000-000000000001")
	assert.Equal(t, "ledger:sweep:7f1c2a3e-0000-4000-8000-000000000001:lock", SweepLockKey(id))
}
