package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewRedisClient(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewLocker(client, "test:"), mr
}

func TestTryAcquire_Exclusive(t *testing.T) {
	locker, _ := setupTestLocker(t)
	ctx := context.Background()

	lock, err := locker.TryAcquire(ctx, "course:1:0:0", time.Minute)
	require.NoError(t, err)

	_, err = locker.TryAcquire(ctx, "course:1:0:0", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	held, err := locker.Held(ctx, "course:1:0:0")
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, lock.Release(ctx))

	held, err = locker.Held(ctx, "course:1:0:0")
	require.NoError(t, err)
	assert.False(t, held)

	again, err := locker.TryAcquire(ctx, "course:1:0:0", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestRelease_DoesNotDropForeignLock(t *testing.T) {
	locker, mr := setupTestLocker(t)
	ctx := context.Background()

	lock, err := locker.TryAcquire(ctx, "k", time.Second)
	require.NoError(t, err)

	// the lock expires and someone else takes it
	mr.FastForward(2 * time.Second)
	other, err := locker.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx))

	held, err := locker.Held(ctx, "k")
	require.NoError(t, err)
	assert.True(t, held, "stale release must not remove the new owner's lock")
	require.NoError(t, other.Release(ctx))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewRedisClient(ctx, RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	assert.Error(t, err)
}

func TestTryAcquire_RedisDown(t *testing.T) {
	locker, mr := setupTestLocker(t)
	mr.Close()

	_, err := locker.TryAcquire(context.Background(), "k", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
}
