package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	l := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { l.Close() })
	return l, mr
}

func TestRedisLockExclusive(t *testing.T) {
	l, _ := newRedisLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "sweep", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	release()

	again, err := l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedisLockExpires(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "sweep", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := l.Acquire(ctx, "sweep", time.Second)
	require.NoError(t, err)
	release()
}

func TestStaleReleaseKeepsNewHolder(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "sweep", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("deadline-daddy:lock:sweep"), "a stale release must not drop the new holder's lease")
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis("://nope")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	release, err := Noop{}.Acquire(context.Background(), "x", time.Second)
	require.NoError(t, err)
	release()
}
