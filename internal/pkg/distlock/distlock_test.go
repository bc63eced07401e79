package distlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	a := NewRedisLock(client, "run:acme", time.Minute)
	b := NewRedisLock(client, "run:acme", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lock:run:acme"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	assert.True(t, errors.Is(b.Release(ctx), ErrNotHeld), "non-owner cannot release")
	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("lock:run:acme"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_ExpiryAndExtend(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	a := NewRedisLock(client, "run:acme", 10*time.Second)
	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, a.Extend(ctx, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(a.Key()))

	mr.FastForward(2 * time.Minute)
	b := NewRedisLock(client, "run:acme", time.Minute)
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock can be taken")

	assert.True(t, errors.Is(a.Extend(ctx, time.Minute), ErrNotHeld))
	assert.True(t, errors.Is(a.Release(ctx), ErrNotHeld))
	assert.True(t, mr.Exists(a.Key()), "former owner must not delete the new holder's lock")
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	a := NewLocalLock("run:local-test")
	b := NewLocalLock("run:local-test")
	other := NewLocalLock("run:other")

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = b.Acquire(ctx)
	assert.False(t, ok)
	ok, _ = other.Acquire(ctx)
	assert.True(t, ok)

	assert.True(t, errors.Is(b.Release(ctx), ErrNotHeld))
	require.NoError(t, a.Release(ctx))
	require.NoError(t, other.Release(ctx))

	ok, _ = b.Acquire(ctx)
	assert.True(t, ok)
	require.NoError(t, b.Release(ctx))
}

func TestPGAdvisoryLock(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "run:acme")
	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec("SELECT pg_advisory_unlock").
		WithArgs(l.lockID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(ctx))
	assert.True(t, errors.Is(l.Release(ctx), ErrNotHeld))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewLockBackends(t *testing.T) {
	_, client := newRedis(t)
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.IsType(t, &RedisLock{}, NewLock(client, db, "k", time.Second))
	assert.IsType(t, &PGAdvisoryLock{}, NewLock(nil, db, "k", time.Second))
	assert.IsType(t, &LocalLock{}, NewFactory(nil, nil, time.Second)("k"))
}
