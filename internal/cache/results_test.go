package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

func newCache(t *testing.T, ttl time.Duration) (*ResultCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewResultCache(client, "ppcopt:", ttl), mr
}

func TestResultCache_SetGet(t *testing.T) {
	c, mr := newCache(t, 10*time.Minute)
	ctx := context.Background()

	res := &domain.Result{
		RunID:    "run-1",
		ClientID: "acme",
		Summary: domain.Summary{
			Good:   2,
			Impact: domain.Impact{CurrentACOS: domain.DefinedRatio(0.2)},
		},
	}
	require.NoError(t, c.Set(ctx, res))
	assert.True(t, mr.Exists("ppcopt:result:run-1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("ppcopt:result:run-1"))

	got, err := c.Get(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acme", got.ClientID)
	assert.Equal(t, 2, got.Summary.Good)
	assert.Equal(t, domain.DefinedRatio(0.2), got.Summary.Impact.CurrentACOS)
	assert.False(t, got.Summary.Impact.ProjectedACOS.Defined)
}

func TestResultCache_MissAndExpiry(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	ctx := context.Background()

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, &domain.Result{RunID: "run-2"}))
	mr.FastForward(2 * time.Minute)
	got, err = c.Get(ctx, "run-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResultCache_Invalidate(t *testing.T) {
	c, _ := newCache(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.Result{RunID: "run-3"}))
	require.NoError(t, c.Invalidate(ctx, "run-3"))
	got, err := c.Get(ctx, "run-3")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, c.Set(ctx, &domain.Result{}))
}
