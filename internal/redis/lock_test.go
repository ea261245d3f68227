package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestLockStore_AcquireIsExclusive(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	first := NewLockStore(client)
	second := NewLockStore(client)

	ok, err := first.AcquireDriverLock(ctx, "d1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.AcquireDriverLock(ctx, "d1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	ok, err = second.AcquireDriverLock(ctx, "d2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per driver")

	assert.Equal(t, time.Minute, mr.TTL("lock:reconcile:d1"))
}

func TestLockStore_ReleaseFreesLock(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	store := NewLockStore(client)

	ok, err := store.AcquireDriverLock(ctx, "d1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.ReleaseDriverLock(ctx, "d1"))
	assert.False(t, mr.Exists("lock:reconcile:d1"))

	ok, err = NewLockStore(client).AcquireDriverLock(ctx, "d1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockStore_ReleaseWithoutHoldingIsNoop(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	holder := NewLockStore(client)
	ok, err := holder.AcquireDriverLock(ctx, "d1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, NewLockStore(client).ReleaseDriverLock(ctx, "d1"))
	assert.True(t, mr.Exists("lock:reconcile:d1"))
}

func TestLockStore_ExpiredHolderCannotReleaseNewLock(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	stale := NewLockStore(client)
	ok, err := stale.AcquireDriverLock(ctx, "d1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	current := NewLockStore(client)
	ok, err = current.AcquireDriverLock(ctx, "d1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	owner, err := mr.Get("lock:reconcile:d1")
	require.NoError(t, err)

	// The stale store still remembers its token; the script must refuse it.
	require.NoError(t, stale.ReleaseDriverLock(ctx, "d1"))

	got, err := mr.Get("lock:reconcile:d1")
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	require.NoError(t, current.ReleaseDriverLock(ctx, "d1"))
	assert.False(t, mr.Exists("lock:reconcile:d1"))
}

func TestCacheStore_LastRun(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	cache := NewCacheStore(client)

	summary, err := cache.GetLastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, summary, "miss returns nil")

	started := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, cache.SetLastRun(ctx, &CachedRunSummary{
		RunID:      "run-1",
		Apply:      true,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Drivers:    3,
		Mismatched: 1,
		Applied:    1,
		Mismatches: []CachedRecord{{DriverID: "d2", ComputedDebt: 20, DebtDiff: 20, RideCount: 1, Applied: true}},
	}))

	summary, err = cache.GetLastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "run-1", summary.RunID)
	assert.True(t, summary.StartedAt.Equal(started))
	require.Len(t, summary.Mismatches, 1)
	assert.Equal(t, "d2", summary.Mismatches[0].DriverID)

	assert.Equal(t, RunSummaryTTL, mr.TTL("reconciliation:last_run"))
}
