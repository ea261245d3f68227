package redis

import (
	"context"
	"time"
)

// LockStoreInterface serializes apply-mode reconciliation of a driver
// across processes.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
}

// RunCacheInterface keeps the summary of the most recent run.
type RunCacheInterface interface {
	GetLastRun(ctx context.Context) (*CachedRunSummary, error)
	SetLastRun(ctx context.Context, summary *CachedRunSummary) error
}

var (
	_ LockStoreInterface = (*LockStore)(nil)
	_ RunCacheInterface  = (*CacheStore)(nil)
)
