package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still carries our token, so
// a run whose lock expired cannot release a lock taken by another run.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore hands out per-driver reconciliation locks.
type LockStore struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string // driver ID -> token of the lock we hold
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{
		client: client,
		tokens: make(map[string]string),
	}
}

func driverLockKey(driverID string) string {
	return "lock:reconcile:" + driverID
}

// AcquireDriverLock takes the driver's lock for ttl. It returns false when
// another holder has it.
func (s *LockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, driverLockKey(driverID), token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	s.mu.Lock()
	s.tokens[driverID] = token
	s.mu.Unlock()
	return true, nil
}

// ReleaseDriverLock releases a lock taken by AcquireDriverLock. Releasing a
// lock this store does not hold is a no-op.
func (s *LockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	s.mu.Lock()
	token, ok := s.tokens[driverID]
	delete(s.tokens, driverID)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, s.client, []string{driverLockKey(driverID)}, token).Err()
}
