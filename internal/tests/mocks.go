package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/events"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/redis"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateCallCount int32

	// Error injection
	ListByRoleError error
	ListByFlagError error
	GetErrors       map[string]error // Per driver ID
	UpdateError     error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers:   make(map[string]*domain.Driver),
		GetErrors: make(map[string]error),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) ListIDsByRole(ctx context.Context, role string) ([]string, error) {
	if m.ListByRoleError != nil {
		return nil, m.ListByRoleError
	}
	return m.selectIDs(func(d *domain.Driver) bool { return d.Role == role }), nil
}

func (m *MockDriverRepository) ListIDsByFlag(ctx context.Context, path string, value bool) ([]string, error) {
	if m.ListByFlagError != nil {
		return nil, m.ListByFlagError
	}
	if path != domain.DriverRegisteredFlag {
		return nil, nil
	}
	return m.selectIDs(func(d *domain.Driver) bool { return d.Registered == value }), nil
}

func (m *MockDriverRepository) selectIDs(match func(*domain.Driver) bool) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, d := range m.drivers {
		if match(d) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.GetErrors[id]; err != nil {
		return nil, err
	}
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) UpdateMoneyState(ctx context.Context, driverID string, state domain.MoneyState) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[driverID]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Money = state
	driver.UpdatedAt = time.Now()
	return nil
}

// GetDriver returns driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// Updates returns how many money-state writes were attempted.
func (m *MockDriverRepository) Updates() int {
	return int(atomic.LoadInt32(&m.UpdateCallCount))
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides []domain.Ride

	// Counters for verification
	ListCallCount int32

	// Error injection
	ListErrors map[string]error // Per driver ID
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		ListErrors: make(map[string]error),
	}
}

// AddRides appends rides in retrieval order.
func (m *MockRideRepository) AddRides(rides ...domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = append(m.rides, rides...)
}

func (m *MockRideRepository) ListByDriverAndStatus(ctx context.Context, driverID string, status domain.RideStatus) ([]domain.Ride, error) {
	atomic.AddInt32(&m.ListCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ListErrors[driverID]; err != nil {
		return nil, err
	}
	var out []domain.Ride
	for _, r := range m.rides {
		if r.DriverID == driverID && r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:reconcile:" + driverID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:reconcile:"+driverID)
	return nil
}

// Hold marks a driver as locked by someone else.
func (m *MockLockStore) Hold(driverID string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:reconcile:"+driverID] = time.Now().Add(ttl)
}

// IsLocked checks if a driver is locked (for test assertions).
func (m *MockLockStore) IsLocked(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.locks["lock:reconcile:"+driverID]
	return ok && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK RUN CACHE
// ──────────────────────────────────────────────

// MockRunCache is a mock implementation of RunCacheInterface.
type MockRunCache struct {
	mu      sync.Mutex
	summary *redis.CachedRunSummary

	SetError error
}

// NewMockRunCache creates a new mock run cache.
func NewMockRunCache() *MockRunCache {
	return &MockRunCache{}
}

func (m *MockRunCache) GetLastRun(ctx context.Context) (*redis.CachedRunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary, nil
}

func (m *MockRunCache) SetLastRun(ctx context.Context, summary *redis.CachedRunSummary) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = summary
	return nil
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published correction events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.BalanceCorrected

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishCorrection(ctx context.Context, evt events.BalanceCorrected) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

// Events returns the published events (for test assertions).
func (m *MockPublisher) Events() []events.BalanceCorrected {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.BalanceCorrected(nil), m.events...)
}

// Ensure mocks implement interfaces.
var (
	_ repository.DriverRepository = (*MockDriverRepository)(nil)
	_ repository.RideRepository   = (*MockRideRepository)(nil)
	_ redis.LockStoreInterface    = (*MockLockStore)(nil)
	_ redis.RunCacheInterface     = (*MockRunCache)(nil)
)
