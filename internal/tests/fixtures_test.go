package tests

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/service"
)

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// testEnv bundles a Reconciler with the mocks behind it.
type testEnv struct {
	drivers   *MockDriverRepository
	rides     *MockRideRepository
	locks     *MockLockStore
	runCache  *MockRunCache
	publisher *MockPublisher
}

func newTestEnv() *testEnv {
	return &testEnv{
		drivers:   NewMockDriverRepository(),
		rides:     NewMockRideRepository(),
		locks:     NewMockLockStore(),
		runCache:  NewMockRunCache(),
		publisher: NewMockPublisher(),
	}
}

func (e *testEnv) reconciler(workers int) *service.Reconciler {
	return service.NewReconciler(service.ReconcilerDeps{
		Drivers:   e.drivers,
		Rides:     e.rides,
		Locks:     e.locks,
		RunCache:  e.runCache,
		Publisher: e.publisher,
		Logger:    zerolog.Nop(),
		Workers:   workers,
		LockTTL:   time.Minute,
	})
}

func (e *testEnv) addDriver(id string, balance, debt float64) {
	e.drivers.AddDriver(&domain.Driver{
		ID:    id,
		Role:  domain.DriverRole,
		Money: domain.MoneyState{Balance: balance, Debt: debt},
	})
}

// finalizedRide builds a finalized ride completed minute minutes after baseTime.
func finalizedRide(id, driverID string, total any, payment domain.PaymentType, minute int) domain.Ride {
	return domain.Ride{
		ID:             id,
		DriverID:       driverID,
		Status:         domain.RideStatusFinalized,
		TotalValue:     total,
		PaymentType:    payment,
		CompletionTime: baseTime.Add(time.Duration(minute) * time.Minute),
	}
}
