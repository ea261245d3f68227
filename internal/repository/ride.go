package repository

import (
	"context"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
)

// RideRepository defines the read operations the reconciliation engine
// needs on rides.
type RideRepository interface {
	// ListByDriverAndStatus retrieves the rides of a driver in the given
	// status, in retrieval order. Ordering by completion time is the
	// caller's job.
	ListByDriverAndStatus(ctx context.Context, driverID string, status domain.RideStatus) ([]domain.Ride, error)
}
