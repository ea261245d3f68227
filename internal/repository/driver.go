package repository

import (
	"context"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
)

// DriverDirectory enumerates drivers.
type DriverDirectory interface {
	// ListIDsByRole retrieves the IDs of all profiles with the given role.
	ListIDsByRole(ctx context.Context, role string) ([]string, error)

	// ListIDsByFlag retrieves the IDs of all profiles whose nested boolean
	// field at path (dot separated, e.g. "motoristaData.isRegistered")
	// equals value.
	ListIDsByFlag(ctx context.Context, path string, value bool) ([]string, error)
}

// MoneyStateWriter persists a driver's money state.
type MoneyStateWriter interface {
	// UpdateMoneyState overwrites only balance and debt, stamping a
	// server-side update time. Other fields are untouched.
	UpdateMoneyState(ctx context.Context, driverID string, state domain.MoneyState) error
}

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	DriverDirectory
	MoneyStateWriter

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
}
