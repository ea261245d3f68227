package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/repository"
)

// DriverDiscovery resolves the drivers a run reconciles.
type DriverDiscovery struct {
	directory repository.DriverDirectory
	log       zerolog.Logger
}

// NewDriverDiscovery creates a new DriverDiscovery.
func NewDriverDiscovery(directory repository.DriverDirectory, log zerolog.Logger) *DriverDiscovery {
	return &DriverDiscovery{directory: directory, log: log}
}

// Discover lists drivers by role, falling back to the registration flag
// only when no profile carries the role. A positive limit keeps the
// first limit IDs. No drivers is not an error.
func (d *DriverDiscovery) Discover(ctx context.Context, limit int) ([]string, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	ids, err := d.directory.ListIDsByRole(ctx, domain.DriverRole)
	if err != nil {
		return nil, fmt.Errorf("%w: list by role: %w", ErrDiscoveryFailed, err)
	}

	if len(ids) == 0 {
		d.log.Info().Str("flag", domain.DriverRegisteredFlag).Msg("no drivers by role, falling back to registration flag")

		ids, err = d.directory.ListIDsByFlag(ctx, domain.DriverRegisteredFlag, true)
		if err != nil {
			return nil, fmt.Errorf("%w: list by flag: %w", ErrDiscoveryFailed, err)
		}
	}

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	return ids, nil
}
