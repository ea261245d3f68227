package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// ListIDsByRole retrieves the IDs of all profiles with the given role.
func (r *DriverRepository) ListIDsByRole(ctx context.Context, role string) ([]string, error) {
	query := `SELECT id FROM drivers WHERE role = $1 ORDER BY id`
	return r.listIDs(ctx, query, role)
}

// ListIDsByFlag retrieves the IDs of all profiles whose nested boolean
// field at path equals value.
func (r *DriverRepository) ListIDsByFlag(ctx context.Context, path string, value bool) ([]string, error) {
	query := `SELECT id FROM drivers WHERE profile #>> $1 = $2 ORDER BY id`
	return r.listIDs(ctx, query, pq.Array(strings.Split(path, ".")), strconv.FormatBool(value))
}

func (r *DriverRepository) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// getDriverQuery reads the registration flag as text so legacy values
// such as "sim" read as false instead of failing the row.
const getDriverQuery = `
	SELECT id, COALESCE(name, ''), COALESCE(role, ''),
	       COALESCE(profile #>> '{motoristaData,isRegistered}' = 'true', false),
	       COALESCE(balance, 0), COALESCE(debt, 0), updated_at
	FROM drivers WHERE id = $1
`

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	var driver domain.Driver
	var updatedAt sql.NullTime
	err := r.q.QueryRowContext(ctx, getDriverQuery, id).Scan(
		&driver.ID,
		&driver.Name,
		&driver.Role,
		&driver.Registered,
		&driver.Money.Balance,
		&driver.Money.Debt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if updatedAt.Valid {
		driver.UpdatedAt = updatedAt.Time
	}

	return &driver, nil
}

// UpdateMoneyState overwrites balance and debt and stamps updated_at with
// the database clock.
func (r *DriverRepository) UpdateMoneyState(ctx context.Context, driverID string, state domain.MoneyState) error {
	query := `UPDATE drivers SET balance = $1, debt = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, state.Balance, state.Debt, driverID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
