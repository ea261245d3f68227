package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// rideRow is a ride exactly as stored. Legacy rows may lack the payment
// type, the completion time, or carry the fare as a string.
type rideRow struct {
	ID          string
	DriverID    string
	Status      string
	TotalValue  []byte
	PaymentType sql.NullString
	Paid        sql.NullBool
	CompletedAt sql.NullTime
	UpdatedAt   sql.NullTime
}

// toDomain resolves the legacy fallbacks into a domain.Ride.
func (row rideRow) toDomain() domain.Ride {
	var paid *bool
	if row.Paid.Valid {
		paid = &row.Paid.Bool
	}

	var completedAt, updatedAt *time.Time
	if row.CompletedAt.Valid {
		completedAt = &row.CompletedAt.Time
	}
	if row.UpdatedAt.Valid {
		updatedAt = &row.UpdatedAt.Time
	}

	return domain.Ride{
		ID:             row.ID,
		DriverID:       row.DriverID,
		Status:         domain.RideStatus(row.Status),
		TotalValue:     decodeTotalValue(row.TotalValue),
		PaymentType:    domain.ResolvePaymentType(row.PaymentType.String, paid),
		CompletionTime: domain.ResolveCompletionTime(completedAt, updatedAt),
	}
}

// decodeTotalValue turns the JSONB fare into a number, a string, or nil.
// Undecodable content is returned as text and left to the normalizer.
func decodeTotalValue(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	return v
}

// ListByDriverAndStatus retrieves the rides of a driver in the given status.
func (r *RideRepository) ListByDriverAndStatus(ctx context.Context, driverID string, status domain.RideStatus) ([]domain.Ride, error) {
	query := `
		SELECT id, driver_id, status, total_value, payment_type, paid, completed_at, updated_at
		FROM rides
		WHERE driver_id = $1 AND status = $2
		ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query, driverID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []domain.Ride
	for rows.Next() {
		var row rideRow
		if err := rows.Scan(
			&row.ID,
			&row.DriverID,
			&row.Status,
			&row.TotalValue,
			&row.PaymentType,
			&row.Paid,
			&row.CompletedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rides = append(rides, row.toDomain())
	}

	return rides, rows.Err()
}

// Ensure RideRepository implements repository.RideRepository.
var _ repository.RideRepository = (*RideRepository)(nil)
