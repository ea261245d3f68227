package postgres

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
)

func TestRideRow_PaymentTypeFallbacks(t *testing.T) {
	tests := []struct {
		name string
		row  rideRow
		want domain.PaymentType
	}{
		{"explicit digital", rideRow{PaymentType: sql.NullString{String: "digital", Valid: true}}, domain.PaymentTypeDigital},
		{"explicit digital mixed case", rideRow{PaymentType: sql.NullString{String: " Digital ", Valid: true}}, domain.PaymentTypeDigital},
		{"explicit cash ignores paid flag", rideRow{PaymentType: sql.NullString{String: "cash", Valid: true}, Paid: sql.NullBool{Bool: true, Valid: true}}, domain.PaymentTypeCash},
		{"unknown type is cash", rideRow{PaymentType: sql.NullString{String: "voucher", Valid: true}}, domain.PaymentTypeCash},
		{"legacy paid flag", rideRow{Paid: sql.NullBool{Bool: true, Valid: true}}, domain.PaymentTypeDigital},
		{"legacy unpaid flag", rideRow{Paid: sql.NullBool{Bool: false, Valid: true}}, domain.PaymentTypeCash},
		{"nothing stored", rideRow{}, domain.PaymentTypeCash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.row.toDomain().PaymentType)
		})
	}
}

func TestRideRow_CompletionTimeFallbacks(t *testing.T) {
	completed := time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)
	updated := time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC)

	row := rideRow{
		CompletedAt: sql.NullTime{Time: completed, Valid: true},
		UpdatedAt:   sql.NullTime{Time: updated, Valid: true},
	}
	assert.Equal(t, completed, row.toDomain().CompletionTime)

	row.CompletedAt = sql.NullTime{}
	assert.Equal(t, updated, row.toDomain().CompletionTime)

	row.UpdatedAt = sql.NullTime{}
	assert.True(t, row.toDomain().CompletionTime.Equal(time.Unix(0, 0)))
}

func TestDecodeTotalValue(t *testing.T) {
	assert.Nil(t, decodeTotalValue(nil))
	assert.Equal(t, json.Number("42.5"), decodeTotalValue([]byte(`42.5`)))
	assert.Equal(t, "R$ 10,00", decodeTotalValue([]byte(`"R$ 10,00"`)))
	assert.Nil(t, decodeTotalValue([]byte(`null`)))
	assert.Equal(t, "{broken", decodeTotalValue([]byte(`{broken`)))
}

func TestRideRow_ToDomainCarriesIdentity(t *testing.T) {
	row := rideRow{
		ID:         "ride-1",
		DriverID:   "driver-1",
		Status:     "finalizada",
		TotalValue: []byte(`"35,50"`),
	}

	ride := row.toDomain()
	assert.Equal(t, "ride-1", ride.ID)
	assert.Equal(t, "driver-1", ride.DriverID)
	assert.True(t, ride.IsFinalized())
	assert.Equal(t, "35,50", ride.TotalValue)
}
