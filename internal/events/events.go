// Package events publishes driver money corrections to RabbitMQ so that
// downstream consumers (payout, driver app notifications) can react.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
)

// RoutingKeyBalanceCorrected is the routing key of BalanceCorrected events.
const RoutingKeyBalanceCorrected = "driver.balance.corrected"

// Amount is a balance/debt pair as carried on the wire.
type Amount struct {
	Balance float64 `json:"balance"`
	Debt    float64 `json:"debt"`
}

// BalanceCorrected is emitted after a reconciliation overwrote a
// driver's stored money state.
type BalanceCorrected struct {
	EventID     string    `json:"event_id"`
	RunID       string    `json:"run_id"`
	DriverID    string    `json:"driver_id"`
	Before      Amount    `json:"before"`
	After       Amount    `json:"after"`
	RideCount   int       `json:"ride_count"`
	CorrectedAt time.Time `json:"corrected_at"`
}

// NewBalanceCorrected builds the event for an applied record.
func NewBalanceCorrected(runID string, record domain.ReconciliationRecord, at time.Time) BalanceCorrected {
	return BalanceCorrected{
		EventID:     uuid.New().String(),
		RunID:       runID,
		DriverID:    record.DriverID,
		Before:      Amount{Balance: record.StoredBalance, Debt: record.StoredDebt},
		After:       Amount{Balance: record.ComputedBalance, Debt: record.ComputedDebt},
		RideCount:   record.RideCount,
		CorrectedAt: at.UTC(),
	}
}
