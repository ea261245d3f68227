package domain

import (
	"strings"
	"time"
)

// RideStatus represents the lifecycle tag of a ride.
type RideStatus string

const (
	RideStatusRequested RideStatus = "solicitada"
	RideStatusAccepted  RideStatus = "aceita"
	RideStatusInTrip    RideStatus = "em_andamento"
	RideStatusFinalized RideStatus = "finalizada"
	RideStatusCancelled RideStatus = "cancelada"
)

// PaymentType represents how the passenger paid for a ride.
type PaymentType string

const (
	PaymentTypeDigital PaymentType = "digital"
	PaymentTypeCash    PaymentType = "cash"
)

// Ride is a completed or in-flight ride as observed from storage.
// Rides are read-only inputs to the reconciliation engine.
type Ride struct {
	ID             string
	DriverID       string
	Status         RideStatus
	TotalValue     any // Raw fare as stored: number, string, or missing
	PaymentType    PaymentType
	CompletionTime time.Time
}

// IsFinalized reports whether the ride participates in reconciliation.
func (r Ride) IsFinalized() bool {
	return r.Status == RideStatusFinalized
}

// ResolvePaymentType maps the stored payment-type field to a PaymentType.
// Legacy rides carry no type, only a boolean "paid" flag; a ride paid
// through the app is digital, anything else was settled in cash.
// Unrecognized type values resolve to cash.
func ResolvePaymentType(raw string, paid *bool) PaymentType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		if paid != nil && *paid {
			return PaymentTypeDigital
		}
		return PaymentTypeCash
	case string(PaymentTypeDigital):
		return PaymentTypeDigital
	default:
		return PaymentTypeCash
	}
}

// ResolveCompletionTime picks the ordering key of a ride: the explicit
// completion timestamp, then the last update, then the Unix epoch.
func ResolveCompletionTime(completedAt, updatedAt *time.Time) time.Time {
	if completedAt != nil && !completedAt.IsZero() {
		return *completedAt
	}
	if updatedAt != nil && !updatedAt.IsZero() {
		return *updatedAt
	}
	return time.Unix(0, 0).UTC()
}
