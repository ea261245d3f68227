package domain

import "math"

// MismatchEpsilon is the largest difference treated as floating-point
// noise when comparing stored and computed amounts.
const MismatchEpsilon = 0.009

// ReconciliationRecord compares a driver's stored money state with the
// state recomputed from ride history. Records live for a single run.
type ReconciliationRecord struct {
	DriverID        string  `json:"driver_id"`
	StoredBalance   float64 `json:"stored_balance"`
	StoredDebt      float64 `json:"stored_debt"`
	ComputedBalance float64 `json:"computed_balance"`
	ComputedDebt    float64 `json:"computed_debt"`
	BalanceDiff     float64 `json:"balance_diff"`
	DebtDiff        float64 `json:"debt_diff"`
	RideCount       int     `json:"ride_count"`
}

// Mismatched reports whether stored and computed values differ by more
// than MismatchEpsilon on either field. The comparison uses the unrounded
// difference; BalanceDiff and DebtDiff are rounded for display only.
func (r ReconciliationRecord) Mismatched() bool {
	return math.Abs(r.ComputedBalance-r.StoredBalance) > MismatchEpsilon ||
		math.Abs(r.ComputedDebt-r.StoredDebt) > MismatchEpsilon
}

// Computed returns the recomputed money state.
func (r ReconciliationRecord) Computed() MoneyState {
	return MoneyState{Balance: r.ComputedBalance, Debt: r.ComputedDebt}
}

// Stored returns the money state found in storage.
func (r ReconciliationRecord) Stored() MoneyState {
	return MoneyState{Balance: r.StoredBalance, Debt: r.StoredDebt}
}
