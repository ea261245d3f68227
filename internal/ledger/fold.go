package ledger

import (
	"math"
	"sort"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
)

// PlatformFeeRate is the platform commission on every fare. It must stay
// identical to the rate used when fares are settled at ride completion.
const PlatformFeeRate = 0.20

// State is the running money state carried from one ride to the next.
type State struct {
	Balance float64
	Debt    float64
}

// Result is the outcome of folding a driver's ride history.
type Result struct {
	Balance float64
	Debt    float64
	Rides   int
}

// MoneyState converts the result to the stored representation.
func (r Result) MoneyState() domain.MoneyState {
	return domain.MoneyState{Balance: r.Balance, Debt: r.Debt}
}

// Split returns the platform fee and the driver's share of a fare.
// Non-positive totals yield zero for both.
func Split(total float64) (fee, driverGross float64) {
	fee = Round2(math.Max(0, total*PlatformFeeRate))
	driverGross = Round2(math.Max(0, total-fee))
	return fee, driverGross
}

// Step applies one ride to the running state.
//
// A digital fare is owed to the driver, but outstanding debt from cash
// rides is cleared first. A cash fare stays with the driver, who then
// owes the platform its fee.
func Step(s State, ride domain.Ride) State {
	fee, gross := Split(Normalize(ride.TotalValue))

	if ride.PaymentType != domain.PaymentTypeDigital {
		s.Debt = Round2(s.Debt + fee)
		return s
	}

	if s.Debt <= 0 {
		s.Balance = Round2(s.Balance + gross)
		return s
	}

	if gross >= s.Debt {
		if rest := Round2(gross - s.Debt); rest > 0 {
			s.Balance = Round2(s.Balance + rest)
		}
		s.Debt = 0
		return s
	}

	s.Debt = Round2(s.Debt - gross)
	return s
}

// Fold replays rides in order from a zero state. Rides must already be
// filtered to one driver's finalized rides and sorted chronologically;
// the result depends on order.
func Fold(rides []domain.Ride) Result {
	var s State
	for _, ride := range rides {
		s = Step(s, ride)
	}
	return Result{Balance: s.Balance, Debt: s.Debt, Rides: len(rides)}
}

// FilterFinalized returns the finalized rides that belong to driverID,
// keeping their relative order.
func FilterFinalized(rides []domain.Ride, driverID string) []domain.Ride {
	out := make([]domain.Ride, 0, len(rides))
	for _, ride := range rides {
		if ride.IsFinalized() && ride.DriverID == driverID {
			out = append(out, ride)
		}
	}
	return out
}

// SortChronologically orders rides by completion time in place. Ties
// keep retrieval order.
func SortChronologically(rides []domain.Ride) {
	sort.SliceStable(rides, func(i, j int) bool {
		return rides[i].CompletionTime.Before(rides[j].CompletionTime)
	})
}
