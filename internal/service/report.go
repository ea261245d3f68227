package service

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/redis"
)

// Outcome is the result of reconciling one driver.
type Outcome struct {
	Record     domain.ReconciliationRecord
	Mismatched bool
	Applied    bool
}

// Failure is a driver skipped because of a store error.
type Failure struct {
	DriverID string
	Err      error
}

// Report collects the outcomes of a run in discovery order.
type Report struct {
	RunID      string
	Apply      bool
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
	Failures   []Failure
}

func newReport(runID string, apply bool, startedAt time.Time) *Report {
	return &Report{RunID: runID, Apply: apply, StartedAt: startedAt}
}

func (r *Report) addOutcome(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) addFailure(driverID string, err error) {
	r.Failures = append(r.Failures, Failure{DriverID: driverID, Err: err})
}

func (r *Report) finish(at time.Time) {
	r.FinishedAt = at
}

// Counts returns how many drivers matched, mismatched, and were corrected.
func (r *Report) Counts() (matched, mismatched, applied int) {
	for _, o := range r.Outcomes {
		if o.Mismatched {
			mismatched++
		} else {
			matched++
		}
		if o.Applied {
			applied++
		}
	}
	return matched, mismatched, applied
}

// Mode names the run mode for humans.
func (r *Report) Mode() string {
	if r.Apply {
		return "apply"
	}
	return "dry-run"
}

// Summary converts the report to its cached form. Only mismatched
// drivers are listed.
func (r *Report) Summary() *redis.CachedRunSummary {
	matched, mismatched, applied := r.Counts()

	summary := &redis.CachedRunSummary{
		RunID:      r.RunID,
		Apply:      r.Apply,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Drivers:    len(r.Outcomes) + len(r.Failures),
		Matched:    matched,
		Mismatched: mismatched,
		Applied:    applied,
		Failed:     len(r.Failures),
		Mismatches: make([]redis.CachedRecord, 0, mismatched),
	}

	for _, o := range r.Outcomes {
		if !o.Mismatched {
			continue
		}
		rec := o.Record
		summary.Mismatches = append(summary.Mismatches, redis.CachedRecord{
			DriverID:        rec.DriverID,
			StoredBalance:   rec.StoredBalance,
			StoredDebt:      rec.StoredDebt,
			ComputedBalance: rec.ComputedBalance,
			ComputedDebt:    rec.ComputedDebt,
			BalanceDiff:     rec.BalanceDiff,
			DebtDiff:        rec.DebtDiff,
			RideCount:       rec.RideCount,
			Applied:         o.Applied,
		})
	}

	return summary
}

// Render writes a table of every reconciled driver, the skipped
// drivers, and a summary line.
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "DRIVER\tRIDES\tSTORED BAL\tCOMPUTED BAL\tBAL DIFF\tSTORED DEBT\tCOMPUTED DEBT\tDEBT DIFF\tSTATUS\t")
	for _, o := range r.Outcomes {
		rec := o.Record
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			rec.DriverID,
			rec.RideCount,
			money(rec.StoredBalance),
			money(rec.ComputedBalance),
			money(rec.BalanceDiff),
			money(rec.StoredDebt),
			money(rec.ComputedDebt),
			money(rec.DebtDiff),
			o.status(),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "SKIPPED %s: %v\n", f.DriverID, f.Err); err != nil {
			return err
		}
	}

	matched, mismatched, applied := r.Counts()
	_, err := fmt.Fprintf(w, "run %s (%s): %d drivers, %d matched, %d mismatched, %d applied, %d failed\n",
		r.RunID, r.Mode(), len(r.Outcomes)+len(r.Failures), matched, mismatched, applied, len(r.Failures))
	return err
}

func (o Outcome) status() string {
	switch {
	case o.Applied:
		return "APPLIED"
	case o.Mismatched:
		return "MISMATCH"
	default:
		return "OK"
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
