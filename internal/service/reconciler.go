package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/domain"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/events"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/ledger"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/redis"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/repository"
)

const defaultWorkers = 4

// CorrectionPublisher announces applied corrections.
type CorrectionPublisher interface {
	PublishCorrection(ctx context.Context, evt events.BalanceCorrected) error
}

// Reconcile compares a driver's stored money state with the state
// recomputed from rides. Rides must be the driver's finalized rides in
// chronological order.
func Reconcile(driverID string, stored domain.MoneyState, rides []domain.Ride) domain.ReconciliationRecord {
	result := ledger.Fold(rides)

	return domain.ReconciliationRecord{
		DriverID:        driverID,
		StoredBalance:   stored.Balance,
		StoredDebt:      stored.Debt,
		ComputedBalance: result.Balance,
		ComputedDebt:    result.Debt,
		BalanceDiff:     ledger.Round2(result.Balance - stored.Balance),
		DebtDiff:        ledger.Round2(result.Debt - stored.Debt),
		RideCount:       result.Rides,
	}
}

// ApplyIfMismatched overwrites the stored balance and debt with the
// computed values when writes are enabled and the record is mismatched.
// It reports whether a write happened.
func ApplyIfMismatched(ctx context.Context, sink repository.MoneyStateWriter, record domain.ReconciliationRecord, writeEnabled bool) (bool, error) {
	if !writeEnabled || !record.Mismatched() {
		return false, nil
	}

	if err := sink.UpdateMoneyState(ctx, record.DriverID, record.Computed()); err != nil {
		return false, err
	}

	return true, nil
}

// ReconcilerDeps contains the collaborators of a Reconciler. Locks,
// RunCache and Publisher are optional.
type ReconcilerDeps struct {
	Drivers   repository.DriverRepository
	Rides     repository.RideRepository
	Locks     redis.LockStoreInterface
	RunCache  redis.RunCacheInterface
	Publisher CorrectionPublisher
	Logger    zerolog.Logger

	Workers       int
	LockTTL       time.Duration
	DriverTimeout time.Duration
}

// RunOptions controls a reconciliation run.
type RunOptions struct {
	Apply bool
	Limit int // 0 means every discovered driver
}

// Reconciler runs the per-driver reconciliation pipeline.
type Reconciler struct {
	discovery *DriverDiscovery
	drivers   repository.DriverRepository
	rides     repository.RideRepository
	locks     redis.LockStoreInterface
	runCache  redis.RunCacheInterface
	publisher CorrectionPublisher
	log       zerolog.Logger

	workers       int
	lockTTL       time.Duration
	driverTimeout time.Duration
	now           func() time.Time
}

// NewReconciler creates a new Reconciler.
func NewReconciler(deps ReconcilerDeps) *Reconciler {
	workers := deps.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	lockTTL := deps.LockTTL
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	return &Reconciler{
		discovery:     NewDriverDiscovery(deps.Drivers, deps.Logger),
		drivers:       deps.Drivers,
		rides:         deps.Rides,
		locks:         deps.Locks,
		runCache:      deps.RunCache,
		publisher:     deps.Publisher,
		log:           deps.Logger,
		workers:       workers,
		lockTTL:       lockTTL,
		driverTimeout: deps.DriverTimeout,
		now:           time.Now,
	}
}

// ReconcileDriver runs the pipeline for a single driver.
func (s *Reconciler) ReconcileDriver(ctx context.Context, driverID string, apply bool) (*Outcome, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	outcome, err := s.reconcileDriver(ctx, uuid.New().String(), driverID, apply)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// Run discovers drivers and reconciles each of them on a bounded worker
// pool. A driver that fails is reported and skipped; only a discovery
// failure aborts the run.
func (s *Reconciler) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Bool("apply", opts.Apply).Logger()

	report := newReport(runID, opts.Apply, s.now())

	ids, err := s.discovery.Discover(ctx, opts.Limit)
	if err != nil {
		return nil, err
	}
	log.Info().Int("drivers", len(ids)).Msg("reconciliation started")

	type result struct {
		outcome Outcome
		err     error
		done    bool
	}
	results := make([]result, len(ids))

	workers := s.workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcome, err := s.reconcileDriver(ctx, runID, ids[i], opts.Apply)
				results[i] = result{outcome: outcome, err: err, done: true}
			}
		}()
	}

dispatch:
	for i := range ids {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i, id := range ids {
		r := results[i]
		switch {
		case !r.done:
			report.addFailure(id, ctx.Err())
		case r.err != nil:
			log.Error().Err(r.err).Str("driver_id", id).Msg("driver skipped")
			report.addFailure(id, r.err)
		default:
			report.addOutcome(r.outcome)
		}
	}

	report.finish(s.now())

	matched, mismatched, applied := report.Counts()
	log.Info().
		Int("drivers", len(ids)).
		Int("matched", matched).
		Int("mismatched", mismatched).
		Int("applied", applied).
		Int("failed", len(report.Failures)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("reconciliation finished")

	if s.runCache != nil {
		if err := s.runCache.SetLastRun(ctx, report.Summary()); err != nil {
			log.Warn().Err(err).Msg("failed to cache run summary")
		}
	}

	return report, nil
}

// reconcileDriver loads a driver's stored state and rides, reconciles
// them, and applies the correction when requested.
func (s *Reconciler) reconcileDriver(ctx context.Context, runID, driverID string, apply bool) (Outcome, error) {
	defer newrelic.FromContext(ctx).StartSegment("reconcile/driver").End()

	if s.driverTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.driverTimeout)
		defer cancel()
	}

	// Hold the lock across read and write so a concurrent apply run
	// cannot interleave with this one.
	if apply && s.locks != nil {
		ok, err := s.locks.AcquireDriverLock(ctx, driverID, s.lockTTL)
		if err != nil {
			return Outcome{}, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return Outcome{}, ErrDriverLocked
		}
		defer func() {
			if err := s.locks.ReleaseDriverLock(context.WithoutCancel(ctx), driverID); err != nil {
				s.log.Warn().Err(err).Str("driver_id", driverID).Msg("failed to release driver lock")
			}
		}()
	}

	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load driver: %w", err)
	}

	rides, err := s.rides.ListByDriverAndStatus(ctx, driverID, domain.RideStatusFinalized)
	if err != nil {
		return Outcome{}, fmt.Errorf("query rides: %w", err)
	}

	rides = ledger.FilterFinalized(rides, driverID)
	ledger.SortChronologically(rides)

	record := Reconcile(driverID, driver.Money, rides)
	outcome := Outcome{Record: record, Mismatched: record.Mismatched()}

	applied, err := ApplyIfMismatched(ctx, s.drivers, record, apply)
	if err != nil {
		return Outcome{}, fmt.Errorf("apply correction: %w", err)
	}
	outcome.Applied = applied

	if outcome.Mismatched {
		s.log.Info().
			Str("run_id", runID).
			Str("driver_id", driverID).
			Float64("balance_diff", record.BalanceDiff).
			Float64("debt_diff", record.DebtDiff).
			Bool("applied", applied).
			Msg("driver mismatch")
	}

	if applied && s.publisher != nil {
		evt := events.NewBalanceCorrected(runID, record, s.now())
		if err := s.publisher.PublishCorrection(ctx, evt); err != nil {
			s.log.Warn().Err(err).Str("driver_id", driverID).Msg("failed to publish correction")
		}
	}

	return outcome, nil
}
