// Command reconcile recomputes every driver's balance and debt from
// finalized rides and reports drivers whose stored values drifted.
//
// Usage:
//
//	reconcile [--apply] [--limit=N] [--workers=N]
//
// Without --apply the run is read-only. Exit status is 0 when the run
// completes, even with mismatches or skipped drivers, and 1 when it
// cannot start.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/app"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/config"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	apply := flag.Bool("apply", false, "write computed balance and debt for mismatched drivers")
	limit := flag.Int("limit", 0, "reconcile at most N drivers (0 = all)")
	workers := flag.Int("workers", cfg.Reconcile.Workers, "drivers reconciled concurrently")
	flag.Parse()

	log := app.NewLogger(cfg.Log, "reconcile")

	if *limit < 0 {
		fmt.Fprintln(os.Stderr, "--limit must not be negative")
		return 1
	}
	cfg.Reconcile.Workers = *workers

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	infra, err := app.NewInfra(connectCtx, cfg, log)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return 1
	}
	defer infra.Close()

	reconciler := infra.Reconciler(cfg.Reconcile)

	if infra.NewRelic != nil {
		txn := infra.NewRelic.StartTransaction("reconcile-run")
		txn.AddAttribute("apply", *apply)
		txn.AddAttribute("limit", *limit)
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	if *apply {
		log.Warn().Msg("apply mode: mismatched drivers will be overwritten")
	}

	report, err := reconciler.Run(ctx, service.RunOptions{Apply: *apply, Limit: *limit})
	if err != nil {
		if txn := newrelic.FromContext(ctx); txn != nil {
			txn.NoticeError(err)
		}
		log.Error().Err(err).Msg("reconciliation aborted")
		return 1
	}

	if err := report.Render(os.Stdout); err != nil {
		log.Error().Err(err).Msg("failed to write report")
	}

	return 0
}
