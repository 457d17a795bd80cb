// Package sweeper runs the Outdated Sweeper (spec.md §5): three
// independent periodic jobs that reject PENDING transactions whose
// auto_reject_after deadline has passed, one per transaction kind.
// Grounded on original_source/gaming_billing_service/currencies/tasks.py,
// where each kind is a separate Celery task wrapping
// *Service.reject_all_outdated; here the three run concurrently via
// golang.org/x/sync/errgroup instead of three separate cron entries.
package sweeper

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/engine/adjustments"
	"github.com/ar1ocker/currencyledger/internal/engine/exchanges"
	"github.com/ar1ocker/currencyledger/internal/engine/transfers"
)

// StatusDescription is stamped on every transaction the sweeper rejects,
// matching the original's cron-authored description text.
const StatusDescription = "Rejected by cron as outdated"

// BatchSize bounds how many outdated rows a single sweep pass claims per
// kind, so one run cannot hold a serializable snapshot open indefinitely.
const BatchSize = 500

// Result reports how many rows of each kind were rejected in one pass.
type Result struct {
	AdjustmentsRejected int
	TransfersRejected   int
	ExchangesRejected   int
}

// Run executes all three reject-outdated jobs concurrently and returns once
// all have finished (or the first hard error, which aborts the others via
// ctx cancellation).
func Run(ctx context.Context, db *database.Store) (Result, error) {
	var res Result

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := adjustments.RejectAllOutdated(gctx, db, StatusDescription, BatchSize)
		res.AdjustmentsRejected = n
		return err
	})
	g.Go(func() error {
		n, err := transfers.RejectAllOutdated(gctx, db, StatusDescription, BatchSize)
		res.TransfersRejected = n
		return err
	})
	g.Go(func() error {
		n, err := exchanges.RejectAllOutdated(gctx, db, StatusDescription, BatchSize)
		res.ExchangesRejected = n
		return err
	})

	if err := g.Wait(); err != nil {
		return res, err
	}

	zap.L().Info("outdated sweep complete",
		zap.Int("adjustments_rejected", res.AdjustmentsRejected),
		zap.Int("transfers_rejected", res.TransfersRejected),
		zap.Int("exchanges_rejected", res.ExchangesRejected))

	return res, nil
}
