package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LordErl/itsells-core/internal/logger"
)

// The delivery chain persists the item, recomputes the order, then credits
// the ledger. A crash between the last two steps leaves a delivered item with
// no credit. The reconciler sweeps those up; CreditItem's per-item key makes
// the re-run safe.

type Crediter interface {
	CreditItem(ctx context.Context, customerID, itemID int64, amount float64) error
}

func creditWorkerLoop(ctx context.Context, id int, jobs <-chan PendingCredit, svc Crediter) {
	logger.Log.Debug("reconcile worker started", zap.Int("worker", id))
	for {
		select {
		case <-ctx.Done():
			logger.Log.Debug("reconcile worker stopped", zap.Int("worker", id))
			return

		case pc, ok := <-jobs:
			if !ok {
				return
			}
			if err := svc.CreditItem(ctx, pc.CustomerID, pc.ItemID, pc.Amount); err != nil {
				logger.Log.Error("reconcile credit failed",
					zap.Int("worker", id),
					zap.Int64("item_id", pc.ItemID),
					zap.Error(err),
				)
				continue
			}
			logger.Log.Info("reconciled missing credit",
				zap.Int64("item_id", pc.ItemID),
				zap.Int64("customer_id", pc.CustomerID),
				zap.Float64("amount", pc.Amount),
			)
		}
	}
}

// ReconcileLoop periodically lists delivered-but-uncredited items and feeds
// them to a worker pool. Runs until the context is cancelled.
func ReconcileLoop(ctx context.Context, repo ReconcileRepository, svc Crediter, workerCount int, interval time.Duration) {
	jobs := make(chan PendingCredit, workerCount*3)

	for i := 1; i <= workerCount; i++ {
		go creditWorkerLoop(ctx, i, jobs, svc)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Log.Info("ledger reconciler started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("ledger reconciler stopping")
			close(jobs)
			return
		case <-ticker.C:
			pending, err := repo.ListUncreditedDeliveredItems(ctx, cap(jobs))
			if err != nil {
				logger.Log.Error("list uncredited items failed", zap.Error(err))
				continue
			}
			if len(pending) == 0 {
				continue
			}
			logger.Log.Warn("found delivered items without ledger credit", zap.Int("count", len(pending)))
			for _, pc := range pending {
				select {
				case jobs <- pc:
				default:
					// channel full, the next tick will pick it up again
				}
			}
		}
	}
}
