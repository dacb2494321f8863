package batch

import (
	"context"
	"time"

	"github.com/LordErl/itsells-core/internal/types/batch"
)

type BatchRepository interface {
	CreateBatch(ctx context.Context, b *batch.Batch) error
	GetBatch(ctx context.Context, id int64) (*batch.Batch, error)
	// ListActiveBatches returns active lots ordered by expiration date.
	ListActiveBatches(ctx context.Context) ([]batch.Batch, error)
	ListBatchesByProduct(ctx context.Context, productID int64) ([]batch.Batch, error)
	ListActiveBatchesExpiringBy(ctx context.Context, deadline time.Time) ([]batch.Batch, error)
	// ConsumeBatch atomically decrements an active batch, clamping at zero
	// and flipping status to depleted when the floor is reached. Returns
	// false without error when the batch exists but is not active.
	ConsumeBatch(ctx context.Context, id int64, qty int) (*batch.Batch, bool, error)
	// DisposeBatch terminates an active batch. Returns false when the batch
	// was not active (double disposal).
	DisposeBatch(ctx context.Context, id int64, status batch.BatchStatus, notes string, at time.Time) (*batch.Batch, bool, error)
	CountStatistics(ctx context.Context, now, soonDeadline time.Time, lowStockThreshold int) (*batch.Statistics, error)
}
