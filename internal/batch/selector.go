package batch

import (
	"context"

	"github.com/LordErl/itsells-core/internal/apperr"
	"github.com/LordErl/itsells-core/internal/types/batch"
)

// Selector picks which lot to decrement when a product sells. Consumption
// itself always takes an explicit batch id; the selection policy is a
// caller-side strategy, pluggable behind this interface.
type Selector interface {
	Pick(ctx context.Context, productID int64) (*batch.Batch, error)
}

// EarliestExpiring picks the earliest-expiring active batch with stock left.
type EarliestExpiring struct {
	repo BatchRepository
}

func NewEarliestExpiring(repo BatchRepository) *EarliestExpiring {
	return &EarliestExpiring{repo: repo}
}

func (s *EarliestExpiring) Pick(ctx context.Context, productID int64) (*batch.Batch, error) {
	batches, err := s.repo.ListBatchesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		if b.Status == batch.StatusActive && b.Quantity > 0 {
			picked := b
			return &picked, nil
		}
	}
	return nil, apperr.NotFound("no active batch with stock for product %d", productID)
}
