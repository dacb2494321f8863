package batch

import (
	"context"
	"fmt"

	"github.com/LordErl/itsells-core/internal/apperr"
	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/types/batch"
	"github.com/LordErl/itsells-core/internal/validation"
)

// lowStockThreshold is the fixed quantity at or below which an active batch
// counts as low stock in the dashboard statistics.
const lowStockThreshold = 10

const defaultExpiringWindowDays = 7

type Service struct {
	repo BatchRepository
	clk  clock.Clock
}

func NewService(repo BatchRepository, clk clock.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

func (s *Service) Create(ctx context.Context, req *validation.CreateBatchRequest) (*batch.Batch, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	if !req.ExpirationDate.After(req.ManufacturingDate) {
		return nil, apperr.Validation("expiration date must be after manufacturing date")
	}
	b := &batch.Batch{
		ProductID:         req.ProductID,
		BatchNumber:       req.BatchNumber,
		Quantity:          req.Quantity,
		UnitCost:          req.UnitCost,
		Supplier:          req.Supplier,
		ManufacturingDate: req.ManufacturingDate,
		ExpirationDate:    req.ExpirationDate,
		Location:          req.Location,
		Notes:             req.Notes,
		Status:            batch.StatusActive,
		CreatedAt:         s.clk.Now(),
	}
	if err := s.repo.CreateBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return b, nil
}

// Consume decrements the batch by qty. The quantity never goes below zero;
// the call that reaches the floor flips the batch to depleted, and any batch
// already in a terminal state is rejected — lots are never reactivated.
func (s *Service) Consume(ctx context.Context, id int64, qty int) (*batch.Batch, error) {
	if qty <= 0 {
		return nil, apperr.Validation("consume quantity must be positive")
	}
	b, ok, err := s.repo.ConsumeBatch(ctx, id, qty)
	if err != nil {
		return nil, fmt.Errorf("consume batch %d: %w", id, err)
	}
	if !ok {
		return nil, apperr.Conflict("batch %d is %s, cannot consume", id, b.Status)
	}
	return b, nil
}

// Dispose terminates a batch as expired or disposed. Irreversible; a second
// disposal is a conflict.
func (s *Service) Dispose(ctx context.Context, id int64, action, notes string) (*batch.Batch, error) {
	var status batch.BatchStatus
	switch action {
	case "expired":
		status = batch.StatusExpired
	case "disposed":
		status = batch.StatusDisposed
	default:
		return nil, apperr.Validation("action must be expired or disposed, got %q", action)
	}
	b, ok, err := s.repo.DisposeBatch(ctx, id, status, notes, s.clk.Now())
	if err != nil {
		return nil, fmt.Errorf("dispose batch %d: %w", id, err)
	}
	if !ok {
		return nil, apperr.Conflict("batch %d is %s, cannot dispose", id, b.Status)
	}
	return b, nil
}

// ListAll returns every active batch under the statistics-view
// classification.
func (s *Service) ListAll(ctx context.Context) ([]batch.View, error) {
	batches, err := s.repo.ListActiveBatches(ctx)
	if err != nil {
		return nil, err
	}
	return s.statisticsViews(batches), nil
}

// ListByProduct returns a product's active batches, earliest expiration
// first, under the statistics-view classification.
func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]batch.View, error) {
	batches, err := s.repo.ListBatchesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.statisticsViews(batches), nil
}

// ListExpiring is the triage view: batches expiring within the window,
// classified with the tighter cutoffs and a priority for ordering disposal
// work.
func (s *Service) ListExpiring(ctx context.Context, windowDays int) ([]batch.View, error) {
	if windowDays <= 0 {
		windowDays = defaultExpiringWindowDays
	}
	now := s.clk.Now()
	deadline := now.AddDate(0, 0, windowDays)
	batches, err := s.repo.ListActiveBatchesExpiringBy(ctx, deadline)
	if err != nil {
		return nil, err
	}
	views := make([]batch.View, 0, len(batches))
	for _, b := range batches {
		days := DaysUntilExpiration(b.ExpirationDate, now)
		status, priority := ClassifyExpiring(days)
		views = append(views, batch.View{
			Batch:               b,
			DaysUntilExpiration: days,
			ExpirationStatus:    status,
			Priority:            priority,
		})
	}
	return views, nil
}

// Statistics is a pure aggregation: active, expiring-within-7-days, expired
// and low-stock counts. No mutation.
func (s *Service) Statistics(ctx context.Context) (*batch.Statistics, error) {
	now := s.clk.Now()
	return s.repo.CountStatistics(ctx, now, now.AddDate(0, 0, defaultExpiringWindowDays), lowStockThreshold)
}

func (s *Service) statisticsViews(batches []batch.Batch) []batch.View {
	now := s.clk.Now()
	views := make([]batch.View, 0, len(batches))
	for _, b := range batches {
		days := DaysUntilExpiration(b.ExpirationDate, now)
		views = append(views, batch.View{
			Batch:               b,
			DaysUntilExpiration: days,
			ExpirationStatus:    ClassifyStatistics(days),
		})
	}
	return views
}
