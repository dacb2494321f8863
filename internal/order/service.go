package order

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LordErl/itsells-core/internal/apperr"
	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/logger"
	"github.com/LordErl/itsells-core/internal/notify"
	"github.com/LordErl/itsells-core/internal/types/order"
	"github.com/LordErl/itsells-core/internal/types/table"
	"github.com/LordErl/itsells-core/internal/validation"
)

// statusRank orders the staff-settable order statuses. Cancelled and
// delivered are handled separately.
var statusRank = map[order.OrderStatus]int{
	order.StatusPending:   0,
	order.StatusConfirmed: 1,
	order.StatusPreparing: 2,
	order.StatusReady:     3,
}

type Service struct {
	repo   OrderRepository
	tables TableRepository
	ledger Crediter
	clk    clock.Clock
	events notify.Publisher
}

func NewService(repo OrderRepository, tables TableRepository, ledger Crediter, clk clock.Clock, events notify.Publisher) *Service {
	return &Service{repo: repo, tables: tables, ledger: ledger, clk: clk, events: events}
}

// PlaceOrder creates the order and its items atomically, seeds the aggregate
// and occupies the table when one was given.
func (s *Service) PlaceOrder(ctx context.Context, customerID int64, req *validation.PlaceOrderRequest) (*order.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, apperr.Validation("item %d: quantity must be positive", i)
		}
		if it.UnitPrice <= 0 {
			return nil, apperr.Validation("item %d: unit price must be positive", i)
		}
	}

	now := s.clk.Now()
	o := &order.Order{
		CustomerID:   customerID,
		TableID:      req.TableID,
		Status:       order.StatusPending,
		Observations: req.Observations,
		CreatedAt:    now,
	}
	for _, it := range req.Items {
		o.Items = append(o.Items, order.Item{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			Status:       order.ItemPending,
			Observations: it.Observations,
		})
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if o.TableID != nil {
		if err := s.tables.SetTableStatus(ctx, *o.TableID, table.StatusOccupied, &o.ID); err != nil {
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	// seed total=0 so the aggregate always reflects persisted item state
	placed, err := s.Recompute(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	notify.Fire(ctx, s.events, notify.Event{
		Type:       "order_placed",
		OrderID:    placed.ID,
		CustomerID: placed.CustomerID,
		Status:     string(placed.Status),
		OccurredAt: now,
	})
	return placed, nil
}

// Transition moves an item to the target production stage. The target must be
// the immediate successor of the current state; asking for the current state
// is an idempotent no-op so duplicate staff clicks resolve cleanly.
func (s *Service) Transition(ctx context.Context, itemID int64, target order.ItemStatus) (*order.Item, error) {
	if !target.Valid() {
		return nil, apperr.Validation("unknown item state %q", target)
	}
	it, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.GetOrder(ctx, it.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusCancelled {
		return nil, apperr.Conflict("order %d is cancelled", o.ID)
	}
	if target == it.Status {
		return it, nil
	}
	if !target.IsSuccessorOf(it.Status) {
		return nil, apperr.Conflict("item %d cannot move from %s to %s", itemID, it.Status, target)
	}

	now := s.clk.Now()
	var startedAt, deliveredAt *time.Time
	switch target {
	case order.ItemProducing:
		startedAt = &now
	case order.ItemDelivered:
		deliveredAt = &now
	}

	moved, err := s.repo.TransitionItem(ctx, itemID, it.Status, target, startedAt, deliveredAt)
	if err != nil {
		return nil, fmt.Errorf("transition item %d: %w", itemID, err)
	}
	if !moved {
		// lost a race with a concurrent staff action
		cur, err := s.repo.FindItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if cur.Status == target {
			return cur, nil
		}
		return nil, apperr.Conflict("item %d was moved concurrently to %s", itemID, cur.Status)
	}

	it.Status = target
	if startedAt != nil && it.StartedAt == nil {
		it.StartedAt = startedAt
	}
	if deliveredAt != nil && it.DeliveredAt == nil {
		it.DeliveredAt = deliveredAt
	}

	// On delivery the item write above must land before the aggregate, and
	// the aggregate before the customer-facing balance change. The whole
	// chain runs inside this call, so the inconsistency window is bounded
	// by it; a crash in between is recovered by the ledger reconciler.
	if target == order.ItemDelivered {
		if _, err := s.Recompute(ctx, it.OrderID); err != nil {
			return nil, err
		}
		if err := s.ledger.CreditItem(ctx, o.CustomerID, it.ID, it.LineTotal()); err != nil {
			return nil, fmt.Errorf("credit item %d: %w", it.ID, err)
		}
	}

	notify.Fire(ctx, s.events, notify.Event{
		Type:       "item_transitioned",
		OrderID:    o.ID,
		ItemID:     &it.ID,
		CustomerID: o.CustomerID,
		Status:     string(target),
		OccurredAt: now,
	})
	return it, nil
}

// ConfirmDelivery is the customer-initiated end of the pipeline: it verifies
// ownership, then runs the delivered transition (which credits the ledger).
func (s *Service) ConfirmDelivery(ctx context.Context, customerID, itemID int64) (*order.Item, error) {
	it, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.GetOrder(ctx, it.OrderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, apperr.NotFound("item %d not found for customer %d", itemID, customerID)
	}
	return s.Transition(ctx, itemID, order.ItemDelivered)
}

// Recompute derives the order aggregate from its persisted items: the total
// sums delivered items only, and the order turns delivered exactly when every
// item is delivered. One atomic order write per invocation.
func (s *Service) Recompute(ctx context.Context, orderID int64) (*order.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(o.Items) == 0 {
		err := apperr.Consistency("order %d has no items", orderID)
		logger.Log.Error("aggregate recompute contract violation", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, err
	}

	allDelivered := true
	total := 0.0
	for _, it := range o.Items {
		if it.Status == order.ItemDelivered {
			total += it.LineTotal()
		} else {
			allDelivered = false
		}
	}

	status := o.Status
	if allDelivered {
		status = order.StatusDelivered
	}

	now := s.clk.Now()
	if err := s.repo.UpdateOrderAggregate(ctx, orderID, status, total, now); err != nil {
		return nil, fmt.Errorf("update order %d aggregate: %w", orderID, err)
	}
	o.Status = status
	o.Total = total
	o.UpdatedAt = &now

	if allDelivered {
		if o.TableID != nil {
			if err := s.tables.SetTableStatus(ctx, *o.TableID, table.StatusAvailable, nil); err != nil {
				logger.Log.Warn("release table failed", zap.Int64("table_id", *o.TableID), zap.Error(err))
			}
		}
		notify.Fire(ctx, s.events, notify.Event{
			Type:       "order_delivered",
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			Status:     string(order.StatusDelivered),
			OccurredAt: now,
		})
	}
	return o, nil
}

// UpdateStatus is the staff-side order status change. Forward-only between
// pending/confirmed/preparing/ready; cancellation is allowed only while every
// item is still pending. Delivered is derived, never set here.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, target order.OrderStatus) (*order.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch o.Status {
	case order.StatusDelivered:
		return nil, apperr.Conflict("order %d is already delivered", orderID)
	case order.StatusCancelled:
		if target == order.StatusCancelled {
			return o, nil
		}
		return nil, apperr.Conflict("order %d is cancelled", orderID)
	}

	switch target {
	case order.StatusCancelled:
		for _, it := range o.Items {
			if it.Status != order.ItemPending {
				return nil, apperr.Conflict("order %d has items in production, cannot cancel", orderID)
			}
		}
	case order.StatusConfirmed, order.StatusPreparing, order.StatusReady:
		if statusRank[target] <= statusRank[o.Status] {
			return nil, apperr.Conflict("order %d cannot move from %s to %s", orderID, o.Status, target)
		}
	default:
		return nil, apperr.Validation("status %q cannot be set directly", target)
	}

	now := s.clk.Now()
	if err := s.repo.UpdateOrderStatus(ctx, orderID, target, now); err != nil {
		return nil, fmt.Errorf("update order %d status: %w", orderID, err)
	}
	o.Status = target
	o.UpdatedAt = &now

	if target == order.StatusCancelled && o.TableID != nil {
		if err := s.tables.SetTableStatus(ctx, *o.TableID, table.StatusAvailable, nil); err != nil {
			logger.Log.Warn("release table failed", zap.Int64("table_id", *o.TableID), zap.Error(err))
		}
	}

	notify.Fire(ctx, s.events, notify.Event{
		Type:       "order_status_changed",
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Status:     string(target),
		OccurredAt: now,
	})
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]order.Order, error) {
	return s.repo.ListActiveOrders(ctx)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

// ListDelivering feeds the customer confirmation prompt: items a runner has
// taken to the table but the customer has not yet confirmed.
func (s *Service) ListDelivering(ctx context.Context, customerID int64) ([]order.Item, error) {
	return s.repo.ListDeliveringItemsByCustomer(ctx, customerID)
}

func (s *Service) ListTables(ctx context.Context) ([]table.Table, error) {
	return s.tables.ListTables(ctx)
}
