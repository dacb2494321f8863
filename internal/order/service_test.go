package order

import (
	"context"
	"testing"
	"time"

	"github.com/LordErl/itsells-core/internal/apperr"
	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/notify"
	"github.com/LordErl/itsells-core/internal/types/order"
	"github.com/LordErl/itsells-core/internal/types/table"
	"github.com/LordErl/itsells-core/internal/validation"
)

type stubOrderRepo struct {
	orders map[int64]*order.Order
	items  map[int64]*order.Item
	nextID int64

	failNextCAS bool
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders: map[int64]*order.Order{},
		items:  map[int64]*order.Item{},
	}
}

func (r *stubOrderRepo) CreateOrder(ctx context.Context, o *order.Order) error {
	r.nextID++
	o.ID = r.nextID
	stored := *o
	stored.Items = nil
	r.orders[o.ID] = &stored
	for i := range o.Items {
		r.nextID++
		o.Items[i].ID = r.nextID
		o.Items[i].OrderID = o.ID
		it := o.Items[i]
		r.items[it.ID] = &it
	}
	return nil
}

func (r *stubOrderRepo) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("order %d not found", id)
	}
	out := *o
	for _, it := range r.items {
		if it.OrderID == id {
			out.Items = append(out.Items, *it)
		}
	}
	return &out, nil
}

func (r *stubOrderRepo) FindItem(ctx context.Context, id int64) (*order.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, apperr.NotFound("item %d not found", id)
	}
	out := *it
	return &out, nil
}

func (r *stubOrderRepo) TransitionItem(ctx context.Context, id int64, from, to order.ItemStatus, startedAt, deliveredAt *time.Time) (bool, error) {
	if r.failNextCAS {
		// a concurrent writer landed the same move first
		r.failNextCAS = false
		r.items[id].Status = to
		return false, nil
	}
	it, ok := r.items[id]
	if !ok || it.Status != from {
		return false, nil
	}
	it.Status = to
	if startedAt != nil && it.StartedAt == nil {
		it.StartedAt = startedAt
	}
	if deliveredAt != nil && it.DeliveredAt == nil {
		it.DeliveredAt = deliveredAt
	}
	return true, nil
}

func (r *stubOrderRepo) UpdateOrderAggregate(ctx context.Context, id int64, status order.OrderStatus, total float64, updatedAt time.Time) error {
	o := r.orders[id]
	o.Status = status
	o.Total = total
	o.UpdatedAt = &updatedAt
	return nil
}

func (r *stubOrderRepo) UpdateOrderStatus(ctx context.Context, id int64, status order.OrderStatus, updatedAt time.Time) error {
	o := r.orders[id]
	o.Status = status
	o.UpdatedAt = &updatedAt
	return nil
}

func (r *stubOrderRepo) ListActiveOrders(ctx context.Context) ([]order.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) ListDeliveringItemsByCustomer(ctx context.Context, customerID int64) ([]order.Item, error) {
	var out []order.Item
	for _, it := range r.items {
		o := r.orders[it.OrderID]
		if o.CustomerID == customerID && it.Status == order.ItemDelivering {
			out = append(out, *it)
		}
	}
	return out, nil
}

type tableCall struct {
	tableID int64
	status  table.TableStatus
}

type stubTableRepo struct {
	calls []tableCall
}

func (r *stubTableRepo) SetTableStatus(ctx context.Context, tableID int64, status table.TableStatus, currentOrderID *int64) error {
	r.calls = append(r.calls, tableCall{tableID: tableID, status: status})
	return nil
}

func (r *stubTableRepo) ListTables(ctx context.Context) ([]table.Table, error) {
	return nil, nil
}

type stubCrediter struct {
	credits map[int64]float64
}

func (c *stubCrediter) CreditItem(ctx context.Context, customerID, itemID int64, amount float64) error {
	if c.credits == nil {
		c.credits = map[int64]float64{}
	}
	c.credits[itemID] += amount
	return nil
}

func setupOrderService() (*Service, *stubOrderRepo, *stubTableRepo, *stubCrediter) {
	repo := newStubOrderRepo()
	tables := &stubTableRepo{}
	ledger := &stubCrediter{}
	clk := clock.Fixed{T: time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)}
	svc := NewService(repo, tables, ledger, clk, notify.Noop{})
	return svc, repo, tables, ledger
}

func placeOrder(t *testing.T, svc *Service, tableID *int64, items ...validation.PlaceOrderItem) *order.Order {
	t.Helper()
	o, err := svc.PlaceOrder(context.Background(), 1, &validation.PlaceOrderRequest{
		TableID: tableID,
		Items:   items,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return o
}

func advanceItem(t *testing.T, svc *Service, itemID int64, stages ...order.ItemStatus) *order.Item {
	t.Helper()
	var it *order.Item
	var err error
	for _, st := range stages {
		it, err = svc.Transition(context.Background(), itemID, st)
		if err != nil {
			t.Fatalf("transition to %s: %v", st, err)
		}
	}
	return it
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc, _, _, _ := setupOrderService()

	_, err := svc.PlaceOrder(context.Background(), 1, &validation.PlaceOrderRequest{})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderRejectsNonPositiveItems(t *testing.T) {
	svc, _, _, _ := setupOrderService()

	_, err := svc.PlaceOrder(context.Background(), 1, &validation.PlaceOrderRequest{
		Items: []validation.PlaceOrderItem{{ProductID: 1, Quantity: 0, UnitPrice: 10}},
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}

	_, err = svc.PlaceOrder(context.Background(), 1, &validation.PlaceOrderRequest{
		Items: []validation.PlaceOrderItem{{ProductID: 1, Quantity: 1, UnitPrice: 0}},
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for zero price, got %v", err)
	}
}

func TestPlaceOrderOccupiesTable(t *testing.T) {
	svc, _, tables, _ := setupOrderService()
	tableID := int64(5)

	o := placeOrder(t, svc, &tableID, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 12.5})

	if o.Status != order.StatusPending {
		t.Errorf("expected pending order, got %s", o.Status)
	}
	if o.Total != 0 {
		t.Errorf("expected zero total before delivery, got %f", o.Total)
	}
	if len(tables.calls) != 1 || tables.calls[0].status != table.StatusOccupied {
		t.Errorf("expected table occupied, got %+v", tables.calls)
	}
}

func TestTransitionStampsStartedAtOnce(t *testing.T) {
	svc, repo, _, _ := setupOrderService()
	o := placeOrder(t, svc, nil, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})
	itemID := o.Items[0].ID

	it := advanceItem(t, svc, itemID, order.ItemProducing)
	if it.StartedAt == nil {
		t.Fatal("expected started_at to be stamped")
	}
	first := *it.StartedAt

	// duplicate click on the same stage must not move anything
	again, err := svc.Transition(context.Background(), itemID, order.ItemProducing)
	if err != nil {
		t.Fatalf("idempotent retransition: %v", err)
	}
	if again.Status != order.ItemProducing {
		t.Errorf("expected producing, got %s", again.Status)
	}
	if got := repo.items[itemID].StartedAt; got == nil || !got.Equal(first) {
		t.Errorf("started_at changed on repeat: %v vs %v", got, first)
	}
}

func TestTransitionRejectsStageSkip(t *testing.T) {
	svc, _, _, _ := setupOrderService()
	o := placeOrder(t, svc, nil, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})

	_, err := svc.Transition(context.Background(), o.Items[0].ID, order.ItemReady)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict for pending->ready, got %v", err)
	}
}

func TestTransitionRejectsBackward(t *testing.T) {
	svc, _, _, _ := setupOrderService()
	o := placeOrder(t, svc, nil, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})
	itemID := o.Items[0].ID

	advanceItem(t, svc, itemID, order.ItemProducing, order.ItemReady)

	_, err := svc.Transition(context.Background(), itemID, order.ItemProducing)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict for ready->producing, got %v", err)
	}
}

func TestTransitionUnknownState(t *testing.T) {
	svc, _, _, _ := setupOrderService()
	o := placeOrder(t, svc, nil, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})

	_, err := svc.Transition(context.Background(), o.Items[0].ID, order.ItemStatus("burnt"))
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransitionOnCancelledOrder(t *testing.T) {
	svc, _, _, _ := setupOrderService()
	o := placeOrder(t, svc, nil, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})

	if _, err := svc.UpdateStatus(context.Background(), o.ID, order.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := svc.Transition(context.Background(), o.Items[0].ID, order.ItemProducing)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict on cancelled order, got %v", err)
	}
}

func TestTransitionLostRaceToSameTarget(t *testing.T) {
	svc, repo, _, _ := setupOrderService()
	o := placeOrder(t, svc, nil, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})
	itemID := o.Items[0].ID

	// the CAS misses because a concurrent writer lands the same target first
	repo.failNextCAS = true

	it, err := svc.Transition(context.Background(), itemID, order.ItemProducing)
	if err != nil {
		t.Fatalf("expected race to resolve as no-op, got %v", err)
	}
	if it.Status != order.ItemProducing {
		t.Errorf("expected producing, got %s", it.Status)
	}
}

func TestFullDeliveryCreditsAndCompletesOrder(t *testing.T) {
	svc, repo, tables, ledger := setupOrderService()
	tableID := int64(3)
	o := placeOrder(t, svc, &tableID, validation.PlaceOrderItem{ProductID: 7, Quantity: 2, UnitPrice: 10})
	itemID := o.Items[0].ID

	it := advanceItem(t, svc, itemID,
		order.ItemProducing, order.ItemReady, order.ItemDelivering, order.ItemDelivered)

	if it.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be stamped")
	}
	if got := ledger.credits[itemID]; got != 20 {
		t.Errorf("expected credit 20, got %f", got)
	}

	final, _ := repo.GetOrder(context.Background(), o.ID)
	if final.Status != order.StatusDelivered {
		t.Errorf("expected delivered order, got %s", final.Status)
	}
	if final.Total != 20 {
		t.Errorf("expected total 20, got %f", final.Total)
	}

	released := tables.calls[len(tables.calls)-1]
	if released.status != table.StatusAvailable {
		t.Errorf("expected table released, got %+v", released)
	}
}

func TestPartialDeliveryKeepsOrderOpen(t *testing.T) {
	svc, repo, _, ledger := setupOrderService()
	o := placeOrder(t, svc, nil,
		validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 8},
		validation.PlaceOrderItem{ProductID: 2, Quantity: 1, UnitPrice: 15},
	)
	first := o.Items[0].ID

	advanceItem(t, svc, first,
		order.ItemProducing, order.ItemReady, order.ItemDelivering, order.ItemDelivered)

	cur, _ := repo.GetOrder(context.Background(), o.ID)
	if cur.Status == order.StatusDelivered {
		t.Error("order must stay open while an item is undelivered")
	}
	if cur.Total != 8 {
		t.Errorf("total must cover delivered items only, got %f", cur.Total)
	}
	if len(ledger.credits) != 1 {
		t.Errorf("expected exactly one credit, got %d", len(ledger.credits))
	}
}

func TestConfirmDeliveryRequiresOwnership(t *testing.T) {
	svc, _, _, _ := setupOrderService()
	o := placeOrder(t, svc, nil, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})
	itemID := o.Items[0].ID

	advanceItem(t, svc, itemID, order.ItemProducing, order.ItemReady, order.ItemDelivering)

	_, err := svc.ConfirmDelivery(context.Background(), 99, itemID)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for foreign customer, got %v", err)
	}

	it, err := svc.ConfirmDelivery(context.Background(), 1, itemID)
	if err != nil {
		t.Fatalf("confirm delivery: %v", err)
	}
	if it.Status != order.ItemDelivered {
		t.Errorf("expected delivered, got %s", it.Status)
	}
}

func TestRecomputeRejectsItemlessOrder(t *testing.T) {
	svc, repo, _, _ := setupOrderService()
	repo.nextID++
	repo.orders[repo.nextID] = &order.Order{ID: repo.nextID, CustomerID: 1, Status: order.StatusPending}

	_, err := svc.Recompute(context.Background(), repo.nextID)
	if apperr.KindOf(err) != apperr.KindConsistency {
		t.Fatalf("expected consistency error, got %v", err)
	}
}

func TestCancelOnlyWhileAllPending(t *testing.T) {
	svc, _, tables, _ := setupOrderService()
	tableID := int64(2)
	o := placeOrder(t, svc, &tableID, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})

	advanceItem(t, svc, o.Items[0].ID, order.ItemProducing)

	_, err := svc.UpdateStatus(context.Background(), o.ID, order.StatusCancelled)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict once production started, got %v", err)
	}

	o2 := placeOrder(t, svc, &tableID, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})
	cancelled, err := svc.UpdateStatus(context.Background(), o2.ID, order.StatusCancelled)
	if err != nil {
		t.Fatalf("cancel pending order: %v", err)
	}
	if cancelled.Status != order.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	released := tables.calls[len(tables.calls)-1]
	if released.status != table.StatusAvailable {
		t.Errorf("expected table released on cancel, got %+v", released)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	svc, _, _, _ := setupOrderService()
	o := placeOrder(t, svc, nil, validation.PlaceOrderItem{ProductID: 1, Quantity: 1, UnitPrice: 10})

	if _, err := svc.UpdateStatus(context.Background(), o.ID, order.StatusPreparing); err != nil {
		t.Fatalf("pending->preparing: %v", err)
	}
	_, err := svc.UpdateStatus(context.Background(), o.ID, order.StatusConfirmed)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict for preparing->confirmed, got %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), o.ID, order.StatusDelivered)
	if !apperr.IsValidation(err) {
		t.Fatalf("delivered must not be set directly, got %v", err)
	}
}
