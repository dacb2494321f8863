package order

import (
	"context"
	"time"

	"github.com/LordErl/itsells-core/internal/types/order"
	"github.com/LordErl/itsells-core/internal/types/table"
)

type OrderRepository interface {
	// CreateOrder persists the order and all its items atomically.
	CreateOrder(ctx context.Context, o *order.Order) error
	// GetOrder loads the order with all its items.
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	FindItem(ctx context.Context, id int64) (*order.Item, error)
	// TransitionItem is a compare-and-swap on the item status. It returns
	// false without error when the item was no longer in `from`, so a race
	// loser can re-inspect instead of corrupting state. startedAt and
	// deliveredAt are only written when non-nil and not already set.
	TransitionItem(ctx context.Context, id int64, from, to order.ItemStatus, startedAt, deliveredAt *time.Time) (bool, error)
	// UpdateOrderAggregate writes status, total and updated_at in one statement.
	UpdateOrderAggregate(ctx context.Context, id int64, status order.OrderStatus, total float64, updatedAt time.Time) error
	UpdateOrderStatus(ctx context.Context, id int64, status order.OrderStatus, updatedAt time.Time) error
	ListActiveOrders(ctx context.Context) ([]order.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]order.Order, error)
	ListDeliveringItemsByCustomer(ctx context.Context, customerID int64) ([]order.Item, error)
}

type TableRepository interface {
	SetTableStatus(ctx context.Context, tableID int64, status table.TableStatus, currentOrderID *int64) error
	ListTables(ctx context.Context) ([]table.Table, error)
}

// Crediter is the ledger side of delivery: one credit per delivered item.
type Crediter interface {
	CreditItem(ctx context.Context, customerID, itemID int64, amount float64) error
}
