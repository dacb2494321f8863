package storage

import (
	"context"
	"time"

	"github.com/LordErl/itsells-core/internal/ledger"
	"github.com/LordErl/itsells-core/internal/types/batch"
	"github.com/LordErl/itsells-core/internal/types/customer"
	"github.com/LordErl/itsells-core/internal/types/order"
	"github.com/LordErl/itsells-core/internal/types/table"
	"github.com/LordErl/itsells-core/internal/types/user"
)

// UserRepository handles staff and customer identities.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	FindByLogin(ctx context.Context, login string) (*user.User, error)
}

// OrderRepository handles orders and their items.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	FindItem(ctx context.Context, id int64) (*order.Item, error)
	TransitionItem(ctx context.Context, id int64, from, to order.ItemStatus, startedAt, deliveredAt *time.Time) (bool, error)
	UpdateOrderAggregate(ctx context.Context, id int64, status order.OrderStatus, total float64, updatedAt time.Time) error
	UpdateOrderStatus(ctx context.Context, id int64, status order.OrderStatus, updatedAt time.Time) error
	ListActiveOrders(ctx context.Context) ([]order.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]order.Order, error)
	ListDeliveringItemsByCustomer(ctx context.Context, customerID int64) ([]order.Item, error)
	ListOrdersBetween(ctx context.Context, start, end time.Time) ([]order.Order, error)
}

// TableRepository handles dining-room occupancy.
type TableRepository interface {
	SetTableStatus(ctx context.Context, tableID int64, status table.TableStatus, currentOrderID *int64) error
	ListTables(ctx context.Context) ([]table.Table, error)
}

// BatchRepository handles perishable stock lots.
type BatchRepository interface {
	CreateBatch(ctx context.Context, b *batch.Batch) error
	GetBatch(ctx context.Context, id int64) (*batch.Batch, error)
	ListActiveBatches(ctx context.Context) ([]batch.Batch, error)
	ListBatchesByProduct(ctx context.Context, productID int64) ([]batch.Batch, error)
	ListActiveBatchesExpiringBy(ctx context.Context, deadline time.Time) ([]batch.Batch, error)
	ConsumeBatch(ctx context.Context, id int64, qty int) (*batch.Batch, bool, error)
	DisposeBatch(ctx context.Context, id int64, status batch.BatchStatus, notes string, at time.Time) (*batch.Batch, bool, error)
	CountStatistics(ctx context.Context, now, soonDeadline time.Time, lowStockThreshold int) (*batch.Statistics, error)
}

// AccountRepository handles the per-customer ledger row.
type AccountRepository interface {
	GetAccount(ctx context.Context, customerID int64) (*customer.Account, error)
	CreditIfAbsent(ctx context.Context, customerID, itemID int64, amount float64, at time.Time) (bool, error)
	Debit(ctx context.Context, customerID int64, amount float64, at time.Time) error
	ApplySpend(ctx context.Context, customerID int64, amount float64, at time.Time) error
}

// PaymentRepository stores inbound payment events.
type PaymentRepository interface {
	RecordPayment(ctx context.Context, p *customer.Payment) error
	ListPaymentsByCustomer(ctx context.Context, customerID int64, limit int) ([]customer.Payment, error)
}

// ReconcileRepository finds delivered items whose credit is missing.
type ReconcileRepository interface {
	ListUncreditedDeliveredItems(ctx context.Context, limit int) ([]ledger.PendingCredit, error)
}

// Storage bundles every repository.
type Storage interface {
	UserRepository
	OrderRepository
	TableRepository
	BatchRepository
	AccountRepository
	PaymentRepository
	ReconcileRepository

	Ping(ctx context.Context) error
	Close() error
}
