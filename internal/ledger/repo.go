package ledger

import (
	"context"
	"time"

	"github.com/LordErl/itsells-core/internal/types/customer"
)

type AccountRepository interface {
	GetAccount(ctx context.Context, customerID int64) (*customer.Account, error)
	// CreditIfAbsent applies a delivery credit exactly once per item: it
	// records the item's idempotency row and bumps current_bill in one
	// atomic step. Returns false when the item was already credited.
	CreditIfAbsent(ctx context.Context, customerID, itemID int64, amount float64, at time.Time) (bool, error)
	// Debit atomically lowers current_bill, clamped at zero.
	Debit(ctx context.Context, customerID int64, amount float64, at time.Time) error
	// ApplySpend moves the reporting totals on an approved payment.
	ApplySpend(ctx context.Context, customerID int64, amount float64, at time.Time) error
}

type PaymentRepository interface {
	RecordPayment(ctx context.Context, p *customer.Payment) error
	ListPaymentsByCustomer(ctx context.Context, customerID int64, limit int) ([]customer.Payment, error)
}

// PendingCredit is a delivered item whose ledger credit was never observed —
// the recoverable half-done state of the delivery saga.
type PendingCredit struct {
	ItemID     int64
	CustomerID int64
	Amount     float64
}

type ReconcileRepository interface {
	ListUncreditedDeliveredItems(ctx context.Context, limit int) ([]PendingCredit, error)
}
