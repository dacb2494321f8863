package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/LordErl/itsells-core/internal/apperr"
	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/types/customer"
	"github.com/LordErl/itsells-core/internal/validation"
)

type Service struct {
	accounts AccountRepository
	payments PaymentRepository
	clk      clock.Clock
}

func NewService(accounts AccountRepository, payments PaymentRepository, clk clock.Clock) *Service {
	return &Service{accounts: accounts, payments: payments, clk: clk}
}

// CreditItem adds a delivered item's value to the customer's outstanding
// bill. Keyed by item id, so retries and the reconciler sweep are no-ops
// after the first application.
func (s *Service) CreditItem(ctx context.Context, customerID, itemID int64, amount float64) error {
	if amount <= 0 {
		return apperr.Validation("credit amount must be positive, got %.2f", amount)
	}
	applied, err := s.accounts.CreditIfAbsent(ctx, customerID, itemID, amount, s.clk.Now())
	if err != nil {
		return fmt.Errorf("credit customer %d for item %d: %w", customerID, itemID, err)
	}
	_ = applied // already-credited items are a clean no-op
	return nil
}

// ApplyPayment records an inbound payment event. Only approved events move
// the ledger: the bill is debited (clamped at zero) and the lifetime spend
// counters advance.
func (s *Service) ApplyPayment(ctx context.Context, req *validation.PaymentEventRequest) (*customer.Payment, error) {
	now := s.clk.Now()
	p := &customer.Payment{
		ExternalID: req.ExternalID,
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Method:     req.Method,
		Status:     req.Status,
		CreatedAt:  now,
	}
	if p.ExternalID == "" {
		p.ExternalID = uuid.NewString()
	}
	if err := s.payments.RecordPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	if p.Status != customer.PaymentApproved {
		return p, nil
	}

	if err := s.accounts.Debit(ctx, p.CustomerID, p.Amount, now); err != nil {
		return nil, fmt.Errorf("debit customer %d: %w", p.CustomerID, err)
	}
	if err := s.accounts.ApplySpend(ctx, p.CustomerID, p.Amount, now); err != nil {
		return nil, fmt.Errorf("apply spend for customer %d: %w", p.CustomerID, err)
	}
	return p, nil
}

func (s *Service) GetAccount(ctx context.Context, customerID int64) (*customer.Account, error) {
	return s.accounts.GetAccount(ctx, customerID)
}

func (s *Service) ListPayments(ctx context.Context, customerID int64, limit int) ([]customer.Payment, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.payments.ListPaymentsByCustomer(ctx, customerID, limit)
}
