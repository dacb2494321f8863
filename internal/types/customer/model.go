package customer

import "time"

// Account is the ledger view over a customer: what they still owe and the
// lifetime running totals used in reports. CurrentBill only moves through
// delivery credits and approved-payment debits.
type Account struct {
	ID          int64      `db:"id" json:"-"`
	CustomerID  int64      `db:"customer_id" json:"customer_id"`
	CurrentBill float64    `db:"current_bill" json:"current_bill"`
	TotalSpent  float64    `db:"total_spent" json:"total_spent"`
	VisitCount  int        `db:"visit_count" json:"visit_count"`
	LastVisit   *time.Time `db:"last_visit" json:"last_visit,omitempty"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is the record of an external payment event. The core never captures
// payments; it only consumes approved events to debit the account.
type Payment struct {
	ID         int64         `db:"id" json:"id"`
	ExternalID string        `db:"external_id" json:"external_id,omitempty"`
	CustomerID int64         `db:"customer_id" json:"customer_id"`
	Amount     float64       `db:"amount" json:"amount"`
	Method     string        `db:"method" json:"method,omitempty"`
	Status     PaymentStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}
