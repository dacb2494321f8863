package batch

import "time"

type BatchStatus string

const (
	StatusActive   BatchStatus = "active"
	StatusDepleted BatchStatus = "depleted"
	StatusExpired  BatchStatus = "expired"
	StatusDisposed BatchStatus = "disposed"
)

// Terminal reports whether the batch can never be consumed again.
func (s BatchStatus) Terminal() bool {
	return s == StatusDepleted || s == StatusExpired || s == StatusDisposed
}

type ExpirationStatus string

const (
	ExpirationOK       ExpirationStatus = "ok"
	ExpirationWarning  ExpirationStatus = "warning"
	ExpirationCritical ExpirationStatus = "critical"
	ExpirationExpired  ExpirationStatus = "expired"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

type Batch struct {
	ID                int64       `db:"id" json:"id"`
	ProductID         int64       `db:"product_id" json:"product_id"`
	BatchNumber       string      `db:"batch_number" json:"batch_number"`
	Quantity          int         `db:"quantity" json:"quantity"`
	UnitCost          *float64    `db:"unit_cost" json:"unit_cost,omitempty"`
	Supplier          string      `db:"supplier" json:"supplier,omitempty"`
	ManufacturingDate time.Time   `db:"manufacturing_date" json:"manufacturing_date"`
	ExpirationDate    time.Time   `db:"expiration_date" json:"expiration_date"`
	Location          string      `db:"location" json:"location,omitempty"`
	Notes             string      `db:"notes" json:"notes,omitempty"`
	Status            BatchStatus `db:"status" json:"status"`
	DisposalNotes     string      `db:"disposal_notes" json:"disposal_notes,omitempty"`
	DisposalDate      *time.Time  `db:"disposal_date" json:"disposal_date,omitempty"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
}

// View is a batch with the read-time expiration fields attached. The
// classification is never stored; it is derived from (expiration_date, now).
type View struct {
	Batch
	DaysUntilExpiration int              `json:"days_until_expiration"`
	ExpirationStatus    ExpirationStatus `json:"expiration_status"`
	Priority            Priority         `json:"priority,omitempty"`
}

type Statistics struct {
	TotalActiveBatches int `json:"total_active_batches"`
	ExpiringSoon       int `json:"expiring_soon"`
	Expired            int `json:"expired"`
	LowStock           int `json:"low_stock"`
}
