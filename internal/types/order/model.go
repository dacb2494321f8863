package order

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemProducing  ItemStatus = "producing"
	ItemReady      ItemStatus = "ready"
	ItemDelivering ItemStatus = "delivering"
	ItemDelivered  ItemStatus = "delivered"
)

// itemSequence is the only legal path for an item. No skips, no reversals.
var itemSequence = []ItemStatus{ItemPending, ItemProducing, ItemReady, ItemDelivering, ItemDelivered}

func (s ItemStatus) Valid() bool {
	return s.index() >= 0
}

func (s ItemStatus) index() int {
	for i, st := range itemSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// IsSuccessorOf reports whether s is the immediate successor of prev.
func (s ItemStatus) IsSuccessorOf(prev ItemStatus) bool {
	i, j := prev.index(), s.index()
	return i >= 0 && j == i+1
}

type Order struct {
	ID           int64       `db:"id" json:"id"`
	CustomerID   int64       `db:"customer_id" json:"customer_id"`
	TableID      *int64      `db:"table_id" json:"table_id,omitempty"`
	Status       OrderStatus `db:"status" json:"status"`
	Total        float64     `db:"total" json:"total"`
	Observations string      `db:"observations" json:"observations,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time  `db:"updated_at" json:"updated_at,omitempty"`

	Items []Item `json:"items,omitempty"`
}

type Item struct {
	ID           int64      `db:"id" json:"id"`
	OrderID      int64      `db:"order_id" json:"order_id"`
	ProductID    int64      `db:"product_id" json:"product_id"`
	Quantity     int        `db:"quantity" json:"quantity"`
	UnitPrice    float64    `db:"unit_price" json:"unit_price"`
	Status       ItemStatus `db:"status" json:"status"`
	Observations string     `db:"observations" json:"observations,omitempty"`
	StartedAt    *time.Time `db:"started_at" json:"started_at,omitempty"`
	DeliveredAt  *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
}

// LineTotal is the settlement value of the item once delivered.
func (i Item) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
