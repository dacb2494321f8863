package validation

import (
	"time"

	"github.com/LordErl/itsells-core/internal/types/customer"
	"github.com/LordErl/itsells-core/internal/types/order"
)

// PlaceOrderItem is a single cart line in an order placement request.
type PlaceOrderItem struct {
	ProductID    int64   `json:"product_id" validate:"required,gt=0"`
	Quantity     int     `json:"quantity" validate:"required,min=1"`
	UnitPrice    float64 `json:"unit_price" validate:"required,gt=0"`
	Observations string  `json:"observations,omitempty"`
}

// PlaceOrderRequest is the payload for POST /api/orders. The order and its
// items are created atomically; an empty cart is rejected.
type PlaceOrderRequest struct {
	TableID      *int64           `json:"table_id,omitempty" validate:"omitempty,gt=0"`
	Items        []PlaceOrderItem `json:"items" validate:"required,min=1,dive"`
	Observations string           `json:"observations,omitempty"`
}

// TransitionRequest moves an item to the next production stage.
type TransitionRequest struct {
	TargetState order.ItemStatus `json:"target_state" validate:"required,oneof=pending producing ready delivering delivered"`
}

// OrderStatusRequest is the staff-side order status update.
type OrderStatusRequest struct {
	Status order.OrderStatus `json:"status" validate:"required,oneof=confirmed preparing ready cancelled"`
}

// CreateBatchRequest registers a received stock lot.
type CreateBatchRequest struct {
	ProductID         int64     `json:"product_id" validate:"required,gt=0"`
	BatchNumber       string    `json:"batch_number" validate:"required"`
	Quantity          int       `json:"quantity" validate:"required,min=1"`
	UnitCost          *float64  `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
	Supplier          string    `json:"supplier,omitempty"`
	ManufacturingDate time.Time `json:"manufacturing_date" validate:"required"`
	ExpirationDate    time.Time `json:"expiration_date" validate:"required"`
	Location          string    `json:"location,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

type ConsumeBatchRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type DisposeBatchRequest struct {
	Action string `json:"action" validate:"required,oneof=expired disposed"`
	Notes  string `json:"notes,omitempty"`
}

type PickBatchRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// PaymentEventRequest is the inbound contract from the external payment
// collaborator. Only approved events move the ledger.
type PaymentEventRequest struct {
	ExternalID string                 `json:"external_id,omitempty"`
	CustomerID int64                  `json:"customer_id" validate:"required,gt=0"`
	Amount     float64                `json:"amount" validate:"required,gt=0"`
	Method     string                 `json:"method,omitempty"`
	Status     customer.PaymentStatus `json:"status" validate:"required,oneof=pending approved rejected cancelled"`
}
