package table

type TableStatus string

const (
	StatusAvailable  TableStatus = "available"
	StatusOccupied   TableStatus = "occupied"
	StatusReserved   TableStatus = "reserved"
	StatusCleaning   TableStatus = "cleaning"
	StatusOutOfOrder TableStatus = "out_of_order"
)

type Table struct {
	ID             int64       `db:"id" json:"id"`
	Number         int         `db:"number" json:"number"`
	Capacity       int         `db:"capacity" json:"capacity"`
	Status         TableStatus `db:"status" json:"status"`
	CurrentOrderID *int64      `db:"current_order_id" json:"current_order_id,omitempty"`
}
