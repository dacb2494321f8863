package analytics

import (
	"context"
	"time"

	"github.com/LordErl/itsells-core/internal/types/order"
)

// ReportRepository is the only data the read side needs: finalized order
// headers inside a half-open window [start, end).
type ReportRepository interface {
	ListOrdersBetween(ctx context.Context, start, end time.Time) ([]order.Order, error)
}
