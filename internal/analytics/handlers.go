package analytics

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/logger"
)

type Handler struct {
	svc *Service
	clk clock.Clock
}

func NewHandler(svc *Service, clk clock.Clock) *Handler {
	return &Handler{svc: svc, clk: clk}
}

// DailyReport serves GET /api/reports/daily?date=YYYY-MM-DD. A store outage
// degrades to "data unavailable" instead of failing the whole dashboard.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	date := h.clk.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	report, err := h.svc.DailyReport(r.Context(), date)
	if err != nil {
		logger.Log.Error("daily report failed", zap.String("date", date.Format("2006-01-02")), zap.Error(err))
		http.Error(w, "data unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
