package ledger

import (
	"encoding/json"
	"net/http"
	"strconv"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/LordErl/itsells-core/internal/apperr"
	"github.com/LordErl/itsells-core/internal/middleware"
	"github.com/LordErl/itsells-core/internal/validation"
)

type Handler struct {
	svc      *Service
	validate *validatorv10.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validation.New()}
}

// GetAccount returns the acting customer's ledger view: current bill and
// lifetime totals.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())
	acc, err := h.svc.GetAccount(r.Context(), customerID)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acc)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	payments, err := h.svc.ListPayments(r.Context(), customerID, limit)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(payments) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payments)
}

// PaymentEvent is the inbound webhook from the payment collaborator.
func (h *Handler) PaymentEvent(w http.ResponseWriter, r *http.Request) {
	var req validation.PaymentEventRequest
	if err := validation.Decode(r, &req, h.validate); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	p, err := h.svc.ApplyPayment(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(p)
}
