package batch

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/LordErl/itsells-core/internal/apperr"
	"github.com/LordErl/itsells-core/internal/validation"
)

type Handler struct {
	svc      *Service
	selector Selector
	validate *validatorv10.Validate
}

func NewHandler(svc *Service, selector Selector) *Handler {
	return &Handler{svc: svc, selector: selector, validate: validation.New()}
}

func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req validation.CreateBatchRequest
	if err := validation.Decode(r, &req, h.validate); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	b, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

func (h *Handler) ConsumeBatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "batchID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid batch id", http.StatusBadRequest)
		return
	}
	var req validation.ConsumeBatchRequest
	if err := validation.Decode(r, &req, h.validate); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	b, err := h.svc.Consume(r.Context(), id, req.Quantity)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

func (h *Handler) DisposeBatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "batchID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid batch id", http.StatusBadRequest)
		return
	}
	var req validation.DisposeBatchRequest
	if err := validation.Decode(r, &req, h.validate); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	b, err := h.svc.Dispose(r.Context(), id, req.Action, req.Notes)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListAll(r.Context())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (h *Handler) ListBatchesByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	views, err := h.svc.ListByProduct(r.Context(), productID)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (h *Handler) ListExpiringBatches(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = d
	}
	views, err := h.svc.ListExpiring(r.Context(), days)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (h *Handler) BatchStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// PickBatch exposes the selection strategy: given a product, answer which lot
// a consume call should target.
func (h *Handler) PickBatch(w http.ResponseWriter, r *http.Request) {
	var req validation.PickBatchRequest
	if err := validation.Decode(r, &req, h.validate); err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	b, err := h.selector.Pick(r.Context(), req.ProductID)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}
