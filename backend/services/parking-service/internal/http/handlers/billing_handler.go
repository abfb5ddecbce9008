package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"parkinglot/backend/services/parking-service/internal/billing"
	"parkinglot/backend/services/parking-service/internal/service"
)

// BillingHandlers exposes the fee calculator without touching entries.
type BillingHandlers struct {
	svc    *service.EntriesService
	logger *zap.Logger
}

// NewBillingHandlers builds handler set.
func NewBillingHandlers(svc *service.EntriesService, logger *zap.Logger) *BillingHandlers {
	return &BillingHandlers{svc: svc, logger: logger}
}

type quoteRequest struct {
	EntryTime   time.Time              `json:"entryTime"`
	ExitTime    *time.Time             `json:"exitTime"`
	IsPickAndGo bool                   `json:"isPickAndGo"`
	VehicleType billing.VehicleTypeRef `json:"vehicleType"`
}

// Quote handles POST /billing/quote. vehicleType is either an id string or
// an inline vehicle type with rates.
func (h *BillingHandlers) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EntryTime.IsZero() {
		writeError(w, http.StatusBadRequest, "entryTime is required")
		return
	}

	bill, err := h.svc.QuoteStay(r.Context(), billing.Stay{
		EntryTime: req.EntryTime,
		ExitTime:  req.ExitTime,
		PickAndGo: req.IsPickAndGo,
	}, req.VehicleType)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to quote stay")
		return
	}
	writeJSON(w, http.StatusOK, bill)
}
