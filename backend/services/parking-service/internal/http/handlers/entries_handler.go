package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"parkinglot/backend/services/parking-service/internal/export"
	"parkinglot/backend/services/parking-service/internal/http/middleware"
	"parkinglot/backend/services/parking-service/internal/models"
	"parkinglot/backend/services/parking-service/internal/receipt"
	"parkinglot/backend/services/parking-service/internal/repository"
	"parkinglot/backend/services/parking-service/internal/service"
)

const exportLimit = 1000

// EntriesHandlers serves check-in, check-out and history endpoints.
type EntriesHandlers struct {
	svc    *service.EntriesService
	layout receipt.Layout
	logger *zap.Logger
}

// NewEntriesHandlers builds handler set. layout controls printed receipts
// and the currency and timezone of exports.
func NewEntriesHandlers(svc *service.EntriesService, layout receipt.Layout, logger *zap.Logger) *EntriesHandlers {
	return &EntriesHandlers{svc: svc, layout: layout, logger: logger}
}

// Create handles POST /parking-entries.
func (h *EntriesHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEntryInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if id, ok := middleware.OperatorIDFromContext(r.Context()); ok {
		req.OperatorID = &id
	}

	entry, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create parking entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Get handles GET /parking-entries/{id}.
func (h *EntriesHandlers) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch parking entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Find handles GET /parking-entries/find?vehicleNumber=...|receiptId=...
func (h *EntriesHandlers) Find(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		entry *models.ParkingEntry
		err   error
	)
	switch {
	case query.Get("receiptId") != "":
		entry, err = h.svc.FindByReceipt(r.Context(), query.Get("receiptId"))
	case query.Get("vehicleNumber") != "":
		entry, err = h.svc.FindActive(r.Context(), query.Get("vehicleNumber"))
	default:
		writeError(w, http.StatusBadRequest, "vehicleNumber or receiptId is required")
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to find parking entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// List handles GET /parking-entries.
func (h *EntriesHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r, h.location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch parking entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// Quote handles GET /parking-entries/{id}/quote.
func (h *EntriesHandlers) Quote(w http.ResponseWriter, r *http.Request) {
	bill, err := h.svc.Quote(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to quote parking entry")
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// Exit handles POST /parking-entries/exit.
func (h *EntriesHandlers) Exit(w http.ResponseWriter, r *http.Request) {
	var req service.ExitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bill, err := h.svc.Exit(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to process exit")
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// Recalculate handles POST /parking-entries/{id}/recalculate.
func (h *EntriesHandlers) Recalculate(w http.ResponseWriter, r *http.Request) {
	bill, err := h.svc.Recalculate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to recalculate parking entry")
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// Receipt handles GET /parking-entries/{id}/receipt. ?format=token returns
// the signed token to encode on the printed receipt.
func (h *EntriesHandlers) Receipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.URL.Query().Get("format") == "token" {
		token, err := h.svc.ReceiptToken(r.Context(), id)
		if err != nil {
			writeServiceError(w, h.logger, err, "failed to sign receipt")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
		return
	}

	entry, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch parking entry")
		return
	}
	var buf bytes.Buffer
	if err := receipt.Render(&buf, entry, h.layout); err != nil {
		writeServiceError(w, h.logger, err, "failed to render receipt")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Export handles GET /parking-entries/export with the same filters as List.
func (h *EntriesHandlers) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r, h.location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit == 0 {
		filter.Limit = exportLimit
	}
	entries, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch parking entries")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteEntries(&buf, entries, export.Options{Currency: h.layout.Currency, Location: h.location()}); err != nil {
		writeServiceError(w, h.logger, err, "failed to build export")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *EntriesHandlers) location() *time.Location {
	if h.layout.Location == nil {
		return time.UTC
	}
	return h.layout.Location
}

// parseEntryFilter reads q, pickAndGo, status, from, to, sort, order,
// limit and offset. Dates without a time are taken in loc; "to" is inclusive
// of the whole day.
func parseEntryFilter(r *http.Request, loc *time.Location) (repository.EntryFilter, error) {
	q := r.URL.Query()
	filter := repository.EntryFilter{
		Search: strings.TrimSpace(q.Get("q")),
		Status: repository.EntryStatus(strings.ToLower(q.Get("status"))),
		SortBy: q.Get("sort"),
		Desc:   !strings.EqualFold(q.Get("order"), "asc"),
	}

	switch strings.ToLower(q.Get("pickAndGo")) {
	case "", "all":
	case "yes", "true":
		v := true
		filter.PickAndGo = &v
	case "no", "false":
		v := false
		filter.PickAndGo = &v
	default:
		return filter, fmt.Errorf("pickAndGo must be all, yes or no")
	}

	if raw := q.Get("from"); raw != "" {
		from, _, err := parseTime(raw, loc)
		if err != nil {
			return filter, fmt.Errorf("invalid from: %w", err)
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, dateOnly, err := parseTime(raw, loc)
		if err != nil {
			return filter, fmt.Errorf("invalid to: %w", err)
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		}
		filter.To = &to
	}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("%s must be a non-negative integer", name)
		}
		*dst = n
	}
	return filter, nil
}

func parseTime(raw string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), true, nil
}
