package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"parkinglot/backend/services/parking-service/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// writeServiceError maps domain errors to status codes. Anything unknown is
// logged and reported as a 500 with fallback as message.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var active *service.ActiveEntryError
	switch {
	case errors.As(err, &active):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": service.ErrActiveEntryExists.Error(),
			"details": map[string]interface{}{
				"entryId":   active.EntryID,
				"receiptId": active.ReceiptID,
				"entryTime": active.EntryTime,
			},
		})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidRates):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidReceiptToken):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEntryNotFound), errors.Is(err, service.ErrVehicleTypeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrActiveEntryExists),
		errors.Is(err, service.ErrAlreadyExited),
		errors.Is(err, service.ErrVehicleTypeInUse),
		errors.Is(err, service.ErrAlreadySeeded):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
