package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"parkinglot/backend/services/parking-service/internal/models"
	"parkinglot/backend/services/parking-service/internal/service"
)

// VehicleTypesHandlers serves vehicle type administration.
type VehicleTypesHandlers struct {
	svc    *service.VehicleTypesService
	logger *zap.Logger
}

// NewVehicleTypesHandlers builds handler set.
func NewVehicleTypesHandlers(svc *service.VehicleTypesService, logger *zap.Logger) *VehicleTypesHandlers {
	return &VehicleTypesHandlers{svc: svc, logger: logger}
}

type replaceRatesRequest struct {
	Rates []models.HourlyRate `json:"rates"`
}

// List handles GET /vehicle-types.
func (h *VehicleTypesHandlers) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch vehicle types")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vehicleTypes": types})
}

// Get handles GET /vehicle-types/{id}.
func (h *VehicleTypesHandlers) Get(w http.ResponseWriter, r *http.Request) {
	vt, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch vehicle type")
		return
	}
	writeJSON(w, http.StatusOK, vt)
}

// Create handles POST /vehicle-types.
func (h *VehicleTypesHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateVehicleTypeInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vt, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create vehicle type")
		return
	}
	writeJSON(w, http.StatusCreated, vt)
}

// Update handles PATCH /vehicle-types/{id}.
func (h *VehicleTypesHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateVehicleTypeInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vt, err := h.svc.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update vehicle type")
		return
	}
	writeJSON(w, http.StatusOK, vt)
}

// ReplaceRates handles PUT /vehicle-types/{id}/rates.
func (h *VehicleTypesHandlers) ReplaceRates(w http.ResponseWriter, r *http.Request) {
	var req replaceRatesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vt, err := h.svc.ReplaceRates(r.Context(), r.PathValue("id"), req.Rates)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to replace rates")
		return
	}
	writeJSON(w, http.StatusOK, vt)
}

// Delete handles DELETE /vehicle-types/{id}.
func (h *VehicleTypesHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete vehicle type")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Seed handles POST /admin/seed.
func (h *VehicleTypesHandlers) Seed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.svc.SeedDefaults(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to seed vehicle types")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"vehicleTypes": seeded})
}
