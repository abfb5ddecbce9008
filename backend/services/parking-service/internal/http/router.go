package httpserver

import (
	"net/http"

	"parkinglot/backend/services/parking-service/internal/http/handlers"
	"parkinglot/backend/services/parking-service/internal/http/middleware"
)

// RouterDeps collects handler dependencies. Nil Metrics or Feed leave the
// matching route unregistered.
type RouterDeps struct {
	Entries       *handlers.EntriesHandlers
	VehicleTypes  *handlers.VehicleTypesHandlers
	Billing       *handlers.BillingHandlers
	HealthHandler http.HandlerFunc
	Metrics       http.Handler
	Feed          http.Handler
}

// NewRouter wires HTTP routes.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", deps.HealthHandler)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}
	if deps.Feed != nil {
		mux.Handle("GET /ws/feed", deps.Feed)
	}

	vt := deps.VehicleTypes
	mux.HandleFunc("GET /vehicle-types", vt.List)
	mux.HandleFunc("POST /vehicle-types", vt.Create)
	mux.HandleFunc("GET /vehicle-types/{id}", vt.Get)
	mux.HandleFunc("PATCH /vehicle-types/{id}", vt.Update)
	mux.HandleFunc("DELETE /vehicle-types/{id}", vt.Delete)
	mux.HandleFunc("PUT /vehicle-types/{id}/rates", vt.ReplaceRates)
	mux.HandleFunc("POST /admin/seed", vt.Seed)

	entries := deps.Entries
	mux.Handle("POST /parking-entries", middleware.Operator(http.HandlerFunc(entries.Create)))
	mux.HandleFunc("GET /parking-entries", entries.List)
	mux.HandleFunc("GET /parking-entries/find", entries.Find)
	mux.HandleFunc("GET /parking-entries/export", entries.Export)
	mux.HandleFunc("POST /parking-entries/exit", entries.Exit)
	mux.HandleFunc("GET /parking-entries/{id}", entries.Get)
	mux.HandleFunc("GET /parking-entries/{id}/quote", entries.Quote)
	mux.HandleFunc("POST /parking-entries/{id}/recalculate", entries.Recalculate)
	mux.HandleFunc("GET /parking-entries/{id}/receipt", entries.Receipt)

	mux.HandleFunc("POST /billing/quote", deps.Billing.Quote)

	return mux
}
