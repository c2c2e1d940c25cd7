package routes

import (
	"net/http"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/api/handlers"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/api/middleware"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	queueHandler      *handlers.QueueHandler
	bedHandler        *handlers.BedHandler
	allocationHandler *handlers.AllocationHandler
}

// NewRouter creates a new router
func NewRouter(
	queueHandler *handlers.QueueHandler,
	bedHandler *handlers.BedHandler,
	allocationHandler *handlers.AllocationHandler,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		queueHandler:      queueHandler,
		bedHandler:        bedHandler,
		allocationHandler: allocationHandler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Queue endpoints
	r.mux.HandleFunc("GET /api/facilities/{id}/queue", r.queueHandler.GetQueue)
	r.mux.HandleFunc("POST /api/bookings/{id}/queue", r.queueHandler.JoinQueue)
	r.mux.HandleFunc("DELETE /api/bookings/{id}/queue", r.queueHandler.LeaveQueue)

	// Bed inventory endpoints
	r.mux.HandleFunc("GET /api/facilities/{id}/beds/available", r.bedHandler.GetAvailableBeds)

	// Allocation endpoints
	r.mux.HandleFunc("POST /api/bookings/{id}/bed", r.allocationHandler.AllocateBed)
	r.mux.HandleFunc("DELETE /api/bookings/{id}/bed", r.allocationHandler.ReleaseBed)
	r.mux.HandleFunc("POST /api/bookings/{id}/bed/occupancy", r.allocationHandler.ConfirmOccupancy)
	r.mux.HandleFunc("POST /api/facilities/{id}/allocations/auto", r.allocationHandler.AutoAllocate)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
