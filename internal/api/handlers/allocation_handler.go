package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/application/services"
)

// staffIDHeader carries the authenticated staff member performing the action
const staffIDHeader = "X-Staff-ID"

// AllocationHandler handles bed allocation HTTP requests
type AllocationHandler struct {
	allocationService *services.AllocationService
}

// NewAllocationHandler creates a new allocation handler
func NewAllocationHandler(allocationService *services.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
	}
}

type allocateBedRequest struct {
	BedIndex  *int   `json:"bed_index,omitempty"`
	BedID     string `json:"bed_id,omitempty"`
	BedNumber string `json:"bed_number,omitempty"`
}

// AllocateBed handles POST /api/bookings/{id}/bed
func (h *AllocationHandler) AllocateBed(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	var req allocateBedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	selector := services.BedSelector{
		BedIndex:  req.BedIndex,
		BedID:     req.BedID,
		BedNumber: req.BedNumber,
	}

	booking, err := h.allocationService.AllocateBed(r.Context(), bookingID, selector, r.Header.Get(staffIDHeader))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// ReleaseBed handles DELETE /api/bookings/{id}/bed
func (h *AllocationHandler) ReleaseBed(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.allocationService.ReleaseBed(r.Context(), bookingID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// ConfirmOccupancy handles POST /api/bookings/{id}/bed/occupancy
func (h *AllocationHandler) ConfirmOccupancy(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.allocationService.ConfirmOccupancy(r.Context(), bookingID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// AutoAllocate handles POST /api/facilities/{id}/allocations/auto
func (h *AllocationHandler) AutoAllocate(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility ID is required")
		return
	}

	var locationID *string
	if value := r.URL.Query().Get("location_id"); value != "" {
		locationID = &value
	}

	report, err := h.allocationService.AutoAllocateBeds(r.Context(), facilityID, locationID, r.Header.Get(staffIDHeader))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
