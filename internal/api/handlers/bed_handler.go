package handlers

import (
	"net/http"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/application/services"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
)

// BedHandler handles bed inventory HTTP requests
type BedHandler struct {
	allocationService *services.AllocationService
}

// NewBedHandler creates a new bed handler
func NewBedHandler(allocationService *services.AllocationService) *BedHandler {
	return &BedHandler{
		allocationService: allocationService,
	}
}

// GetAvailableBeds handles GET /api/facilities/{id}/beds/available
func (h *BedHandler) GetAvailableBeds(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility ID is required")
		return
	}

	filter := repositories.BedFilter{FacilityID: facilityID}

	query := r.URL.Query()
	if value := query.Get("bed_type"); value != "" {
		bedType, err := entities.ParseBedType(value)
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		filter.BedType = &bedType
	}
	if value := query.Get("location_id"); value != "" {
		filter.LocationID = &value
	}
	if value := query.Get("floor"); value != "" {
		filter.Floor = &value
	}
	if value := query.Get("ward"); value != "" {
		filter.Ward = &value
	}

	beds, err := h.allocationService.GetAvailableBeds(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"beds":  beds,
		"count": len(beds),
	})
}
