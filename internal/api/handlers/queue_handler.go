package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/application/services"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// QueueHandler handles queue-related HTTP requests
type QueueHandler struct {
	queueService *services.QueueService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queueService *services.QueueService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
	}
}

type joinQueueRequest struct {
	BedRequirement *entities.BedRequirement `json:"bed_requirement"`
	PatientAge     int                      `json:"patient_age"`
	MedicalUrgency int                      `json:"medical_urgency"`
	OtherFactors   int                      `json:"other_factors"`
}

// JoinQueue handles POST /api/bookings/{id}/queue
func (h *QueueHandler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	var req joinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.queueService.AddToQueue(r.Context(), bookingID, req.BedRequirement, req.PatientAge, req.MedicalUrgency, req.OtherFactors)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// LeaveQueue handles DELETE /api/bookings/{id}/queue
func (h *QueueHandler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.queueService.RemoveFromQueue(r.Context(), bookingID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

type queueEntry struct {
	Booking      *entities.Booking      `json:"booking"`
	WaitEstimate *services.WaitEstimate `json:"wait_estimate,omitempty"`
}

// GetQueue handles GET /api/facilities/{id}/queue
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility ID is required")
		return
	}

	var locationID *string
	if value := r.URL.Query().Get("location_id"); value != "" {
		locationID = &value
	}

	bookings, err := h.queueService.GetQueue(r.Context(), facilityID, locationID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	entries := make([]queueEntry, 0, len(bookings))
	for _, booking := range bookings {
		entry := queueEntry{Booking: booking}
		if booking.QueuePosition != nil {
			estimate := h.queueService.WaitEstimateFor(*booking.QueuePosition)
			entry.WaitEstimate = &estimate
		}
		entries = append(entries, entry)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queue": entries,
		"count": len(entries),
	})
}
