package entities

import (
	"time"

	"github.com/google/uuid"
)

// QueueEventType represents the type of queue event
type QueueEventType string

const (
	QueueEventTypeQueueUpdated QueueEventType = "queue.updated"
	QueueEventTypeBedAllocated QueueEventType = "bed.allocated"
	QueueEventTypeBedReleased  QueueEventType = "bed.released"
)

// QueueEvent represents a real-time update about a facility's bed queue
type QueueEvent struct {
	ID         string                 `json:"id"`
	FacilityID string                 `json:"facility_id"`
	LocationID *string                `json:"location_id,omitempty"`
	EventType  QueueEventType         `json:"event_type"`
	BookingID  string                 `json:"booking_id,omitempty"`
	BedID      string                 `json:"bed_id,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// NewQueueEvent creates a new queue event
func NewQueueEvent(facilityID string, locationID *string, eventType QueueEventType) *QueueEvent {
	return &QueueEvent{
		ID:         uuid.New().String(),
		FacilityID: facilityID,
		LocationID: locationID,
		EventType:  eventType,
		Timestamp:  time.Now(),
	}
}
