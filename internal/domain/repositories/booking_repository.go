package repositories

import (
	"context"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// WaitingFilter scopes a waiting-queue listing to a facility and optionally
// one of its locations
type WaitingFilter struct {
	FacilityID string
	LocationID *string
	Limit      int
}

// QueuePositionUpdate carries one booking's recomputed rank and score
type QueuePositionUpdate struct {
	BookingID          string
	Position           int
	PriorityScore      int
	Priority           entities.Priority
	PriorityMetadata   entities.PriorityMetadata
	EstimatedWaitHours int
}

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	// Create creates a new booking
	Create(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// Update updates a booking
	Update(ctx context.Context, booking *entities.Booking) error

	// ListWaiting retrieves bookings waiting in queue, ordered by priority
	// score descending then queue-join time ascending
	ListWaiting(ctx context.Context, filter WaitingFilter) ([]*entities.Booking, error)

	// UpdateQueuePositions applies a full recompute's position and score
	// updates in a single transaction
	UpdateQueuePositions(ctx context.Context, updates []QueuePositionUpdate) error
}
