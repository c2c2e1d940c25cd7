package repositories

import (
	"context"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// AllocationRepository owns the two-aggregate atomic updates between a bed
// row and its booking. Implementations must guarantee that for a given bed
// two concurrent AssignBed calls yield exactly one success and one Conflict.
type AllocationRepository interface {
	// AssignBed atomically marks the bed occupied and binds it to the
	// booking. Returns Conflict when the bed is inactive or already occupied.
	// On success the passed entities reflect the committed state.
	AssignBed(ctx context.Context, booking *entities.Booking, bed *entities.Bed, assignedBy string) error

	// ReleaseBed atomically frees the booking's assigned bed and finalizes
	// the booking. On success the passed booking reflects the committed state.
	ReleaseBed(ctx context.Context, booking *entities.Booking) error
}
