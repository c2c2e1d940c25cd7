package repositories

import (
	"context"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// BedFilter defines filters for listing available beds
type BedFilter struct {
	FacilityID string
	BedType    *entities.BedType
	LocationID *string
	Floor      *string
	Ward       *string
}

// BedRepository defines the interface for bed data operations. Occupancy is
// never flipped through this interface; that is the allocation repository's
// job.
type BedRepository interface {
	// Create creates a new bed
	Create(ctx context.Context, bed *entities.Bed) error

	// GetByID retrieves a bed by its surrogate id
	GetByID(ctx context.Context, id string) (*entities.Bed, error)

	// GetByFacilityAndIndex retrieves a bed by its stable index within the
	// facility's bed list
	GetByFacilityAndIndex(ctx context.Context, facilityID string, bedIndex int) (*entities.Bed, error)

	// GetByFacilityAndNumber retrieves a bed by its display number
	GetByFacilityAndNumber(ctx context.Context, facilityID, bedNumber string) (*entities.Bed, error)

	// ListAvailable retrieves active, unoccupied beds matching the filter,
	// ordered by bed index
	ListAvailable(ctx context.Context, filter BedFilter) ([]*entities.Bed, error)
}
