package repositories

import (
	"context"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// FacilityRepository defines the interface for facility data operations
type FacilityRepository interface {
	// Create creates a new facility
	Create(ctx context.Context, facility *entities.Facility) error

	// GetByID retrieves a facility by ID
	GetByID(ctx context.Context, id string) (*entities.Facility, error)
}
