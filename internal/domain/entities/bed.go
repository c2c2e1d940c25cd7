package entities

import (
	"strings"
	"time"

	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

// BedType represents the class of a hospital bed
type BedType string

const (
	BedTypeGeneral   BedType = "GENERAL"
	BedTypeICU       BedType = "ICU"
	BedTypeEmergency BedType = "EMERGENCY"
	BedTypePrivate   BedType = "PRIVATE"
)

// ParseBedType parses a string into a BedType
func ParseBedType(s string) (BedType, error) {
	switch BedType(strings.ToUpper(strings.TrimSpace(s))) {
	case BedTypeGeneral:
		return BedTypeGeneral, nil
	case BedTypeICU:
		return BedTypeICU, nil
	case BedTypeEmergency:
		return BedTypeEmergency, nil
	case BedTypePrivate:
		return BedTypePrivate, nil
	default:
		return "", apperrors.NewValidationError("unknown bed type: " + s)
	}
}

// Bed is a physical bed within a facility. Beds are stored as independent
// rows with a surrogate id; BedIndex is the stable position within the
// facility's bed list that callers use as the reservation key. Beds are
// soft-deleted via IsActive so outstanding BedIndex references stay valid.
type Bed struct {
	ID         string    `json:"id" db:"id"`
	FacilityID string    `json:"facility_id" db:"facility_id"`
	LocationID *string   `json:"location_id,omitempty" db:"location_id"`
	BedIndex   int       `json:"bed_index" db:"bed_index"`
	BedNumber  string    `json:"bed_number" db:"bed_number"`
	Type       BedType   `json:"type" db:"bed_type"`
	Floor      string    `json:"floor" db:"floor"`
	Ward       string    `json:"ward" db:"ward"`
	Features   []string  `json:"features,omitempty" db:"-"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	IsOccupied bool      `json:"is_occupied" db:"is_occupied"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// IsAvailable reports whether the bed can be offered for allocation
func (b *Bed) IsAvailable() bool {
	return b.IsActive && !b.IsOccupied
}

// HasFeature reports whether the bed satisfies a special requirement
func (b *Bed) HasFeature(feature string) bool {
	for _, f := range b.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}
