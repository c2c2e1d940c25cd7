package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

// FacilityAdapter implements the FacilityRepository interface
type FacilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFacilityAdapter creates a new facility adapter
func NewFacilityAdapter(client *postgres.Client) repositories.FacilityRepository {
	return &FacilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new facility
func (a *FacilityAdapter) Create(ctx context.Context, facility *entities.Facility) error {
	address, err := json.Marshal(facility.Address)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal address", err)
	}

	query, args, err := a.db.Insert("facilities").Rows(goqu.Record{
		"id":            facility.ID,
		"name":          facility.Name,
		"owner_id":      facility.OwnerID,
		"phone_number":  facility.PhoneNumber,
		"email":         facility.Email,
		"facility_type": facility.FacilityType,
		"address":       address,
		"is_active":     facility.IsActive,
		"created_at":    facility.CreatedAt,
		"updated_at":    facility.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create facility", err)
	}
	return nil
}

// GetByID retrieves a facility by ID
func (a *FacilityAdapter) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	query, args, err := a.db.Select(
		"id", "name", "owner_id", "phone_number", "email", "facility_type",
		"address", "is_active", "created_at", "updated_at",
	).From("facilities").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	facility := &entities.Facility{}
	var address []byte
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&facility.ID,
		&facility.Name,
		&facility.OwnerID,
		&facility.PhoneNumber,
		&facility.Email,
		&facility.FacilityType,
		&address,
		&facility.IsActive,
		&facility.CreatedAt,
		&facility.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get facility", err)
	}

	if len(address) > 0 {
		if err := json.Unmarshal(address, &facility.Address); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal address", err)
		}
	}
	return facility, nil
}
