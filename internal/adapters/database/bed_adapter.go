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

var bedColumns = []interface{}{
	"id", "facility_id", "location_id", "bed_index", "bed_number",
	"bed_type", "floor", "ward", "features", "is_active", "is_occupied",
}

// BedAdapter implements the BedRepository interface
type BedAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBedAdapter creates a new bed adapter
func NewBedAdapter(client *postgres.Client) repositories.BedRepository {
	return &BedAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new bed
func (a *BedAdapter) Create(ctx context.Context, bed *entities.Bed) error {
	features, err := json.Marshal(bed.Features)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal bed features", err)
	}

	query, args, err := a.db.Insert("beds").Rows(goqu.Record{
		"id":          bed.ID,
		"facility_id": bed.FacilityID,
		"location_id": nullString(bed.LocationID),
		"bed_index":   bed.BedIndex,
		"bed_number":  bed.BedNumber,
		"bed_type":    string(bed.Type),
		"floor":       bed.Floor,
		"ward":        bed.Ward,
		"features":    features,
		"is_active":   bed.IsActive,
		"is_occupied": bed.IsOccupied,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create bed", err)
	}
	return nil
}

// GetByID retrieves a bed by its ID
func (a *BedAdapter) GetByID(ctx context.Context, id string) (*entities.Bed, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("bed with id %s not found", id))
}

// GetByFacilityAndIndex retrieves a bed by its position within a facility
func (a *BedAdapter) GetByFacilityAndIndex(ctx context.Context, facilityID string, bedIndex int) (*entities.Bed, error) {
	return a.getOne(ctx,
		goqu.Ex{"facility_id": facilityID, "bed_index": bedIndex},
		fmt.Sprintf("bed %d not found in facility %s", bedIndex, facilityID),
	)
}

// GetByFacilityAndNumber retrieves a bed by its display number within a facility
func (a *BedAdapter) GetByFacilityAndNumber(ctx context.Context, facilityID, bedNumber string) (*entities.Bed, error) {
	return a.getOne(ctx,
		goqu.Ex{"facility_id": facilityID, "bed_number": bedNumber},
		fmt.Sprintf("bed %s not found in facility %s", bedNumber, facilityID),
	)
}

// ListAvailable retrieves active unoccupied beds matching the filter,
// ordered by bed index
func (a *BedAdapter) ListAvailable(ctx context.Context, filter repositories.BedFilter) ([]*entities.Bed, error) {
	where := goqu.Ex{
		"facility_id": filter.FacilityID,
		"is_active":   true,
		"is_occupied": false,
	}
	if filter.BedType != nil {
		where["bed_type"] = string(*filter.BedType)
	}
	if filter.LocationID != nil && *filter.LocationID != "" {
		where["location_id"] = *filter.LocationID
	}
	if filter.Floor != nil {
		where["floor"] = *filter.Floor
	}
	if filter.Ward != nil {
		where["ward"] = *filter.Ward
	}

	query, args, err := a.db.Select(bedColumns...).
		From("beds").
		Where(where).
		Order(goqu.I("bed_index").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list available beds", err)
	}
	defer rows.Close()

	var beds []*entities.Bed
	for rows.Next() {
		bed, err := scanBed(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan bed", err)
		}
		beds = append(beds, bed)
	}
	return beds, rows.Err()
}

func (a *BedAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Bed, error) {
	query, args, err := a.db.Select(bedColumns...).
		From("beds").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	bed, err := scanBed(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get bed", err)
	}
	return bed, nil
}

// scanBed reads one bed row in bedColumns order
func scanBed(row rowScanner) (*entities.Bed, error) {
	bed := &entities.Bed{}
	var locationID sql.NullString
	var features []byte

	err := row.Scan(
		&bed.ID,
		&bed.FacilityID,
		&locationID,
		&bed.BedIndex,
		&bed.BedNumber,
		&bed.Type,
		&bed.Floor,
		&bed.Ward,
		&features,
		&bed.IsActive,
		&bed.IsOccupied,
	)
	if err != nil {
		return nil, err
	}

	if locationID.Valid {
		value := locationID.String
		bed.LocationID = &value
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &bed.Features); err != nil {
			return nil, err
		}
	}
	return bed, nil
}
