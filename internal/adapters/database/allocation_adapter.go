package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

// AllocationAdapter implements the AllocationRepository interface.
// Bed occupancy is flipped with a conditional update so that two
// concurrent allocations of the same bed resolve to exactly one winner.
type AllocationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAllocationAdapter creates a new allocation adapter
func NewAllocationAdapter(client *postgres.Client) repositories.AllocationRepository {
	return &AllocationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// AssignBed atomically claims the bed and binds it to the booking.
// Returns a conflict error when the bed was taken or deactivated in the
// meantime. On success the passed entities reflect the stored state.
func (a *AllocationAdapter) AssignBed(ctx context.Context, booking *entities.Booking, bed *entities.Bed, assignedBy string) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	claimQuery, claimArgs, err := a.db.Update("beds").
		Set(goqu.Record{"is_occupied": true}).
		Where(goqu.Ex{
			"id":          bed.ID,
			"is_active":   true,
			"is_occupied": false,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build bed claim query", err)
	}

	result, err := tx.ExecContext(ctx, claimQuery, claimArgs...)
	if err != nil {
		return apperrors.NewInternalError("failed to claim bed", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewConflictError(fmt.Sprintf("bed %s is not available", bed.BedNumber))
	}

	now := time.Now()
	assigned := &entities.AssignedBed{
		BedIndex:   bed.BedIndex,
		BedID:      bed.ID,
		BedNumber:  bed.BedNumber,
		BedType:    bed.Type,
		Floor:      bed.Floor,
		Ward:       bed.Ward,
		AssignedAt: now,
		AssignedBy: assignedBy,
	}
	assignedJSON, err := json.Marshal(assigned)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal assigned bed", err)
	}

	bookingQuery, bookingArgs, err := a.db.Update("bookings").
		Set(goqu.Record{
			"bed_assignment_status": string(entities.BedStatusAssigned),
			"assigned_bed":          assignedJSON,
			"queue_position":        sql.NullInt64{},
			"estimated_wait_hours":  sql.NullInt64{},
			"updated_at":            now,
		}).
		Where(goqu.Ex{"id": booking.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build booking update", err)
	}

	result, err = tx.ExecContext(ctx, bookingQuery, bookingArgs...)
	if err != nil {
		return apperrors.NewInternalError("failed to bind bed to booking", err)
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", booking.ID))
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit allocation", err)
	}

	bed.IsOccupied = true
	booking.BedAssignmentStatus = entities.BedStatusAssigned
	booking.AssignedBed = assigned
	booking.QueuePosition = nil
	if booking.QueueMetadata != nil {
		booking.QueueMetadata.EstimatedWaitHours = nil
	}
	booking.UpdatedAt = now
	return nil
}

// ReleaseBed frees the booking's bed and completes the stay in one
// transaction. On success the passed booking reflects the stored state.
func (a *AllocationAdapter) ReleaseBed(ctx context.Context, booking *entities.Booking) error {
	if booking.AssignedBed == nil {
		return apperrors.NewInvalidStateError(fmt.Sprintf("booking %s has no assigned bed", booking.ID))
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	freeQuery, freeArgs, err := a.db.Update("beds").
		Set(goqu.Record{"is_occupied": false}).
		Where(goqu.Ex{"id": booking.AssignedBed.BedID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build bed release query", err)
	}
	if _, err := tx.ExecContext(ctx, freeQuery, freeArgs...); err != nil {
		return apperrors.NewInternalError("failed to release bed", err)
	}

	now := time.Now()
	bookingQuery, bookingArgs, err := a.db.Update("bookings").
		Set(goqu.Record{
			"bed_assignment_status": string(entities.BedStatusReleased),
			"status":                string(entities.BookingStatusCompleted),
			"assigned_bed":          nil,
			"updated_at":            now,
		}).
		Where(goqu.Ex{"id": booking.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build booking update", err)
	}

	result, err := tx.ExecContext(ctx, bookingQuery, bookingArgs...)
	if err != nil {
		return apperrors.NewInternalError("failed to update booking", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", booking.ID))
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit release", err)
	}

	booking.BedAssignmentStatus = entities.BedStatusReleased
	booking.Status = entities.BookingStatusCompleted
	booking.AssignedBed = nil
	booking.UpdatedAt = now
	return nil
}
