package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

var bookingColumns = []interface{}{
	"id", "facility_id", "location_id", "patient_id",
	"patient_name", "patient_email", "patient_phone", "patient_age",
	"medical_urgency", "other_factors", "booking_type", "status",
	"bed_assignment_status", "priority", "priority_score", "priority_metadata",
	"bed_requirement", "assigned_bed", "queue_position",
	"joined_queue_at", "estimated_wait_hours", "notifications_sent",
	"created_at", "updated_at",
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new booking
func (a *BookingAdapter) Create(ctx context.Context, booking *entities.Booking) error {
	record, err := bookingRecord(booking)
	if err != nil {
		return err
	}
	record["id"] = booking.ID
	record["created_at"] = booking.CreatedAt

	query, args, err := a.db.Insert("bookings").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create booking", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).
		From("bookings").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	booking, err := scanBooking(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}
	return booking, nil
}

// Update updates a booking
func (a *BookingAdapter) Update(ctx context.Context, booking *entities.Booking) error {
	booking.UpdatedAt = time.Now()

	record, err := bookingRecord(booking)
	if err != nil {
		return err
	}

	query, args, err := a.db.Update("bookings").
		Set(record).
		Where(goqu.Ex{"id": booking.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
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
	return nil
}

// ListWaiting retrieves waiting bookings ordered by priority score descending
// then queue-join time ascending
func (a *BookingAdapter) ListWaiting(ctx context.Context, filter repositories.WaitingFilter) ([]*entities.Booking, error) {
	where := goqu.Ex{
		"facility_id":           filter.FacilityID,
		"bed_assignment_status": string(entities.BedStatusWaitingInQueue),
	}
	if filter.LocationID != nil && *filter.LocationID != "" {
		where["location_id"] = *filter.LocationID
	}

	ds := a.db.Select(bookingColumns...).
		From("bookings").
		Where(where).
		Order(
			goqu.I("priority_score").Desc().NullsLast(),
			goqu.I("joined_queue_at").Asc(),
		)
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list waiting bookings", err)
	}
	defer rows.Close()

	var bookings []*entities.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// UpdateQueuePositions applies a full recompute's updates in one transaction
func (a *BookingAdapter) UpdateQueuePositions(ctx context.Context, updates []repositories.QueuePositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, update := range updates {
		metadata, err := json.Marshal(update.PriorityMetadata)
		if err != nil {
			return apperrors.NewInternalError("failed to marshal priority metadata", err)
		}

		query, args, err := a.db.Update("bookings").
			Set(goqu.Record{
				"queue_position":       update.Position,
				"priority_score":       update.PriorityScore,
				"priority":             string(update.Priority),
				"priority_metadata":    metadata,
				"estimated_wait_hours": update.EstimatedWaitHours,
				"updated_at":           now,
			}).
			Where(goqu.Ex{"id": update.BookingID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build position update", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to update queue position", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit queue positions", err)
	}
	return nil
}

// bookingRecord builds the column map shared by Create and Update
func bookingRecord(booking *entities.Booking) (goqu.Record, error) {
	record := goqu.Record{
		"facility_id":     booking.FacilityID,
		"location_id":     nullString(booking.LocationID),
		"patient_id":      booking.PatientID,
		"patient_name":    booking.PatientName,
		"patient_email":   booking.PatientEmail,
		"patient_phone":   booking.PatientPhone,
		"patient_age":     booking.PatientAge,
		"medical_urgency": booking.MedicalUrgency,
		"other_factors":   booking.OtherFactors,
		"booking_type":    string(booking.Type),
		"status":          string(booking.Status),
		"updated_at":      booking.UpdatedAt,
	}

	record["bed_assignment_status"] = sql.NullString{
		String: string(booking.BedAssignmentStatus),
		Valid:  booking.BedAssignmentStatus != "",
	}
	record["priority"] = sql.NullString{
		String: string(booking.Priority),
		Valid:  booking.Priority != "",
	}
	record["priority_score"] = nullInt(booking.PriorityScore)
	record["queue_position"] = nullInt(booking.QueuePosition)

	var err error
	if record["priority_metadata"], err = nullJSON(booking.PriorityMetadata); err != nil {
		return nil, apperrors.NewInternalError("failed to marshal priority metadata", err)
	}
	if record["bed_requirement"], err = nullJSON(booking.BedRequirement); err != nil {
		return nil, apperrors.NewInternalError("failed to marshal bed requirement", err)
	}
	if record["assigned_bed"], err = nullJSON(booking.AssignedBed); err != nil {
		return nil, apperrors.NewInternalError("failed to marshal assigned bed", err)
	}

	record["joined_queue_at"] = nullTimePtr(nil)
	record["estimated_wait_hours"] = nullInt(nil)
	record["notifications_sent"] = nil
	if booking.QueueMetadata != nil {
		record["joined_queue_at"] = nullTimePtr(booking.QueueMetadata.JoinedQueueAt)
		record["estimated_wait_hours"] = nullInt(booking.QueueMetadata.EstimatedWaitHours)
		if len(booking.QueueMetadata.NotificationsSent) > 0 {
			data, err := json.Marshal(booking.QueueMetadata.NotificationsSent)
			if err != nil {
				return nil, apperrors.NewInternalError("failed to marshal notification records", err)
			}
			record["notifications_sent"] = data
		}
	}

	return record, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking reads one booking row in bookingColumns order
func scanBooking(row rowScanner) (*entities.Booking, error) {
	booking := &entities.Booking{}
	var locationID, bedAssignmentStatus, priority sql.NullString
	var priorityScore, queuePosition, estimatedWaitHours sql.NullInt64
	var joinedQueueAt sql.NullTime
	var priorityMetadata, bedRequirement, assignedBed, notificationsSent []byte

	err := row.Scan(
		&booking.ID,
		&booking.FacilityID,
		&locationID,
		&booking.PatientID,
		&booking.PatientName,
		&booking.PatientEmail,
		&booking.PatientPhone,
		&booking.PatientAge,
		&booking.MedicalUrgency,
		&booking.OtherFactors,
		&booking.Type,
		&booking.Status,
		&bedAssignmentStatus,
		&priority,
		&priorityScore,
		&priorityMetadata,
		&bedRequirement,
		&assignedBed,
		&queuePosition,
		&joinedQueueAt,
		&estimatedWaitHours,
		&notificationsSent,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if locationID.Valid {
		value := locationID.String
		booking.LocationID = &value
	}
	if bedAssignmentStatus.Valid {
		booking.BedAssignmentStatus = entities.BedAssignmentStatus(bedAssignmentStatus.String)
	}
	if priority.Valid {
		booking.Priority = entities.Priority(priority.String)
	}
	if priorityScore.Valid {
		value := int(priorityScore.Int64)
		booking.PriorityScore = &value
	}
	if queuePosition.Valid {
		value := int(queuePosition.Int64)
		booking.QueuePosition = &value
	}

	if len(priorityMetadata) > 0 {
		metadata := &entities.PriorityMetadata{}
		if err := json.Unmarshal(priorityMetadata, metadata); err != nil {
			return nil, err
		}
		booking.PriorityMetadata = metadata
	}
	if len(bedRequirement) > 0 {
		requirement := &entities.BedRequirement{}
		if err := json.Unmarshal(bedRequirement, requirement); err != nil {
			return nil, err
		}
		booking.BedRequirement = requirement
	}
	if len(assignedBed) > 0 {
		assigned := &entities.AssignedBed{}
		if err := json.Unmarshal(assignedBed, assigned); err != nil {
			return nil, err
		}
		booking.AssignedBed = assigned
	}

	if joinedQueueAt.Valid || estimatedWaitHours.Valid || len(notificationsSent) > 0 {
		metadata := &entities.QueueMetadata{}
		if joinedQueueAt.Valid {
			value := joinedQueueAt.Time
			metadata.JoinedQueueAt = &value
		}
		if estimatedWaitHours.Valid {
			value := int(estimatedWaitHours.Int64)
			metadata.EstimatedWaitHours = &value
		}
		if len(notificationsSent) > 0 {
			if err := json.Unmarshal(notificationsSent, &metadata.NotificationsSent); err != nil {
				return nil, err
			}
		}
		booking.QueueMetadata = metadata
	}

	return booking, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTimePtr(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func nullJSON(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch typed := v.(type) {
	case *entities.PriorityMetadata:
		if typed == nil {
			return nil, nil
		}
	case *entities.BedRequirement:
		if typed == nil {
			return nil, nil
		}
	case *entities.AssignedBed:
		if typed == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
