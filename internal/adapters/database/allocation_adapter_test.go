package database_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/adapters/database"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

func newAllocationAdapterWithMock(t *testing.T) (repositories.AllocationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewAllocationAdapter(postgres.NewClientWithDB(db)), mock
}

func testBed() *entities.Bed {
	return &entities.Bed{
		ID:         "bed-1",
		FacilityID: "fac-1",
		BedIndex:   0,
		BedNumber:  "G-101",
		Type:       entities.BedTypeGeneral,
		Floor:      "1",
		Ward:       "West",
		IsActive:   true,
	}
}

func TestAllocationAdapter_AssignBed(t *testing.T) {
	adapter, mock := newAllocationAdapterWithMock(t)
	booking := &entities.Booking{ID: "booking-1", FacilityID: "fac-1"}
	bed := testBed()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "beds" SET "is_occupied"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.AssignBed(context.Background(), booking, bed, "staff-1")
	require.NoError(t, err)

	assert.True(t, bed.IsOccupied)
	assert.Equal(t, entities.BedStatusAssigned, booking.BedAssignmentStatus)
	require.NotNil(t, booking.AssignedBed)
	assert.Equal(t, "bed-1", booking.AssignedBed.BedID)
	assert.Equal(t, "staff-1", booking.AssignedBed.AssignedBy)
	assert.Nil(t, booking.QueuePosition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationAdapter_AssignBed_ClaimLost(t *testing.T) {
	adapter, mock := newAllocationAdapterWithMock(t)
	booking := &entities.Booking{ID: "booking-1", FacilityID: "fac-1"}
	bed := testBed()

	mock.ExpectBegin()
	// Zero rows affected: the bed was claimed or deactivated concurrently
	mock.ExpectExec(`UPDATE "beds" SET "is_occupied"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := adapter.AssignBed(context.Background(), booking, bed, "staff-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	// The entities are untouched on failure
	assert.False(t, bed.IsOccupied)
	assert.Empty(t, booking.BedAssignmentStatus)
	assert.Nil(t, booking.AssignedBed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationAdapter_ReleaseBed(t *testing.T) {
	adapter, mock := newAllocationAdapterWithMock(t)
	booking := &entities.Booking{
		ID:                  "booking-1",
		FacilityID:          "fac-1",
		Status:              entities.BookingStatusConfirmed,
		BedAssignmentStatus: entities.BedStatusOccupied,
		AssignedBed:         &entities.AssignedBed{BedID: "bed-1", BedNumber: "G-101"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "beds" SET "is_occupied"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.ReleaseBed(context.Background(), booking)
	require.NoError(t, err)

	assert.Equal(t, entities.BedStatusReleased, booking.BedAssignmentStatus)
	assert.Equal(t, entities.BookingStatusCompleted, booking.Status)
	assert.Nil(t, booking.AssignedBed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationAdapter_ReleaseBed_RequiresAssignment(t *testing.T) {
	adapter, _ := newAllocationAdapterWithMock(t)

	err := adapter.ReleaseBed(context.Background(), &entities.Booking{ID: "booking-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
}
