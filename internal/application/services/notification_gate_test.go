package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/application/services"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

func rankedQueue(facilityID string, size int) []*entities.Booking {
	queue := make([]*entities.Booking, 0, size)
	for i := 0; i < size; i++ {
		position := i + 1
		booking := ipdBooking(fmt.Sprintf("booking-%d", position), facilityID)
		booking.PatientPhone = fmt.Sprintf("+23480000000%d", position)
		booking.BedAssignmentStatus = entities.BedStatusWaitingInQueue
		booking.QueuePosition = &position
		queue = append(queue, booking)
	}
	return queue
}

func newGateFixture(cfg services.GateConfig, queue []*entities.Booking) (*services.NotificationGate, *notificationLogStore, *fakeNotifier) {
	log := newNotificationLogStore()
	notifier := newFakeNotifier()
	bookings := newBookingStore(queue...)
	facilities := newFacilityStore(&entities.Facility{ID: "fac-1", Name: "City Hospital"})

	gate := services.NewNotificationGate(log, bookings, facilities, notifier, cfg, 48)
	return gate, log, notifier
}

func TestNotificationGate_OnlySignificantPositions(t *testing.T) {
	ctx := context.Background()
	queue := rankedQueue("fac-1", 8)
	gate, log, notifier := newGateFixture(services.DefaultGateConfig(), queue)

	gate.RunPositionPass(ctx, "fac-1", queue)

	// Positions one through five get a notice, six through eight do not
	assert.Equal(t, 5, notifier.positionUpdateCount())
	for _, update := range notifier.positionUpdates {
		assert.LessOrEqual(t, update.Position, 5)
		assert.Equal(t, "City Hospital", update.FacilityName)
		assert.NotEmpty(t, update.ETAText)
	}
	assert.Len(t, log.entries, 5)
}

func TestNotificationGate_TopNCapsThePass(t *testing.T) {
	ctx := context.Background()
	queue := rankedQueue("fac-1", 8)
	cfg := services.GateConfig{TopN: 3, SignificantPosition: 5, Throttle: 24 * time.Hour}
	gate, _, notifier := newGateFixture(cfg, queue)

	gate.RunPositionPass(ctx, "fac-1", queue)

	assert.Equal(t, 3, notifier.positionUpdateCount())
}

func TestNotificationGate_ThrottlesRepeatNotices(t *testing.T) {
	ctx := context.Background()
	queue := rankedQueue("fac-1", 3)
	gate, log, notifier := newGateFixture(services.DefaultGateConfig(), queue)

	gate.RunPositionPass(ctx, "fac-1", queue)
	require.Equal(t, 3, notifier.positionUpdateCount())

	// A second pass within the throttle window sends nothing new
	gate.RunPositionPass(ctx, "fac-1", queue)
	assert.Equal(t, 3, notifier.positionUpdateCount())
	assert.Len(t, log.entries, 3)
}

func TestNotificationGate_ThrottleExpires(t *testing.T) {
	ctx := context.Background()
	queue := rankedQueue("fac-1", 1)
	gate, log, notifier := newGateFixture(services.DefaultGateConfig(), queue)

	// A notice older than the throttle window does not block a new one
	require.NoError(t, log.Append(ctx, &entities.NotificationLogEntry{
		ID:        "old-entry",
		BookingID: "booking-1",
		Type:      entities.NotificationTypePositionUpdate,
		SentAt:    time.Now().Add(-25 * time.Hour),
	}))

	gate.RunPositionPass(ctx, "fac-1", queue)
	assert.Equal(t, 1, notifier.positionUpdateCount())
}

func TestNotificationGate_FailedDeliveryNotRecorded(t *testing.T) {
	ctx := context.Background()
	queue := rankedQueue("fac-1", 1)
	gate, log, notifier := newGateFixture(services.DefaultGateConfig(), queue)
	notifier.fail = true

	gate.RunPositionPass(ctx, "fac-1", queue)
	assert.Empty(t, log.entries)

	// The failure leaves no throttle record, so the next pass retries
	notifier.fail = false
	gate.RunPositionPass(ctx, "fac-1", queue)
	assert.Equal(t, 1, notifier.positionUpdateCount())
	assert.Len(t, log.entries, 1)
}

func TestNotificationGate_SendBedAvailable(t *testing.T) {
	ctx := context.Background()
	booking := ipdBooking("booking-1", "fac-1")
	booking.PatientPhone = "+2348000000001"
	booking.BedAssignmentStatus = entities.BedStatusAssigned
	booking.AssignedBed = &entities.AssignedBed{
		BedID:     "bed-1",
		BedNumber: "G-101",
		Ward:      "General",
	}
	gate, log, notifier := newGateFixture(services.DefaultGateConfig(), []*entities.Booking{booking})

	gate.SendBedAvailable(ctx, booking, "City Hospital")
	require.Equal(t, 1, notifier.bedAvailableCount())
	assert.Equal(t, "G-101", notifier.bedAvailables[0].BedNumber)
	require.Len(t, log.entries, 1)
	assert.Equal(t, entities.NotificationTypeBedAvailable, log.entries[0].Type)

	// Availability notices are not throttled
	gate.SendBedAvailable(ctx, booking, "City Hospital")
	assert.Equal(t, 2, notifier.bedAvailableCount())
}

func TestNotificationGate_SendBedAvailable_RequiresAssignment(t *testing.T) {
	ctx := context.Background()
	booking := ipdBooking("booking-1", "fac-1")
	gate, _, notifier := newGateFixture(services.DefaultGateConfig(), []*entities.Booking{booking})

	gate.SendBedAvailable(ctx, booking, "City Hospital")
	assert.Equal(t, 0, notifier.bedAvailableCount())
}

func TestNotificationGate_EmbeddedMirrorIsCapped(t *testing.T) {
	ctx := context.Background()
	booking := ipdBooking("booking-1", "fac-1")
	booking.PatientPhone = "+2348000000001"
	booking.BedAssignmentStatus = entities.BedStatusAssigned
	booking.AssignedBed = &entities.AssignedBed{BedID: "bed-1", BedNumber: "G-101"}
	booking.QueueMetadata = &entities.QueueMetadata{}
	for i := 0; i < entities.MaxNotificationRecords; i++ {
		booking.QueueMetadata.NotificationsSent = append(
			booking.QueueMetadata.NotificationsSent,
			entities.NotificationRecord{Type: entities.NotificationTypePositionUpdate, SentAt: time.Now().Add(-time.Duration(i) * time.Hour)},
		)
	}
	gate, _, _ := newGateFixture(services.DefaultGateConfig(), []*entities.Booking{booking})

	gate.SendBedAvailable(ctx, booking, "City Hospital")

	records := booking.QueueMetadata.NotificationsSent
	assert.Len(t, records, entities.MaxNotificationRecords)
	// The newest record survives at the tail
	assert.Equal(t, entities.NotificationTypeBedAvailable, records[len(records)-1].Type)
}
