package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/providers"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

// noSuitableBedReason is the failure reason recorded when a queued booking
// finds no compatible bed during batch allocation.
const noSuitableBedReason = "No suitable bed found"

// BedSelector identifies a bed by exactly one of index, id or number
type BedSelector struct {
	BedIndex  *int   `json:"bed_index,omitempty"`
	BedID     string `json:"bed_id,omitempty"`
	BedNumber string `json:"bed_number,omitempty"`
}

// AllocationResult records one successful batch allocation
type AllocationResult struct {
	BookingID   string `json:"booking_id"`
	PatientName string `json:"patient_name"`
	BedNumber   string `json:"bed_number"`
}

// AllocationFailure records one booking a batch pass could not place
type AllocationFailure struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

// AllocationReport is the outcome of one batch auto-allocation pass. Partial
// success is expected and reported, never treated as a batch error.
type AllocationReport struct {
	AllocatedCount int                 `json:"allocated_count"`
	FailedCount    int                 `json:"failed_count"`
	Allocations    []AllocationResult  `json:"allocations"`
	Failures       []AllocationFailure `json:"failures"`
}

// Cascade accepts post-release auto-allocation tasks. Enqueue must never
// block; it reports whether the task was accepted.
type Cascade interface {
	Enqueue(facilityID string, locationID *string) bool
}

// AllocationService performs atomic bed-booking binding, release, and batch
// auto-allocation. It is the only component allowed to change bed occupancy.
type AllocationService struct {
	bookings   repositories.BookingRepository
	beds       repositories.BedRepository
	facilities repositories.FacilityRepository
	alloc      repositories.AllocationRepository
	matcher    *BedMatcher
	queue      *QueueService
	gate       *NotificationGate
	events     providers.EventBus
	cascade    Cascade
	batchSize  int
}

// NewAllocationService creates a new allocation service. events is optional;
// the cascade worker is attached later via SetCascade.
func NewAllocationService(
	bookings repositories.BookingRepository,
	beds repositories.BedRepository,
	facilities repositories.FacilityRepository,
	alloc repositories.AllocationRepository,
	matcher *BedMatcher,
	queue *QueueService,
	gate *NotificationGate,
	events providers.EventBus,
	batchSize int,
) *AllocationService {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &AllocationService{
		bookings:   bookings,
		beds:       beds,
		facilities: facilities,
		alloc:      alloc,
		matcher:    matcher,
		queue:      queue,
		gate:       gate,
		events:     events,
		batchSize:  batchSize,
	}
}

// SetCascade attaches the post-release cascade sink
func (s *AllocationService) SetCascade(c Cascade) {
	s.cascade = c
}

// GetAvailableBeds lists active, unoccupied beds matching the filter
func (s *AllocationService) GetAvailableBeds(ctx context.Context, filter repositories.BedFilter) ([]*entities.Bed, error) {
	if _, err := s.facilities.GetByID(ctx, filter.FacilityID); err != nil {
		return nil, err
	}
	return s.beds.ListAvailable(ctx, filter)
}

// AllocateBed manually binds a bed to a waiting IPD booking. The binding is
// atomic: either both the bed and the booking change, or neither does. Queue
// recompute and patient notices run best-effort after the commit.
func (s *AllocationService) AllocateBed(ctx context.Context, bookingID string, selector BedSelector, assignedBy string) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Type != entities.BookingTypeIPD {
		return nil, apperrors.NewInvalidStateError("only IPD bookings can be allocated a bed")
	}
	if !booking.IsWaiting() {
		return nil, apperrors.NewInvalidStateError("booking is not waiting in queue")
	}

	facility, err := s.facilities.GetByID(ctx, booking.FacilityID)
	if err != nil {
		return nil, err
	}
	if err := authorize(facility, assignedBy); err != nil {
		return nil, err
	}

	bed, err := s.resolveBed(ctx, booking.FacilityID, selector)
	if err != nil {
		return nil, err
	}
	if !bed.IsAvailable() {
		return nil, apperrors.NewConflictError(fmt.Sprintf("bed %s is inactive or already occupied", bed.BedNumber))
	}

	if booking.BedRequirement != nil && !s.matcher.IsCompatible(booking.BedRequirement.BedType, bed.Type) {
		return nil, apperrors.NewConflictError(fmt.Sprintf(
			"bed type %s is not compatible with required type %s", bed.Type, booking.BedRequirement.BedType,
		))
	}

	if err := s.alloc.AssignBed(ctx, booking, bed, assignedBy); err != nil {
		return nil, err
	}

	s.afterAllocation(ctx, booking, bed, facility.Name)

	return booking, nil
}

// AutoAllocateBeds runs one batch pass over a facility's queue: the top
// ranked bookings are matched against the currently available beds in rank
// order. Each binding runs in its own transaction; per-booking failures are
// collected, not fatal. The loop stops early when the bed pool runs dry, so
// bookings that simply ran out of beds stay queued and are not failures.
func (s *AllocationService) AutoAllocateBeds(ctx context.Context, facilityID string, locationID *string, assignedBy string) (*AllocationReport, error) {
	facility, err := s.facilities.GetByID(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if err := authorize(facility, assignedBy); err != nil {
		return nil, err
	}

	waiting, err := s.bookings.ListWaiting(ctx, repositories.WaitingFilter{
		FacilityID: facilityID,
		LocationID: locationID,
		Limit:      s.batchSize,
	})
	if err != nil {
		return nil, err
	}

	pool, err := s.beds.ListAvailable(ctx, repositories.BedFilter{
		FacilityID: facilityID,
		LocationID: locationID,
	})
	if err != nil {
		return nil, err
	}

	report := &AllocationReport{
		Allocations: []AllocationResult{},
		Failures:    []AllocationFailure{},
	}
	logger := observability.LoggerFromContext(ctx)

	for _, booking := range waiting {
		if len(pool) == 0 {
			break
		}

		bed := s.matcher.BestMatch(booking.BedRequirement, pool)
		if bed == nil {
			report.Failures = append(report.Failures, AllocationFailure{
				BookingID: booking.ID,
				Reason:    noSuitableBedReason,
			})
			continue
		}

		if err := s.alloc.AssignBed(ctx, booking, bed, assignedBy); err != nil {
			logger.Warn().Err(err).
				Str("booking_id", booking.ID).
				Str("bed_id", bed.ID).
				Msg("auto-allocation attempt failed")
			report.Failures = append(report.Failures, AllocationFailure{
				BookingID: booking.ID,
				Reason:    err.Error(),
			})
			continue
		}

		pool = removeBed(pool, bed.ID)
		report.Allocations = append(report.Allocations, AllocationResult{
			BookingID:   booking.ID,
			PatientName: booking.PatientName,
			BedNumber:   bed.BedNumber,
		})

		s.publishBedEvent(ctx, booking, bed, entities.QueueEventTypeBedAllocated)
		if s.gate != nil {
			s.gate.SendBedAvailable(ctx, booking, facility.Name)
		}
	}

	report.AllocatedCount = len(report.Allocations)
	report.FailedCount = len(report.Failures)

	if _, err := s.queue.Recompute(ctx, facilityID, locationID); err != nil {
		logger.Error().Err(err).
			Str("facility_id", facilityID).
			Msg("queue recompute after batch allocation failed")
	}

	return report, nil
}

// ReleaseBed frees a booking's bed at the end of a stay and finalizes the
// booking. The follow-up allocation of the freed capacity is handed to the
// cascade worker and can never fail the release itself.
func (s *AllocationService) ReleaseBed(ctx context.Context, bookingID string) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.AssignedBed == nil {
		return nil, apperrors.NewInvalidStateError("booking has no assigned bed")
	}

	released := *booking.AssignedBed
	facilityID := booking.FacilityID
	locationID := booking.LocationID

	if err := s.alloc.ReleaseBed(ctx, booking); err != nil {
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx)

	event := entities.NewQueueEvent(facilityID, locationID, entities.QueueEventTypeBedReleased)
	event.BookingID = booking.ID
	event.BedID = released.BedID
	s.publish(ctx, event)

	if _, err := s.queue.Recompute(ctx, facilityID, locationID); err != nil {
		logger.Error().Err(err).
			Str("facility_id", facilityID).
			Msg("queue recompute after release failed")
	}

	if s.cascade != nil {
		if !s.cascade.Enqueue(facilityID, locationID) {
			logger.Warn().
				Str("facility_id", facilityID).
				Msg("cascade queue full, dropping post-release allocation")
		}
	}

	return booking, nil
}

// ConfirmOccupancy moves an assigned booking to occupied once the patient is
// physically admitted
func (s *AllocationService) ConfirmOccupancy(ctx context.Context, bookingID string) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BedAssignmentStatus != entities.BedStatusAssigned {
		return nil, apperrors.NewInvalidStateError("booking has no pending bed assignment")
	}

	booking.BedAssignmentStatus = entities.BedStatusOccupied
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// allocateNext attempts to place the single next-ranked waiting booking of a
// facility/location scope. Used by the post-release cascade.
func (s *AllocationService) allocateNext(ctx context.Context, facilityID string, locationID *string) error {
	waiting, err := s.bookings.ListWaiting(ctx, repositories.WaitingFilter{
		FacilityID: facilityID,
		LocationID: locationID,
		Limit:      1,
	})
	if err != nil {
		return err
	}
	if len(waiting) == 0 {
		return nil
	}
	booking := waiting[0]

	pool, err := s.beds.ListAvailable(ctx, repositories.BedFilter{
		FacilityID: facilityID,
		LocationID: locationID,
	})
	if err != nil {
		return err
	}

	bed := s.matcher.BestMatch(booking.BedRequirement, pool)
	if bed == nil {
		return nil
	}

	if err := s.alloc.AssignBed(ctx, booking, bed, "system"); err != nil {
		return err
	}

	facilityName := facilityID
	if facility, err := s.facilities.GetByID(ctx, facilityID); err == nil {
		facilityName = facility.Name
	}

	s.afterAllocation(ctx, booking, bed, facilityName)
	return nil
}

// afterAllocation runs the best-effort side effects of a committed binding:
// queue recompute (which includes the notification pass), the availability
// notice, and the allocation event.
func (s *AllocationService) afterAllocation(ctx context.Context, booking *entities.Booking, bed *entities.Bed, facilityName string) {
	if _, err := s.queue.Recompute(ctx, booking.FacilityID, booking.LocationID); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("facility_id", booking.FacilityID).
			Msg("queue recompute after allocation failed")
	}

	if s.gate != nil {
		s.gate.SendBedAvailable(ctx, booking, facilityName)
	}

	s.publishBedEvent(ctx, booking, bed, entities.QueueEventTypeBedAllocated)
}

func (s *AllocationService) resolveBed(ctx context.Context, facilityID string, selector BedSelector) (*entities.Bed, error) {
	switch {
	case selector.BedIndex != nil:
		return s.beds.GetByFacilityAndIndex(ctx, facilityID, *selector.BedIndex)
	case selector.BedID != "":
		bed, err := s.beds.GetByID(ctx, selector.BedID)
		if err != nil {
			return nil, err
		}
		if bed.FacilityID != facilityID {
			return nil, apperrors.NewNotFoundError("bed does not belong to the booking's facility")
		}
		return bed, nil
	case selector.BedNumber != "":
		return s.beds.GetByFacilityAndNumber(ctx, facilityID, selector.BedNumber)
	default:
		return nil, apperrors.NewValidationError("bed selector requires a bed index, id or number")
	}
}

func (s *AllocationService) publishBedEvent(ctx context.Context, booking *entities.Booking, bed *entities.Bed, eventType entities.QueueEventType) {
	event := entities.NewQueueEvent(booking.FacilityID, booking.LocationID, eventType)
	event.BookingID = booking.ID
	event.BedID = bed.ID
	s.publish(ctx, event)
}

func (s *AllocationService) publish(ctx context.Context, event *entities.QueueEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, providers.GetFacilityChannel(event.FacilityID), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("facility_id", event.FacilityID).
			Str("event_type", string(event.EventType)).
			Msg("failed to publish queue event")
	}
}

// authorize enforces facility ownership when both sides carry an identity.
// System-triggered calls pass an empty actor and skip the check.
func authorize(facility *entities.Facility, actorID string) error {
	if facility.OwnerID == "" || actorID == "" || actorID == "system" {
		return nil
	}
	if facility.OwnerID != actorID {
		return apperrors.NewUnauthorizedError("caller does not own this facility")
	}
	return nil
}

func removeBed(pool []*entities.Bed, bedID string) []*entities.Bed {
	out := pool[:0]
	for _, b := range pool {
		if b.ID != bedID {
			out = append(out, b)
		}
	}
	return out
}
