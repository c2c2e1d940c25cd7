package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/providers"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

const queueCacheTTL = 30 * time.Second

// WaitEstimate is a queue position translated into expected waiting time
type WaitEstimate struct {
	Hours    int    `json:"hours"`
	Days     int    `json:"days"`
	Readable string `json:"readable"`
}

// EstimateWaitTime converts a queue position into a wait estimate assuming
// the given average bed turnover. The readable range is rendered as
// "{weeks}-{days} days" and is kept as-is even for small day counts.
func EstimateWaitTime(position, avgBedTurnoverHours int) WaitEstimate {
	hours := position * avgBedTurnoverHours
	days := int(math.Ceil(float64(hours) / 24))
	return WaitEstimate{
		Hours:    hours,
		Days:     days,
		Readable: fmt.Sprintf("%d-%d days", days/7, days),
	}
}

// QueueService maintains the total order of waiting bookings for each
// facility/location scope. Queue positions are mutated only through its full
// recompute; ad hoc position edits are not supported.
type QueueService struct {
	bookings      repositories.BookingRepository
	scorer        *PriorityScorer
	gate          *NotificationGate
	cache         providers.CacheProvider
	events        providers.EventBus
	turnoverHours int
}

// NewQueueService creates a new queue service. cache, events and gate are
// optional; a nil value disables the corresponding side channel.
func NewQueueService(
	bookings repositories.BookingRepository,
	scorer *PriorityScorer,
	gate *NotificationGate,
	cache providers.CacheProvider,
	events providers.EventBus,
	turnoverHours int,
) *QueueService {
	if turnoverHours <= 0 {
		turnoverHours = 48
	}
	return &QueueService{
		bookings:      bookings,
		scorer:        scorer,
		gate:          gate,
		cache:         cache,
		events:        events,
		turnoverHours: turnoverHours,
	}
}

// AddToQueue places a confirmed IPD booking into the waiting queue, scores
// it, and re-ranks the affected scope.
func (s *QueueService) AddToQueue(ctx context.Context, bookingID string, req *entities.BedRequirement, patientAge, medicalUrgency, otherFactors int) (*entities.Booking, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("bed requirement is required")
	}
	bedType, err := entities.ParseBedType(string(req.BedType))
	if err != nil {
		return nil, err
	}
	req.BedType = bedType
	if medicalUrgency < 0 || medicalUrgency > 10 {
		return nil, apperrors.NewValidationError("medical urgency must be between 0 and 10")
	}
	if patientAge < 0 {
		return nil, apperrors.NewValidationError("patient age must not be negative")
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Type != entities.BookingTypeIPD {
		return nil, apperrors.NewInvalidStateError("only IPD bookings can join the bed queue")
	}
	switch booking.BedAssignmentStatus {
	case "", entities.BedStatusReleased, entities.BedStatusQueueCancelled:
		// eligible to (re)join
	default:
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("booking is already %s", booking.BedAssignmentStatus))
	}

	now := time.Now()
	booking.PatientAge = patientAge
	booking.MedicalUrgency = medicalUrgency
	booking.OtherFactors = otherFactors
	booking.BedRequirement = req
	booking.BedAssignmentStatus = entities.BedStatusWaitingInQueue
	queueMeta := &entities.QueueMetadata{JoinedQueueAt: &now}
	if booking.QueueMetadata != nil {
		// Keep the delivered-notification mirror across rejoins.
		queueMeta.NotificationsSent = booking.QueueMetadata.NotificationsSent
	}
	booking.QueueMetadata = queueMeta

	result := s.scorer.Score(booking, patientAge, medicalUrgency, otherFactors)
	booking.PriorityScore = &result.Score
	booking.Priority = result.Priority
	booking.PriorityMetadata = &result.Breakdown
	booking.UpdatedAt = now

	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}

	if _, err := s.Recompute(ctx, booking.FacilityID, booking.LocationID); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("booking_id", booking.ID).
			Msg("queue recompute after join failed")
	}

	return s.bookings.GetByID(ctx, bookingID)
}

// RemoveFromQueue cancels a waiting booking's queue entry and re-ranks the
// remaining queue. A booking that is no longer waiting is rejected.
func (s *QueueService) RemoveFromQueue(ctx context.Context, bookingID string) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsWaiting() {
		return nil, apperrors.NewInvalidStateError("booking is not waiting in queue")
	}

	booking.BedAssignmentStatus = entities.BedStatusQueueCancelled
	booking.QueuePosition = nil
	booking.PriorityScore = nil
	booking.UpdatedAt = time.Now()

	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}

	if _, err := s.Recompute(ctx, booking.FacilityID, booking.LocationID); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("booking_id", booking.ID).
			Msg("queue recompute after cancellation failed")
	}

	return booking, nil
}

// GetQueue returns the ordered waiting queue for a facility/location scope
func (s *QueueService) GetQueue(ctx context.Context, facilityID string, locationID *string) ([]*entities.Booking, error) {
	cacheKey := queueCacheKey(facilityID, locationID)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []*entities.Booking
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	queue, err := s.bookings.ListWaiting(ctx, repositories.WaitingFilter{
		FacilityID: facilityID,
		LocationID: locationID,
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(queue); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, queueCacheTTL); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).
					Str("facility_id", facilityID).
					Msg("failed to cache queue snapshot")
			}
		}
	}

	return queue, nil
}

// Recompute performs the full queue re-rank for one facility/location scope:
// every waiting booking is re-scored (the waiting-time component drifts),
// sorted by score descending with earlier joins winning ties, and assigned a
// contiguous 1-based position with a refreshed wait estimate. Returns the
// number of bookings ranked.
func (s *QueueService) Recompute(ctx context.Context, facilityID string, locationID *string) (int, error) {
	waiting, err := s.bookings.ListWaiting(ctx, repositories.WaitingFilter{
		FacilityID: facilityID,
		LocationID: locationID,
	})
	if err != nil {
		return 0, err
	}

	for _, b := range waiting {
		result := s.scorer.Score(b, b.PatientAge, b.MedicalUrgency, b.OtherFactors)
		b.PriorityScore = &result.Score
		b.Priority = result.Priority
		b.PriorityMetadata = &result.Breakdown
	}

	sort.SliceStable(waiting, func(i, j int) bool {
		si, sj := *waiting[i].PriorityScore, *waiting[j].PriorityScore
		if si != sj {
			return si > sj
		}
		return waiting[i].JoinedQueueAt().Before(waiting[j].JoinedQueueAt())
	})

	updates := make([]repositories.QueuePositionUpdate, 0, len(waiting))
	for i, b := range waiting {
		position := i + 1
		estimate := EstimateWaitTime(position, s.turnoverHours)

		b.QueuePosition = &position
		if b.QueueMetadata == nil {
			b.QueueMetadata = &entities.QueueMetadata{}
		}
		hours := estimate.Hours
		b.QueueMetadata.EstimatedWaitHours = &hours

		updates = append(updates, repositories.QueuePositionUpdate{
			BookingID:          b.ID,
			Position:           position,
			PriorityScore:      *b.PriorityScore,
			Priority:           b.Priority,
			PriorityMetadata:   *b.PriorityMetadata,
			EstimatedWaitHours: estimate.Hours,
		})
	}

	if len(updates) > 0 {
		if err := s.bookings.UpdateQueuePositions(ctx, updates); err != nil {
			return 0, err
		}
	}

	s.invalidateQueueCache(ctx, facilityID, locationID)
	s.publishQueueUpdated(ctx, facilityID, locationID, len(waiting))

	if s.gate != nil {
		s.gate.RunPositionPass(ctx, facilityID, waiting)
	}

	return len(waiting), nil
}

// WaitEstimateFor exposes the service's configured turnover assumption
func (s *QueueService) WaitEstimateFor(position int) WaitEstimate {
	return EstimateWaitTime(position, s.turnoverHours)
}

func (s *QueueService) invalidateQueueCache(ctx context.Context, facilityID string, locationID *string) {
	if s.cache == nil {
		return
	}
	// Both the scoped and the facility-wide snapshots are stale after any
	// recompute.
	keys := []string{queueCacheKey(facilityID, nil)}
	if locationID != nil {
		keys = append(keys, queueCacheKey(facilityID, locationID))
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("cache_key", key).
				Msg("failed to invalidate queue cache")
		}
	}
}

func (s *QueueService) publishQueueUpdated(ctx context.Context, facilityID string, locationID *string, count int) {
	if s.events == nil {
		return
	}
	event := entities.NewQueueEvent(facilityID, locationID, entities.QueueEventTypeQueueUpdated)
	event.Details = map[string]interface{}{"queue_length": count}
	if err := s.events.Publish(ctx, providers.GetFacilityChannel(facilityID), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("facility_id", facilityID).
			Msg("failed to publish queue update event")
	}
}

func queueCacheKey(facilityID string, locationID *string) string {
	if locationID != nil && *locationID != "" {
		return fmt.Sprintf("queue:%s:%s", facilityID, *locationID)
	}
	return fmt.Sprintf("queue:%s", facilityID)
}
