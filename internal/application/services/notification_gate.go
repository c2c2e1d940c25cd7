package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/providers"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/observability"
)

// GateConfig tunes the notification gate
type GateConfig struct {
	// TopN caps how many ranked bookings one pass inspects
	TopN int

	// SignificantPosition is the highest position still worth a notice
	SignificantPosition int

	// Throttle is the minimum gap between two position notices per booking
	Throttle time.Duration
}

// DefaultGateConfig returns the production gate settings
func DefaultGateConfig() GateConfig {
	return GateConfig{
		TopN:                10,
		SignificantPosition: 5,
		Throttle:            24 * time.Hour,
	}
}

// NotificationGate decides whether a position or availability notice is due
// without flooding patients. Position notices are throttled per booking via
// the notification log; bed availability notices are unconditional.
type NotificationGate struct {
	log        repositories.NotificationLogRepository
	bookings   repositories.BookingRepository
	facilities repositories.FacilityRepository
	notifier   providers.Notifier
	cfg        GateConfig
	turnover   int
	now        func() time.Time
}

// NewNotificationGate creates a new notification gate
func NewNotificationGate(
	log repositories.NotificationLogRepository,
	bookings repositories.BookingRepository,
	facilities repositories.FacilityRepository,
	notifier providers.Notifier,
	cfg GateConfig,
	turnoverHours int,
) *NotificationGate {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultGateConfig().TopN
	}
	if cfg.SignificantPosition <= 0 {
		cfg.SignificantPosition = DefaultGateConfig().SignificantPosition
	}
	if cfg.Throttle <= 0 {
		cfg.Throttle = DefaultGateConfig().Throttle
	}
	if turnoverHours <= 0 {
		turnoverHours = 48
	}
	return &NotificationGate{
		log:        log,
		bookings:   bookings,
		facilities: facilities,
		notifier:   notifier,
		cfg:        cfg,
		turnover:   turnoverHours,
		now:        time.Now,
	}
}

// RunPositionPass walks the freshly ranked queue and sends position notices
// to significant, not recently notified bookings. Everything here is
// best-effort: failures are logged and never propagate to the caller.
func (g *NotificationGate) RunPositionPass(ctx context.Context, facilityID string, ordered []*entities.Booking) {
	if g.notifier == nil || len(ordered) == 0 {
		return
	}
	logger := observability.LoggerFromContext(ctx)

	facilityName := facilityID
	if facility, err := g.facilities.GetByID(ctx, facilityID); err == nil {
		facilityName = facility.Name
	}

	limit := g.cfg.TopN
	if len(ordered) < limit {
		limit = len(ordered)
	}

	for _, booking := range ordered[:limit] {
		if booking.QueuePosition == nil || *booking.QueuePosition > g.cfg.SignificantPosition {
			continue
		}

		sent, err := g.log.SentSince(ctx, booking.ID, entities.NotificationTypePositionUpdate, g.now().Add(-g.cfg.Throttle))
		if err != nil {
			logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("notification throttle lookup failed")
			continue
		}
		if sent {
			continue
		}

		estimate := EstimateWaitTime(*booking.QueuePosition, g.turnover)
		result := g.notifier.SendPositionUpdate(ctx, providers.PositionUpdate{
			BookingID:    booking.ID,
			PatientName:  booking.PatientName,
			Recipient:    booking.PatientPhone,
			Position:     *booking.QueuePosition,
			ETAText:      estimate.Readable,
			FacilityName: facilityName,
		})
		if !result.Success {
			logger.Warn().
				Str("booking_id", booking.ID).
				Str("delivery_error", result.Error).
				Msg("position update delivery failed")
			continue
		}

		g.record(ctx, booking, entities.NotificationTypePositionUpdate, booking.PatientPhone)
	}
}

// SendBedAvailable delivers a bed availability notice for a just-allocated
// booking. Unlike position updates it is not throttled.
func (g *NotificationGate) SendBedAvailable(ctx context.Context, booking *entities.Booking, facilityName string) {
	if g.notifier == nil || booking.AssignedBed == nil {
		return
	}

	result := g.notifier.SendBedAvailable(ctx, providers.BedAvailable{
		BookingID:    booking.ID,
		PatientName:  booking.PatientName,
		Recipient:    booking.PatientPhone,
		BedNumber:    booking.AssignedBed.BedNumber,
		Ward:         booking.AssignedBed.Ward,
		FacilityName: facilityName,
	})
	if !result.Success {
		observability.LoggerFromContext(ctx).Warn().
			Str("booking_id", booking.ID).
			Str("delivery_error", result.Error).
			Msg("bed availability delivery failed")
		return
	}

	g.record(ctx, booking, entities.NotificationTypeBedAvailable, booking.PatientPhone)
}

func (g *NotificationGate) record(ctx context.Context, booking *entities.Booking, notifType, recipient string) {
	logger := observability.LoggerFromContext(ctx)
	sentAt := g.now()

	if err := g.log.Append(ctx, &entities.NotificationLogEntry{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		Type:      notifType,
		Recipient: recipient,
		SentAt:    sentAt,
	}); err != nil {
		logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to append notification log")
	}

	booking.RecordNotification(notifType, sentAt)
	if err := g.bookings.Update(ctx, booking); err != nil {
		logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to mirror notification on booking")
	}
}
