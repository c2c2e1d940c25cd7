package notifications

import (
	"context"
	"fmt"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/providers"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/observability"
)

// WhatsAppNotifier delivers patient notices over WhatsApp. It implements
// providers.Notifier: delivery failures are reported as results, never as
// errors, so a down provider cannot abort an allocation.
type WhatsAppNotifier struct {
	sender *WhatsAppCloudSender
}

// NewWhatsAppNotifier creates a new WhatsApp-backed notifier
func NewWhatsAppNotifier(sender *WhatsAppCloudSender) providers.Notifier {
	return &WhatsAppNotifier{sender: sender}
}

// SendPositionUpdate delivers a queue position notice
func (n *WhatsAppNotifier) SendPositionUpdate(ctx context.Context, update providers.PositionUpdate) providers.DeliveryResult {
	body := fmt.Sprintf(
		"Hello %s, you are now number %d in the bed queue at %s. Estimated wait: %s.",
		update.PatientName, update.Position, update.FacilityName, update.ETAText,
	)
	return n.deliver(ctx, update.Recipient, body)
}

// SendBedAvailable delivers a bed availability notice
func (n *WhatsAppNotifier) SendBedAvailable(ctx context.Context, notice providers.BedAvailable) providers.DeliveryResult {
	body := fmt.Sprintf(
		"Hello %s, bed %s (%s ward) at %s has been assigned to you. Please proceed to admission.",
		notice.PatientName, notice.BedNumber, notice.Ward, notice.FacilityName,
	)
	return n.deliver(ctx, notice.Recipient, body)
}

func (n *WhatsAppNotifier) deliver(ctx context.Context, recipient, body string) providers.DeliveryResult {
	if recipient == "" {
		return providers.DeliveryResult{Success: false, Error: "no recipient on booking"}
	}

	messageID, err := n.sender.SendText(ctx, recipient, body)
	if err != nil {
		return providers.DeliveryResult{Success: false, Error: err.Error()}
	}
	return providers.DeliveryResult{Success: true, MessageID: messageID}
}

// LogNotifier is a delivery stub used when no WhatsApp credentials are
// configured. Notices are logged and reported as delivered so the throttle
// bookkeeping stays exercised in development.
type LogNotifier struct{}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier() providers.Notifier {
	return &LogNotifier{}
}

// SendPositionUpdate logs a queue position notice
func (n *LogNotifier) SendPositionUpdate(ctx context.Context, update providers.PositionUpdate) providers.DeliveryResult {
	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", update.BookingID).
		Int("position", update.Position).
		Str("eta", update.ETAText).
		Msg("position update (log notifier)")
	return providers.DeliveryResult{Success: true}
}

// SendBedAvailable logs a bed availability notice
func (n *LogNotifier) SendBedAvailable(ctx context.Context, notice providers.BedAvailable) providers.DeliveryResult {
	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", notice.BookingID).
		Str("bed_number", notice.BedNumber).
		Msg("bed available (log notifier)")
	return providers.DeliveryResult{Success: true}
}
