package providers

import (
	"context"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to queue events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QueueEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for queue event channels
const (
	// EventChannelQueueUpdates is the channel for all queue updates
	EventChannelQueueUpdates = "queue:updates"

	// EventChannelFacilityPrefix is the prefix for facility-specific channels
	EventChannelFacilityPrefix = "queue:facility:"
)

// GetFacilityChannel returns the channel name for a specific facility
func GetFacilityChannel(facilityID string) string {
	return EventChannelFacilityPrefix + facilityID
}
