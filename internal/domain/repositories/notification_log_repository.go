package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// NotificationLogRepository defines the interface for the notification log
// store used for idempotent throttling
type NotificationLogRepository interface {
	// Append records a delivered notification
	Append(ctx context.Context, entry *entities.NotificationLogEntry) error

	// SentSince reports whether a notification of the given type was
	// delivered to the booking after the given instant
	SentSince(ctx context.Context, bookingID, notifType string, since time.Time) (bool, error)
}
