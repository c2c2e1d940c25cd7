package entities

import "time"

// Notification type identifiers recorded in the notification log and in the
// booking's embedded mirror.
const (
	NotificationTypePositionUpdate = "POSITION_UPDATE"
	NotificationTypeBedAvailable   = "BED_AVAILABLE"
)

// NotificationLogEntry is one delivered notification, kept in a separate log
// store so booking records do not grow without bound.
type NotificationLogEntry struct {
	ID        string    `json:"id" db:"id"`
	BookingID string    `json:"booking_id" db:"booking_id"`
	Type      string    `json:"type" db:"notification_type"`
	Recipient string    `json:"recipient" db:"recipient"`
	SentAt    time.Time `json:"sent_at" db:"sent_at"`
}
