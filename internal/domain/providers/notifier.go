package providers

import (
	"context"
)

// DeliveryResult is the outcome of a notification attempt. Notifiers report
// failures as data and never return errors; delivery problems must not abort
// the allocation or queue operation that triggered them.
type DeliveryResult struct {
	Success   bool
	MessageID string
	Error     string
}

// PositionUpdate carries everything needed to render a queue position notice
type PositionUpdate struct {
	BookingID    string
	PatientName  string
	Recipient    string
	Position     int
	ETAText      string
	FacilityName string
}

// BedAvailable carries everything needed to render a bed availability notice
type BedAvailable struct {
	BookingID    string
	PatientName  string
	Recipient    string
	BedNumber    string
	Ward         string
	FacilityName string
}

// Notifier defines the interface to the notification delivery channel
type Notifier interface {
	// SendPositionUpdate delivers a queue position notice
	SendPositionUpdate(ctx context.Context, update PositionUpdate) DeliveryResult

	// SendBedAvailable delivers a bed availability notice
	SendBedAvailable(ctx context.Context, notice BedAvailable) DeliveryResult
}
