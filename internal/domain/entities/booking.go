package entities

import (
	"time"
)

// BookingType distinguishes in-patient admissions from visit types that never
// touch the bed queue
type BookingType string

const (
	BookingTypeIPD BookingType = "IPD"
	BookingTypeOPD BookingType = "OPD"
	BookingTypeLab BookingType = "LAB"
)

// BookingStatus represents the overall lifecycle of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BedAssignmentStatus tracks where a booking stands in the bed queue.
// The empty value means the booking has never entered the queue.
type BedAssignmentStatus string

const (
	BedStatusWaitingInQueue BedAssignmentStatus = "WAITING_IN_QUEUE"
	BedStatusAssigned       BedAssignmentStatus = "BED_ASSIGNED"
	BedStatusOccupied       BedAssignmentStatus = "BED_OCCUPIED"
	BedStatusReleased       BedAssignmentStatus = "BED_RELEASED"
	BedStatusQueueCancelled BedAssignmentStatus = "QUEUE_CANCELLED"
)

// Priority is the derived urgency category of a queued booking
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// PriorityMetadata is the informational breakdown of a priority score.
// The capped components sum to the booking's PriorityScore.
type PriorityMetadata struct {
	MedicalUrgency float64   `json:"medical_urgency"`
	WaitingTime    float64   `json:"waiting_time"`
	AgeScore       float64   `json:"age_score"`
	OtherFactors   float64   `json:"other_factors"`
	CalculatedAt   time.Time `json:"calculated_at"`
}

// BedRequirement specifies what kind of bed a patient needs
type BedRequirement struct {
	BedType             BedType  `json:"bed_type"`
	SpecialRequirements []string `json:"special_requirements,omitempty"`
	PreferredFloor      *string  `json:"preferred_floor,omitempty"`
	PreferredWard       *string  `json:"preferred_ward,omitempty"`
}

// AssignedBed records the bed a booking is currently bound to
type AssignedBed struct {
	BedIndex   int       `json:"bed_index"`
	BedID      string    `json:"bed_id"`
	BedNumber  string    `json:"bed_number"`
	BedType    BedType   `json:"bed_type"`
	Floor      string    `json:"floor"`
	Ward       string    `json:"ward"`
	AssignedAt time.Time `json:"assigned_at"`
	AssignedBy string    `json:"assigned_by"`
}

// NotificationRecord is one entry in a booking's sent-notification mirror
type NotificationRecord struct {
	Type   string    `json:"type"`
	SentAt time.Time `json:"sent_at"`
}

// MaxNotificationRecords caps the embedded notification mirror; the
// notification log table is the authoritative history.
const MaxNotificationRecords = 20

// QueueMetadata carries the queue-related bookkeeping of a booking
type QueueMetadata struct {
	JoinedQueueAt      *time.Time           `json:"joined_queue_at,omitempty"`
	EstimatedWaitHours *int                 `json:"estimated_wait_hours,omitempty"`
	NotificationsSent  []NotificationRecord `json:"notifications_sent,omitempty"`
}

// Booking represents an admission request. Only IPD bookings participate in
// bed queuing and allocation.
type Booking struct {
	ID         string  `json:"id" db:"id"`
	FacilityID string  `json:"facility_id" db:"facility_id"`
	LocationID *string `json:"location_id,omitempty" db:"location_id"`
	PatientID  string  `json:"patient_id" db:"patient_id"`

	PatientName  string `json:"patient_name" db:"patient_name"`
	PatientEmail string `json:"patient_email" db:"patient_email"`
	PatientPhone string `json:"patient_phone" db:"patient_phone"`
	PatientAge   int    `json:"patient_age" db:"patient_age"`

	// Scoring inputs, persisted so the waiting-time component can be
	// recomputed on every re-rank.
	MedicalUrgency int `json:"medical_urgency" db:"medical_urgency"`
	OtherFactors   int `json:"other_factors" db:"other_factors"`

	Type   BookingType   `json:"type" db:"booking_type"`
	Status BookingStatus `json:"status" db:"status"`

	BedAssignmentStatus BedAssignmentStatus `json:"bed_assignment_status,omitempty" db:"bed_assignment_status"`
	Priority            Priority            `json:"priority,omitempty" db:"priority"`
	PriorityScore       *int                `json:"priority_score,omitempty" db:"priority_score"`
	PriorityMetadata    *PriorityMetadata   `json:"priority_metadata,omitempty" db:"-"`
	BedRequirement      *BedRequirement     `json:"bed_requirement,omitempty" db:"-"`
	AssignedBed         *AssignedBed        `json:"assigned_bed,omitempty" db:"-"`
	QueuePosition       *int                `json:"queue_position,omitempty" db:"queue_position"`
	QueueMetadata       *QueueMetadata      `json:"queue_metadata,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsWaiting reports whether the booking currently sits in the queue
func (b *Booking) IsWaiting() bool {
	return b.BedAssignmentStatus == BedStatusWaitingInQueue
}

// JoinedQueueAt returns when the booking entered the queue, falling back to
// record creation time when it has not been queued yet.
func (b *Booking) JoinedQueueAt() time.Time {
	if b.QueueMetadata != nil && b.QueueMetadata.JoinedQueueAt != nil {
		return *b.QueueMetadata.JoinedQueueAt
	}
	return b.CreatedAt
}

// RecordNotification appends a sent-notification record to the embedded
// mirror, dropping the oldest entries beyond MaxNotificationRecords.
func (b *Booking) RecordNotification(notifType string, sentAt time.Time) {
	if b.QueueMetadata == nil {
		b.QueueMetadata = &QueueMetadata{}
	}
	records := append(b.QueueMetadata.NotificationsSent, NotificationRecord{Type: notifType, SentAt: sentAt})
	if len(records) > MaxNotificationRecords {
		records = records[len(records)-MaxNotificationRecords:]
	}
	b.QueueMetadata.NotificationsSent = records
}
