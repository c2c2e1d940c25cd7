package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/providers"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

// In-memory stores that mirror the behavior of the database adapters,
// including the conditional occupancy flip on bed assignment.

type bookingStore struct {
	mu    sync.Mutex
	items map[string]*entities.Booking
}

func newBookingStore(bookings ...*entities.Booking) *bookingStore {
	s := &bookingStore{items: make(map[string]*entities.Booking)}
	for _, b := range bookings {
		clone := *b
		s.items[b.ID] = &clone
	}
	return s
}

func (s *bookingStore) Create(ctx context.Context, booking *entities.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *booking
	s.items[booking.ID] = &clone
	return nil
}

func (s *bookingStore) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	clone := *booking
	return &clone, nil
}

func (s *bookingStore) Update(ctx context.Context, booking *entities.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[booking.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", booking.ID))
	}
	clone := *booking
	s.items[booking.ID] = &clone
	return nil
}

func (s *bookingStore) ListWaiting(ctx context.Context, filter repositories.WaitingFilter) ([]*entities.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var waiting []*entities.Booking
	for _, b := range s.items {
		if b.BedAssignmentStatus != entities.BedStatusWaitingInQueue || b.FacilityID != filter.FacilityID {
			continue
		}
		if filter.LocationID != nil && *filter.LocationID != "" {
			if b.LocationID == nil || *b.LocationID != *filter.LocationID {
				continue
			}
		}
		clone := *b
		waiting = append(waiting, &clone)
	}

	sort.SliceStable(waiting, func(i, j int) bool {
		si, sj := scoreOf(waiting[i]), scoreOf(waiting[j])
		if si != sj {
			return si > sj
		}
		return waiting[i].JoinedQueueAt().Before(waiting[j].JoinedQueueAt())
	})

	if filter.Limit > 0 && len(waiting) > filter.Limit {
		waiting = waiting[:filter.Limit]
	}
	return waiting, nil
}

func (s *bookingStore) UpdateQueuePositions(ctx context.Context, updates []repositories.QueuePositionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, update := range updates {
		booking, ok := s.items[update.BookingID]
		if !ok {
			continue
		}
		position := update.Position
		score := update.PriorityScore
		hours := update.EstimatedWaitHours
		metadata := update.PriorityMetadata

		booking.QueuePosition = &position
		booking.PriorityScore = &score
		booking.Priority = update.Priority
		booking.PriorityMetadata = &metadata
		if booking.QueueMetadata == nil {
			booking.QueueMetadata = &entities.QueueMetadata{}
		}
		booking.QueueMetadata.EstimatedWaitHours = &hours
	}
	return nil
}

func scoreOf(b *entities.Booking) int {
	if b.PriorityScore == nil {
		return -1
	}
	return *b.PriorityScore
}

type bedStore struct {
	mu    sync.Mutex
	items map[string]*entities.Bed
}

func newBedStore(beds ...*entities.Bed) *bedStore {
	s := &bedStore{items: make(map[string]*entities.Bed)}
	for _, b := range beds {
		clone := *b
		s.items[b.ID] = &clone
	}
	return s
}

func (s *bedStore) Create(ctx context.Context, bed *entities.Bed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *bed
	s.items[bed.ID] = &clone
	return nil
}

func (s *bedStore) GetByID(ctx context.Context, id string) (*entities.Bed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bed, ok := s.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("bed with id %s not found", id))
	}
	clone := *bed
	return &clone, nil
}

func (s *bedStore) GetByFacilityAndIndex(ctx context.Context, facilityID string, bedIndex int) (*entities.Bed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bed := range s.items {
		if bed.FacilityID == facilityID && bed.BedIndex == bedIndex {
			clone := *bed
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("bed %d not found in facility %s", bedIndex, facilityID))
}

func (s *bedStore) GetByFacilityAndNumber(ctx context.Context, facilityID, bedNumber string) (*entities.Bed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bed := range s.items {
		if bed.FacilityID == facilityID && bed.BedNumber == bedNumber {
			clone := *bed
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("bed %s not found in facility %s", bedNumber, facilityID))
}

func (s *bedStore) ListAvailable(ctx context.Context, filter repositories.BedFilter) ([]*entities.Bed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var available []*entities.Bed
	for _, bed := range s.items {
		if bed.FacilityID != filter.FacilityID || !bed.IsActive || bed.IsOccupied {
			continue
		}
		if filter.BedType != nil && bed.Type != *filter.BedType {
			continue
		}
		if filter.LocationID != nil && *filter.LocationID != "" {
			if bed.LocationID == nil || *bed.LocationID != *filter.LocationID {
				continue
			}
		}
		if filter.Floor != nil && bed.Floor != *filter.Floor {
			continue
		}
		if filter.Ward != nil && bed.Ward != *filter.Ward {
			continue
		}
		clone := *bed
		available = append(available, &clone)
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].BedIndex < available[j].BedIndex
	})
	return available, nil
}

// allocStore binds beds to bookings with the same conditional-update
// semantics as the database adapter: only one claim on a bed can win.
type allocStore struct {
	mu       sync.Mutex
	beds     *bedStore
	bookings *bookingStore
}

func newAllocStore(beds *bedStore, bookings *bookingStore) *allocStore {
	return &allocStore{beds: beds, bookings: bookings}
}

func (s *allocStore) AssignBed(ctx context.Context, booking *entities.Booking, bed *entities.Bed, assignedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.beds.mu.Lock()
	stored, ok := s.beds.items[bed.ID]
	if !ok {
		s.beds.mu.Unlock()
		return apperrors.NewNotFoundError(fmt.Sprintf("bed with id %s not found", bed.ID))
	}
	if !stored.IsActive || stored.IsOccupied {
		s.beds.mu.Unlock()
		return apperrors.NewConflictError(fmt.Sprintf("bed %s is not available", bed.BedNumber))
	}
	stored.IsOccupied = true
	s.beds.mu.Unlock()

	now := time.Now()
	assigned := &entities.AssignedBed{
		BedIndex:   bed.BedIndex,
		BedID:      bed.ID,
		BedNumber:  bed.BedNumber,
		BedType:    bed.Type,
		Floor:      bed.Floor,
		Ward:       bed.Ward,
		AssignedAt: now,
		AssignedBy: assignedBy,
	}

	s.bookings.mu.Lock()
	if storedBooking, ok := s.bookings.items[booking.ID]; ok {
		storedBooking.BedAssignmentStatus = entities.BedStatusAssigned
		storedBooking.AssignedBed = assigned
		storedBooking.QueuePosition = nil
		if storedBooking.QueueMetadata != nil {
			storedBooking.QueueMetadata.EstimatedWaitHours = nil
		}
	}
	s.bookings.mu.Unlock()

	bed.IsOccupied = true
	booking.BedAssignmentStatus = entities.BedStatusAssigned
	booking.AssignedBed = assigned
	booking.QueuePosition = nil
	if booking.QueueMetadata != nil {
		booking.QueueMetadata.EstimatedWaitHours = nil
	}
	return nil
}

func (s *allocStore) ReleaseBed(ctx context.Context, booking *entities.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.AssignedBed == nil {
		return apperrors.NewInvalidStateError(fmt.Sprintf("booking %s has no assigned bed", booking.ID))
	}

	s.beds.mu.Lock()
	if stored, ok := s.beds.items[booking.AssignedBed.BedID]; ok {
		stored.IsOccupied = false
	}
	s.beds.mu.Unlock()

	s.bookings.mu.Lock()
	if storedBooking, ok := s.bookings.items[booking.ID]; ok {
		storedBooking.BedAssignmentStatus = entities.BedStatusReleased
		storedBooking.Status = entities.BookingStatusCompleted
		storedBooking.AssignedBed = nil
	}
	s.bookings.mu.Unlock()

	booking.BedAssignmentStatus = entities.BedStatusReleased
	booking.Status = entities.BookingStatusCompleted
	booking.AssignedBed = nil
	return nil
}

type facilityStore struct {
	items map[string]*entities.Facility
}

func newFacilityStore(facilities ...*entities.Facility) *facilityStore {
	s := &facilityStore{items: make(map[string]*entities.Facility)}
	for _, f := range facilities {
		s.items[f.ID] = f
	}
	return s
}

func (s *facilityStore) Create(ctx context.Context, facility *entities.Facility) error {
	s.items[facility.ID] = facility
	return nil
}

func (s *facilityStore) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	facility, ok := s.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", id))
	}
	return facility, nil
}

type notificationLogStore struct {
	mu      sync.Mutex
	entries []*entities.NotificationLogEntry
}

func newNotificationLogStore() *notificationLogStore {
	return &notificationLogStore{}
}

func (s *notificationLogStore) Append(ctx context.Context, entry *entities.NotificationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *notificationLogStore) SentSince(ctx context.Context, bookingID, notifType string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.BookingID == bookingID && entry.Type == notifType && entry.SentAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

type fakeNotifier struct {
	mu              sync.Mutex
	fail            bool
	positionUpdates []providers.PositionUpdate
	bedAvailables   []providers.BedAvailable
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{}
}

func (n *fakeNotifier) SendPositionUpdate(ctx context.Context, update providers.PositionUpdate) providers.DeliveryResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return providers.DeliveryResult{Success: false, Error: "delivery failed"}
	}
	n.positionUpdates = append(n.positionUpdates, update)
	return providers.DeliveryResult{Success: true, MessageID: "msg-1"}
}

func (n *fakeNotifier) SendBedAvailable(ctx context.Context, notice providers.BedAvailable) providers.DeliveryResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return providers.DeliveryResult{Success: false, Error: "delivery failed"}
	}
	n.bedAvailables = append(n.bedAvailables, notice)
	return providers.DeliveryResult{Success: true, MessageID: "msg-1"}
}

func (n *fakeNotifier) positionUpdateCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.positionUpdates)
}

func (n *fakeNotifier) bedAvailableCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.bedAvailables)
}
