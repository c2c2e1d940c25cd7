package services

import (
	"math"
	"time"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// Score component caps. The capped components sum to at most 100.
const (
	medicalUrgencyCap = 40.0
	waitingTimeCap    = 30.0
	otherFactorsCap   = 10.0

	// waitingTimeDivisor converts hours in queue into points; a booking
	// reaches the waiting-time cap after 72 hours.
	waitingTimeDivisor = 2.4

	criticalThreshold = 90
	highThreshold     = 70
	lowThreshold      = 40
)

// ScoreResult is the outcome of one priority computation
type ScoreResult struct {
	Score     int
	Priority  entities.Priority
	Breakdown entities.PriorityMetadata
}

// PriorityScorer converts clinical and administrative inputs into a 0-100
// urgency score. Scoring is pure; callers persist the result. The
// waiting-time component drifts with wall-clock time, so scores must be
// recomputed whenever the queue is re-ranked.
type PriorityScorer struct {
	now func() time.Time
}

// NewPriorityScorer creates a new priority scorer
func NewPriorityScorer() *PriorityScorer {
	return &PriorityScorer{now: time.Now}
}

// NewPriorityScorerAt creates a scorer with an injected clock
func NewPriorityScorerAt(now func() time.Time) *PriorityScorer {
	return &PriorityScorer{now: now}
}

// Score computes the booking's urgency score and level. medicalUrgency is on
// a 0-10 clinical scale; otherFactors is an open-ended administrative input
// capped at 10 points. Waiting time counts from when the booking joined the
// queue, or from record creation if it has not been queued yet.
func (s *PriorityScorer) Score(booking *entities.Booking, patientAge, medicalUrgency, otherFactors int) ScoreResult {
	now := s.now()

	urgencyPts := math.Min(float64(medicalUrgency)*4, medicalUrgencyCap)

	hoursInQueue := now.Sub(booking.JoinedQueueAt()).Hours()
	if hoursInQueue < 0 {
		hoursInQueue = 0
	}
	waitingPts := math.Min(hoursInQueue/waitingTimeDivisor, waitingTimeCap)

	agePts := ageScore(patientAge)

	otherPts := math.Min(float64(otherFactors), otherFactorsCap)
	if otherPts < 0 {
		otherPts = 0
	}

	total := int(math.Round(math.Min(urgencyPts+waitingPts+agePts+otherPts, 100)))

	return ScoreResult{
		Score:    total,
		Priority: PriorityForScore(total),
		Breakdown: entities.PriorityMetadata{
			MedicalUrgency: urgencyPts,
			WaitingTime:    waitingPts,
			AgeScore:       agePts,
			OtherFactors:   otherPts,
			CalculatedAt:   now,
		},
	}
}

// PriorityForScore maps a 0-100 score to its priority level
func PriorityForScore(score int) entities.Priority {
	switch {
	case score >= criticalThreshold:
		return entities.PriorityCritical
	case score >= highThreshold:
		return entities.PriorityHigh
	case score < lowThreshold:
		return entities.PriorityLow
	default:
		return entities.PriorityMedium
	}
}

func ageScore(age int) float64 {
	switch {
	case age > 65 || age < 5:
		return 20
	case age > 50 || age < 12:
		return 10
	default:
		return 0
	}
}
