package services

import (
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

// Match scoring weights
const (
	exactTypeScore      = 50
	upgradeTypeScore    = 30
	preferredFloorScore = 10
	preferredWardScore  = 10
	specialReqScore     = 5
)

// bedUpgrades is the upgrade lattice: a patient requiring the key type may
// also be placed in any of the listed types. PRIVATE has no further upgrade.
var bedUpgrades = map[entities.BedType][]entities.BedType{
	entities.BedTypeEmergency: {entities.BedTypeICU, entities.BedTypePrivate},
	entities.BedTypeICU:       {entities.BedTypePrivate},
	entities.BedTypeGeneral:   {entities.BedTypeICU, entities.BedTypePrivate},
}

// BedMatcher filters and ranks available beds against a patient's requirement
type BedMatcher struct{}

// NewBedMatcher creates a new bed matcher
func NewBedMatcher() *BedMatcher {
	return &BedMatcher{}
}

// IsCompatible reports whether a bed of the actual type may satisfy a
// requirement for the requested type. Exact matches are always compatible;
// otherwise the upgrade lattice decides.
func (m *BedMatcher) IsCompatible(requested, actual entities.BedType) bool {
	if requested == actual {
		return true
	}
	for _, upgrade := range bedUpgrades[requested] {
		if upgrade == actual {
			return true
		}
	}
	return false
}

// MatchScore scores one candidate bed against the requirement. A score of
// zero means the bed cannot satisfy the requirement at all.
func (m *BedMatcher) MatchScore(req *entities.BedRequirement, bed *entities.Bed) int {
	if req == nil {
		return 0
	}

	score := 0
	switch {
	case bed.Type == req.BedType:
		score += exactTypeScore
	case m.IsCompatible(req.BedType, bed.Type):
		score += upgradeTypeScore
	default:
		return 0
	}

	if req.PreferredFloor != nil && *req.PreferredFloor == bed.Floor {
		score += preferredFloorScore
	}
	if req.PreferredWard != nil && *req.PreferredWard == bed.Ward {
		score += preferredWardScore
	}
	for _, requirement := range req.SpecialRequirements {
		if bed.HasFeature(requirement) {
			score += specialReqScore
		}
	}

	return score
}

// BestMatch returns the highest-scoring candidate, or nil when the list is
// empty or no candidate is compatible. Ties keep the earliest candidate,
// which preserves bed-index order for lists produced by the bed store.
func (m *BedMatcher) BestMatch(req *entities.BedRequirement, beds []*entities.Bed) *entities.Bed {
	var best *entities.Bed
	bestScore := 0

	for _, bed := range beds {
		if score := m.MatchScore(req, bed); score > bestScore {
			best = bed
			bestScore = score
		}
	}

	return best
}
