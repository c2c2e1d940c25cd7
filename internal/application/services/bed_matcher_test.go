package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/application/services"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
)

func TestBedMatcher_IsCompatible(t *testing.T) {
	matcher := services.NewBedMatcher()

	tests := []struct {
		name      string
		requested entities.BedType
		actual    entities.BedType
		want      bool
	}{
		{"exact general", entities.BedTypeGeneral, entities.BedTypeGeneral, true},
		{"general upgrades to icu", entities.BedTypeGeneral, entities.BedTypeICU, true},
		{"general upgrades to private", entities.BedTypeGeneral, entities.BedTypePrivate, true},
		{"general cannot use emergency", entities.BedTypeGeneral, entities.BedTypeEmergency, false},
		{"emergency upgrades to icu", entities.BedTypeEmergency, entities.BedTypeICU, true},
		{"emergency upgrades to private", entities.BedTypeEmergency, entities.BedTypePrivate, true},
		{"emergency cannot use general", entities.BedTypeEmergency, entities.BedTypeGeneral, false},
		{"icu upgrades to private", entities.BedTypeICU, entities.BedTypePrivate, true},
		{"icu cannot use general", entities.BedTypeICU, entities.BedTypeGeneral, false},
		{"icu cannot use emergency", entities.BedTypeICU, entities.BedTypeEmergency, false},
		{"private has no upgrades", entities.BedTypePrivate, entities.BedTypeICU, false},
		{"exact private", entities.BedTypePrivate, entities.BedTypePrivate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.IsCompatible(tt.requested, tt.actual))
		})
	}
}

func TestBedMatcher_MatchScore(t *testing.T) {
	matcher := services.NewBedMatcher()
	floor := "2"
	ward := "West"

	req := &entities.BedRequirement{
		BedType:             entities.BedTypeGeneral,
		SpecialRequirements: []string{"oxygen", "telemetry"},
		PreferredFloor:      &floor,
		PreferredWard:       &ward,
	}

	t.Run("exact type with all preferences", func(t *testing.T) {
		bed := &entities.Bed{
			Type:     entities.BedTypeGeneral,
			Floor:    "2",
			Ward:     "West",
			Features: []string{"oxygen", "telemetry"},
		}
		// 50 + 10 + 10 + 2*5
		assert.Equal(t, 80, matcher.MatchScore(req, bed))
	})

	t.Run("upgrade type scores thirty", func(t *testing.T) {
		bed := &entities.Bed{Type: entities.BedTypeICU, Floor: "3", Ward: "East"}
		assert.Equal(t, 30, matcher.MatchScore(req, bed))
	})

	t.Run("incompatible type scores zero regardless of preferences", func(t *testing.T) {
		bed := &entities.Bed{
			Type:     entities.BedTypeEmergency,
			Floor:    "2",
			Ward:     "West",
			Features: []string{"oxygen", "telemetry"},
		}
		assert.Equal(t, 0, matcher.MatchScore(req, bed))
	})

	t.Run("feature match is case insensitive", func(t *testing.T) {
		bed := &entities.Bed{Type: entities.BedTypeGeneral, Features: []string{"Oxygen"}}
		assert.Equal(t, 55, matcher.MatchScore(req, bed))
	})

	t.Run("nil requirement scores zero", func(t *testing.T) {
		bed := &entities.Bed{Type: entities.BedTypeGeneral}
		assert.Equal(t, 0, matcher.MatchScore(nil, bed))
	})
}

func TestBedMatcher_BestMatch(t *testing.T) {
	matcher := services.NewBedMatcher()
	ward := "West"

	req := &entities.BedRequirement{
		BedType:       entities.BedTypeGeneral,
		PreferredWard: &ward,
	}

	t.Run("prefers exact type over upgrade", func(t *testing.T) {
		icu := &entities.Bed{ID: "bed-icu", Type: entities.BedTypeICU, BedIndex: 0}
		general := &entities.Bed{ID: "bed-gen", Type: entities.BedTypeGeneral, BedIndex: 1}

		best := matcher.BestMatch(req, []*entities.Bed{icu, general})
		assert.NotNil(t, best)
		assert.Equal(t, "bed-gen", best.ID)
	})

	t.Run("preferences break type ties", func(t *testing.T) {
		plain := &entities.Bed{ID: "bed-1", Type: entities.BedTypeGeneral, Ward: "East", BedIndex: 0}
		preferred := &entities.Bed{ID: "bed-2", Type: entities.BedTypeGeneral, Ward: "West", BedIndex: 1}

		best := matcher.BestMatch(req, []*entities.Bed{plain, preferred})
		assert.Equal(t, "bed-2", best.ID)
	})

	t.Run("equal scores keep earliest candidate", func(t *testing.T) {
		first := &entities.Bed{ID: "bed-1", Type: entities.BedTypeGeneral, BedIndex: 0}
		second := &entities.Bed{ID: "bed-2", Type: entities.BedTypeGeneral, BedIndex: 1}

		best := matcher.BestMatch(req, []*entities.Bed{first, second})
		assert.Equal(t, "bed-1", best.ID)
	})

	t.Run("no compatible bed returns nil", func(t *testing.T) {
		icuReq := &entities.BedRequirement{BedType: entities.BedTypeICU}
		general := &entities.Bed{ID: "bed-1", Type: entities.BedTypeGeneral}
		emergency := &entities.Bed{ID: "bed-2", Type: entities.BedTypeEmergency}

		assert.Nil(t, matcher.BestMatch(icuReq, []*entities.Bed{general, emergency}))
	})

	t.Run("empty pool returns nil", func(t *testing.T) {
		assert.Nil(t, matcher.BestMatch(req, nil))
	})
}
