package entities

import (
	"time"

	"arenacore/server/internal/config"
	"arenacore/server/internal/geom"
)

// EventPhase is the state machine position of the single active hazard event
// (spec §4.7).
type EventPhase string

const (
	PhaseScheduled EventPhase = "SCHEDULED"
	PhaseWarning   EventPhase = "WARNING"
	PhaseImpact    EventPhase = "IMPACT"
)

// SubImpact is one staggered impact location within an active event.
type SubImpact struct {
	Location geom.Vec2
	FireAt   time.Time
	Fired    bool
}

// ActiveEvent tracks the single in-flight hazard event; at most one may
// exist per match at any tick (spec §8 invariant 7).
type ActiveEvent struct {
	Kind config.EventKind

	Phase EventPhase

	WarningDeadline time.Time
	ImpactDeadline  time.Time // cooldown end once all sub-impacts have fired

	Targets            []geom.Vec2
	WarningZonesSpawned bool
	WarningZoneIDs      []EntityID

	SubImpacts []SubImpact
}

// AllSubImpactsFired reports whether every staggered sub-impact has fired.
func (e *ActiveEvent) AllSubImpactsFired() bool {
	if e == nil {
		return true
	}
	for _, sub := range e.SubImpacts {
		if !sub.Fired {
			return false
		}
	}
	return true
}
