// Package combat publishes telemetry for weapon fire, damage application,
// and player elimination.
package combat

import (
	"context"

	"arenacore/server/logging"
)

const (
	// EventFired is emitted when a player discharges a weapon or utility.
	EventFired logging.EventType = "combat.fired"
	// EventDamage is emitted when damage is applied to a target.
	EventDamage logging.EventType = "combat.damage"
	// EventEliminated is emitted when a player's health reaches zero.
	EventEliminated logging.EventType = "combat.eliminated"
)

// FiredPayload describes a weapon or utility discharge.
type FiredPayload struct {
	Ordinance string `json:"ordinance"`
	Utility   bool   `json:"utility,omitempty"`
	Count     int    `json:"count,omitempty"`
}

// DamagePayload captures the amount dealt to a single target.
type DamagePayload struct {
	Source       string  `json:"source,omitempty"`
	Amount       float64 `json:"amount"`
	TargetHealth float64 `json:"targetHealth"`
}

// EliminatedPayload describes the context of a player's death.
type EliminatedPayload struct {
	KillerID string `json:"killerId,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Fired publishes a weapon/utility discharge event.
func Fired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FiredPayload) {
	publish(ctx, pub, EventFired, tick, actor, nil, logging.SeverityDebug, payload)
}

// Damage publishes a damage-application event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DamagePayload) {
	publish(ctx, pub, EventDamage, tick, actor, []logging.EntityRef{target}, logging.SeverityInfo, payload)
}

// Eliminated publishes a player elimination event.
func Eliminated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload EliminatedPayload) {
	publish(ctx, pub, EventEliminated, tick, actor, nil, logging.SeverityInfo, payload)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, sev logging.Severity, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: sev,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}
