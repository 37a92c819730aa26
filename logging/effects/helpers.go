// Package effects publishes telemetry for field-effect and status-effect
// (attribute modification) application and reversion.
package effects

import (
	"context"

	"arenacore/server/logging"
)

const (
	// EventFieldSpawned is emitted when a field effect enters the world.
	EventFieldSpawned logging.EventType = "effects.field_spawned"
	// EventFieldExpired is emitted when a field effect is retired.
	EventFieldExpired logging.EventType = "effects.field_expired"
	// EventModificationAttached is emitted when an attribute modification attaches to a player.
	EventModificationAttached logging.EventType = "effects.modification_attached"
	// EventModificationReverted is emitted when an attribute modification is removed (expiry or replacement).
	EventModificationReverted logging.EventType = "effects.modification_reverted"
)

// FieldSpawnedPayload describes a newly created field effect.
type FieldSpawnedPayload struct {
	Kind     string  `json:"kind"`
	Radius   float64 `json:"radius"`
	Duration float64 `json:"duration,omitempty"`
}

// FieldExpiredPayload identifies a retired field effect.
type FieldExpiredPayload struct {
	Kind string `json:"kind"`
}

// ModificationPayload describes an attribute modification attach/revert.
type ModificationPayload struct {
	Key    string `json:"key"`
	Reason string `json:"reason,omitempty"`
}

// FieldSpawned publishes a field-effect spawn event.
func FieldSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FieldSpawnedPayload) {
	publish(ctx, pub, EventFieldSpawned, tick, actor, logging.SeverityDebug, payload)
}

// FieldExpired publishes a field-effect retirement event.
func FieldExpired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FieldExpiredPayload) {
	publish(ctx, pub, EventFieldExpired, tick, actor, logging.SeverityDebug, payload)
}

// ModificationAttached publishes an attribute-modification attach event.
func ModificationAttached(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload ModificationPayload) {
	publish(ctx, pub, EventModificationAttached, tick, target, logging.SeverityDebug, payload)
}

// ModificationReverted publishes an attribute-modification revert event.
func ModificationReverted(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload ModificationPayload) {
	publish(ctx, pub, EventModificationReverted, tick, target, logging.SeverityDebug, payload)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, tick uint64, actor logging.EntityRef, sev logging.Severity, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    actor,
		Severity: sev,
		Category: logging.CategoryEffects,
		Payload:  payload,
	})
}
