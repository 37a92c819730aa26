// Package rules publishes telemetry for the round lifecycle, respawn policy,
// scoring, and victory detection owned by the rule engine.
package rules

import (
	"context"

	"arenacore/server/logging"
)

const (
	// EventRespawnScheduled is emitted when a player's respawn deadline is set.
	EventRespawnScheduled logging.EventType = "rules.respawn_scheduled"
	// EventRespawned is emitted when a player's body is rematerialized.
	EventRespawned logging.EventType = "rules.respawned"
	// EventScoreChanged is emitted whenever a team's aggregate score changes.
	EventScoreChanged logging.EventType = "rules.score_changed"
	// EventSuddenDeath is emitted when a tied TIME_LIMIT match raises the score limit.
	EventSuddenDeath logging.EventType = "rules.sudden_death"
	// EventVIPAssigned is emitted when a team's VIP designation changes.
	EventVIPAssigned logging.EventType = "rules.vip_assigned"
	// EventWeaponRotation is emitted when random weapon rotation reassigns loadouts.
	EventWeaponRotation logging.EventType = "rules.weapon_rotation"
)

// RespawnScheduledPayload describes a newly assigned respawn deadline.
type RespawnScheduledPayload struct {
	Mode       string `json:"mode"`
	DeadlineMS int64  `json:"deadlineMs"`
}

// ScoreChangedPayload captures the updated aggregate for a team.
type ScoreChangedPayload struct {
	Team  int `json:"team"`
	Score int `json:"score"`
}

// SuddenDeathPayload captures the raised score limit.
type SuddenDeathPayload struct {
	NewScoreLimit int `json:"newScoreLimit"`
}

// VIPAssignedPayload identifies the newly designated VIP.
type VIPAssignedPayload struct {
	Team int `json:"team"`
}

// WeaponRotationPayload describes the newly issued loadout.
type WeaponRotationPayload struct {
	Weapon  string `json:"weapon"`
	Utility string `json:"utility"`
}

// RespawnScheduled publishes a respawn-deadline event.
func RespawnScheduled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RespawnScheduledPayload) {
	publish(ctx, pub, EventRespawnScheduled, tick, actor, logging.SeverityDebug, payload)
}

// Respawned publishes a respawn-completed event.
func Respawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	publish(ctx, pub, EventRespawned, tick, actor, logging.SeverityInfo, nil)
}

// ScoreChanged publishes a score update event.
func ScoreChanged(ctx context.Context, pub logging.Publisher, tick uint64, payload ScoreChangedPayload) {
	publish(ctx, pub, EventScoreChanged, tick, logging.EntityRef{}, logging.SeverityInfo, payload)
}

// SuddenDeath publishes the sudden-death tiebreaker event.
func SuddenDeath(ctx context.Context, pub logging.Publisher, tick uint64, payload SuddenDeathPayload) {
	publish(ctx, pub, EventSuddenDeath, tick, logging.EntityRef{}, logging.SeverityInfo, payload)
}

// VIPAssigned publishes a VIP reassignment event.
func VIPAssigned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload VIPAssignedPayload) {
	publish(ctx, pub, EventVIPAssigned, tick, actor, logging.SeverityInfo, payload)
}

// WeaponRotation publishes a random weapon rotation event.
func WeaponRotation(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload WeaponRotationPayload) {
	publish(ctx, pub, EventWeaponRotation, tick, actor, logging.SeverityDebug, payload)
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
		Category: logging.CategoryRules,
		Payload:  payload,
	})
}
