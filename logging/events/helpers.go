// Package events publishes telemetry for the hazard/event scheduler's
// warning-then-impact state machine.
package events

import (
	"context"

	"arenacore/server/logging"
)

const (
	// EventScheduled is emitted when the next hazard event is chosen and timed.
	EventScheduled logging.EventType = "events.scheduled"
	// EventWarningPhase is emitted when warning zones are spawned.
	EventWarningPhase logging.EventType = "events.warning_phase"
	// EventImpactPhase is emitted when a staggered sub-impact fires.
	EventImpactPhase logging.EventType = "events.impact_phase"
	// EventCompleted is emitted when the active event's cooldown elapses.
	EventCompleted logging.EventType = "events.completed"
)

// ScheduledPayload describes a newly scheduled hazard event.
type ScheduledPayload struct {
	Kind          string `json:"kind"`
	WarningDelay  int64  `json:"warningDelayMs"`
	TargetCount   int    `json:"targetCount"`
}

// WarningPhasePayload captures the warning zone locations.
type WarningPhasePayload struct {
	Kind    string    `json:"kind"`
	Targets [][2]float64 `json:"targets"`
}

// ImpactPhasePayload captures a single staggered sub-impact.
type ImpactPhasePayload struct {
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Index  int     `json:"index"`
	Total  int     `json:"total"`
}

// CompletedPayload marks the end of the active event's lifecycle.
type CompletedPayload struct {
	Kind string `json:"kind"`
}

// Scheduled publishes a hazard-scheduling event.
func Scheduled(ctx context.Context, pub logging.Publisher, tick uint64, payload ScheduledPayload) {
	publish(ctx, pub, EventScheduled, tick, logging.SeverityInfo, payload)
}

// WarningPhase publishes a warning-zone spawn event.
func WarningPhase(ctx context.Context, pub logging.Publisher, tick uint64, payload WarningPhasePayload) {
	publish(ctx, pub, EventWarningPhase, tick, logging.SeverityInfo, payload)
}

// ImpactPhase publishes a single staggered sub-impact event.
func ImpactPhase(ctx context.Context, pub logging.Publisher, tick uint64, payload ImpactPhasePayload) {
	publish(ctx, pub, EventImpactPhase, tick, logging.SeverityInfo, payload)
}

// Completed publishes the hazard-completion event.
func Completed(ctx context.Context, pub logging.Publisher, tick uint64, payload CompletedPayload) {
	publish(ctx, pub, EventCompleted, tick, logging.SeverityDebug, payload)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, tick uint64, sev logging.Severity, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Severity: sev,
		Category: logging.CategoryEvents,
		Payload:  payload,
	})
}
