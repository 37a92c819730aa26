// Package network publishes telemetry for session-level transport anomalies:
// dropped broadcasts and malformed or rate-limited client messages.
package network

import (
	"context"

	"arenacore/server/logging"
)

const (
	// EventBroadcastDropped is emitted when a session's outbound write fails or is skipped.
	EventBroadcastDropped logging.EventType = "network.broadcast_dropped"
	// EventMessageRejected is emitted when an inbound client message is malformed or throttled.
	EventMessageRejected logging.EventType = "network.message_rejected"
)

// BroadcastDroppedPayload captures why a session did not receive a snapshot.
type BroadcastDroppedPayload struct {
	Reason string `json:"reason"`
}

// MessageRejectedPayload captures why an inbound message was discarded.
type MessageRejectedPayload struct {
	Reason string `json:"reason"`
}

// BroadcastDropped publishes a dropped-delivery event.
func BroadcastDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BroadcastDroppedPayload) {
	publish(ctx, pub, EventBroadcastDropped, tick, actor, logging.SeverityDebug, payload)
}

// MessageRejected publishes a rejected-inbound-message event.
func MessageRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MessageRejectedPayload) {
	publish(ctx, pub, EventMessageRejected, tick, actor, logging.SeverityWarn, payload)
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
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
