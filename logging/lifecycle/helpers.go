// Package lifecycle publishes telemetry for match and round lifecycle
// transitions: joins, disconnects, round starts/ends, and victory.
package lifecycle

import (
	"context"

	"arenacore/server/logging"
)

const (
	// EventPlayerJoined is emitted when a player joins the match.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerDisconnected is emitted when a player leaves the match.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
	// EventRoundStarted is emitted when a new round begins.
	EventRoundStarted logging.EventType = "lifecycle.round_started"
	// EventRoundEnded is emitted when the current round ends.
	EventRoundEnded logging.EventType = "lifecycle.round_ended"
	// EventMatchOver is emitted once victory is declared.
	EventMatchOver logging.EventType = "lifecycle.match_over"
)

// PlayerJoinedPayload captures spawn metadata for a new player.
type PlayerJoinedPayload struct {
	Team   int     `json:"team"`
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// PlayerDisconnectedPayload captures the reason a player left.
type PlayerDisconnectedPayload struct {
	Reason string `json:"reason"`
}

// RoundStartedPayload captures the round counter for the new round.
type RoundStartedPayload struct {
	Round int `json:"round"`
}

// RoundEndedPayload captures per-team scores snapshotted at round end.
type RoundEndedPayload struct {
	Round       int            `json:"round"`
	TeamScores  map[int]int    `json:"teamScores,omitempty"`
	PlayerKills map[string]int `json:"playerKills,omitempty"`
}

// MatchOverPayload describes the victory outcome.
type MatchOverPayload struct {
	WinningTeam   int    `json:"winningTeam,omitempty"`
	WinningPlayer string `json:"winningPlayer,omitempty"`
	Reason        string `json:"reason"`
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerJoinedPayload) {
	publish(ctx, pub, EventPlayerJoined, tick, actor, logging.SeverityInfo, payload)
}

// PlayerDisconnected publishes a player disconnect event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerDisconnectedPayload) {
	publish(ctx, pub, EventPlayerDisconnected, tick, actor, logging.SeverityInfo, payload)
}

// RoundStarted publishes a round-start event.
func RoundStarted(ctx context.Context, pub logging.Publisher, tick uint64, payload RoundStartedPayload) {
	publish(ctx, pub, EventRoundStarted, tick, logging.EntityRef{}, logging.SeverityInfo, payload)
}

// RoundEnded publishes a round-end event.
func RoundEnded(ctx context.Context, pub logging.Publisher, tick uint64, payload RoundEndedPayload) {
	publish(ctx, pub, EventRoundEnded, tick, logging.EntityRef{}, logging.SeverityInfo, payload)
}

// MatchOver publishes the terminal victory event.
func MatchOver(ctx context.Context, pub logging.Publisher, tick uint64, payload MatchOverPayload) {
	publish(ctx, pub, EventMatchOver, tick, logging.EntityRef{}, logging.SeverityInfo, payload)
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
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}
