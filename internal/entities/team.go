package entities

import (
	"math"

	"arenacore/server/internal/geom"
)

// TeamState is the derived (not independently authoritative) aggregate for
// one team, recomputed each tick by the rule engine's scoring pass
// (spec §3b).
type TeamState struct {
	ID int

	KillScore      int
	ObjectiveScore int
	BonusScore     int

	// KothScore accrues directly (not resummed from player state each tick)
	// one point per second of sole KOTH_ZONE occupancy; it is reset only at
	// round boundaries.
	KothScore float64
	// OddballScore and VIPKillScore are resummed from player state each tick,
	// the same way KillScore/ObjectiveScore are.
	OddballScore float64
	VIPKillScore int

	VIP PlayerID

	LiveMembers int
}

// Total returns the team's aggregate score per the active ScoreStyle; the
// caller (rules package) selects which components to sum. Per spec §4.6,
// OBJECTIVE-style scoring also folds in rounded koth-zone and oddball-carrier
// points plus VIP-kill scores.
func (t TeamState) Total(includeKills, includeObjective bool) int {
	total := t.BonusScore
	if includeKills {
		total += t.KillScore
	}
	if includeObjective {
		total += t.ObjectiveScore
		total += int(math.Round(t.KothScore))
		total += int(math.Round(t.OddballScore))
		total += t.VIPKillScore
	}
	return total
}

// PowerUpKind enumerates the pickups a SUPPLY_DROP event or map seeding can spawn.
type PowerUpKind string

const (
	PowerUpHealth      PowerUpKind = "health"
	PowerUpAmmo        PowerUpKind = "ammo"
	PowerUpDamageBoost PowerUpKind = "damage_boost"
	PowerUpSpeedBoost  PowerUpKind = "speed_boost"
	PowerUpOddball     PowerUpKind = "oddball"
)

// PowerUp is a world pickup (spec §3b).
type PowerUp struct {
	ID       EntityID
	Kind     PowerUpKind
	Position geom.Vec2
	Active   bool

	RespawnDelay float64
	RespawnAt    float64 // match-elapsed seconds at which an inactive pickup reappears
}
