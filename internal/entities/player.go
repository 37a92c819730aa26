package entities

import (
	"time"

	"arenacore/server/internal/geom"
)

// Player is the authoritative state for one session's controlled body
// (spec §3 table). PlayerID survives death/respawn; ID is the live body's
// EntityID and is reminted each time the body is (re)materialized.
type Player struct {
	ID       EntityID
	PlayerID PlayerID
	Name     string
	Team     int // 0 = FFA, 1..N = team; immutable once assigned

	Position geom.Vec2
	Velocity geom.Vec2
	Rotation float64

	Health    float64
	MaxHealth float64

	Ammo         int
	ReloadUntil  time.Time
	NextFireAt   time.Time
	NextUtilityAt time.Time
	Weapon       WeaponConfig
	Utility      UtilityConfig
	UtilityAmmo  int

	Kills    int
	Deaths   int
	Captures int

	// OddballPoints and VIPKillScore are resummed into TeamState each tick
	// the same way Kills/Captures are (spec §3c, §4.6).
	OddballPoints float64
	VIPKillScore  int

	Lives       int
	Eliminated  bool
	EliminatedAt time.Time
	Placement   int

	Active         bool
	RespawnDeadline time.Time

	Modifications *ModificationSet

	// DampingOverride is non-zero while a field-effect-applied slow
	// (SLOW / ELECTRIC / FREEZE / SLOW_FIELD) is in effect;
	// effects.SpeedMultiplier multiplies the player's movement speed by this
	// value. The physics integrator does not read it.
	DampingOverride float64

	LinkedTeleportPad EntityID // 0 = unlinked

	LastInputAt time.Time
}

// NewPlayer constructs a fresh player body for join or respawn.
func NewPlayer(id EntityID, playerID PlayerID, team int, pos geom.Vec2, maxHealth float64) *Player {
	return &Player{
		ID:            id,
		PlayerID:      playerID,
		Team:          team,
		Position:      pos,
		Health:        maxHealth,
		MaxHealth:     maxHealth,
		Active:        true,
		Modifications: NewModificationSet(),
	}
}

// ResetDamping restores the default linear damping (spec §4.5 step 3: a
// player that leaves every SLOW_FIELD this frame reverts to default damping).
func (p *Player) ResetDamping() {
	if p == nil {
		return
	}
	p.DampingOverride = 0
}

// TakeDamage reduces health by amount (already passed through
// EffectiveDamageTaken by the caller) and marks the player inactive at zero
// health, maintaining the invariant health > 0 <=> active = true.
func (p *Player) TakeDamage(amount float64) {
	if p == nil || amount <= 0 || !p.Active {
		return
	}
	p.Health -= amount
	if p.Health <= 0 {
		p.Health = 0
		p.Active = false
	}
}

// Heal increases health, clamped to MaxHealth.
func (p *Player) Heal(amount float64) {
	if p == nil || amount <= 0 {
		return
	}
	p.Health += amount
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// HasLivesRemaining reports whether the player may still respawn under
// LIMITED stock-life rules. Non-LIMITED modes always report true.
func (p *Player) HasLivesRemaining(limited bool) bool {
	if !limited {
		return true
	}
	return p.Lives > 0
}
