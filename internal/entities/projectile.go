package entities

import (
	"time"

	"arenacore/server/internal/geom"
)

// Projectile is a physics-driven munition (spec §3 table).
type Projectile struct {
	ID        EntityID
	Owner     PlayerID
	OwnerTeam int

	Ordinance OrdinanceKind
	Position  geom.Vec2
	Velocity  geom.Vec2
	Damage    float64

	// BulletEffects names FieldEffectKind-compatible tags applied to a hit
	// target alongside raw damage (e.g. an incendiary round attaching BURNING).
	BulletEffects []FieldEffectKind

	Active   bool
	Exploded bool

	// AoEOnRetire, when non-empty, schedules a FieldEffect of this kind at
	// the projectile's last position once it retires (rocket splash damage).
	AoEOnRetire    FieldEffectKind
	AoERadius      float64
	AoEDamage      float64
}

// Beam is a ray-delivered weapon effect (spec §3 table).
type Beam struct {
	ID        EntityID
	Owner     PlayerID
	OwnerTeam int

	Start        geom.Vec2
	NominalEnd   geom.Vec2
	EffectiveEnd geom.Vec2

	Damage     float64
	DamageKind BeamDamageKind
	Duration   float64
	Elapsed    float64
	Pierce     bool

	Active bool
}

// Obstacle is static terrain or a player-placed barrier (spec §3 table).
type ObstacleShape string

const (
	ObstacleCircle ObstacleShape = "circle"
	ObstacleRect   ObstacleShape = "rect"
)

type Obstacle struct {
	ID EntityID

	Position geom.Vec2
	Shape    ObstacleShape
	Radius   float64

	Static bool
	Owner  PlayerID // non-empty for player-placed barriers

	Lifespan      float64
	TimeRemaining float64

	// Kind, OwnerTeam, Damage, Range, and NextFireAt are only meaningful when
	// Kind == UtilityTurret: a turret is otherwise a plain static Obstacle
	// that the combat processor also drives as an autonomous shooter.
	Kind       UtilityKind
	OwnerTeam  int
	Damage     float64
	Range      float64
	NextFireAt time.Time
}

// IsExpired reports whether a placed (non-static) obstacle should be removed.
func (o *Obstacle) IsExpired() bool {
	if o == nil || o.Static {
		return false
	}
	return o.TimeRemaining <= 0
}
