package entities

// OrdinanceKind enumerates the munition a weapon or utility fires.
type OrdinanceKind string

const (
	OrdinanceBullet    OrdinanceKind = "bullet"
	OrdinanceShotgun   OrdinanceKind = "shotgun"
	OrdinanceRocket    OrdinanceKind = "rocket"
	OrdinancePlasma    OrdinanceKind = "plasma"
	OrdinanceBeamLaser OrdinanceKind = "beam_laser"
	OrdinanceBeamRail  OrdinanceKind = "beam_rail"
)

// IsBeam reports whether the ordinance is beam-type (spec §4.4 primary fire dispatch).
func (k OrdinanceKind) IsBeam() bool {
	return k == OrdinanceBeamLaser || k == OrdinanceBeamRail
}

// BeamDamageKind selects how a beam applies its damage over its lifetime.
type BeamDamageKind string

const (
	BeamInstant        BeamDamageKind = "INSTANT"
	BeamDamageOverTime BeamDamageKind = "DAMAGE_OVER_TIME"
	BeamBurst          BeamDamageKind = "BURST"
)

// WeaponConfig is the immutable-per-equip descriptor for a primary weapon.
type WeaponConfig struct {
	Name            string
	Ordinance       OrdinanceKind
	Damage          float64
	FireRate        float64 // shots per second
	AmmoCapacity    int
	SpreadCount     int // shotgun-style pellets; 1 for single-projectile weapons
	ProjectileSpeed float64
	BeamDuration    float64
	BeamDamageKind  BeamDamageKind
	Pierce          bool
	ReloadDuration  float64 // seconds to refill AmmoCapacity once empty

	// ReloadDisabled is set on the effective (folded) weapon by the
	// AMMO_FREEZE modification; it never appears on a catalog entry.
	ReloadDisabled bool
}

// UtilityCategory selects how a utility activation is dispatched (spec §4.4).
type UtilityCategory string

const (
	UtilityFieldEffect UtilityCategory = "field_effect"
	UtilityEntity      UtilityCategory = "entity"
	UtilityBeam        UtilityCategory = "beam"
)

// UtilityKind names the concrete entity/ability produced by an entity-category utility.
type UtilityKind string

const (
	UtilityTurret      UtilityKind = "turret"
	UtilityBarrier     UtilityKind = "barrier"
	UtilityNet         UtilityKind = "net"
	UtilityMine        UtilityKind = "mine"
	UtilityTeleportPad UtilityKind = "teleport_pad"
	UtilityGrenade     UtilityKind = "grenade"
)

// UtilityConfig is the immutable-per-equip descriptor for a utility slot.
type UtilityConfig struct {
	Name      string
	Category  UtilityCategory
	Kind      UtilityKind
	Ordinance OrdinanceKind
	FieldKind FieldEffectKind
	Range     float64
	Radius    float64
	Duration  float64
	Damage    float64
	Lifespan  float64
	Cooldown  float64 // seconds between activations
}

// DefaultWeaponCatalog is the built-in set of primary weapons a loadout may select.
var DefaultWeaponCatalog = map[string]WeaponConfig{
	"pistol": {
		Name: "pistol", Ordinance: OrdinanceBullet, Damage: 12, FireRate: 4,
		AmmoCapacity: 18, SpreadCount: 1, ProjectileSpeed: 900, ReloadDuration: 1.4,
	},
	"shotgun": {
		Name: "shotgun", Ordinance: OrdinanceShotgun, Damage: 8, FireRate: 1.2,
		AmmoCapacity: 8, SpreadCount: 6, ProjectileSpeed: 700, ReloadDuration: 2.0,
	},
	"rocket_launcher": {
		Name: "rocket_launcher", Ordinance: OrdinanceRocket, Damage: 60, FireRate: 0.8,
		AmmoCapacity: 4, SpreadCount: 1, ProjectileSpeed: 450, ReloadDuration: 2.5,
	},
	"beam_rifle": {
		Name: "beam_rifle", Ordinance: OrdinanceBeamLaser, Damage: 40, FireRate: 1,
		AmmoCapacity: 6, SpreadCount: 1, BeamDuration: 0.15, BeamDamageKind: BeamInstant, ReloadDuration: 1.8,
	},
	"rail_beam": {
		Name: "rail_beam", Ordinance: OrdinanceBeamRail, Damage: 90, FireRate: 0.5,
		AmmoCapacity: 3, SpreadCount: 1, BeamDuration: 0.2, BeamDamageKind: BeamInstant, Pierce: true, ReloadDuration: 2.2,
	},
}

// DefaultUtilityCatalog is the built-in set of utility slots a loadout may select.
var DefaultUtilityCatalog = map[string]UtilityConfig{
	"grenade": {
		Name: "grenade", Category: UtilityEntity, Kind: UtilityGrenade,
		Ordinance: OrdinanceRocket, Range: 400, Radius: 50, Damage: 45, Cooldown: 4,
	},
	"heal_field": {
		Name: "heal_field", Category: UtilityFieldEffect, FieldKind: FieldHealZone,
		Range: 150, Radius: 60, Duration: 5, Damage: 20, Cooldown: 8,
	},
	"slow_field": {
		Name: "slow_field", Category: UtilityFieldEffect, FieldKind: FieldSlowField,
		Range: 150, Radius: 70, Duration: 6, Cooldown: 8,
	},
	"turret": {
		Name: "turret", Category: UtilityEntity, Kind: UtilityTurret,
		Range: 120, Radius: 20, Damage: 15, Lifespan: 20, Cooldown: 15,
	},
	"barrier": {
		Name: "barrier", Category: UtilityEntity, Kind: UtilityBarrier,
		Range: 80, Radius: 24, Lifespan: 15, Cooldown: 10,
	},
	"proximity_mine": {
		Name: "proximity_mine", Category: UtilityEntity, Kind: UtilityMine,
		Range: 60, Radius: 40, Damage: 55, Lifespan: 45, Cooldown: 6,
	},
	"net_launcher": {
		Name: "net_launcher", Category: UtilityEntity, Kind: UtilityNet,
		Range: 500, Radius: 12, Cooldown: 5,
	},
	"teleport_pad": {
		Name: "teleport_pad", Category: UtilityEntity, Kind: UtilityTeleportPad,
		Range: 100, Radius: 24, Lifespan: 60, Cooldown: 20,
	},
}
