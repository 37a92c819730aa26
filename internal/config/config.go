// Package config defines the immutable-for-a-match configuration described
// in spec §6, along with the normalization rules from §7 (invalid config
// values are clamped to the nearest sensible default, never rejected).
package config

import "time"

// RespawnMode selects the respawn policy described in spec §4.6.
type RespawnMode string

const (
	RespawnInstant   RespawnMode = "INSTANT"
	RespawnWave      RespawnMode = "WAVE"
	RespawnNextRound RespawnMode = "NEXT_ROUND"
	RespawnElim      RespawnMode = "ELIMINATION"
	RespawnLimited   RespawnMode = "LIMITED"
)

// VictoryCondition selects the win condition evaluated every tick.
type VictoryCondition string

const (
	VictoryScoreLimit VictoryCondition = "SCORE_LIMIT"
	VictoryTimeLimit  VictoryCondition = "TIME_LIMIT"
	VictoryElim       VictoryCondition = "ELIMINATION"
	VictoryObjective  VictoryCondition = "OBJECTIVE"
	VictoryEndless    VictoryCondition = "ENDLESS"
)

// ScoreStyle selects how team score is aggregated.
type ScoreStyle string

const (
	ScoreTotalKills ScoreStyle = "TOTAL_KILLS"
	ScoreObjective  ScoreStyle = "OBJECTIVE"
	ScoreTotal      ScoreStyle = "TOTAL"
)

// ObstacleDensity selects the terrain generation profile.
type ObstacleDensity string

const (
	ObstacleSparse ObstacleDensity = "SPARSE"
	ObstacleDense  ObstacleDensity = "DENSE"
	ObstacleChoked ObstacleDensity = "CHOKED"
	ObstacleRandom ObstacleDensity = "RANDOM"
)

// EventKind enumerates the hazard kinds the event scheduler may spawn.
type EventKind string

const (
	EventMeteorShower    EventKind = "METEOR_SHOWER"
	EventSupplyDrop      EventKind = "SUPPLY_DROP"
	EventVolcanicErupt   EventKind = "VOLCANIC_ERUPTION"
	EventEarthquake      EventKind = "EARTHQUAKE"
	EventIonStorm        EventKind = "ION_STORM"
	EventBlizzard        EventKind = "BLIZZARD"
)

// AllEventKinds lists every hazard kind, used when no explicit subset is configured.
var AllEventKinds = []EventKind{
	EventMeteorShower, EventSupplyDrop, EventVolcanicErupt,
	EventEarthquake, EventIonStorm, EventBlizzard,
}

// MatchConfig is the full set of options recognized per spec §6. It is
// immutable for the lifetime of a match; Normalize returns a corrected copy,
// it never mutates the receiver.
type MatchConfig struct {
	MaxPlayers int
	TeamCount  int

	WorldWidth  float64
	WorldHeight float64

	PlayerMaxHealth float64
	PlayerSpeed     float64
	PlayerSize      float64

	RespawnMode         RespawnMode
	RespawnDelay        time.Duration
	WaveRespawnInterval time.Duration
	RoundDuration       time.Duration
	RestDuration        time.Duration

	VictoryCondition VictoryCondition
	ScoreLimit       int
	TimeLimit        time.Duration
	SuddenDeath      bool
	MaxLives         int

	ScoreStyle ScoreStyle

	EnableRandomEvents          bool
	RandomEventInterval         time.Duration
	RandomEventIntervalVariance float64
	EventDensity                map[EventKind]float64
	EnabledEventKinds           []EventKind
	EventWarningDuration        time.Duration

	ObstacleDensity ObstacleDensity

	HasOddball           bool
	HasKoth              bool
	HasVIP               bool
	HasRandomWeapons     bool
	RandomWeaponInterval time.Duration

	AICheckInterval     time.Duration
	LockGameAfter       time.Duration

	// Hazard tuning, referenced by the §4.7 impact table.
	MeteorRadius     float64
	MeteorDamage     float64
	EruptionRadius   float64
	EruptionDamage   float64
	EarthquakeDamage float64
	IonStormDamage   float64

	Seed string
}

// Default returns the baseline configuration before any overrides are applied.
func Default() MatchConfig {
	return MatchConfig{
		MaxPlayers:      16,
		TeamCount:       0,
		WorldWidth:      2000,
		WorldHeight:     2000,
		PlayerMaxHealth: 100,
		PlayerSpeed:     220,
		PlayerSize:      16,

		RespawnMode:         RespawnInstant,
		RespawnDelay:        3 * time.Second,
		WaveRespawnInterval: 8 * time.Second,
		RoundDuration:       5 * time.Minute,
		RestDuration:        10 * time.Second,

		VictoryCondition: VictoryScoreLimit,
		ScoreLimit:       25,
		TimeLimit:        10 * time.Minute,
		SuddenDeath:      true,
		MaxLives:         3,

		ScoreStyle: ScoreTotalKills,

		EnableRandomEvents:          false,
		RandomEventInterval:         60 * time.Second,
		RandomEventIntervalVariance: 0.3,
		EventWarningDuration:        3 * time.Second,
		EnabledEventKinds:           AllEventKinds,

		ObstacleDensity: ObstacleSparse,

		HasOddball:           false,
		HasKoth:              false,
		HasVIP:               false,
		HasRandomWeapons:     false,
		RandomWeaponInterval: 45 * time.Second,

		AICheckInterval: 2 * time.Second,
		LockGameAfter:   0,

		MeteorRadius:     60,
		MeteorDamage:     35,
		EruptionRadius:   70,
		EruptionDamage:   25,
		EarthquakeDamage: 20,
		IonStormDamage:   15,

		Seed: "arena",
	}
}

// Normalize clamps every option to a sensible range per spec §7. It never
// rejects a config; invalid values are normalized to the nearest default.
func (c MatchConfig) Normalize() MatchConfig {
	out := c
	def := Default()

	if out.MaxPlayers <= 0 {
		out.MaxPlayers = def.MaxPlayers
	}
	switch {
	case out.TeamCount < 0:
		out.TeamCount = 0
	case out.TeamCount == 1:
		out.TeamCount = 2
	case out.TeamCount > 4:
		out.TeamCount = 4
	}
	if out.WorldWidth <= 0 {
		out.WorldWidth = def.WorldWidth
	}
	if out.WorldHeight <= 0 {
		out.WorldHeight = def.WorldHeight
	}
	if out.PlayerMaxHealth <= 0 {
		out.PlayerMaxHealth = def.PlayerMaxHealth
	}
	if out.PlayerSpeed <= 0 {
		out.PlayerSpeed = def.PlayerSpeed
	}
	if out.PlayerSize <= 0 {
		out.PlayerSize = def.PlayerSize
	}

	switch out.RespawnMode {
	case RespawnInstant, RespawnWave, RespawnNextRound, RespawnElim, RespawnLimited:
	default:
		out.RespawnMode = def.RespawnMode
	}
	if out.RespawnDelay <= 0 {
		out.RespawnDelay = def.RespawnDelay
	}
	if out.WaveRespawnInterval <= 0 {
		out.WaveRespawnInterval = def.WaveRespawnInterval
	}
	if out.RoundDuration <= 0 {
		out.RoundDuration = def.RoundDuration
	}
	if out.RestDuration <= 0 {
		out.RestDuration = def.RestDuration
	}

	switch out.VictoryCondition {
	case VictoryScoreLimit, VictoryTimeLimit, VictoryElim, VictoryObjective, VictoryEndless:
	default:
		out.VictoryCondition = def.VictoryCondition
	}
	if out.ScoreLimit <= 0 {
		out.ScoreLimit = def.ScoreLimit
	}
	if out.TimeLimit <= 0 {
		out.TimeLimit = def.TimeLimit
	}
	if out.MaxLives <= 0 {
		out.MaxLives = def.MaxLives
	}

	switch out.ScoreStyle {
	case ScoreTotalKills, ScoreObjective, ScoreTotal:
	default:
		out.ScoreStyle = def.ScoreStyle
	}

	if out.RandomEventInterval <= 30*time.Second {
		out.RandomEventInterval = 30 * time.Second
	}
	if out.RandomEventIntervalVariance < 0 || out.RandomEventIntervalVariance > 1 {
		out.RandomEventIntervalVariance = def.RandomEventIntervalVariance
	}
	if out.EventWarningDuration <= 0 {
		out.EventWarningDuration = def.EventWarningDuration
	}
	if len(out.EnabledEventKinds) == 0 {
		out.EnabledEventKinds = AllEventKinds
	}

	switch out.ObstacleDensity {
	case ObstacleSparse, ObstacleDense, ObstacleChoked, ObstacleRandom:
	default:
		out.ObstacleDensity = def.ObstacleDensity
	}

	if out.RandomWeaponInterval <= 0 {
		out.RandomWeaponInterval = def.RandomWeaponInterval
	}
	if out.AICheckInterval <= 0 {
		out.AICheckInterval = def.AICheckInterval
	}

	if out.MeteorRadius <= 0 {
		out.MeteorRadius = def.MeteorRadius
	}
	if out.MeteorDamage <= 0 {
		out.MeteorDamage = def.MeteorDamage
	}
	if out.EruptionRadius <= 0 {
		out.EruptionRadius = def.EruptionRadius
	}
	if out.EruptionDamage <= 0 {
		out.EruptionDamage = def.EruptionDamage
	}
	if out.EarthquakeDamage <= 0 {
		out.EarthquakeDamage = def.EarthquakeDamage
	}
	if out.IonStormDamage <= 0 {
		out.IonStormDamage = def.IonStormDamage
	}

	if out.Seed == "" {
		out.Seed = def.Seed
	}

	return out
}
