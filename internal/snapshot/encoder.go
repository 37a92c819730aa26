// Package snapshot implements the SnapshotEncoder: a pure function of the
// registry and rule engine into the wire-level per-tick projection (spec
// §4.8). It never mutates match state and never touches the network.
package snapshot

import (
	"time"

	"arenacore/server/internal/config"
	"arenacore/server/internal/entities"
	"arenacore/server/internal/events"
	"arenacore/server/internal/net/proto"
	"arenacore/server/internal/registry"
	"arenacore/server/internal/rules"
)

// Encoder produces proto.Snapshot values from live match state.
type Encoder struct {
	reg       *registry.Registry
	ruleEngine *rules.Engine
	scheduler *events.Scheduler
	cfg       config.MatchConfig
}

// New constructs an encoder bound to one match's collaborators.
func New(reg *registry.Registry, ruleEngine *rules.Engine, scheduler *events.Scheduler, cfg config.MatchConfig) *Encoder {
	return &Encoder{reg: reg, ruleEngine: ruleEngine, scheduler: scheduler, cfg: cfg}
}

// Encode builds the full snapshot for one tick. matchStart anchors MatchTime.
func (e *Encoder) Encode(tick uint64, matchStart, now time.Time) proto.Snapshot {
	snap := proto.Snapshot{
		Tick:      tick,
		MatchTime: now.Sub(matchStart).Seconds(),
	}

	for _, p := range e.reg.Players() {
		snap.Players = append(snap.Players, e.encodePlayer(p, now))
	}
	for _, pr := range e.reg.Projectiles() {
		snap.Projectiles = append(snap.Projectiles, encodeProjectile(pr))
	}
	for _, b := range e.reg.Beams() {
		snap.Beams = append(snap.Beams, encodeBeam(b))
	}
	for _, f := range e.reg.FieldEffects() {
		snap.Fields = append(snap.Fields, encodeField(f))
	}
	for _, pu := range e.reg.PowerUps() {
		snap.PowerUps = append(snap.PowerUps, encodePowerUp(pu))
	}
	if active := e.scheduler.Active(); active != nil {
		snap.ActiveEvent = encodeActiveEvent(active, now)
	}
	if e.cfg.TeamCount > 0 {
		for _, id := range e.ruleEngine.TeamIDs() {
			if id == 0 {
				continue
			}
			snap.TeamScores = append(snap.TeamScores, proto.TeamScoreSnapshot{
				Team:  id,
				Score: e.ruleEngine.TeamScore(id),
			})
		}
	}
	return snap
}

func (e *Encoder) encodePlayer(p *entities.Player, now time.Time) proto.PlayerSnapshot {
	var respawnTime float64
	if !p.Active && !p.RespawnDeadline.IsZero() {
		if remaining := p.RespawnDeadline.Sub(now).Seconds(); remaining > 0 {
			respawnTime = remaining
		}
	}
	return proto.PlayerSnapshot{
		PlayerID:    string(p.PlayerID),
		Name:        p.Name,
		Team:        p.Team,
		Position:    p.Position,
		Rotation:    p.Rotation,
		Health:      p.Health,
		MaxHealth:   p.MaxHealth,
		Weapon:      p.Weapon.Name,
		Ammo:        p.Ammo,
		RespawnTime: respawnTime,
		Kills:       p.Kills,
		Deaths:      p.Deaths,
		Active:      p.Active,
	}
}

func encodeProjectile(p *entities.Projectile) proto.ProjectileSnapshot {
	effects := make([]string, 0, len(p.BulletEffects))
	for _, kind := range p.BulletEffects {
		effects = append(effects, string(kind))
	}
	return proto.ProjectileSnapshot{
		ID:        uint64(p.ID),
		Position:  p.Position,
		Velocity:  p.Velocity,
		Owner:     string(p.Owner),
		Ordinance: string(p.Ordinance),
		Effects:   effects,
	}
}

func encodeBeam(b *entities.Beam) proto.BeamSnapshot {
	return proto.BeamSnapshot{
		ID:           uint64(b.ID),
		Start:        b.Start,
		EffectiveEnd: b.EffectiveEnd,
		Owner:        string(b.Owner),
		DamageKind:   string(b.DamageKind),
		Pierce:       b.Pierce,
	}
}

func encodeField(f *entities.FieldEffect) proto.FieldEffectSnapshot {
	var progress float64
	if f.Duration > 0 {
		progress = 1 - f.TimeRemaining/f.Duration
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
	}
	return proto.FieldEffectSnapshot{
		ID:            uint64(f.ID),
		Kind:          string(f.Kind),
		Position:      f.Center,
		Radius:        f.Radius,
		TimeRemaining: f.TimeRemaining,
		Progress:      progress,
		OwnerTeam:     f.Team,
	}
}

func encodePowerUp(p *entities.PowerUp) proto.PowerUpSnapshot {
	return proto.PowerUpSnapshot{
		ID:       uint64(p.ID),
		Kind:     string(p.Kind),
		Position: p.Position,
		Active:   p.Active,
	}
}

func encodeActiveEvent(active *entities.ActiveEvent, now time.Time) *proto.ActiveEventSnapshot {
	var remaining float64
	switch active.Phase {
	case entities.PhaseWarning:
		remaining = active.WarningDeadline.Sub(now).Seconds()
	case entities.PhaseImpact:
		remaining = active.ImpactDeadline.Sub(now).Seconds()
	}
	if remaining < 0 {
		remaining = 0
	}
	return &proto.ActiveEventSnapshot{
		Kind:          string(active.Kind),
		Phase:         string(active.Phase),
		TimeRemaining: remaining,
	}
}
