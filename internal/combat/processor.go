// Package combat implements the InputProcessor: movement intent, reload and
// weapon-swap handling, and the primary/utility fire dispatch tables
// (spec §4.4).
package combat

import (
	"context"
	"math"
	"math/rand"
	"time"

	"arenacore/server/internal/config"
	"arenacore/server/internal/effects"
	"arenacore/server/internal/entities"
	"arenacore/server/internal/geom"
	"arenacore/server/internal/net/proto"
	"arenacore/server/internal/physics"
	"arenacore/server/internal/registry"
	"arenacore/server/logging"
	loggingcombat "arenacore/server/logging/combat"
)

// Processor dispatches per-tick player input against the registry and
// physics world it was constructed with.
type Processor struct {
	registry  *registry.Registry
	world     *physics.World
	publisher logging.Publisher
	rng       *rand.Rand
	cfg       config.MatchConfig
	tick      uint64
}

// New constructs an InputProcessor bound to one match's registry, physics
// world, and configuration. rng drives shotgun spread and is expected to be
// the match's own deterministic generator (spec §9 "global singletons").
func New(reg *registry.Registry, world *physics.World, publisher logging.Publisher, rng *rand.Rand, cfg config.MatchConfig) *Processor {
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	return &Processor{registry: reg, world: world, publisher: publisher, rng: rng, cfg: cfg}
}

// ApplyMovement turns one player's latest input into velocity and facing,
// honoring the effective speed multiplier folded from attached modifications
// and field-effect damping.
func (p *Processor) ApplyMovement(player *entities.Player, input proto.PlayerInput, dt float64) {
	if player == nil || !player.Active {
		return
	}
	if input.AimDir.Length() > 1e-9 {
		player.Rotation = math.Atan2(input.AimDir.Y, input.AimDir.X)
	}

	dir := input.MoveDir.Normalized()
	speed := p.cfg.PlayerSpeed * effects.SpeedMultiplier(player)
	if input.Sprint {
		speed *= 1.35
	}
	player.Velocity = geom.Vec2{X: dir.X * speed, Y: dir.Y * speed}

	if body, ok := p.world.Body(player.ID); ok {
		body.Velocity = player.Velocity
	}

	if input.Reload && player.Ammo < player.Weapon.AmmoCapacity && player.ReloadUntil.IsZero() {
		p.beginReload(player)
	}
}

// Tick advances reload completion for one player; called once per player per
// simulation tick after ApplyMovement.
func (p *Processor) Tick(ctx context.Context, tick uint64, player *entities.Player, now time.Time) {
	p.tick = tick
	if player == nil {
		return
	}
	if !player.ReloadUntil.IsZero() && !now.Before(player.ReloadUntil) {
		player.Ammo = player.Weapon.AmmoCapacity
		player.ReloadUntil = time.Time{}
	}
}

func (p *Processor) beginReload(player *entities.Player) {
	weapon := effects.EffectiveWeapon(player)
	if weapon.ReloadDisabled {
		return
	}
	player.ReloadUntil = time.Now().Add(time.Duration(weapon.ReloadDuration * float64(time.Second)))
}

// canFire reports whether the ball-carrier fire-gating hook (oddball mode)
// blocks this player from firing at all (spec §4.4 "fire gating").
func canFire(player *entities.Player) bool {
	if player.Modifications == nil {
		return true
	}
	return !player.Modifications.Has("ball_carrier")
}

// FirePrimary dispatches primary fire for one player this tick, given the
// gated input flag. It mutates the registry/physics world directly (the
// caller, SimulationLoop, invokes this before PhysicsWorld.step so resulting
// projectiles/beams participate in this tick's collision pass).
func (p *Processor) FirePrimary(ctx context.Context, now time.Time, player *entities.Player, input proto.PlayerInput) {
	if player == nil || !player.Active || !input.LeftFire || !canFire(player) {
		return
	}
	if !player.NextFireAt.IsZero() && now.Before(player.NextFireAt) {
		return
	}
	weapon := effects.EffectiveWeapon(player)
	if player.Ammo <= 0 || !player.ReloadUntil.IsZero() {
		return
	}

	interval := fireInterval(weapon.FireRate)
	player.NextFireAt = now.Add(interval)

	if weapon.Ordinance.IsBeam() {
		p.shootBeam(ctx, player, weapon)
		return
	}
	p.shootProjectiles(ctx, player, weapon)
}

func fireInterval(fireRate float64) time.Duration {
	if fireRate <= 0 {
		return time.Hour
	}
	return time.Duration(float64(time.Second) / fireRate)
}

// shootBeam implements "Player.shootBeam()": clip the beam to the nearest
// obstacle via raycast, register it, and for INSTANT damage kind apply
// damage immediately to the first (or every, if piercing) affected player.
func (p *Processor) shootBeam(ctx context.Context, player *entities.Player, weapon entities.WeaponConfig) {
	dir := geom.Vec2{X: math.Cos(player.Rotation), Y: math.Sin(player.Rotation)}

	const maxRange = 2000.0
	hits := p.world.Raycast(player.Position, dir, maxRange, func(b *physics.Body) bool {
		return b.ID != player.ID
	})

	end := geom.Vec2{X: player.Position.X + dir.X*maxRange, Y: player.Position.Y + dir.Y*maxRange}
	var firstHit *physics.RaycastHit
	for i := range hits {
		if hits[i].Body.Kind == physics.BodyObstacle {
			end = hits[i].Point
			break
		}
	}
	for i := range hits {
		if hits[i].Body.Kind == physics.BodyPlayer {
			firstHit = &hits[i]
			break
		}
	}

	beam := &entities.Beam{
		ID:        p.registry.NextEntityID(),
		Owner:     player.PlayerID,
		OwnerTeam: player.Team,
		Start:     player.Position,
		NominalEnd: geom.Vec2{X: player.Position.X + dir.X*maxRange, Y: player.Position.Y + dir.Y*maxRange},
		EffectiveEnd: end,
		Damage:    weapon.Damage,
		DamageKind: weapon.BeamDamageKind,
		Duration:  weapon.BeamDuration,
		Pierce:    weapon.Pierce,
		Active:    true,
	}
	p.registry.AddBeam(beam)

	if weapon.BeamDamageKind != entities.BeamInstant {
		return
	}

	if weapon.Pierce {
		for i := range hits {
			if hits[i].Body.Kind != physics.BodyPlayer {
				continue
			}
			target, ok := p.registry.Player(hits[i].Body.UserData.(entities.PlayerID))
			if ok {
				p.applyDamage(ctx, player, target, weapon.Damage)
			}
		}
		return
	}
	if firstHit != nil {
		target, ok := p.registry.Player(firstHit.Body.UserData.(entities.PlayerID))
		if ok {
			p.applyDamage(ctx, player, target, weapon.Damage)
		}
	}
}

// beamPulseInterval is the period between BURST beam damage pulses.
const beamPulseInterval = 0.25

// AdvanceBeams runs the per-tick beam lifecycle (spec §3, §4.4/§4.5): every
// beam's Elapsed is advanced, continuous beams (DAMAGE_OVER_TIME/BURST) are
// re-raycast so EffectiveEnd tracks target movement and their damage is
// applied, and beams whose lifetime has elapsed are retired.
func (p *Processor) AdvanceBeams(ctx context.Context, dt float64) {
	for _, beam := range p.registry.Beams() {
		if !beam.Active {
			continue
		}
		prevElapsed := beam.Elapsed
		beam.Elapsed += dt
		if beam.Elapsed >= beam.Duration {
			beam.Active = false
		}
		if beam.DamageKind == entities.BeamInstant {
			continue
		}

		owner, ok := p.registry.Player(beam.Owner)
		if !ok {
			continue
		}
		dir := beam.NominalEnd.Sub(beam.Start)
		maxDist := dir.Length()
		if maxDist < 1e-9 {
			continue
		}
		hits := p.world.Raycast(beam.Start, dir, maxDist, func(b *physics.Body) bool {
			return b.ID != owner.ID
		})

		end := beam.NominalEnd
		var firstHit *physics.RaycastHit
		for i := range hits {
			if hits[i].Body.Kind == physics.BodyObstacle {
				end = hits[i].Point
				break
			}
		}
		for i := range hits {
			if hits[i].Body.Kind == physics.BodyPlayer {
				firstHit = &hits[i]
				break
			}
		}
		beam.EffectiveEnd = end

		switch beam.DamageKind {
		case entities.BeamDamageOverTime:
			p.applyBeamDamage(ctx, owner, firstHit, hits, beam, beam.Damage*dt)
		case entities.BeamBurst:
			if int(prevElapsed/beamPulseInterval) != int(beam.Elapsed/beamPulseInterval) {
				p.applyBeamDamage(ctx, owner, firstHit, hits, beam, beam.Damage)
			}
		}
	}
}

func (p *Processor) applyBeamDamage(ctx context.Context, owner *entities.Player, firstHit *physics.RaycastHit, hits []physics.RaycastHit, beam *entities.Beam, amount float64) {
	if beam.Pierce {
		for i := range hits {
			if hits[i].Body.Kind != physics.BodyPlayer {
				continue
			}
			if target, ok := p.registry.Player(hits[i].Body.UserData.(entities.PlayerID)); ok {
				p.applyDamage(ctx, owner, target, amount)
			}
		}
		return
	}
	if firstHit == nil {
		return
	}
	if target, ok := p.registry.Player(firstHit.Body.UserData.(entities.PlayerID)); ok {
		p.applyDamage(ctx, owner, target, amount)
	}
}

// shootProjectiles implements "Player.shoot()": 0..k projectiles depending
// on SpreadCount (shotgun pellets).
func (p *Processor) shootProjectiles(ctx context.Context, player *entities.Player, weapon entities.WeaponConfig) {
	player.Ammo--
	dir := geom.Vec2{X: math.Cos(player.Rotation), Y: math.Sin(player.Rotation)}

	count := weapon.SpreadCount
	if count < 1 {
		count = 1
	}
	const spreadRadians = 0.12

	for i := 0; i < count; i++ {
		shotDir := dir
		if count > 1 {
			spread := (p.rng.Float64()*2 - 1) * spreadRadians
			angle := math.Atan2(dir.Y, dir.X) + spread
			shotDir = geom.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
		}
		proj := &entities.Projectile{
			ID:        p.registry.NextEntityID(),
			Owner:     player.PlayerID,
			OwnerTeam: player.Team,
			Ordinance: weapon.Ordinance,
			Position:  player.Position,
			Velocity:  geom.Vec2{X: shotDir.X * weapon.ProjectileSpeed, Y: shotDir.Y * weapon.ProjectileSpeed},
			Damage:    weapon.Damage,
			Active:    true,
		}
		if weapon.Ordinance == entities.OrdinanceRocket {
			proj.AoEOnRetire = entities.FieldExplosion
			proj.AoERadius = 60
			proj.AoEDamage = weapon.Damage * 0.6
		}
		p.registry.AddProjectile(proj)
		p.world.AddBody(&physics.Body{
			ID: proj.ID, Kind: physics.BodyProjectile,
			Position: proj.Position, Velocity: proj.Velocity, Radius: 4,
			UserData: proj.ID,
		})
	}

	loggingcombat.Fired(ctx, p.publisher, p.tick, combatActorRef(player), loggingcombat.FiredPayload{
		Ordinance: string(weapon.Ordinance),
		Count:     count,
	})
}

// FireUtility dispatches utility fire for one player this tick, constructing
// a UtilityActivation at position + direction*range and routing it by the
// utility's category (spec §4.4 "utility fire").
func (p *Processor) FireUtility(ctx context.Context, now time.Time, player *entities.Player, input proto.PlayerInput) {
	if player == nil || !player.Active || !input.AltFire || !canFire(player) {
		return
	}
	if !player.NextUtilityAt.IsZero() && now.Before(player.NextUtilityAt) {
		return
	}
	utility := player.Utility
	if utility.Name == "" {
		return
	}
	player.NextUtilityAt = now.Add(time.Duration(utility.Cooldown * float64(time.Second)))

	dir := geom.Vec2{X: math.Cos(player.Rotation), Y: math.Sin(player.Rotation)}
	position := geom.Vec2{X: player.Position.X + dir.X*utility.Range, Y: player.Position.Y + dir.Y*utility.Range}

	switch utility.Category {
	case entities.UtilityFieldEffect:
		p.spawnUtilityField(player, utility, position)
	case entities.UtilityEntity:
		p.spawnUtilityEntity(player, utility, position)
	case entities.UtilityBeam:
		p.shootBeam(ctx, player, entities.WeaponConfig{
			Ordinance: utility.Ordinance, Damage: utility.Damage,
			BeamDuration: utility.Duration, BeamDamageKind: entities.BeamInstant,
		})
	}

	loggingcombat.Fired(ctx, p.publisher, p.tick, combatActorRef(player), loggingcombat.FiredPayload{
		Ordinance: string(utility.Ordinance),
		Utility:   true,
	})
}

func (p *Processor) spawnUtilityField(player *entities.Player, utility entities.UtilityConfig, position geom.Vec2) {
	p.registry.AddFieldEffect(&entities.FieldEffect{
		ID:            p.registry.NextEntityID(),
		Owner:         player.PlayerID,
		Team:          player.Team,
		Kind:          utility.FieldKind,
		Center:        position,
		Radius:        utility.Radius,
		Value:         utility.Damage,
		Duration:      utility.Duration,
		TimeRemaining: utility.Duration,
		Active:        true,
	})
}

// spawnUtilityEntity constructs the concrete entity produced by an
// entity-category utility. Turrets and teleport pads are Obstacles with a
// physics body; a proximity mine is a FieldMine field effect that
// AdvanceMines arms and detonates; a net is a zero-damage projectile whose
// SLOW_FIELD bullet effect attaches SLOW on contact instead of dealing
// damage; any other kind (such as a barrier) is a timed Obstacle without a
// physics body.
func (p *Processor) spawnUtilityEntity(player *entities.Player, utility entities.UtilityConfig, position geom.Vec2) {
	switch utility.Kind {
	case entities.UtilityNet:
		dir := geom.Vec2{X: math.Cos(player.Rotation), Y: math.Sin(player.Rotation)}
		proj := &entities.Projectile{
			ID: p.registry.NextEntityID(), Owner: player.PlayerID, OwnerTeam: player.Team,
			Ordinance: utility.Ordinance, Position: player.Position,
			Velocity:      geom.Vec2{X: dir.X * 600, Y: dir.Y * 600},
			BulletEffects: []entities.FieldEffectKind{entities.FieldSlowField},
			Active:        true,
		}
		p.registry.AddProjectile(proj)
		p.world.AddBody(&physics.Body{ID: proj.ID, Kind: physics.BodyProjectile, Position: proj.Position, Velocity: proj.Velocity, Radius: utility.Radius, UserData: proj.ID})
	case entities.UtilityTeleportPad:
		pad := &entities.Obstacle{
			ID: p.registry.NextEntityID(), Position: position, Shape: entities.ObstacleCircle,
			Radius: utility.Radius, Owner: player.PlayerID, Lifespan: utility.Lifespan, TimeRemaining: utility.Lifespan,
		}
		p.linkTeleportPad(player, pad)
		p.registry.AddObstacle(pad)
		p.world.AddBody(&physics.Body{ID: pad.ID, Kind: physics.BodyObstacle, Position: pad.Position, Radius: pad.Radius, Static: true, UserData: pad.ID})
	case entities.UtilityMine:
		p.registry.AddFieldEffect(&entities.FieldEffect{
			ID: p.registry.NextEntityID(), Owner: player.PlayerID, Team: player.Team,
			Kind: entities.FieldMine, Center: position, Radius: utility.Radius,
			Value: utility.Damage, Duration: utility.Lifespan, TimeRemaining: utility.Lifespan,
			Armed: false, Active: true,
		})
	case entities.UtilityTurret:
		turret := &entities.Obstacle{
			ID: p.registry.NextEntityID(), Position: position, Shape: entities.ObstacleCircle,
			Radius: utility.Radius, Owner: player.PlayerID, Lifespan: utility.Lifespan, TimeRemaining: utility.Lifespan,
			Kind: entities.UtilityTurret, OwnerTeam: player.Team, Damage: utility.Damage, Range: utility.Range,
		}
		p.registry.AddObstacle(turret)
		p.world.AddBody(&physics.Body{ID: turret.ID, Kind: physics.BodyObstacle, Position: turret.Position, Radius: turret.Radius, Static: true, UserData: turret.ID})
	default:
		p.registry.AddObstacle(&entities.Obstacle{
			ID: p.registry.NextEntityID(), Position: position, Shape: entities.ObstacleCircle,
			Radius: utility.Radius, Owner: player.PlayerID, Lifespan: utility.Lifespan, TimeRemaining: utility.Lifespan,
		})
	}
}

// linkTeleportPad records a newly placed pad as the firer's current pad in
// Player.LinkedTeleportPad. No link between two pads is stored: an Obstacle
// carries no partner pad id, and the firer's previous pad is left unchanged.
func (p *Processor) linkTeleportPad(player *entities.Player, pad *entities.Obstacle) {
	if player.LinkedTeleportPad == 0 {
		player.LinkedTeleportPad = pad.ID
		return
	}
	for _, obs := range p.registry.Obstacles() {
		if obs.ID == player.LinkedTeleportPad && obs.Owner == player.PlayerID {
			player.LinkedTeleportPad = pad.ID
			return
		}
	}
	player.LinkedTeleportPad = pad.ID
}

func (p *Processor) applyDamage(ctx context.Context, source, target *entities.Player, amount float64) {
	if target == nil || !target.Active {
		return
	}
	effective := effects.EffectiveDamageTaken(target, amount)
	target.TakeDamage(effective)
	loggingcombat.Damage(ctx, p.publisher, p.tick, combatActorRef(source), combatActorRef(target), loggingcombat.DamagePayload{
		Source:       string(source.PlayerID),
		Amount:       effective,
		TargetHealth: target.Health,
	})
	if !target.Active {
		source.Kills++
		target.Deaths++
		if target.Modifications != nil && target.Modifications.Has("vip") {
			source.VIPKillScore++
		}
		loggingcombat.Eliminated(ctx, p.publisher, p.tick, combatActorRef(target), loggingcombat.EliminatedPayload{
			KillerID: string(source.PlayerID),
			Source:   string(source.Weapon.Name),
		})
	}
}

func combatActorRef(player *entities.Player) logging.EntityRef {
	return logging.EntityRef{ID: string(player.PlayerID), Kind: "player"}
}

// mineArmDelay is how long a placed PROXIMITY_MINE waits before it can
// trigger, so its owner has time to move away from it.
const mineArmDelay = 1.0

// AdvanceMines arms placed mines and detonates them into an instantaneous
// FieldEffect (mirroring a hazard explosion) the first tick an eligible
// player overlaps one.
func (p *Processor) AdvanceMines(ctx context.Context, players []*entities.Player) {
	for _, field := range p.registry.FieldEffects() {
		if field == nil || !field.Active || field.Kind != entities.FieldMine {
			continue
		}
		if !field.Armed {
			if field.Duration-field.TimeRemaining >= mineArmDelay {
				field.Armed = true
			}
			continue
		}
		for _, target := range players {
			if target == nil || !target.Active || target.PlayerID == field.Owner {
				continue
			}
			if field.Team != 0 && target.Team == field.Team {
				continue
			}
			if target.Position.Dist(field.Center) > field.Radius {
				continue
			}
			p.detonateMine(ctx, field, players)
			break
		}
	}
}

func (p *Processor) detonateMine(ctx context.Context, field *entities.FieldEffect, players []*entities.Player) {
	field.Active = false
	owner, hasOwner := p.registry.Player(field.Owner)
	for _, target := range players {
		if target == nil || !target.Active || target.Position.Dist(field.Center) > field.Radius {
			continue
		}
		if hasOwner {
			p.applyDamage(ctx, owner, target, field.Value)
		} else {
			target.TakeDamage(effects.EffectiveDamageTaken(target, field.Value))
		}
	}
	blast := &entities.FieldEffect{
		ID: p.registry.NextEntityID(), Kind: entities.FieldExplosion, Center: field.Center,
		Radius: field.Radius, Active: true, Instantaneous: true,
	}
	p.registry.AddFieldEffect(blast)
	blast.ConsumeInstant()
}

// turretFireInterval is the cooldown between two shots from the same turret.
const turretFireInterval = 600 * time.Millisecond

// AdvanceTurrets fires every placed turret at the nearest eligible target
// within range, once per turretFireInterval.
func (p *Processor) AdvanceTurrets(ctx context.Context, now time.Time, players []*entities.Player) {
	for _, obs := range p.registry.Obstacles() {
		if obs == nil || obs.Kind != entities.UtilityTurret || obs.IsExpired() {
			continue
		}
		if !obs.NextFireAt.IsZero() && now.Before(obs.NextFireAt) {
			continue
		}
		var nearest *entities.Player
		nearestDist := obs.Range
		for _, target := range players {
			if target == nil || !target.Active || target.PlayerID == obs.Owner {
				continue
			}
			if obs.OwnerTeam != 0 && target.Team == obs.OwnerTeam {
				continue
			}
			dist := target.Position.Dist(obs.Position)
			if dist > nearestDist {
				continue
			}
			nearest = target
			nearestDist = dist
		}
		if nearest == nil {
			continue
		}
		obs.NextFireAt = now.Add(turretFireInterval)
		if owner, ok := p.registry.Player(obs.Owner); ok {
			p.applyDamage(ctx, owner, nearest, obs.Damage)
		} else {
			nearest.TakeDamage(effects.EffectiveDamageTaken(nearest, obs.Damage))
		}
	}
}
