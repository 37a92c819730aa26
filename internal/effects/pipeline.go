// Package effects implements the EffectPipeline: the per-tick application
// of active field effects to players and the tagged-variant dispatch of
// attribute modifications (spec §4.5, §9 design notes). Modifications are
// expressed as a fixed dispatcher over entities.ModificationKind rather
// than runtime-constructed closures, matching the tagged-sum-type approach
// the design notes prescribe for FieldEffectKind.
package effects

import (
	"context"
	"time"

	"arenacore/server/internal/entities"
	"arenacore/server/logging"
	loggingeffects "arenacore/server/logging/effects"
)

// Pipeline owns the cross-tick state the per-tick algorithm needs: which
// players were inside a SLOW_FIELD last frame, so it can restore default
// damping the frame they leave every such field.
type Pipeline struct {
	publisher           logging.Publisher
	slowedPreviousFrame map[entities.PlayerID]bool
	tick                uint64
	ctx                 context.Context
}

// New constructs an empty pipeline. publisher may be nil, in which case a
// logging.NopPublisher is used.
func New(publisher logging.Publisher) *Pipeline {
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	return &Pipeline{
		publisher:           publisher,
		slowedPreviousFrame: make(map[entities.PlayerID]bool),
	}
}

// Tick runs one pass of the per-tick algorithm over every active field
// effect and every active player, then expires modifications and restores
// damping for players who left every SLOW_FIELD this frame. tick is the
// current simulation tick, attached to every telemetry event emitted.
func (p *Pipeline) Tick(ctx context.Context, tick uint64, dt float64, now time.Time, fields []*entities.FieldEffect, players []*entities.Player) {
	p.tick = tick
	p.ctx = ctx
	currentFrameSlowSet := make(map[entities.PlayerID]bool)

	for _, field := range fields {
		if field == nil || !field.Active {
			continue
		}
		if field.Instantaneous {
			continue // consumed on creation; no per-tick work
		}
		field.TimeRemaining -= dt
		if field.TimeRemaining <= 0 {
			field.Active = false
		}

		for _, player := range players {
			if player == nil || !player.Active {
				continue
			}
			distance := player.Position.Dist(field.Center)
			if distance > field.Radius {
				continue
			}
			if !teamEligible(field, player) {
				continue
			}
			p.applyFieldConsequence(field, player, dt, now, distance, currentFrameSlowSet)
		}
	}

	for playerID := range p.slowedPreviousFrame {
		if currentFrameSlowSet[playerID] {
			continue
		}
		for _, player := range players {
			if player.PlayerID == playerID {
				player.ResetDamping()
			}
		}
	}
	p.slowedPreviousFrame = currentFrameSlowSet

	for _, player := range players {
		if player == nil || player.Modifications == nil {
			continue
		}
		player.Modifications.ExpireAll(now, func(mod entities.Modification) {
			p.publishRevert(player, mod, "expired")
		})
		for _, mod := range player.Modifications.InOrder() {
			p.dispatchPerTickPlayer(player, mod, dt)
		}
	}
}

// teamEligible implements the per-kind teaming rules from the consequence
// table: damage kinds hit enemies, positive kinds hit allies/self,
// SLOW_FIELD hits enemies only, GRAVITY_WELL hits everyone.
func teamEligible(field *entities.FieldEffect, player *entities.Player) bool {
	switch field.Kind {
	case entities.FieldGravityWell:
		return true
	case entities.FieldSlowField:
		return isEnemy(field, player)
	default:
		if entities.DamageKinds[field.Kind] {
			return isEnemy(field, player)
		}
		if entities.PositiveKinds[field.Kind] {
			return isAlly(field, player)
		}
		return false
	}
}

func isEnemy(field *entities.FieldEffect, player *entities.Player) bool {
	if field.Team == 0 {
		return player.PlayerID != field.Owner
	}
	return player.Team != field.Team
}

func isAlly(field *entities.FieldEffect, player *entities.Player) bool {
	if field.Team == 0 {
		return player.PlayerID == field.Owner
	}
	return player.Team == field.Team
}

func (p *Pipeline) applyFieldConsequence(field *entities.FieldEffect, player *entities.Player, dt float64, now time.Time, distance float64, slowSet map[entities.PlayerID]bool) {
	v := field.Value
	switch field.Kind {
	case entities.FieldFire:
		player.TakeDamage(v * dt)
		p.attach(player, entities.Modification{Key: "burning", Kind: entities.ModBurning, Expiry: now.Add(time.Duration(1.0 * float64(time.Second))), Params: map[string]float64{"dps": v * 0.3}}, now)
	case entities.FieldPoison:
		player.TakeDamage(v * dt)
		p.attach(player, entities.Modification{Key: "poison", Kind: entities.ModPoisoned, Expiry: now.Add(time.Duration(1.5 * float64(time.Second))), Params: map[string]float64{"dps": v * 0.2}}, now)
	case entities.FieldElectric:
		player.TakeDamage(v * dt)
		p.attach(player, entities.Modification{Key: "slow", Kind: entities.ModSlowed, Expiry: now.Add(time.Duration(0.5 * float64(time.Second))), Params: map[string]float64{"damping": 0.7}}, now)
	case entities.FieldFreeze:
		player.TakeDamage(v * dt)
		p.attach(player, entities.Modification{Key: "slow", Kind: entities.ModSlowed, Expiry: now.Add(time.Duration(1.0 * float64(time.Second))), Params: map[string]float64{"damping": 0.6}}, now)
	case entities.FieldEarthquake, entities.FieldExplosion:
		player.TakeDamage(v * dt)
	case entities.FieldHealZone:
		player.Heal(v * dt)
	case entities.FieldSpeedBoost:
		p.attach(player, entities.Modification{Key: "speed", Kind: entities.ModSpeedBoosted, Expiry: now.Add(10 * time.Second), Params: map[string]float64{"multiplier": 1.5}}, now)
	case entities.FieldSlowField:
		// DampingOverride is a direct speed multiplier (SpeedMultiplier folds
		// it into movement); invert the closeness-scaled damping coefficient
		// into that convention so it actually slows rather than speeds up.
		closeness := closeness(field.Radius, distance)
		player.DampingOverride = 1 / (1 + 2*closeness)
		slowSet[player.PlayerID] = true
		speed := player.Velocity.Length()
		if speed > 1 {
			unit := player.Velocity.Normalized()
			force := -400 * closeness
			player.Velocity.X += unit.X * force * dt
			player.Velocity.Y += unit.Y * force * dt
		}
	case entities.FieldGravityWell:
		closeness := closeness(field.Radius, distance)
		toCenter := field.Center.Sub(player.Position).Normalized()
		force := 800 * closeness
		player.Velocity.X += toCenter.X * force * dt
		player.Velocity.Y += toCenter.Y * force * dt
	}
}

func closeness(radius, distance float64) float64 {
	if radius <= 0 {
		return 0
	}
	c := (radius - distance) / radius
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// attach applies replacement semantics: any existing modification sharing
// the new one's Key is reverted and replaced.
func (p *Pipeline) attach(player *entities.Player, mod entities.Modification, now time.Time) {
	if player == nil || player.Modifications == nil {
		return
	}
	previous, hadPrevious := player.Modifications.Attach(mod)
	if hadPrevious {
		p.publishRevert(player, previous, "replaced")
	}
	loggingeffects.ModificationAttached(p.ctx, p.publisher, p.tick, actorRef(player), loggingeffects.ModificationPayload{
		Key: mod.Key,
	})
}

func (p *Pipeline) publishRevert(player *entities.Player, mod entities.Modification, reason string) {
	loggingeffects.ModificationReverted(p.ctx, p.publisher, p.tick, actorRef(player), loggingeffects.ModificationPayload{
		Key:    mod.Key,
		Reason: reason,
	})
}

func actorRef(player *entities.Player) logging.EntityRef {
	return logging.EntityRef{ID: string(player.PlayerID), Kind: "player"}
}

// dispatchPerTickPlayer runs the perTickPlayer hook for one modification,
// switching on its tag (spec §9: tagged variant, fixed dispatcher).
func (p *Pipeline) dispatchPerTickPlayer(player *entities.Player, mod entities.Modification, dt float64) {
	switch mod.Kind {
	case entities.ModBurning, entities.ModPoisoned:
		player.TakeDamage(mod.Params["dps"] * dt)
	case entities.ModSlowed:
		player.DampingOverride = mod.Params["damping"]
	case entities.ModBallCarrier:
		player.OddballPoints += dt
	}
}

// SpeedMultiplier folds the player's DampingOverride (0 sentinel = no
// override, i.e. 1.0) and any attached SPEED modification into the single
// factor combat's movement code applies to base player speed.
func SpeedMultiplier(player *entities.Player) float64 {
	multiplier := 1.0
	if player.DampingOverride > 0 {
		multiplier *= player.DampingOverride
	}
	if player.Modifications != nil {
		if mod, ok := player.Modifications.Get("speed"); ok {
			multiplier *= mod.Params["multiplier"]
		}
	}
	return multiplier
}

// EffectiveWeapon folds every perTickWeapon-capable modification over the
// player's base weapon in attachment order (spec §4.5 closing paragraph).
func EffectiveWeapon(player *entities.Player) entities.WeaponConfig {
	weapon := player.Weapon
	if player.Modifications == nil {
		return weapon
	}
	for _, mod := range player.Modifications.InOrder() {
		switch mod.Kind {
		case entities.ModDamageBoosted:
			weapon.Damage *= mod.Params["multiplier"]
		case entities.ModAmmoFrozen:
			weapon.ReloadDisabled = true
		}
	}
	return weapon
}

// EffectiveDamageTaken folds every modifyDamageTaken-capable modification
// over an incoming damage amount, in attachment order.
func EffectiveDamageTaken(player *entities.Player, incoming float64) float64 {
	if player == nil || player.Modifications == nil {
		return incoming
	}
	amount := incoming
	for _, mod := range player.Modifications.InOrder() {
		switch mod.Kind {
		case entities.ModInvincible:
			amount = 0
		case entities.ModResistant:
			amount *= mod.Params["pct"]
		}
	}
	return amount
}
