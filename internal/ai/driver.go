// Package ai implements a lightweight synthetic input source: a bot that
// behaves as just another session feeding proto.PlayerInput into the match.
// It follows a wander/engage decision-interval pattern scoped down to arena
// combat's needs — engage the nearest enemy in range, otherwise wander.
package ai

import (
	"math"
	"math/rand"
	"time"

	"arenacore/server/internal/config"
	"arenacore/server/internal/entities"
	"arenacore/server/internal/geom"
	"arenacore/server/internal/net/proto"
	"arenacore/server/internal/registry"
)

const (
	engageRange     = 600.0
	wanderArrive    = 40.0
	wanderRadius    = 300.0
	decisionIntervalMin = 400 * time.Millisecond
	decisionIntervalMax = 1200 * time.Millisecond
)

// Driver produces a PlayerInput for one bot-controlled player each tick. It
// holds no match state of its own beyond wander bookkeeping; the caller
// (sim.Match) owns the player's authoritative state.
type Driver struct {
	PlayerID entities.PlayerID

	rng          *rand.Rand
	wanderTarget geom.Vec2
	nextDecision time.Time
}

// New constructs a bot driver for the given player id.
func New(playerID entities.PlayerID, rng *rand.Rand) *Driver {
	return &Driver{PlayerID: playerID, rng: rng}
}

// Decide computes this tick's input sample. reg is consulted for the bot's
// own player record and every live opponent; cfg bounds wander targets to
// the arena.
func (d *Driver) Decide(now time.Time, reg *registry.Registry, cfg config.MatchConfig) proto.PlayerInput {
	self, ok := reg.Player(d.PlayerID)
	if !ok || !self.Active {
		return proto.PlayerInput{}
	}

	target, found := d.nearestEnemy(self, reg.Players())
	if found {
		return d.engage(self, target)
	}
	return d.wander(now, self, cfg)
}

func (d *Driver) nearestEnemy(self *entities.Player, players []*entities.Player) (*entities.Player, bool) {
	var best *entities.Player
	bestDist := engageRange
	for _, p := range players {
		if p == nil || !p.Active || p.PlayerID == self.PlayerID {
			continue
		}
		if self.Team != 0 && p.Team == self.Team {
			continue
		}
		dist := self.Position.Dist(p.Position)
		if dist < bestDist {
			bestDist = dist
			best = p
		}
	}
	return best, best != nil
}

func (d *Driver) engage(self, target *entities.Player) proto.PlayerInput {
	aim := target.Position.Sub(self.Position).Normalized()
	moveDir := aim
	if self.Position.Dist(target.Position) < 120 {
		moveDir = geom.Vec2{X: -aim.X, Y: -aim.Y}
	}
	return proto.PlayerInput{
		LeftFire: true,
		MoveDir:  moveDir,
		AimDir:   aim,
	}
}

func (d *Driver) wander(now time.Time, self *entities.Player, cfg config.MatchConfig) proto.PlayerInput {
	if now.After(d.nextDecision) || self.Position.Dist(d.wanderTarget) < wanderArrive {
		d.wanderTarget = d.randomWanderTarget(self, cfg)
		d.nextDecision = now.Add(decisionIntervalMin + time.Duration(d.rng.Float64()*float64(decisionIntervalMax-decisionIntervalMin)))
	}
	dir := d.wanderTarget.Sub(self.Position).Normalized()
	return proto.PlayerInput{
		MoveDir: dir,
		AimDir:  dir,
	}
}

func (d *Driver) randomWanderTarget(self *entities.Player, cfg config.MatchConfig) geom.Vec2 {
	angle := d.rng.Float64() * 2 * math.Pi
	dist := wanderRadius * math.Sqrt(d.rng.Float64())
	x := self.Position.X + math.Cos(angle)*dist
	y := self.Position.Y + math.Sin(angle)*dist
	return geom.Vec2{X: clamp(x, 20, cfg.WorldWidth-20), Y: clamp(y, 20, cfg.WorldHeight-20)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
