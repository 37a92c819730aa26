// Package registry owns the per-match collections of live entities, exposes
// insertion-ordered iteration, and queues post-step hooks so collision
// callbacks never mutate the broadphase mid-step (spec §4.2, §9).
package registry

import (
	"arenacore/server/internal/entities"
)

// Registry owns every live entity collection for one match plus the FIFO of
// post-step hooks captured during collision processing.
type Registry struct {
	ids entities.IDGenerator

	playerOrder []entities.PlayerID
	players     map[entities.PlayerID]*entities.Player

	projectileOrder []entities.EntityID
	projectiles     map[entities.EntityID]*entities.Projectile

	beamOrder []entities.EntityID
	beams     map[entities.EntityID]*entities.Beam

	fieldOrder []entities.EntityID
	fields     map[entities.EntityID]*entities.FieldEffect

	obstacleOrder []entities.EntityID
	obstacles     map[entities.EntityID]*entities.Obstacle

	powerUpOrder []entities.EntityID
	powerUps     map[entities.EntityID]*entities.PowerUp

	postStepHooks []func()
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		players:     make(map[entities.PlayerID]*entities.Player),
		projectiles: make(map[entities.EntityID]*entities.Projectile),
		beams:       make(map[entities.EntityID]*entities.Beam),
		fields:      make(map[entities.EntityID]*entities.FieldEffect),
		obstacles:   make(map[entities.EntityID]*entities.Obstacle),
		powerUps:    make(map[entities.EntityID]*entities.PowerUp),
	}
}

// NextEntityID mints the next monotonic id for this match.
func (r *Registry) NextEntityID() entities.EntityID {
	return r.ids.Next()
}

// --- Players ---

// AddPlayer inserts a new player body, keyed by the durable PlayerID.
func (r *Registry) AddPlayer(p *entities.Player) {
	if p == nil {
		return
	}
	if _, exists := r.players[p.PlayerID]; !exists {
		r.playerOrder = append(r.playerOrder, p.PlayerID)
	}
	r.players[p.PlayerID] = p
}

// RemovePlayer removes a player entirely (on leave, not on death).
func (r *Registry) RemovePlayer(id entities.PlayerID) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for i, pid := range r.playerOrder {
		if pid == id {
			r.playerOrder = append(r.playerOrder[:i], r.playerOrder[i+1:]...)
			break
		}
	}
}

// Player looks up a player by its durable id.
func (r *Registry) Player(id entities.PlayerID) (*entities.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Players returns every player in insertion order.
func (r *Registry) Players() []*entities.Player {
	out := make([]*entities.Player, 0, len(r.playerOrder))
	for _, id := range r.playerOrder {
		out = append(out, r.players[id])
	}
	return out
}

// --- Projectiles ---

func (r *Registry) AddProjectile(p *entities.Projectile) {
	if p == nil {
		return
	}
	r.projectileOrder = append(r.projectileOrder, p.ID)
	r.projectiles[p.ID] = p
}

func (r *Registry) RemoveProjectile(id entities.EntityID) {
	delete(r.projectiles, id)
	r.projectileOrder = removeID(r.projectileOrder, id)
}

func (r *Registry) Projectiles() []*entities.Projectile {
	out := make([]*entities.Projectile, 0, len(r.projectileOrder))
	for _, id := range r.projectileOrder {
		out = append(out, r.projectiles[id])
	}
	return out
}

// --- Beams ---

func (r *Registry) AddBeam(b *entities.Beam) {
	if b == nil {
		return
	}
	r.beamOrder = append(r.beamOrder, b.ID)
	r.beams[b.ID] = b
}

func (r *Registry) RemoveBeam(id entities.EntityID) {
	delete(r.beams, id)
	r.beamOrder = removeID(r.beamOrder, id)
}

func (r *Registry) Beams() []*entities.Beam {
	out := make([]*entities.Beam, 0, len(r.beamOrder))
	for _, id := range r.beamOrder {
		out = append(out, r.beams[id])
	}
	return out
}

// --- Field effects ---

// AddFieldEffect inserts effects in creation order; EffectPipeline relies on
// this order when folding per-tick consequences (spec §4.5).
func (r *Registry) AddFieldEffect(f *entities.FieldEffect) {
	if f == nil {
		return
	}
	r.fieldOrder = append(r.fieldOrder, f.ID)
	r.fields[f.ID] = f
}

func (r *Registry) RemoveFieldEffect(id entities.EntityID) {
	delete(r.fields, id)
	r.fieldOrder = removeID(r.fieldOrder, id)
}

func (r *Registry) FieldEffect(id entities.EntityID) (*entities.FieldEffect, bool) {
	f, ok := r.fields[id]
	return f, ok
}

func (r *Registry) FieldEffects() []*entities.FieldEffect {
	out := make([]*entities.FieldEffect, 0, len(r.fieldOrder))
	for _, id := range r.fieldOrder {
		out = append(out, r.fields[id])
	}
	return out
}

// --- Obstacles ---

func (r *Registry) AddObstacle(o *entities.Obstacle) {
	if o == nil {
		return
	}
	r.obstacleOrder = append(r.obstacleOrder, o.ID)
	r.obstacles[o.ID] = o
}

func (r *Registry) RemoveObstacle(id entities.EntityID) {
	delete(r.obstacles, id)
	r.obstacleOrder = removeID(r.obstacleOrder, id)
}

func (r *Registry) Obstacles() []*entities.Obstacle {
	out := make([]*entities.Obstacle, 0, len(r.obstacleOrder))
	for _, id := range r.obstacleOrder {
		out = append(out, r.obstacles[id])
	}
	return out
}

// --- PowerUps ---

func (r *Registry) AddPowerUp(p *entities.PowerUp) {
	if p == nil {
		return
	}
	r.powerUpOrder = append(r.powerUpOrder, p.ID)
	r.powerUps[p.ID] = p
}

// RemovePowerUp culls a picked-up or stale power-up (spec §3b).
func (r *Registry) RemovePowerUp(id entities.EntityID) {
	delete(r.powerUps, id)
	r.powerUpOrder = removeID(r.powerUpOrder, id)
}

func (r *Registry) PowerUps() []*entities.PowerUp {
	out := make([]*entities.PowerUp, 0, len(r.powerUpOrder))
	for _, id := range r.powerUpOrder {
		out = append(out, r.powerUps[id])
	}
	return out
}

// --- Post-step hooks ---

// EnqueuePostStepHook stages a closure captured during collision processing
// to run once, after the current physics step completes (spec §4.2, §9).
func (r *Registry) EnqueuePostStepHook(fn func()) {
	if fn == nil {
		return
	}
	r.postStepHooks = append(r.postStepHooks, fn)
}

// RunPostStepHooks executes and clears every queued hook, in FIFO order.
func (r *Registry) RunPostStepHooks() {
	hooks := r.postStepHooks
	r.postStepHooks = nil
	for _, hook := range hooks {
		hook()
	}
}

// CullInactive removes projectiles/beams/field-effects/obstacles whose
// Active flag is false, their timers have expired, or (obstacles) their
// lifespan elapsed (spec §4.2).
func (r *Registry) CullInactive() {
	for _, p := range r.Projectiles() {
		if !p.Active {
			r.RemoveProjectile(p.ID)
		}
	}
	for _, b := range r.Beams() {
		if !b.Active || b.Elapsed >= b.Duration {
			r.RemoveBeam(b.ID)
		}
	}
	for _, f := range r.FieldEffects() {
		if !f.IsActive() {
			r.RemoveFieldEffect(f.ID)
		}
	}
	for _, o := range r.Obstacles() {
		if o.IsExpired() {
			r.RemoveObstacle(o.ID)
		}
	}
}

func removeID(list []entities.EntityID, id entities.EntityID) []entities.EntityID {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
