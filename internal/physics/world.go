// Package physics implements the PhysicsWorld contract: a bounded 2-D world
// with axis-separated movement integration, obstacle and body-body collision
// resolution, and raycast queries. A small, self-contained implementation
// rather than a library wrapper.
package physics

import (
	"math"
	"sort"

	"arenacore/server/internal/entities"
	"arenacore/server/internal/geom"
)

// Body is one physics-owned circle: a player, projectile, or obstacle. Kind
// and UserData let callers recover the owning entity from a collision or
// raycast hit without the physics package importing the entities package's
// concrete types.
type Body struct {
	ID       entities.EntityID
	Kind     BodyKind
	Position geom.Vec2
	Velocity geom.Vec2
	Radius   float64
	Static   bool // obstacles and placed barriers never move or get pushed
	UserData any
}

// BodyKind distinguishes the handful of physics-relevant entity categories.
type BodyKind string

const (
	BodyPlayer    BodyKind = "player"
	BodyObstacle  BodyKind = "obstacle"
	BodyProjectile BodyKind = "projectile"
)

// CollisionCallback is invoked once per overlapping pair discovered during a
// step. Implementations must not mutate the registry directly; they should
// enqueue a post-step hook instead (spec §4.2, §9).
type CollisionCallback func(a, b *Body)

// RaycastHit is one intersection found by Raycast, sorted by ascending
// Distance from the ray origin.
type RaycastHit struct {
	Body     *Body
	Point    geom.Vec2
	Distance float64
}

// RaycastFilter reports whether a body should be considered for a given
// raycast; returning false skips it (e.g. excluding the shooter's own body).
type RaycastFilter func(b *Body) bool

// World is a bounded 2-D physics world: gravity is always (0,0) per the
// spec contract, bodies may only be added or removed between steps, and
// collision callbacks fire synchronously during step.
type World struct {
	width, height float64

	bodies map[entities.EntityID]*Body
	order  []entities.EntityID

	onCollide CollisionCallback

	stepping bool
}

// New constructs a bounded world of the given dimensions.
func New(width, height float64) *World {
	return &World{
		width:  width,
		height: height,
		bodies: make(map[entities.EntityID]*Body),
	}
}

// OnCollision registers the callback invoked for every overlapping pair
// discovered during step. Only one callback may be registered; later calls
// replace it.
func (w *World) OnCollision(fn CollisionCallback) {
	w.onCollide = fn
}

// AddBody registers a new body. Panics if called while a step is in
// progress, since additions are only permitted between steps.
func (w *World) AddBody(b *Body) {
	if w.stepping {
		panic("physics: AddBody called during step")
	}
	if b == nil {
		return
	}
	if _, exists := w.bodies[b.ID]; !exists {
		w.order = append(w.order, b.ID)
	}
	w.bodies[b.ID] = b
}

// RemoveBody unregisters a body. Panics if called while a step is in
// progress.
func (w *World) RemoveBody(id entities.EntityID) {
	if w.stepping {
		panic("physics: RemoveBody called during step")
	}
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	for i, v := range w.order {
		if v == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Body looks up a registered body by id.
func (w *World) Body(id entities.EntityID) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Bodies returns every body in registration order.
func (w *World) Bodies() []*Body {
	out := make([]*Body, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.bodies[id])
	}
	return out
}

// Step integrates every non-static body's velocity, clamps to world bounds,
// resolves obstacle and body-body overlap via axis-separated collision, and
// fires the registered collision callback for every overlapping pair found
// this step. Additions/removals must wait until step returns.
func (w *World) Step(dt float64) {
	w.stepping = true
	defer func() { w.stepping = false }()

	movers := make([]*Body, 0, len(w.order))
	statics := make([]*Body, 0, len(w.order))
	for _, id := range w.order {
		b := w.bodies[id]
		if b.Static {
			statics = append(statics, b)
		} else {
			movers = append(movers, b)
		}
	}

	for _, b := range movers {
		w.integrate(b, dt, statics)
	}

	w.resolveMoverOverlap(movers, statics)
	w.detectCollisions(movers)
}

func (w *World) integrate(b *Body, dt float64, statics []*Body) {
	deltaX := b.Velocity.X * dt
	deltaY := b.Velocity.Y * dt

	oldX, oldY := b.Position.X, b.Position.Y

	newX := clamp(oldX+deltaX, b.Radius, w.width-b.Radius)
	if deltaX != 0 {
		newX = resolveAxisX(oldX, oldY, newX, deltaX, b.Radius, statics)
	}

	newY := clamp(oldY+deltaY, b.Radius, w.height-b.Radius)
	if deltaY != 0 {
		newY = resolveAxisY(newX, oldY, newY, deltaY, b.Radius, statics)
	}

	b.Position.X = newX
	b.Position.Y = newY

	resolveObstaclePenetration(b, statics, w.width, w.height)
}

func resolveAxisX(oldX, oldY, proposedX, deltaX, radius float64, statics []*Body) float64 {
	newX := proposedX
	for _, obs := range statics {
		minY := obs.Position.Y - obs.Radius - radius
		maxY := obs.Position.Y + obs.Radius + radius
		if oldY < minY || oldY > maxY {
			continue
		}
		if deltaX > 0 {
			boundary := obs.Position.X - obs.Radius - radius
			if oldX <= boundary && newX > boundary {
				newX = boundary
			}
		} else if deltaX < 0 {
			boundary := obs.Position.X + obs.Radius + radius
			if oldX >= boundary && newX < boundary {
				newX = boundary
			}
		}
	}
	return newX
}

func resolveAxisY(oldX, oldY, proposedY, deltaY, radius float64, statics []*Body) float64 {
	newY := proposedY
	for _, obs := range statics {
		minX := obs.Position.X - obs.Radius - radius
		maxX := obs.Position.X + obs.Radius + radius
		if oldX < minX || oldX > maxX {
			continue
		}
		if deltaY > 0 {
			boundary := obs.Position.Y - obs.Radius - radius
			if oldY <= boundary && newY > boundary {
				newY = boundary
			}
		} else if deltaY < 0 {
			boundary := obs.Position.Y + obs.Radius + radius
			if oldY >= boundary && newY < boundary {
				newY = boundary
			}
		}
	}
	return newY
}

// resolveObstaclePenetration nudges a mover out of any obstacle it still
// overlaps after axis-separated movement (e.g. spawned on top of a wall).
func resolveObstaclePenetration(b *Body, statics []*Body, width, height float64) {
	for _, obs := range statics {
		dx := b.Position.X - obs.Position.X
		dy := b.Position.Y - obs.Position.Y
		distSq := dx*dx + dy*dy
		minDist := b.Radius + obs.Radius
		if distSq >= minDist*minDist {
			continue
		}
		dist := math.Sqrt(distSq)
		if dist == 0 {
			dx, dy, dist = 1, 0, 1
		}
		overlap := minDist - dist
		nx, ny := dx/dist, dy/dist
		b.Position.X += nx * overlap
		b.Position.Y += ny * overlap
	}
	b.Position.X = clamp(b.Position.X, b.Radius, width-b.Radius)
	b.Position.Y = clamp(b.Position.Y, b.Radius, height-b.Radius)
}

// resolveMoverOverlap separates overlapping movers (players, mostly) via
// iterative relaxation.
func (w *World) resolveMoverOverlap(movers, statics []*Body) {
	if len(movers) < 2 {
		return
	}
	const iterations = 4
	for iter := 0; iter < iterations; iter++ {
		adjusted := false
		for i := 0; i < len(movers); i++ {
			for j := i + 1; j < len(movers); j++ {
				a, b := movers[i], movers[j]
				dx := b.Position.X - a.Position.X
				dy := b.Position.Y - a.Position.Y
				distSq := dx*dx + dy*dy
				minDist := a.Radius + b.Radius

				var dist float64
				if distSq == 0 {
					dx, dy, dist = 1, 0, 1
				} else {
					dist = math.Sqrt(distSq)
				}
				if dist >= minDist {
					continue
				}

				overlap := (minDist - dist) / 2
				nx, ny := dx/dist, dy/dist
				a.Position.X -= nx * overlap
				a.Position.Y -= ny * overlap
				b.Position.X += nx * overlap
				b.Position.Y += ny * overlap

				a.Position.X = clamp(a.Position.X, a.Radius, w.width-a.Radius)
				a.Position.Y = clamp(a.Position.Y, a.Radius, w.height-a.Radius)
				b.Position.X = clamp(b.Position.X, b.Radius, w.width-b.Radius)
				b.Position.Y = clamp(b.Position.Y, b.Radius, w.height-b.Radius)

				resolveObstaclePenetration(a, statics, w.width, w.height)
				resolveObstaclePenetration(b, statics, w.width, w.height)

				adjusted = true
			}
		}
		if !adjusted {
			break
		}
	}
}

// detectCollisions reports every overlapping mover/mover and mover/static
// pair to the registered callback. Projectile-vs-player hits flow through
// here; the callback is expected to enqueue a post-step hook.
func (w *World) detectCollisions(movers []*Body) {
	if w.onCollide == nil {
		return
	}
	all := w.Bodies()
	for i := 0; i < len(movers); i++ {
		a := movers[i]
		for j := 0; j < len(all); j++ {
			b := all[j]
			if a.ID == b.ID {
				continue
			}
			dx := b.Position.X - a.Position.X
			dy := b.Position.Y - a.Position.Y
			distSq := dx*dx + dy*dy
			minDist := a.Radius + b.Radius
			if distSq <= minDist*minDist {
				w.onCollide(a, b)
			}
		}
	}
}

// Raycast casts a ray from origin in direction (not required to be
// normalized) for at most maxDist, returning every body it intersects
// sorted nearest-first. filter may be nil to include every body.
func (w *World) Raycast(origin, direction geom.Vec2, maxDist float64, filter RaycastFilter) []RaycastHit {
	dir := direction.Normalized()
	end := geom.Vec2{X: origin.X + dir.X*maxDist, Y: origin.Y + dir.Y*maxDist}

	hits := make([]RaycastHit, 0)
	for _, id := range w.order {
		b := w.bodies[id]
		if filter != nil && !filter(b) {
			continue
		}
		hit, t := geom.CircleIntersectsSegment(origin, end, b.Position, b.Radius)
		if !hit {
			continue
		}
		dist := t * maxDist
		point := geom.Vec2{X: origin.X + dir.X*dist, Y: origin.Y + dir.Y*dist}
		hits = append(hits, RaycastHit{Body: b, Point: point, Distance: dist})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
