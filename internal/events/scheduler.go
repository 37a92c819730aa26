// Package events implements the EventScheduler: the warning-then-impact
// hazard state machine that injects ephemeral area effects into the live
// match (spec §4.7).
package events

import (
	"context"
	"math"
	"math/rand"
	"time"

	"arenacore/server/internal/config"
	"arenacore/server/internal/effects"
	"arenacore/server/internal/entities"
	"arenacore/server/internal/geom"
	"arenacore/server/internal/registry"
	"arenacore/server/logging"
	loggingevents "arenacore/server/logging/events"
)

// cooldownAfterImpact is how long the match rests once every sub-impact has
// fired before the scheduler picks a new nextEventAt.
const cooldownAfterImpact = 3 * time.Second

// staggerBase is the base of the per-target firing delay: each sub-impact
// fires at staggerBase + uniform(0, staggerBase) after entering IMPACT.
const staggerBase = 600 * time.Millisecond

// Scheduler owns the single in-flight hazard event for one match.
type Scheduler struct {
	cfg       config.MatchConfig
	publisher logging.Publisher
	rng       *rand.Rand
	tick      uint64

	nextEventAt time.Time
	active      *entities.ActiveEvent
}

// New constructs a scheduler bound to one match's configuration.
func New(cfg config.MatchConfig, publisher logging.Publisher, rng *rand.Rand) *Scheduler {
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	return &Scheduler{cfg: cfg, publisher: publisher, rng: rng}
}

// Start seeds the first nextEventAt deadline.
func (s *Scheduler) Start(now time.Time) {
	s.nextEventAt = s.rollNextEventAt(now)
}

// Active reports the in-flight event, if any.
func (s *Scheduler) Active() *entities.ActiveEvent { return s.active }

func (s *Scheduler) rollNextEventAt(now time.Time) time.Time {
	base := s.cfg.RandomEventInterval
	variance := float64(base) * s.cfg.RandomEventIntervalVariance
	offset := (s.rng.Float64()*2 - 1) * variance
	delay := time.Duration(float64(base) + offset)
	if delay < 30*time.Second {
		delay = 30 * time.Second
	}
	return now.Add(delay)
}

// Tick advances the hazard state machine by one tick. reg is used to spawn
// and retire WARNING_ZONE/impact field effects and power-ups, and its
// obstacles are checked for clear-terrain placement; players is consulted for
// instantaneous impact damage.
func (s *Scheduler) Tick(ctx context.Context, tick uint64, now time.Time, reg *registry.Registry, players []*entities.Player, worldWidth, worldHeight float64) {
	s.tick = tick
	if !s.cfg.EnableRandomEvents {
		return
	}

	if s.active == nil {
		if now.After(s.nextEventAt) {
			s.startEvent(ctx, now, reg, worldWidth, worldHeight)
		}
		return
	}

	switch s.active.Phase {
	case entities.PhaseWarning:
		if now.After(s.active.WarningDeadline) {
			s.enterImpact(now, reg)
		}
	case entities.PhaseImpact:
		s.fireDueSubImpacts(ctx, now, reg, players)
		if s.active.AllSubImpactsFired() && now.After(s.active.ImpactDeadline) {
			loggingevents.Completed(ctx, s.publisher, s.tick, loggingevents.CompletedPayload{Kind: string(s.active.Kind)})
			s.active = nil
			s.nextEventAt = s.rollNextEventAt(now)
		}
	}
}

func (s *Scheduler) startEvent(ctx context.Context, now time.Time, reg *registry.Registry, worldWidth, worldHeight float64) {
	kinds := s.cfg.EnabledEventKinds
	if len(kinds) == 0 {
		kinds = config.AllEventKinds
	}
	kind := kinds[s.rng.Intn(len(kinds))]
	count := targetCount(kind, worldWidth, worldHeight)
	radius := impactRadius(kind, s.cfg, worldWidth)

	targets := make([]geom.Vec2, 0, count)
	for i := 0; i < count; i++ {
		targets = append(targets, s.pickClearPosition(reg, worldWidth, worldHeight, radius))
	}

	warningIDs := make([]entities.EntityID, 0, count)
	for _, target := range targets {
		id := reg.NextEntityID()
		reg.AddFieldEffect(&entities.FieldEffect{
			ID:            id,
			Kind:          entities.FieldWarningZone,
			Center:        target,
			Radius:        radius,
			Active:        true,
			TimeRemaining: float64(s.cfg.EventWarningDuration) / float64(time.Second),
		})
		warningIDs = append(warningIDs, id)
	}

	subImpacts := make([]entities.SubImpact, 0, count)
	for _, target := range targets {
		delay := staggerBase + time.Duration(s.rng.Float64()*float64(staggerBase))
		subImpacts = append(subImpacts, entities.SubImpact{Location: target, FireAt: now.Add(s.cfg.EventWarningDuration + delay)})
	}

	s.active = &entities.ActiveEvent{
		Kind:                kind,
		Phase:               entities.PhaseWarning,
		WarningDeadline:     now.Add(s.cfg.EventWarningDuration),
		Targets:             targets,
		WarningZonesSpawned: true,
		WarningZoneIDs:      warningIDs,
		SubImpacts:          subImpacts,
	}

	flatTargets := make([][2]float64, 0, len(targets))
	for _, t := range targets {
		flatTargets = append(flatTargets, [2]float64{t.X, t.Y})
	}
	loggingevents.Scheduled(ctx, s.publisher, s.tick, loggingevents.ScheduledPayload{
		Kind:         string(kind),
		WarningDelay: s.cfg.EventWarningDuration.Milliseconds(),
		TargetCount:  count,
	})
	loggingevents.WarningPhase(ctx, s.publisher, s.tick, loggingevents.WarningPhasePayload{Kind: string(kind), Targets: flatTargets})
}

func (s *Scheduler) enterImpact(now time.Time, reg *registry.Registry) {
	for _, id := range s.active.WarningZoneIDs {
		reg.RemoveFieldEffect(id)
	}
	s.active.Phase = entities.PhaseImpact
	s.active.ImpactDeadline = now.Add(cooldownAfterImpact)
}

func (s *Scheduler) fireDueSubImpacts(ctx context.Context, now time.Time, reg *registry.Registry, players []*entities.Player) {
	for i := range s.active.SubImpacts {
		sub := &s.active.SubImpacts[i]
		if sub.Fired || now.Before(sub.FireAt) {
			continue
		}
		sub.Fired = true
		location := sub.Location
		kind := s.active.Kind
		index, total := i, len(s.active.SubImpacts)
		reg.EnqueuePostStepHook(func() {
			s.resolveImpact(ctx, kind, location, reg, players)
		})
		// Recompute the cooldown window relative to the last fired impact so a
		// staggered sequence doesn't end the event before every sub-impact ran.
		if remaining := now.Add(cooldownAfterImpact); remaining.After(s.active.ImpactDeadline) {
			s.active.ImpactDeadline = remaining
		}
		loggingevents.ImpactPhase(ctx, s.publisher, s.tick, loggingevents.ImpactPhasePayload{Kind: string(kind), X: location.X, Y: location.Y, Index: index, Total: total})
	}
}

func (s *Scheduler) resolveImpact(ctx context.Context, kind config.EventKind, location geom.Vec2, reg *registry.Registry, players []*entities.Player) {
	switch kind {
	case config.EventMeteorShower:
		s.spawnInstantExplosion(reg, location, s.cfg.MeteorRadius, s.cfg.MeteorDamage, players)
	case config.EventSupplyDrop:
		s.spawnInstantExplosion(reg, location, 40, 0, players)
		s.spawnPowerUp(reg, location)
	case config.EventVolcanicErupt:
		s.spawnPersistentField(reg, entities.FieldFire, location, s.cfg.EruptionRadius, s.cfg.EruptionDamage, 8)
	case config.EventEarthquake, config.EventIonStorm, config.EventBlizzard:
		radius, value, fieldKind := earthquakeLikeParams(kind, s.cfg)
		s.spawnPersistentField(reg, fieldKind, location, radius, value, 4)
	}
}

func (s *Scheduler) spawnInstantExplosion(reg *registry.Registry, location geom.Vec2, radius, damage float64, players []*entities.Player) {
	if damage > 0 {
		for _, p := range players {
			if p == nil || !p.Active {
				continue
			}
			if p.Position.Dist(location) > radius {
				continue
			}
			p.TakeDamage(effects.EffectiveDamageTaken(p, damage))
		}
	}
	field := &entities.FieldEffect{
		ID:            reg.NextEntityID(),
		Kind:          entities.FieldExplosion,
		Center:        location,
		Radius:        radius,
		Active:        true,
		Instantaneous: true,
	}
	reg.AddFieldEffect(field)
	field.ConsumeInstant()
}

func (s *Scheduler) spawnPersistentField(reg *registry.Registry, kind entities.FieldEffectKind, location geom.Vec2, radius, value, duration float64) {
	reg.AddFieldEffect(&entities.FieldEffect{
		ID:            reg.NextEntityID(),
		Kind:          kind,
		Center:        location,
		Radius:        radius,
		Value:         value,
		Active:        true,
		Duration:      duration,
		TimeRemaining: duration,
	})
}

func (s *Scheduler) spawnPowerUp(reg *registry.Registry, location geom.Vec2) {
	kinds := []entities.PowerUpKind{
		entities.PowerUpHealth, entities.PowerUpAmmo,
		entities.PowerUpDamageBoost, entities.PowerUpSpeedBoost,
	}
	reg.AddPowerUp(&entities.PowerUp{
		ID:       reg.NextEntityID(),
		Kind:     kinds[s.rng.Intn(len(kinds))],
		Position: location,
		Active:   true,
	})
}

func earthquakeLikeParams(kind config.EventKind, cfg config.MatchConfig) (radius, value float64, fieldKind entities.FieldEffectKind) {
	switch kind {
	case config.EventEarthquake:
		return 0.3 * cfg.WorldWidth, cfg.EarthquakeDamage, entities.FieldEarthquake
	case config.EventIonStorm:
		return 80, cfg.IonStormDamage, entities.FieldElectric
	case config.EventBlizzard:
		return 90, 20, entities.FieldFreeze
	}
	return 0, 0, entities.FieldEarthquake
}

func impactRadius(kind config.EventKind, cfg config.MatchConfig, worldWidth float64) float64 {
	switch kind {
	case config.EventMeteorShower:
		return cfg.MeteorRadius
	case config.EventSupplyDrop:
		return 40
	case config.EventVolcanicErupt:
		return cfg.EruptionRadius
	case config.EventEarthquake:
		return 0.3 * worldWidth
	case config.EventIonStorm:
		return 80
	case config.EventBlizzard:
		return 90
	}
	return 60
}

func targetCount(kind config.EventKind, worldWidth, worldHeight float64) int {
	if kind == config.EventEarthquake {
		return 1
	}
	area := worldWidth * worldHeight
	base := area / 1_000_000
	density := map[config.EventKind]float64{
		config.EventMeteorShower:  1.5,
		config.EventSupplyDrop:    1.0,
		config.EventVolcanicErupt: 1.0,
		config.EventIonStorm:      1.2,
		config.EventBlizzard:      1.2,
	}[kind]
	count := int(math.Round(base * density))
	if count < 1 {
		count = 1
	}
	if count > 6 {
		count = 6
	}
	return count
}

// pickClearPosition tries up to 10 random positions, preferring one that
// doesn't overlap any obstacle, falling back to the last attempt otherwise.
func (s *Scheduler) pickClearPosition(reg *registry.Registry, worldWidth, worldHeight, radius float64) geom.Vec2 {
	var candidate geom.Vec2
	for attempt := 0; attempt < 10; attempt++ {
		candidate = geom.Vec2{
			X: radius + s.rng.Float64()*(worldWidth-2*radius),
			Y: radius + s.rng.Float64()*(worldHeight-2*radius),
		}
		if s.isClear(reg, candidate, radius) {
			return candidate
		}
	}
	return candidate
}

func (s *Scheduler) isClear(reg *registry.Registry, point geom.Vec2, radius float64) bool {
	for _, o := range reg.Obstacles() {
		if point.Dist(o.Position) < radius+o.Radius {
			return false
		}
	}
	return true
}
