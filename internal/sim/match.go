// Package sim implements the SimulationLoop / MatchCore: the fixed-tick
// authoritative loop that drains input, advances the rule engine, steps
// physics, runs the effect pipeline and event scheduler, culls retired
// entities, and encodes the per-tick snapshot (spec §2, §4.1).
package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"arenacore/server/internal/combat"
	"arenacore/server/internal/config"
	"arenacore/server/internal/effects"
	"arenacore/server/internal/entities"
	"arenacore/server/internal/events"
	"arenacore/server/internal/geom"
	"arenacore/server/internal/net/proto"
	"arenacore/server/internal/physics"
	"arenacore/server/internal/registry"
	"arenacore/server/internal/rules"
	"arenacore/server/internal/snapshot"
	"arenacore/server/internal/telemetry"
	"arenacore/server/logging"
	logginglifecycle "arenacore/server/logging/lifecycle"
)

// maxDT is the tick-delta clamp (spec §4.1): a stalled goroutine scheduler or
// a debugger pause must never be replayed as a single enormous physics step.
const maxDT = 100 * time.Millisecond

// kothZoneRadius/kothZoneDuration size the single static KOTH_ZONE spawned
// when HasKoth is set; the duration is effectively unbounded so the zone
// outlives any match and is never retired while the match runs.
const kothZoneRadius = 150.0
const kothZoneDuration = 1e9

// powerUpPickupRadius is how close a player must be to collect a PowerUp.
// powerUpRespawnDelay is how long a consumed SUPPLY_DROP pickup (everything
// but the oddball, which only reappears when dropped) stays inactive.
const powerUpPickupRadius = 24.0
const powerUpRespawnDelay = 20.0

// Match owns every per-match collaborator and drives the fixed-tick loop.
type Match struct {
	cfg       config.MatchConfig
	publisher logging.Publisher
	clock     telemetry.Clock
	logger    telemetry.Logger
	rng       *rand.Rand

	registry  *registry.Registry
	world     *physics.World
	rules     *rules.Engine
	scheduler *events.Scheduler
	pipeline  *effects.Pipeline
	processor *combat.Processor
	encoder   *snapshot.Encoder

	mu         sync.Mutex
	inputs     map[entities.PlayerID]proto.PlayerInput
	matchStart time.Time
	lastTickAt time.Time
	tick       uint64
	outcome    rules.Outcome
}

// New constructs a Match ready to Run. cfg should already be Normalize()d.
func New(cfg config.MatchConfig, publisher logging.Publisher, clock telemetry.Clock, logger telemetry.Logger) *Match {
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	if clock == nil {
		clock = telemetry.SystemClock{}
	}
	rng := rand.New(rand.NewSource(seedFromString(cfg.Seed)))

	reg := registry.New()
	world := physics.New(cfg.WorldWidth, cfg.WorldHeight)

	m := &Match{
		cfg:       cfg,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		rng:       rng,
		registry:  reg,
		world:     world,
		rules:     rules.New(cfg, publisher, rng),
		scheduler: events.New(cfg, publisher, rng),
		pipeline:  effects.New(publisher),
		processor: combat.New(reg, world, publisher, rng, cfg),
		inputs:    make(map[entities.PlayerID]proto.PlayerInput),
	}
	m.encoder = snapshot.New(reg, m.rules, m.scheduler, cfg)

	m.generateTerrain()
	if cfg.HasOddball {
		m.spawnOddball()
	}
	if cfg.HasKoth {
		m.spawnKothZone()
	}

	now := clock.Now()
	m.matchStart = now
	m.lastTickAt = now
	m.rules.Start(now, teamIDs(cfg.TeamCount))
	m.scheduler.Start(now)

	return m
}

func seedFromString(seed string) int64 {
	var h int64 = 1469598103934665603
	for _, b := range []byte(seed) {
		h ^= int64(b)
		h *= 1099511628211
	}
	if h == 0 {
		h = 1
	}
	return h
}

func teamIDs(count int) []int {
	if count <= 0 {
		return []int{0}
	}
	ids := make([]int, count+1)
	for i := 0; i <= count; i++ {
		ids[i] = i
	}
	return ids
}

// generateTerrain seeds static obstacles per the configured density, leaving
// a clear ring around every team spawn so a joining player never spawns
// inside a wall.
func (m *Match) generateTerrain() {
	multiplier := map[config.ObstacleDensity]float64{
		config.ObstacleSparse: 0.4,
		config.ObstacleDense:  1.0,
		config.ObstacleChoked: 1.8,
		config.ObstacleRandom: 0.4 + m.rng.Float64()*1.4,
	}[m.cfg.ObstacleDensity]

	area := m.cfg.WorldWidth * m.cfg.WorldHeight
	count := int(area / 400000 * multiplier)
	spawnCenters := m.teamSpawnCenters()

	for i := 0; i < count; i++ {
		radius := 30 + m.rng.Float64()*50
		var pos geom.Vec2
		for attempt := 0; attempt < 10; attempt++ {
			pos = geom.Vec2{
				X: radius + m.rng.Float64()*(m.cfg.WorldWidth-2*radius),
				Y: radius + m.rng.Float64()*(m.cfg.WorldHeight-2*radius),
			}
			clear := true
			for _, center := range spawnCenters {
				if pos.Dist(center) < 200 {
					clear = false
					break
				}
			}
			if clear {
				break
			}
		}
		obstacle := &entities.Obstacle{
			ID: m.registry.NextEntityID(), Position: pos, Shape: entities.ObstacleCircle,
			Radius: radius, Static: true,
		}
		m.registry.AddObstacle(obstacle)
		m.world.AddBody(&physics.Body{
			ID: obstacle.ID, Kind: physics.BodyObstacle, Position: pos, Radius: radius,
			Static: true, UserData: obstacle.ID,
		})
	}

	m.world.OnCollision(m.handleCollision)
}

// spawnOddball places the single oddball carrier pickup at world center
// (spec §3c); it only reappears elsewhere once dropped by a fallen carrier.
func (m *Match) spawnOddball() {
	center := geom.Vec2{X: m.cfg.WorldWidth / 2, Y: m.cfg.WorldHeight / 2}
	m.registry.AddPowerUp(&entities.PowerUp{
		ID: m.registry.NextEntityID(), Kind: entities.PowerUpOddball, Position: center, Active: true,
	})
}

// spawnKothZone places the single static KOTH_ZONE field at world center
// (spec §3c); it carries no damage and is scored by rules.Engine.AdvanceKoth.
func (m *Match) spawnKothZone() {
	center := geom.Vec2{X: m.cfg.WorldWidth / 2, Y: m.cfg.WorldHeight / 2}
	m.registry.AddFieldEffect(&entities.FieldEffect{
		ID: m.registry.NextEntityID(), Kind: entities.FieldKothZone, Center: center, Radius: kothZoneRadius,
		Duration: kothZoneDuration, TimeRemaining: kothZoneDuration, Active: true,
	})
}

func (m *Match) teamSpawnCenters() []geom.Vec2 {
	if m.cfg.TeamCount <= 0 {
		return []geom.Vec2{{X: m.cfg.WorldWidth / 2, Y: m.cfg.WorldHeight / 2}}
	}
	centers := make([]geom.Vec2, 0, m.cfg.TeamCount)
	radius := math.Min(m.cfg.WorldWidth, m.cfg.WorldHeight) * 0.35
	for team := 1; team <= m.cfg.TeamCount; team++ {
		angle := 2 * math.Pi * float64(team-1) / float64(m.cfg.TeamCount)
		centers = append(centers, geom.Vec2{
			X: m.cfg.WorldWidth/2 + radius*math.Cos(angle),
			Y: m.cfg.WorldHeight/2 + radius*math.Sin(angle),
		})
	}
	return centers
}

// spawnPoint implements rules.SpawnPoint: a team's designated area jittered
// by a small random offset.
func (m *Match) spawnPoint(team int) (float64, float64) {
	centers := m.teamSpawnCenters()
	var center geom.Vec2
	if m.cfg.TeamCount <= 0 || team <= 0 || team > len(centers) {
		center = centers[0]
	} else {
		center = centers[team-1]
	}
	jitter := 80.0
	x := center.X + (m.rng.Float64()*2-1)*jitter
	y := center.Y + (m.rng.Float64()*2-1)*jitter
	return clampCoord(x, m.cfg.WorldWidth), clampCoord(y, m.cfg.WorldHeight)
}

func clampCoord(v, max float64) float64 {
	if v < 20 {
		return 20
	}
	if v > max-20 {
		return max - 20
	}
	return v
}

// Join materializes a new player body at its team's spawn point and
// registers it with the registry and physics world.
func (m *Match) Join(ctx context.Context, playerID entities.PlayerID, name string, team int, weaponName, utilityName string) *entities.Player {
	m.mu.Lock()
	defer m.mu.Unlock()

	x, y := m.spawnPoint(team)
	player := entities.NewPlayer(m.registry.NextEntityID(), playerID, team, geom.Vec2{X: x, Y: y}, m.cfg.PlayerMaxHealth)
	player.Name = name
	player.Weapon = weaponOrDefault(weaponName)
	player.Utility = utilityOrDefault(utilityName)
	player.Ammo = player.Weapon.AmmoCapacity
	if m.cfg.RespawnMode == config.RespawnLimited {
		player.Lives = m.cfg.MaxLives
	}

	m.registry.AddPlayer(player)
	m.world.AddBody(&physics.Body{
		ID: player.ID, Kind: physics.BodyPlayer, Position: player.Position,
		Radius: m.cfg.PlayerSize, UserData: player.PlayerID,
	})

	logginglifecycle.PlayerJoined(ctx, m.publisher, m.tick, lifecycleActorRef(playerID), logginglifecycle.PlayerJoinedPayload{
		Team: team, SpawnX: x, SpawnY: y,
	})
	return player
}

func weaponOrDefault(name string) entities.WeaponConfig {
	if w, ok := entities.DefaultWeaponCatalog[name]; ok {
		return w
	}
	return entities.DefaultWeaponCatalog["pistol"]
}

func utilityOrDefault(name string) entities.UtilityConfig {
	if u, ok := entities.DefaultUtilityCatalog[name]; ok {
		return u
	}
	return entities.DefaultUtilityCatalog["grenade"]
}

// Leave removes a player from the match entirely (not a death, a departure).
func (m *Match) Leave(ctx context.Context, playerID entities.PlayerID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if player, ok := m.registry.Player(playerID); ok {
		m.world.RemoveBody(player.ID)
	}
	m.registry.RemovePlayer(playerID)
	logginglifecycle.PlayerDisconnected(ctx, m.publisher, m.tick, lifecycleActorRef(playerID), logginglifecycle.PlayerDisconnectedPayload{Reason: reason})
}

// SetInput latches the most recent input sample for one player; only the
// latest sample before each tick is honored (spec §2 "drain input").
func (m *Match) SetInput(playerID entities.PlayerID, input proto.PlayerInput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[playerID] = input
	if player, ok := m.registry.Player(playerID); ok {
		player.LastInputAt = m.clock.Now()
	}
}

// ApplyConfig applies an out-of-band loadout change immediately.
func (m *Match) ApplyConfig(playerID entities.PlayerID, req proto.PlayerConfigRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.registry.Player(playerID)
	if !ok {
		return
	}
	if req.PlayerName != nil {
		name := *req.PlayerName
		if len(name) > proto.MaxPlayerNameLength {
			name = name[:proto.MaxPlayerNameLength]
		}
		player.Name = name
	}
	if req.PrimaryWeaponConfig != nil {
		player.Weapon = weaponOrDefault(*req.PrimaryWeaponConfig)
		player.Ammo = player.Weapon.AmmoCapacity
	}
	if req.UtilityWeapon != nil {
		player.Utility = utilityOrDefault(*req.UtilityWeapon)
	}
}

// InitialState builds the one-shot handshake payload for a newly joined session.
func (m *Match) InitialState(playerID entities.PlayerID) proto.InitialState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := proto.InitialState{
		PlayerID:    string(playerID),
		WorldWidth:  m.cfg.WorldWidth,
		WorldHeight: m.cfg.WorldHeight,
		TeamCount:   m.cfg.TeamCount,
		TeamMode:    m.cfg.TeamCount > 0,
	}
	for i, center := range m.teamSpawnCenters() {
		state.TeamSpawns = append(state.TeamSpawns, proto.TeamSpawnArea{Team: i + 1, Center: center, Radius: 120})
	}
	for _, o := range m.registry.Obstacles() {
		state.Obstacles = append(state.Obstacles, proto.ObstacleLayout{
			ID: uint64(o.ID), Position: o.Position, Shape: string(o.Shape), Radius: o.Radius,
		})
	}
	return state
}

// handleCollision is the physics world's single collision callback. It must
// never mutate the registry directly (spec §9 single-writer invariant); it
// only enqueues post-step hooks.
func (m *Match) handleCollision(a, b *physics.Body) {
	proj, target := classifyProjectileHit(a, b)
	if proj == nil {
		return
	}
	m.registry.EnqueuePostStepHook(func() {
		m.resolveProjectileHit(proj, target)
	})
}

func classifyProjectileHit(a, b *physics.Body) (projectile, target *physics.Body) {
	if a.Kind == physics.BodyProjectile && b.Kind != physics.BodyProjectile {
		return a, b
	}
	if b.Kind == physics.BodyProjectile && a.Kind != physics.BodyProjectile {
		return b, a
	}
	return nil, nil
}

func (m *Match) resolveProjectileHit(projBody, targetBody *physics.Body) {
	var projectile *entities.Projectile
	for _, pr := range m.registry.Projectiles() {
		if pr.ID == projBody.ID {
			projectile = pr
			break
		}
	}
	if projectile == nil || !projectile.Active {
		return
	}
	if targetBody.Kind == physics.BodyPlayer {
		if projectile.Owner == targetBody.UserData.(entities.PlayerID) {
			return
		}
		if target, found := m.registry.Player(targetBody.UserData.(entities.PlayerID)); found && target.Active {
			m.applyProjectileDamage(projectile, target)
		}
	}
	m.retireProjectile(projectile)
}

func (m *Match) applyProjectileDamage(projectile *entities.Projectile, target *entities.Player) {
	effective := effects.EffectiveDamageTaken(target, projectile.Damage)
	target.TakeDamage(effective)
	for _, kind := range projectile.BulletEffects {
		m.attachBulletEffect(target, kind)
	}
	if !target.Active {
		if owner, found := m.registry.Player(projectile.Owner); found {
			owner.Kills++
			target.Deaths++
			if target.Modifications != nil && target.Modifications.Has("vip") {
				owner.VIPKillScore++
			}
		}
	}
}

func (m *Match) attachBulletEffect(target *entities.Player, kind entities.FieldEffectKind) {
	if target.Modifications == nil {
		return
	}
	switch kind {
	case entities.FieldSlowField:
		target.Modifications.Attach(entities.Modification{
			Key: "slow", Kind: entities.ModSlowed,
			Expiry: m.clock.Now().Add(2 * time.Second), Params: map[string]float64{"damping": 0.5},
		})
	}
}

func (m *Match) retireProjectile(projectile *entities.Projectile) {
	projectile.Active = false
	m.world.RemoveBody(projectile.ID)
	if projectile.AoEOnRetire != "" {
		m.registry.AddFieldEffect(&entities.FieldEffect{
			ID: m.registry.NextEntityID(), Kind: projectile.AoEOnRetire,
			Center: projectile.Position, Radius: projectile.AoERadius, Value: projectile.AoEDamage,
			Active: true, Instantaneous: true,
		})
	}
}

// Tick runs exactly one pass of the simulation algorithm: apply each active
// player's latched input (movement and fire), advance beams, mines and
// turrets, advance rules, materialize respawns, step physics, run post-step
// hooks, run the effect pipeline and event scheduler, score pickups, cull
// retired entities, and encode the snapshot. Input is applied before the
// rule engine advances, so a player respawned in this tick first acts on the
// next one.
func (m *Match) Tick(ctx context.Context) (proto.Snapshot, rules.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	dt := now.Sub(m.lastTickAt)
	if dt > maxDT {
		dt = maxDT
	}
	if dt < 0 {
		dt = 0
	}
	m.lastTickAt = now
	m.tick++
	dtSeconds := dt.Seconds()

	players := m.registry.Players()

	for _, player := range players {
		input, ok := m.inputs[player.PlayerID]
		if !ok || !player.Active {
			continue
		}
		m.processor.ApplyMovement(player, input, dtSeconds)
		m.processor.Tick(ctx, m.tick, player, now)
		m.processor.FirePrimary(ctx, now, player, input)
		m.processor.FireUtility(ctx, now, player, input)
	}

	m.processor.AdvanceBeams(ctx, dtSeconds)
	m.processor.AdvanceMines(ctx, players)
	m.processor.AdvanceTurrets(ctx, now, players)

	outcome := m.rules.Advance(ctx, m.tick, now, players, m.spawnPoint)
	if !outcome.Decided && m.cfg.VictoryCondition == config.VictoryTimeLimit && now.Sub(m.matchStart) >= m.cfg.TimeLimit {
		outcome = m.rules.CheckTimeLimit(ctx, players)
	}
	m.rules.MaterializeRespawns(ctx, now, players, m.spawnPoint, func(p *entities.Player, x, y float64) {
		p.Position = geom.Vec2{X: x, Y: y}
		p.Health = p.MaxHealth
		p.Ammo = p.Weapon.AmmoCapacity
		if body, ok := m.world.Body(p.ID); ok {
			body.Position = p.Position
			body.Velocity = geom.Vec2{}
		} else {
			m.world.AddBody(&physics.Body{ID: p.ID, Kind: physics.BodyPlayer, Position: p.Position, Radius: m.cfg.PlayerSize, UserData: p.PlayerID})
		}
	})

	m.world.Step(dtSeconds)
	m.registry.RunPostStepHooks()

	m.pipeline.Tick(ctx, m.tick, dtSeconds, now, m.registry.FieldEffects(), players)
	m.scheduler.Tick(ctx, m.tick, now, m.registry, players, m.cfg.WorldWidth, m.cfg.WorldHeight)

	m.rules.AdvanceKoth(dtSeconds, players, m.registry.FieldEffects())
	m.applyPowerUpPickups(now, players)
	m.dropOddballFromFallenCarriers(players)

	m.scheduleRespawnsForFreshDeaths(ctx, now, players)
	m.retireExpiredProjectiles()
	m.registry.CullInactive()

	snap := m.encoder.Encode(m.tick, m.matchStart, now)
	m.outcome = outcome
	return snap, outcome
}

// scheduleRespawnsForFreshDeaths assigns a respawn deadline to every player
// that went inactive this tick (beam/projectile/hazard/DoT damage all funnel
// through Player.TakeDamage, so a zero RespawnDeadline is the one signal a
// death hasn't been scheduled yet).
func (m *Match) scheduleRespawnsForFreshDeaths(ctx context.Context, now time.Time, players []*entities.Player) {
	for _, p := range players {
		if p.Active || p.Eliminated || !p.RespawnDeadline.IsZero() {
			continue
		}
		m.rules.ScheduleRespawn(ctx, now, p)
	}
}

// retireExpiredProjectiles removes projectiles that left the arena bounds or
// whose owning physics body no longer exists (e.g. consumed by a collision
// hook this tick) so CullInactive sees a consistent Active flag.
func (m *Match) retireExpiredProjectiles() {
	for _, p := range m.registry.Projectiles() {
		if !p.Active {
			continue
		}
		body, ok := m.world.Body(p.ID)
		if !ok {
			p.Active = false
			continue
		}
		p.Position = body.Position
		// physics clamps every moving body to [radius, size-radius], so reaching
		// that edge is how a projectile leaves the arena.
		if p.Position.X <= body.Radius || p.Position.X >= m.cfg.WorldWidth-body.Radius ||
			p.Position.Y <= body.Radius || p.Position.Y >= m.cfg.WorldHeight-body.Radius {
			m.retireProjectile(p)
		}
	}
}

// applyPowerUpPickups lets the nearest overlapping active player collect each
// active PowerUp, and reactivates any inactive one whose respawn timer has
// elapsed (spec §3b/§3c).
func (m *Match) applyPowerUpPickups(now time.Time, players []*entities.Player) {
	matchElapsed := now.Sub(m.matchStart).Seconds()
	for _, pu := range m.registry.PowerUps() {
		if !pu.Active {
			if matchElapsed >= pu.RespawnAt {
				pu.Active = true
			}
			continue
		}
		var nearest *entities.Player
		nearestDist := powerUpPickupRadius
		for _, player := range players {
			if player == nil || !player.Active {
				continue
			}
			if d := player.Position.Dist(pu.Position); d <= nearestDist {
				nearest, nearestDist = player, d
			}
		}
		if nearest != nil {
			m.applyPowerUp(nearest, pu, matchElapsed, now)
		}
	}
}

// applyPowerUp grants one player pu's effect. The oddball carrier attaches
// BALL_CARRIER and consumes the pickup outright; every other kind applies its
// one-shot or timed effect and puts the pickup on a respawn timer.
func (m *Match) applyPowerUp(player *entities.Player, pu *entities.PowerUp, matchElapsed float64, now time.Time) {
	if pu.Kind == entities.PowerUpOddball {
		player.Modifications.Attach(entities.Modification{Key: "ball_carrier", Kind: entities.ModBallCarrier})
		m.registry.RemovePowerUp(pu.ID)
		return
	}

	switch pu.Kind {
	case entities.PowerUpHealth:
		player.Heal(player.MaxHealth * 0.5)
	case entities.PowerUpAmmo:
		player.Ammo = player.Weapon.AmmoCapacity
	case entities.PowerUpDamageBoost:
		player.Modifications.Attach(entities.Modification{
			Key: "damage_boost", Kind: entities.ModDamageBoosted,
			Expiry: now.Add(10 * time.Second), Params: map[string]float64{"multiplier": 1.5},
		})
	case entities.PowerUpSpeedBoost:
		player.Modifications.Attach(entities.Modification{
			Key: "speed", Kind: entities.ModSpeedBoosted,
			Expiry: now.Add(8 * time.Second), Params: map[string]float64{"multiplier": 1.4},
		})
	}
	pu.Active = false
	pu.RespawnDelay = powerUpRespawnDelay
	pu.RespawnAt = matchElapsed + pu.RespawnDelay
}

// dropOddballFromFallenCarriers respawns the oddball where any carrier who
// went inactive this tick fell (spec §3c).
func (m *Match) dropOddballFromFallenCarriers(players []*entities.Player) {
	for _, player := range players {
		if player == nil || player.Active || player.Modifications == nil {
			continue
		}
		if _, ok := player.Modifications.Remove("ball_carrier"); !ok {
			continue
		}
		m.registry.AddPowerUp(&entities.PowerUp{
			ID: m.registry.NextEntityID(), Kind: entities.PowerUpOddball,
			Position: player.Position, Active: true,
		})
	}
}

// Run drives Tick at the given rate until ctx is cancelled or the match
// reaches a decided outcome. A panic inside one tick is recovered and
// logged; the loop continues on the next tick rather than crashing the
// match (spec §4.1).
func (m *Match) Run(ctx context.Context, tickRate time.Duration) {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.runTickRecovered(ctx) {
				return
			}
		}
	}
}

func (m *Match) runTickRecovered(ctx context.Context) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			if m.logger != nil {
				m.logger.Printf("sim: recovered panic in tick %d: %v", m.tick, r)
			}
		}
	}()
	_, outcome := m.Tick(ctx)
	return outcome.Decided
}

// LatestOutcome reports the most recent tick's victory determination without
// advancing the simulation; used by transports that poll rather than
// subscribe.
func (m *Match) LatestOutcome() rules.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Registry exposes the entity registry for read-mostly callers (e.g. AI).
func (m *Match) Registry() *registry.Registry { return m.registry }

func lifecycleActorRef(playerID entities.PlayerID) logging.EntityRef {
	return logging.EntityRef{ID: string(playerID), Kind: "player"}
}
