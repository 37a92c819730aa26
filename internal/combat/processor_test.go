package combat

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"arenacore/server/internal/config"
	"arenacore/server/internal/entities"
	"arenacore/server/internal/geom"
	"arenacore/server/internal/net/proto"
	"arenacore/server/internal/physics"
	"arenacore/server/internal/registry"
)

func newTestProcessor() (*Processor, *registry.Registry, *physics.World) {
	reg := registry.New()
	world := physics.New(2000, 2000)
	cfg := config.Default()
	proc := New(reg, world, nil, rand.New(rand.NewSource(1)), cfg)
	return proc, reg, world
}

func joinTestPlayer(reg *registry.Registry, world *physics.World, weapon entities.WeaponConfig) *entities.Player {
	player := entities.NewPlayer(reg.NextEntityID(), "p1", 0, geom.Vec2{X: 100, Y: 100}, 100)
	player.Weapon = weapon
	player.Ammo = weapon.AmmoCapacity
	reg.AddPlayer(player)
	world.AddBody(&physics.Body{ID: player.ID, Kind: physics.BodyPlayer, Position: player.Position, Radius: 16, UserData: player.PlayerID})
	return player
}

func TestApplyMovementSetsVelocityFromInput(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])

	input := proto.PlayerInput{MoveDir: geom.Vec2{X: 1, Y: 0}, AimDir: geom.Vec2{X: 0, Y: 1}}
	proc.ApplyMovement(player, input, 1.0/60)

	if player.Velocity.X <= 0 {
		t.Fatalf("expected positive X velocity from rightward input, got %v", player.Velocity)
	}
	if player.Rotation == 0 {
		t.Fatalf("expected rotation to update from aim direction")
	}
	body, _ := world.Body(player.ID)
	if body.Velocity != player.Velocity {
		t.Fatalf("expected physics body velocity to mirror player velocity")
	}
}

func TestApplyMovementIgnoresInactivePlayer(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	player.Active = false

	proc.ApplyMovement(player, proto.PlayerInput{MoveDir: geom.Vec2{X: 1, Y: 0}}, 1.0/60)

	if player.Velocity != (geom.Vec2{}) {
		t.Fatalf("expected inactive player's velocity to stay zero, got %v", player.Velocity)
	}
}

func TestApplyMovementStartsReloadWhenRequested(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	player.Ammo = 0

	proc.ApplyMovement(player, proto.PlayerInput{Reload: true}, 1.0/60)

	if player.ReloadUntil.IsZero() {
		t.Fatalf("expected reload to begin when ammo is depleted and reload requested")
	}
}

func TestFirePrimaryConsumesAmmoAndSpawnsProjectile(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	startAmmo := player.Ammo

	proc.FirePrimary(context.Background(), time.Now(), player, proto.PlayerInput{LeftFire: true})

	if player.Ammo != startAmmo-1 {
		t.Fatalf("expected ammo to decrement by 1, got %d (was %d)", player.Ammo, startAmmo)
	}
	if len(reg.Projectiles()) != 1 {
		t.Fatalf("expected one projectile to be spawned, got %d", len(reg.Projectiles()))
	}
}

func TestFirePrimaryRespectsFireRateCooldown(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])

	now := time.Now()
	proc.FirePrimary(context.Background(), now, player, proto.PlayerInput{LeftFire: true})
	proc.FirePrimary(context.Background(), now, player, proto.PlayerInput{LeftFire: true})

	if len(reg.Projectiles()) != 1 {
		t.Fatalf("expected second shot within the fire-rate window to be gated, got %d projectiles", len(reg.Projectiles()))
	}
}

func TestFirePrimaryDeniedWithoutAmmo(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	player.Ammo = 0

	proc.FirePrimary(context.Background(), time.Now(), player, proto.PlayerInput{LeftFire: true})

	if len(reg.Projectiles()) != 0 {
		t.Fatalf("expected no projectile when out of ammo, got %d", len(reg.Projectiles()))
	}
}

func TestFirePrimaryBeamWeaponRegistersBeamNotProjectile(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["beam_rifle"])

	proc.FirePrimary(context.Background(), time.Now(), player, proto.PlayerInput{LeftFire: true})

	if len(reg.Beams()) != 1 {
		t.Fatalf("expected one beam to be registered, got %d", len(reg.Beams()))
	}
	if len(reg.Projectiles()) != 0 {
		t.Fatalf("expected no projectiles for a beam weapon, got %d", len(reg.Projectiles()))
	}
}

func TestProcessorTickCompletesReloadAfterDeadline(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	player.Ammo = 0
	past := time.Now().Add(-time.Second)
	player.ReloadUntil = past

	proc.Tick(context.Background(), 1, player, time.Now())

	if !player.ReloadUntil.IsZero() {
		t.Fatalf("expected reload deadline to clear once elapsed")
	}
	if player.Ammo != player.Weapon.AmmoCapacity {
		t.Fatalf("expected ammo refilled to capacity, got %d", player.Ammo)
	}
}

func TestFireUtilitySpawnsFieldEffect(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	player.Utility = entities.DefaultUtilityCatalog["heal_field"]

	proc.FireUtility(context.Background(), time.Now(), player, proto.PlayerInput{AltFire: true})

	if len(reg.FieldEffects()) != 1 {
		t.Fatalf("expected one field effect to be spawned, got %d", len(reg.FieldEffects()))
	}
}

func TestFireUtilityRespectsCooldown(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	player.Utility = entities.DefaultUtilityCatalog["heal_field"]

	now := time.Now()
	proc.FireUtility(context.Background(), now, player, proto.PlayerInput{AltFire: true})
	proc.FireUtility(context.Background(), now, player, proto.PlayerInput{AltFire: true})

	if len(reg.FieldEffects()) != 1 {
		t.Fatalf("expected second activation within cooldown to be gated, got %d", len(reg.FieldEffects()))
	}
}

func TestFireUtilityMineSpawnsUnarmedFieldEffect(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	player.Utility = entities.DefaultUtilityCatalog["proximity_mine"]

	proc.FireUtility(context.Background(), time.Now(), player, proto.PlayerInput{AltFire: true})

	fields := reg.FieldEffects()
	if len(fields) != 1 {
		t.Fatalf("expected one field effect to be spawned, got %d", len(fields))
	}
	if fields[0].Kind != entities.FieldMine {
		t.Fatalf("expected PROXIMITY_MINE field effect, got %v", fields[0].Kind)
	}
	if fields[0].Armed {
		t.Fatalf("expected freshly placed mine to be unarmed")
	}
}

func TestFireUtilityTurretSpawnsFiringObstacle(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	player := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	player.Utility = entities.DefaultUtilityCatalog["turret"]

	proc.FireUtility(context.Background(), time.Now(), player, proto.PlayerInput{AltFire: true})

	obstacles := reg.Obstacles()
	if len(obstacles) != 1 {
		t.Fatalf("expected one obstacle to be spawned, got %d", len(obstacles))
	}
	if obstacles[0].Kind != entities.UtilityTurret || obstacles[0].Damage <= 0 {
		t.Fatalf("expected a damaging turret obstacle, got %+v", obstacles[0])
	}
}

func TestAdvanceBeamsRetiresExpiredBeam(t *testing.T) {
	t.Parallel()

	proc, reg, _ := newTestProcessor()
	reg.AddBeam(&entities.Beam{ID: reg.NextEntityID(), Duration: 1.0, Active: true})

	proc.AdvanceBeams(context.Background(), 1.5)

	beams := reg.Beams()
	if beams[0].Active {
		t.Fatalf("expected beam to be retired once Elapsed exceeds Duration")
	}
}

func TestAdvanceBeamsAppliesDamageOverTimeToHitPlayer(t *testing.T) {
	t.Parallel()

	proc, reg, world := newTestProcessor()
	owner := joinTestPlayer(reg, world, entities.DefaultWeaponCatalog["pistol"])
	target := entities.NewPlayer(reg.NextEntityID(), "p2", 0, geom.Vec2{X: 300, Y: 100}, 100)
	reg.AddPlayer(target)
	world.AddBody(&physics.Body{ID: target.ID, Kind: physics.BodyPlayer, Position: target.Position, Radius: 16, UserData: target.PlayerID})

	reg.AddBeam(&entities.Beam{
		ID: reg.NextEntityID(), Owner: owner.PlayerID,
		Start: owner.Position, NominalEnd: geom.Vec2{X: 2000, Y: 100},
		Damage: 40, DamageKind: entities.BeamDamageOverTime, Duration: 5, Active: true,
	})

	proc.AdvanceBeams(context.Background(), 1.0)

	if target.Health >= 100 {
		t.Fatalf("expected DAMAGE_OVER_TIME beam to hurt the target in its path, health=%v", target.Health)
	}
}

func TestAdvanceMinesArmsThenDetonatesOnOverlap(t *testing.T) {
	t.Parallel()

	proc, reg, _ := newTestProcessor()
	owner := entities.NewPlayer(reg.NextEntityID(), "owner", 0, geom.Vec2{X: 0, Y: 0}, 100)
	reg.AddPlayer(owner)
	target := entities.NewPlayer(reg.NextEntityID(), "target", 0, geom.Vec2{X: 100, Y: 100}, 100)
	reg.AddPlayer(target)
	players := []*entities.Player{owner, target}

	mine := &entities.FieldEffect{
		ID: reg.NextEntityID(), Owner: owner.PlayerID, Kind: entities.FieldMine,
		Center: target.Position, Radius: 40, Value: 50, Duration: 10, TimeRemaining: 10, Active: true,
	}
	reg.AddFieldEffect(mine)

	proc.AdvanceMines(context.Background(), players)
	if mine.Armed {
		t.Fatalf("expected mine to stay unarmed before mineArmDelay elapses")
	}

	mine.TimeRemaining = 10 - mineArmDelay
	proc.AdvanceMines(context.Background(), players)
	if !mine.Armed {
		t.Fatalf("expected mine to arm once mineArmDelay has elapsed")
	}

	proc.AdvanceMines(context.Background(), players)
	if mine.Active {
		t.Fatalf("expected armed mine to detonate once a non-owner overlaps it")
	}
	if target.Health >= 100 {
		t.Fatalf("expected mine detonation to damage the overlapping target, health=%v", target.Health)
	}
}

func TestAdvanceTurretsFiresAtNearestEnemyInRange(t *testing.T) {
	t.Parallel()

	proc, reg, _ := newTestProcessor()
	owner := entities.NewPlayer(reg.NextEntityID(), "owner", 1, geom.Vec2{X: 0, Y: 0}, 100)
	reg.AddPlayer(owner)
	enemy := entities.NewPlayer(reg.NextEntityID(), "enemy", 2, geom.Vec2{X: 50, Y: 0}, 100)
	reg.AddPlayer(enemy)
	players := []*entities.Player{owner, enemy}

	turret := &entities.Obstacle{
		ID: reg.NextEntityID(), Position: geom.Vec2{}, Kind: entities.UtilityTurret,
		Owner: owner.PlayerID, OwnerTeam: owner.Team, Damage: 20, Range: 150,
		Lifespan: 20, TimeRemaining: 20,
	}
	reg.AddObstacle(turret)

	now := time.Now()
	proc.AdvanceTurrets(context.Background(), now, players)

	if enemy.Health >= 100 {
		t.Fatalf("expected turret to damage the in-range enemy, health=%v", enemy.Health)
	}
	if turret.NextFireAt.IsZero() {
		t.Fatalf("expected turret to be placed on cooldown after firing")
	}
}
