package rules

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"arenacore/server/internal/config"
	"arenacore/server/internal/entities"
	"arenacore/server/internal/geom"
)

func newTestEngine(cfg config.MatchConfig) *Engine {
	return New(cfg, nil, rand.New(rand.NewSource(1)))
}

func fixedSpawn(team int) (float64, float64) { return 0, 0 }

func TestScheduleRespawnInstantMode(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RespawnMode = config.RespawnInstant
	cfg.RespawnDelay = 3 * time.Second
	e := newTestEngine(cfg)

	player := entities.NewPlayer(1, "p1", 0, geom.Vec2{}, 100)
	now := time.UnixMilli(1_700_000_000)

	eliminated := e.ScheduleRespawn(context.Background(), now, player)
	if eliminated {
		t.Fatalf("expected instant respawn mode to never eliminate")
	}
	if !player.RespawnDeadline.Equal(now.Add(3 * time.Second)) {
		t.Fatalf("expected respawn deadline 3s out, got %v", player.RespawnDeadline)
	}
}

func TestScheduleRespawnLimitedModeEliminatesAtZeroLives(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RespawnMode = config.RespawnLimited
	e := newTestEngine(cfg)

	player := entities.NewPlayer(1, "p1", 0, geom.Vec2{}, 100)
	player.Lives = 2
	now := time.UnixMilli(1_700_000_000)

	eliminated := e.ScheduleRespawn(context.Background(), now, player)
	if eliminated {
		t.Fatalf("expected player with lives remaining after decrement to not be eliminated")
	}
	if player.Lives != 1 {
		t.Fatalf("expected lives decremented to 1, got %d", player.Lives)
	}

	eliminated = e.ScheduleRespawn(context.Background(), now, player)
	if !eliminated {
		t.Fatalf("expected player with zero lives remaining to be eliminated")
	}
	if !player.Eliminated {
		t.Fatalf("expected Eliminated flag set")
	}
}

func TestMaterializeRespawnsRematerializesDuePlayers(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	e := newTestEngine(cfg)

	player := entities.NewPlayer(1, "p1", 0, geom.Vec2{}, 100)
	player.Active = false
	now := time.UnixMilli(1_700_000_000)
	player.RespawnDeadline = now.Add(-time.Second)

	var materialized bool
	e.MaterializeRespawns(context.Background(), now, []*entities.Player{player}, fixedSpawn, func(p *entities.Player, x, y float64) {
		materialized = true
	})

	if !materialized {
		t.Fatalf("expected due respawn to call newBody")
	}
	if !player.Active {
		t.Fatalf("expected player to be marked active after respawn")
	}
}

func TestMaterializeRespawnsSkipsNotYetDue(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	e := newTestEngine(cfg)

	player := entities.NewPlayer(1, "p1", 0, geom.Vec2{}, 100)
	player.Active = false
	now := time.UnixMilli(1_700_000_000)
	player.RespawnDeadline = now.Add(time.Hour)

	var materialized bool
	e.MaterializeRespawns(context.Background(), now, []*entities.Player{player}, fixedSpawn, func(p *entities.Player, x, y float64) {
		materialized = true
	})

	if materialized {
		t.Fatalf("expected respawn not yet due to be skipped")
	}
}

func TestCheckVictoryScoreLimitFFA(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 0
	cfg.VictoryCondition = config.VictoryScoreLimit
	cfg.ScoreLimit = 5
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{0})

	player := entities.NewPlayer(1, "p1", 0, geom.Vec2{}, 100)
	player.Kills = 5

	now := time.UnixMilli(1_700_000_000)
	outcome := e.Advance(context.Background(), 1, now, []*entities.Player{player}, fixedSpawn)

	if !outcome.Decided {
		t.Fatalf("expected victory to be decided once a player reaches the score limit")
	}
	if outcome.WinningPlayer != "p1" {
		t.Fatalf("expected p1 to be declared the winner, got %v", outcome.WinningPlayer)
	}
}

func TestCheckVictoryScoreLimitTeamMode(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 2
	cfg.VictoryCondition = config.VictoryScoreLimit
	cfg.ScoreLimit = 3
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{1, 2})

	p1 := entities.NewPlayer(1, "p1", 1, geom.Vec2{}, 100)
	p1.Kills = 3
	p2 := entities.NewPlayer(2, "p2", 2, geom.Vec2{}, 100)

	now := time.UnixMilli(1_700_000_000)
	outcome := e.Advance(context.Background(), 1, now, []*entities.Player{p1, p2}, fixedSpawn)

	if !outcome.Decided || outcome.WinningTeam != 1 {
		t.Fatalf("expected team 1 to win, got %+v", outcome)
	}
}

func TestAdvanceIsNoOpOnceOver(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 0
	cfg.VictoryCondition = config.VictoryScoreLimit
	cfg.ScoreLimit = 1
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{0})

	player := entities.NewPlayer(1, "p1", 0, geom.Vec2{}, 100)
	player.Kills = 1
	now := time.UnixMilli(1_700_000_000)

	first := e.Advance(context.Background(), 1, now, []*entities.Player{player}, fixedSpawn)
	if !first.Decided {
		t.Fatalf("expected first advance past score limit to decide victory")
	}

	second := e.Advance(context.Background(), 2, now, []*entities.Player{player}, fixedSpawn)
	if second.Decided {
		t.Fatalf("expected no further outcome once the engine is over, got %+v", second)
	}
}

func TestCheckEliminationFFALastPlayerStanding(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 0
	cfg.VictoryCondition = config.VictoryElim
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{0})

	survivor := entities.NewPlayer(1, "survivor", 0, geom.Vec2{}, 100)
	eliminated := entities.NewPlayer(2, "eliminated", 0, geom.Vec2{}, 100)
	eliminated.Eliminated = true

	now := time.UnixMilli(1_700_000_000)
	outcome := e.Advance(context.Background(), 1, now, []*entities.Player{survivor, eliminated}, fixedSpawn)

	if !outcome.Decided || outcome.WinningPlayer != "survivor" {
		t.Fatalf("expected survivor to win by elimination, got %+v", outcome)
	}
	if survivor.Placement != 1 {
		t.Fatalf("expected survivor placement 1, got %d", survivor.Placement)
	}
	if eliminated.Placement != 2 {
		t.Fatalf("expected eliminated placement 2, got %d", eliminated.Placement)
	}
}

func TestCheckEliminationPlacementsOrderedByEliminationTime(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 0
	cfg.VictoryCondition = config.VictoryElim
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{0})

	base := time.UnixMilli(1_700_000_000)
	a := entities.NewPlayer(1, "a", 0, geom.Vec2{}, 100)
	b := entities.NewPlayer(2, "b", 0, geom.Vec2{}, 100)
	b.Eliminated = true
	b.EliminatedAt = base.Add(1 * time.Second) // eliminated first, of the two
	c := entities.NewPlayer(3, "c", 0, geom.Vec2{}, 100)
	c.Eliminated = true
	c.EliminatedAt = base.Add(2 * time.Second) // eliminated most recently

	now := base.Add(3 * time.Second)
	outcome := e.Advance(context.Background(), 1, now, []*entities.Player{a, b, c}, fixedSpawn)

	if !outcome.Decided || outcome.WinningPlayer != "a" {
		t.Fatalf("expected a to win by elimination, got %+v", outcome)
	}
	if a.Placement != 1 {
		t.Fatalf("expected survivor a placement 1, got %d", a.Placement)
	}
	if c.Placement != 2 {
		t.Fatalf("expected most-recently-eliminated c placement 2, got %d", c.Placement)
	}
	if b.Placement != 3 {
		t.Fatalf("expected earlier-eliminated b placement 3, got %d", b.Placement)
	}
}

func TestCheckTimeLimitSuddenDeathRaisesScoreLimitOnTie(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 0
	cfg.SuddenDeath = true
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{0})

	p1 := entities.NewPlayer(1, "p1", 0, geom.Vec2{}, 100)
	p1.Kills = 3
	p2 := entities.NewPlayer(2, "p2", 0, geom.Vec2{}, 100)
	p2.Kills = 3

	outcome := e.CheckTimeLimit(context.Background(), []*entities.Player{p1, p2})
	if outcome.Decided {
		t.Fatalf("expected sudden death to continue the match on a tie, got %+v", outcome)
	}
	if e.scoreLimit != 4 {
		t.Fatalf("expected score limit raised to 4 after tie, got %d", e.scoreLimit)
	}
}

func TestCheckTimeLimitDeclaresHighestScorerWithoutTie(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 0
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{0})

	p1 := entities.NewPlayer(1, "p1", 0, geom.Vec2{}, 100)
	p1.Kills = 5
	p2 := entities.NewPlayer(2, "p2", 0, geom.Vec2{}, 100)
	p2.Kills = 2

	outcome := e.CheckTimeLimit(context.Background(), []*entities.Player{p1, p2})
	if !outcome.Decided || outcome.WinningPlayer != "p1" {
		t.Fatalf("expected p1 (higher kills) to win, got %+v", outcome)
	}
}

func TestAwardBonusAndTeamScore(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 2
	cfg.ScoreStyle = config.ScoreTotalKills
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{1, 2})

	e.AwardBonus(1, 10)
	if got := e.TeamScore(1); got != 10 {
		t.Fatalf("expected bonus-only team score of 10, got %d", got)
	}
	if got := e.TeamScore(99); got != 0 {
		t.Fatalf("expected unknown team to score 0, got %d", got)
	}
}

func TestTeamIDsSortedAscending(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TeamCount = 4
	e := newTestEngine(cfg)
	e.Start(time.UnixMilli(1_700_000_000), []int{3, 1, 2, 4})

	ids := e.TeamIDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] > ids[i] {
			t.Fatalf("expected ascending team ids, got %v", ids)
		}
	}
}
