// Package rules implements the RuleEngine: the round lifecycle state
// machine, respawn policy table, victory detection, scoring aggregation,
// VIP mode, and random weapon rotation (spec §4.6).
package rules

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"arenacore/server/internal/config"
	"arenacore/server/internal/entities"
	"arenacore/server/logging"
	logginglifecycle "arenacore/server/logging/lifecycle"
	loggingrules "arenacore/server/logging/rules"
)

// Phase is the round-lifecycle state machine position.
type Phase string

const (
	PhasePlaying    Phase = "PLAYING"
	PhaseRoundEnd   Phase = "ROUND_END"
	PhaseRestPeriod Phase = "REST_PERIOD"
)

// Outcome describes a terminal victory determination.
type Outcome struct {
	Decided      bool
	WinningTeam  int  // 0 when FFA or not team-scoped
	WinningPlayer entities.PlayerID
	Reason       string
}

// SpawnPoint resolves where a respawning or newly joined player should
// materialize; supplied by the caller (sim package) since only it knows the
// match's terrain layout.
type SpawnPoint func(team int) (x, y float64)

// Engine owns the round lifecycle, respawn policy, victory detection, and
// scoring for one match.
type Engine struct {
	cfg       config.MatchConfig
	publisher logging.Publisher
	rng       *rand.Rand

	phase         Phase
	round         int
	roundDeadline time.Time
	restDeadline  time.Time

	nextWaveAt time.Time

	teams map[int]*entities.TeamState

	vipNextCheckAt       time.Time
	weaponRotationNextAt time.Time

	scoreLimit int
	over       bool
	tick       uint64
}

// New constructs a RuleEngine bound to one match's configuration.
func New(cfg config.MatchConfig, publisher logging.Publisher, rng *rand.Rand) *Engine {
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	return &Engine{
		cfg:        cfg,
		publisher:  publisher,
		rng:        rng,
		phase:      PhasePlaying,
		round:      1,
		teams:      make(map[int]*entities.TeamState),
		scoreLimit: cfg.ScoreLimit,
	}
}

// Start initializes round/rest deadlines and seeds one TeamState per team
// id (0 for FFA).
func (e *Engine) Start(now time.Time, teamIDs []int) {
	e.roundDeadline = now.Add(e.cfg.RoundDuration)
	e.nextWaveAt = now.Add(e.cfg.WaveRespawnInterval)
	e.vipNextCheckAt = now.Add(2 * time.Second)
	e.weaponRotationNextAt = now.Add(e.cfg.RandomWeaponInterval)
	for _, id := range teamIDs {
		e.teams[id] = &entities.TeamState{ID: id}
	}
}

// Phase reports the current round-lifecycle state.
func (e *Engine) Phase() Phase { return e.phase }

// Round reports the current round counter (1-indexed).
func (e *Engine) Round() int { return e.round }

// Over reports whether victory has already been declared.
func (e *Engine) Over() bool { return e.over }

// Advance runs one tick of the round-lifecycle state machine, recomputes
// team scores, evaluates victory, and runs the VIP/weapon-rotation
// periodic checks. It returns a decided Outcome once victory fires; callers
// should stop feeding ticks to the engine afterward.
func (e *Engine) Advance(ctx context.Context, tick uint64, now time.Time, players []*entities.Player, spawn SpawnPoint) Outcome {
	e.tick = tick
	if e.over {
		return Outcome{}
	}

	e.recomputeScores(players)

	switch e.phase {
	case PhasePlaying:
		if now.After(e.roundDeadline) {
			e.enterRoundEnd(ctx, players)
		}
	case PhaseRoundEnd:
		e.enterRestPeriod(now)
	case PhaseRestPeriod:
		if now.After(e.restDeadline) {
			e.startNewRound(ctx, now, players, spawn)
		}
	}

	if e.cfg.HasVIP && e.cfg.TeamCount > 0 && now.After(e.vipNextCheckAt) {
		e.vipNextCheckAt = now.Add(2 * time.Second)
		e.ensureVIPs(ctx, players)
	}

	if e.cfg.HasRandomWeapons && now.After(e.weaponRotationNextAt) {
		e.weaponRotationNextAt = now.Add(e.cfg.RandomWeaponInterval)
		e.rotateWeapons(ctx, players)
	}

	return e.checkVictory(ctx, now, players)
}

// --- Round lifecycle ---

func (e *Engine) enterRoundEnd(ctx context.Context, players []*entities.Player) {
	e.phase = PhaseRoundEnd
	teamScores := make(map[int]int, len(e.teams))
	for id, team := range e.teams {
		score := team.Total(e.includeKills(), e.includeObjective())
		teamScores[id] = score
		loggingrules.ScoreChanged(ctx, e.publisher, e.tick, loggingrules.ScoreChangedPayload{Team: id, Score: score})
	}
	playerKills := make(map[string]int, len(players))
	for _, p := range players {
		playerKills[string(p.PlayerID)] = p.Kills
	}
	logginglifecycle.RoundEnded(ctx, e.publisher, e.tick, logginglifecycle.RoundEndedPayload{
		Round: e.round, TeamScores: teamScores, PlayerKills: playerKills,
	})
}

func (e *Engine) enterRestPeriod(now time.Time) {
	e.phase = PhaseRestPeriod
	e.restDeadline = now.Add(e.cfg.RestDuration)
}

func (e *Engine) startNewRound(ctx context.Context, now time.Time, players []*entities.Player, spawn SpawnPoint) {
	e.phase = PhasePlaying
	e.round++
	e.roundDeadline = now.Add(e.cfg.RoundDuration)

	for _, p := range players {
		p.Active = false
		p.RespawnDeadline = now.Add(time.Millisecond)
		p.Kills = 0
		p.Deaths = 0
		p.Captures = 0
		p.OddballPoints = 0
		p.VIPKillScore = 0
		p.Eliminated = false
		p.EliminatedAt = time.Time{}
		p.Placement = 0
		if e.cfg.RespawnMode == config.RespawnLimited {
			p.Lives = e.cfg.MaxLives
		}
	}
	for _, team := range e.teams {
		team.BonusScore = 0
		team.ObjectiveScore = 0
		team.KillScore = 0
		team.KothScore = 0
	}
	if e.cfg.HasVIP && e.cfg.TeamCount > 0 {
		e.ensureVIPs(ctx, players)
	}
	_ = spawn
	logginglifecycle.RoundStarted(ctx, e.publisher, e.tick, logginglifecycle.RoundStartedPayload{Round: e.round})
}

// --- Respawn policy ---

// ScheduleRespawn assigns the respawn deadline for a player who just died,
// per the §4.6 respawn-policy table, and returns whether they are
// permanently eliminated (no lives remaining under LIMITED mode).
func (e *Engine) ScheduleRespawn(ctx context.Context, now time.Time, player *entities.Player) (eliminated bool) {
	switch e.cfg.RespawnMode {
	case config.RespawnInstant:
		player.RespawnDeadline = now.Add(e.cfg.RespawnDelay)
	case config.RespawnWave:
		if now.After(e.nextWaveAt) {
			e.nextWaveAt = e.nextWaveAt.Add(e.cfg.WaveRespawnInterval)
		}
		player.RespawnDeadline = e.nextWaveAt
	case config.RespawnNextRound, config.RespawnElim:
		player.RespawnDeadline = e.roundDeadline
	case config.RespawnLimited:
		player.Lives--
		if player.Lives > 0 {
			player.RespawnDeadline = now.Add(e.cfg.RespawnDelay)
		} else {
			player.RespawnDeadline = time.Time{}
			player.Eliminated = true
			player.EliminatedAt = now
			return true
		}
	}
	loggingrules.RespawnScheduled(ctx, e.publisher, e.tick, rulesActorRef(player), loggingrules.RespawnScheduledPayload{
		Mode:       string(e.cfg.RespawnMode),
		DeadlineMS: player.RespawnDeadline.UnixMilli(),
	})
	return false
}

// MaterializeRespawns rematerializes every player whose respawn deadline has
// elapsed. newBody constructs the fresh player state at the resolved spawn
// point; the caller owns registry/physics (re)registration.
func (e *Engine) MaterializeRespawns(ctx context.Context, now time.Time, players []*entities.Player, spawn SpawnPoint, newBody func(p *entities.Player, x, y float64)) {
	for _, p := range players {
		if p.Active || p.Eliminated {
			continue
		}
		if p.RespawnDeadline.IsZero() || !now.After(p.RespawnDeadline) {
			continue
		}
		if !p.HasLivesRemaining(e.cfg.RespawnMode == config.RespawnLimited) {
			continue
		}
		x, y := spawn(p.Team)
		newBody(p, x, y)
		p.Active = true
		loggingrules.Respawned(ctx, e.publisher, e.tick, rulesActorRef(p))
	}
}

// --- Scoring ---

func (e *Engine) includeKills() bool {
	return e.cfg.ScoreStyle == config.ScoreTotalKills || e.cfg.ScoreStyle == config.ScoreTotal
}

func (e *Engine) includeObjective() bool {
	return e.cfg.ScoreStyle == config.ScoreObjective || e.cfg.ScoreStyle == config.ScoreTotal
}

func (e *Engine) recomputeScores(players []*entities.Player) {
	for _, team := range e.teams {
		team.KillScore = 0
		team.ObjectiveScore = 0
		team.OddballScore = 0
		team.VIPKillScore = 0
		team.LiveMembers = 0
	}
	for _, p := range players {
		team, ok := e.teams[p.Team]
		if !ok {
			continue
		}
		team.KillScore += p.Kills
		team.ObjectiveScore += p.Captures
		team.OddballScore += p.OddballPoints
		team.VIPKillScore += p.VIPKillScore
		if p.Active {
			team.LiveMembers++
		}
	}
}

// AdvanceKoth grants one point per second of sole occupancy to whichever
// team is alone inside an active KOTH_ZONE field; an empty or contested zone
// accrues to neither (spec §3c).
func (e *Engine) AdvanceKoth(dt float64, players []*entities.Player, fields []*entities.FieldEffect) {
	for _, field := range fields {
		if field == nil || !field.Active || field.Kind != entities.FieldKothZone {
			continue
		}
		teamsPresent := make(map[int]bool)
		for _, p := range players {
			if p == nil || !p.Active {
				continue
			}
			if p.Position.Dist(field.Center) <= field.Radius {
				teamsPresent[p.Team] = true
			}
		}
		if len(teamsPresent) != 1 {
			continue
		}
		for team := range teamsPresent {
			if t, ok := e.teams[team]; ok {
				t.KothScore += dt
			}
		}
	}
}

// TeamScore returns the current aggregate for one team id.
func (e *Engine) TeamScore(team int) int {
	t, ok := e.teams[team]
	if !ok {
		return 0
	}
	return t.Total(e.includeKills(), e.includeObjective())
}

// TeamIDs returns every tracked team id, in ascending order.
func (e *Engine) TeamIDs() []int {
	ids := make([]int, 0, len(e.teams))
	for id := range e.teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AwardBonus adds match-specific bonus points (HQ damage, objective capture
// pulses, and so on) to a team's running total.
func (e *Engine) AwardBonus(team int, amount int) {
	if t, ok := e.teams[team]; ok {
		t.BonusScore += amount
	}
}

// --- Victory detection ---

func (e *Engine) checkVictory(ctx context.Context, now time.Time, players []*entities.Player) Outcome {
	switch e.cfg.VictoryCondition {
	case config.VictoryEndless:
		return Outcome{}
	case config.VictoryScoreLimit, config.VictoryObjective:
		if e.cfg.TeamCount > 0 {
			for id, team := range e.teams {
				if team.Total(e.includeKills(), e.includeObjective()) >= e.scoreLimit {
					return e.declare(ctx, id, "", "score_limit")
				}
			}
		}
		if e.cfg.TeamCount == 0 {
			for _, p := range players {
				if p.Kills >= e.scoreLimit {
					return e.declare(ctx, 0, p.PlayerID, "score_limit")
				}
			}
		}
	case config.VictoryTimeLimit:
		// caller tracks match-wall-clock elapsed via cfg.TimeLimit against
		// the match's own start time; this engine only reacts once asked.
	case config.VictoryElim:
		return e.checkElimination(ctx, players)
	}
	return Outcome{}
}

// CheckTimeLimit is invoked by the caller once match-elapsed time exceeds
// cfg.TimeLimit. On a tie with sudden death enabled, the score limit is
// raised and the match continues instead of declaring a winner.
func (e *Engine) CheckTimeLimit(ctx context.Context, players []*entities.Player) Outcome {
	highestTeam, highestScore := -1, -1
	tied := false
	for id, team := range e.teams {
		score := team.Total(e.includeKills(), e.includeObjective())
		if score > highestScore {
			highestScore, highestTeam = score, id
			tied = false
		} else if score == highestScore {
			tied = true
		}
	}
	if e.cfg.TeamCount == 0 {
		highestScore = -1
		var winner entities.PlayerID
		tied = false
		for _, p := range players {
			if p.Kills > highestScore {
				highestScore, winner = p.Kills, p.PlayerID
				tied = false
			} else if p.Kills == highestScore {
				tied = true
			}
		}
		if tied && e.cfg.SuddenDeath {
			e.scoreLimit = highestScore + 1
			loggingrules.SuddenDeath(ctx, e.publisher, e.tick, loggingrules.SuddenDeathPayload{NewScoreLimit: e.scoreLimit})
			return Outcome{}
		}
		return e.declare(ctx, 0, winner, "time_limit")
	}
	if tied && e.cfg.SuddenDeath {
		e.scoreLimit = highestScore + 1
		loggingrules.SuddenDeath(ctx, e.publisher, e.tick, loggingrules.SuddenDeathPayload{NewScoreLimit: e.scoreLimit})
		return Outcome{}
	}
	return e.declare(ctx, highestTeam, "", "time_limit")
}

func (e *Engine) checkElimination(ctx context.Context, players []*entities.Player) Outcome {
	if e.cfg.TeamCount == 0 {
		var alive []*entities.Player
		for _, p := range players {
			if !p.Eliminated {
				alive = append(alive, p)
			}
		}
		if len(alive) == 1 {
			e.assignEliminationPlacements(players, alive)
			return e.declare(ctx, 0, alive[0].PlayerID, "elimination")
		}
		return Outcome{}
	}
	aliveTeams := make(map[int]bool)
	for _, p := range players {
		if !p.Eliminated {
			aliveTeams[p.Team] = true
		}
	}
	if len(aliveTeams) == 1 {
		for id := range aliveTeams {
			var survivors []*entities.Player
			for _, p := range players {
				if p.Team == id {
					survivors = append(survivors, p)
				}
			}
			e.assignEliminationPlacements(players, survivors)
			return e.declare(ctx, id, "", "elimination")
		}
	}
	return Outcome{}
}

// assignEliminationPlacements fills in Player.Placement for every player once
// an ELIMINATION-mode victory has been detected (invariant #8: the set of
// non-zero placements equals {1..N}, assigned in strictly decreasing
// elimination time). Survivors take the lowest placements (ordered by
// PlayerID for determinism when more than one survives, e.g. a winning
// team); eliminated players fill the remaining placements in the order they
// went out, most-recent-first.
func (e *Engine) assignEliminationPlacements(players []*entities.Player, survivors []*entities.Player) {
	eliminated := make([]*entities.Player, 0, len(players))
	for _, p := range players {
		if p.Eliminated {
			eliminated = append(eliminated, p)
		}
	}
	sort.Slice(eliminated, func(i, j int) bool {
		return eliminated[i].EliminatedAt.After(eliminated[j].EliminatedAt)
	})

	ranked := append([]*entities.Player(nil), survivors...)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].PlayerID < ranked[j].PlayerID })
	for i, p := range ranked {
		p.Placement = i + 1
	}

	base := len(ranked)
	for i, p := range eliminated {
		p.Placement = base + i + 1
	}
}

func (e *Engine) declare(ctx context.Context, team int, player entities.PlayerID, reason string) Outcome {
	e.over = true
	logginglifecycle.MatchOver(ctx, e.publisher, e.tick, logginglifecycle.MatchOverPayload{
		WinningTeam: team, WinningPlayer: string(player), Reason: reason,
	})
	return Outcome{Decided: true, WinningTeam: team, WinningPlayer: player, Reason: reason}
}

// --- VIP mode ---

func (e *Engine) ensureVIPs(ctx context.Context, players []*entities.Player) {
	for teamID, team := range e.teams {
		if teamID == 0 {
			continue
		}
		if team.VIP != "" {
			if vip, ok := findPlayer(players, team.VIP); ok && vip.Active {
				continue
			}
		}
		for _, p := range players {
			if p.Team != teamID || !p.Active {
				continue
			}
			team.VIP = p.PlayerID
			if p.Modifications != nil {
				p.Modifications.Attach(entities.Modification{Key: "vip", Kind: entities.ModVIPStatus, Params: map[string]float64{}})
			}
			loggingrules.VIPAssigned(ctx, e.publisher, e.tick, rulesActorRef(p), loggingrules.VIPAssignedPayload{Team: teamID})
			break
		}
	}
}

func findPlayer(players []*entities.Player, id entities.PlayerID) (*entities.Player, bool) {
	for _, p := range players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return nil, false
}

// --- Random weapon rotation ---

func (e *Engine) rotateWeapons(ctx context.Context, players []*entities.Player) {
	weapons := weaponNames()
	utilities := utilityNames()
	if len(weapons) == 0 || len(utilities) == 0 {
		return
	}
	for _, p := range players {
		if !p.Active {
			continue
		}
		weaponName := weapons[e.rng.Intn(len(weapons))]
		utilityName := utilities[e.rng.Intn(len(utilities))]
		p.Weapon = entities.DefaultWeaponCatalog[weaponName]
		p.Utility = entities.DefaultUtilityCatalog[utilityName]
		p.Ammo = p.Weapon.AmmoCapacity
		loggingrules.WeaponRotation(ctx, e.publisher, e.tick, rulesActorRef(p), loggingrules.WeaponRotationPayload{
			Weapon: weaponName, Utility: utilityName,
		})
	}
}

func weaponNames() []string {
	names := make([]string, 0, len(entities.DefaultWeaponCatalog))
	for name := range entities.DefaultWeaponCatalog {
		names = append(names, name)
	}
	return names
}

func utilityNames() []string {
	names := make([]string, 0, len(entities.DefaultUtilityCatalog))
	for name := range entities.DefaultUtilityCatalog {
		names = append(names, name)
	}
	return names
}

func rulesActorRef(player *entities.Player) logging.EntityRef {
	return logging.EntityRef{ID: string(player.PlayerID), Kind: "player"}
}
