package config

import (
	"reflect"
	"testing"
	"time"
)

func TestDefaultIsAlreadyNormalized(t *testing.T) {
	t.Parallel()

	def := Default()
	if got := def.Normalize(); !reflect.DeepEqual(got, def) {
		t.Fatalf("expected Default() to be a fixed point of Normalize(), got %+v want %+v", got, def)
	}
}

func TestNormalizeClampsTeamCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   int
		want int
	}{
		{in: -3, want: 0},
		{in: 0, want: 0},
		{in: 1, want: 2},
		{in: 2, want: 2},
		{in: 4, want: 4},
		{in: 9, want: 4},
	}
	for _, tc := range cases {
		cfg := Default()
		cfg.TeamCount = tc.in
		got := cfg.Normalize().TeamCount
		if got != tc.want {
			t.Fatalf("TeamCount %d: got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeRejectsNegativeOrZeroNumericFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.MaxPlayers = -1
	cfg.WorldWidth = 0
	cfg.WorldHeight = -100
	cfg.PlayerMaxHealth = 0
	cfg.PlayerSpeed = -1
	cfg.PlayerSize = 0
	cfg.ScoreLimit = 0
	cfg.TimeLimit = -time.Second
	cfg.MaxLives = 0

	def := Default()
	got := cfg.Normalize()
	if got.MaxPlayers != def.MaxPlayers {
		t.Fatalf("expected invalid MaxPlayers to fall back to default, got %d", got.MaxPlayers)
	}
	if got.WorldWidth != def.WorldWidth || got.WorldHeight != def.WorldHeight {
		t.Fatalf("expected invalid world dimensions to fall back to default")
	}
	if got.PlayerMaxHealth != def.PlayerMaxHealth {
		t.Fatalf("expected invalid PlayerMaxHealth to fall back to default")
	}
	if got.PlayerSpeed != def.PlayerSpeed || got.PlayerSize != def.PlayerSize {
		t.Fatalf("expected invalid player speed/size to fall back to default")
	}
	if got.ScoreLimit != def.ScoreLimit {
		t.Fatalf("expected invalid ScoreLimit to fall back to default")
	}
	if got.TimeLimit != def.TimeLimit {
		t.Fatalf("expected invalid TimeLimit to fall back to default")
	}
	if got.MaxLives != def.MaxLives {
		t.Fatalf("expected invalid MaxLives to fall back to default")
	}
}

func TestNormalizeRejectsUnknownEnums(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.RespawnMode = "bogus"
	cfg.VictoryCondition = "bogus"
	cfg.ScoreStyle = "bogus"
	cfg.ObstacleDensity = "bogus"

	def := Default()
	got := cfg.Normalize()
	if got.RespawnMode != def.RespawnMode {
		t.Fatalf("expected unknown RespawnMode to fall back to default, got %v", got.RespawnMode)
	}
	if got.VictoryCondition != def.VictoryCondition {
		t.Fatalf("expected unknown VictoryCondition to fall back to default, got %v", got.VictoryCondition)
	}
	if got.ScoreStyle != def.ScoreStyle {
		t.Fatalf("expected unknown ScoreStyle to fall back to default, got %v", got.ScoreStyle)
	}
	if got.ObstacleDensity != def.ObstacleDensity {
		t.Fatalf("expected unknown ObstacleDensity to fall back to default, got %v", got.ObstacleDensity)
	}
}

func TestNormalizeClampsRandomEventInterval(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.RandomEventInterval = 5 * time.Second
	got := cfg.Normalize()
	if got.RandomEventInterval != 30*time.Second {
		t.Fatalf("expected interval below floor to clamp to 30s, got %v", got.RandomEventInterval)
	}
}

func TestNormalizeFillsEmptyEnabledEventKinds(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.EnabledEventKinds = nil
	got := cfg.Normalize()
	if len(got.EnabledEventKinds) != len(AllEventKinds) {
		t.Fatalf("expected empty EnabledEventKinds to default to AllEventKinds, got %v", got.EnabledEventKinds)
	}
}

func TestNormalizeDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.TeamCount = -9
	_ = cfg.Normalize()

	if cfg.TeamCount != -9 {
		t.Fatalf("expected Normalize to not mutate its receiver, got TeamCount=%d", cfg.TeamCount)
	}
}

func TestNormalizeFallsBackOnEmptySeed(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Seed = ""
	got := cfg.Normalize()
	if got.Seed != Default().Seed {
		t.Fatalf("expected empty seed to fall back to default, got %q", got.Seed)
	}
}
