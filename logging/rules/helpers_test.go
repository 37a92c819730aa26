package rules

import (
	"context"
	"testing"

	"arenacore/server/logging"
)

type capturingPublisher struct {
	events []logging.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, event logging.Event) {
	p.events = append(p.events, event)
}

func TestRespawnScheduledPublishesAtDebug(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	actor := logging.EntityRef{ID: "p1", Kind: "player"}
	RespawnScheduled(context.Background(), pub, 1, actor, RespawnScheduledPayload{Mode: "fixed", DeadlineMS: 3000})

	e := pub.events[0]
	if e.Type != EventRespawnScheduled || e.Category != logging.CategoryRules || e.Severity != logging.SeverityDebug {
		t.Fatalf("unexpected event shape: %+v", e)
	}
}

func TestRespawnedCarriesNilPayload(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	actor := logging.EntityRef{ID: "p1"}
	Respawned(context.Background(), pub, 1, actor)

	e := pub.events[0]
	if e.Type != EventRespawned || e.Severity != logging.SeverityInfo {
		t.Fatalf("unexpected event shape: %+v", e)
	}
	if e.Payload != nil {
		t.Fatalf("expected nil payload, got %+v", e.Payload)
	}
	if e.Actor != actor {
		t.Fatalf("expected actor preserved, got %+v", e.Actor)
	}
}

func TestScoreChangedAndSuddenDeathUseEmptyActor(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	ScoreChanged(context.Background(), pub, 1, ScoreChangedPayload{Team: 0, Score: 5})
	SuddenDeath(context.Background(), pub, 2, SuddenDeathPayload{NewScoreLimit: 10})

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	for _, e := range pub.events {
		if e.Actor != (logging.EntityRef{}) {
			t.Fatalf("expected empty actor, got %+v", e.Actor)
		}
	}
	if pub.events[0].Type != EventScoreChanged || pub.events[1].Type != EventSuddenDeath {
		t.Fatalf("unexpected event ordering: %v", pub.events)
	}
}

func TestVIPAssignedAndWeaponRotationPreserveActor(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	actor := logging.EntityRef{ID: "p1", Kind: "player"}
	VIPAssigned(context.Background(), pub, 1, actor, VIPAssignedPayload{Team: 0})
	WeaponRotation(context.Background(), pub, 2, actor, WeaponRotationPayload{Weapon: "rail", Utility: "smoke"})

	if pub.events[0].Actor != actor || pub.events[1].Actor != actor {
		t.Fatalf("expected actor preserved for both events")
	}
	if pub.events[1].Severity != logging.SeverityDebug {
		t.Fatalf("expected weapon rotation at debug severity, got %v", pub.events[1].Severity)
	}
}

func TestHelpersAreNoOpsWithNilPublisher(t *testing.T) {
	t.Parallel()

	RespawnScheduled(context.Background(), nil, 1, logging.EntityRef{}, RespawnScheduledPayload{})
	Respawned(context.Background(), nil, 1, logging.EntityRef{})
	ScoreChanged(context.Background(), nil, 1, ScoreChangedPayload{})
	SuddenDeath(context.Background(), nil, 1, SuddenDeathPayload{})
	VIPAssigned(context.Background(), nil, 1, logging.EntityRef{}, VIPAssignedPayload{})
	WeaponRotation(context.Background(), nil, 1, logging.EntityRef{}, WeaponRotationPayload{})
}
