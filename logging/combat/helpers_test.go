package combat

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

func TestFiredPublishesCombatCategoryAtDebug(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	actor := logging.EntityRef{ID: "p1", Kind: "player"}

	Fired(context.Background(), pub, 10, actor, FiredPayload{Ordinance: "bullet", Count: 3})

	if len(pub.events) != 1 {
		t.Fatalf("expected one event published, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.Type != EventFired || e.Category != logging.CategoryCombat || e.Severity != logging.SeverityDebug {
		t.Fatalf("unexpected event shape: %+v", e)
	}
	if e.Actor != actor {
		t.Fatalf("expected actor preserved, got %+v", e.Actor)
	}
}

func TestDamageIncludesTargetInTargetsSlice(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	actor := logging.EntityRef{ID: "p1", Kind: "player"}
	target := logging.EntityRef{ID: "p2", Kind: "player"}

	Damage(context.Background(), pub, 10, actor, target, DamagePayload{Amount: 25, TargetHealth: 75})

	e := pub.events[0]
	if len(e.Targets) != 1 || e.Targets[0] != target {
		t.Fatalf("expected target in Targets slice, got %+v", e.Targets)
	}
	if e.Severity != logging.SeverityInfo {
		t.Fatalf("expected damage events at info severity, got %v", e.Severity)
	}
}

func TestEliminatedPublishesInfoSeverity(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	Eliminated(context.Background(), pub, 10, logging.EntityRef{ID: "p1"}, EliminatedPayload{KillerID: "p2"})

	e := pub.events[0]
	if e.Type != EventEliminated || e.Severity != logging.SeverityInfo {
		t.Fatalf("unexpected event shape: %+v", e)
	}
}

func TestHelpersAreNoOpsWithNilPublisher(t *testing.T) {
	t.Parallel()

	Fired(context.Background(), nil, 1, logging.EntityRef{}, FiredPayload{})
	Damage(context.Background(), nil, 1, logging.EntityRef{}, logging.EntityRef{}, DamagePayload{})
	Eliminated(context.Background(), nil, 1, logging.EntityRef{}, EliminatedPayload{})
}
