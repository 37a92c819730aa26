package effects

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

func TestFieldSpawnedPublishesEffectsCategory(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	FieldSpawned(context.Background(), pub, 5, logging.EntityRef{ID: "owner"}, FieldSpawnedPayload{Kind: "FIRE", Radius: 40})

	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.Type != EventFieldSpawned || e.Category != logging.CategoryEffects {
		t.Fatalf("unexpected event shape: %+v", e)
	}
	payload, ok := e.Payload.(FieldSpawnedPayload)
	if !ok || payload.Kind != "FIRE" {
		t.Fatalf("expected FieldSpawnedPayload with kind FIRE, got %+v", e.Payload)
	}
}

func TestFieldExpiredPublishesEffectsCategory(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	FieldExpired(context.Background(), pub, 5, logging.EntityRef{}, FieldExpiredPayload{Kind: "HEAL_ZONE"})

	if pub.events[0].Type != EventFieldExpired {
		t.Fatalf("expected EventFieldExpired, got %v", pub.events[0].Type)
	}
}

func TestModificationAttachedAndRevertedUseTargetAsActor(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	target := logging.EntityRef{ID: "p1", Kind: "player"}

	ModificationAttached(context.Background(), pub, 5, target, ModificationPayload{Key: "burning"})
	ModificationReverted(context.Background(), pub, 6, target, ModificationPayload{Key: "burning", Reason: "expired"})

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[0].Actor != target || pub.events[1].Actor != target {
		t.Fatalf("expected target used as actor for both events")
	}
	if pub.events[0].Type != EventModificationAttached || pub.events[1].Type != EventModificationReverted {
		t.Fatalf("unexpected event types: %v, %v", pub.events[0].Type, pub.events[1].Type)
	}
}

func TestHelpersAreNoOpsWithNilPublisher(t *testing.T) {
	t.Parallel()

	FieldSpawned(context.Background(), nil, 1, logging.EntityRef{}, FieldSpawnedPayload{})
	FieldExpired(context.Background(), nil, 1, logging.EntityRef{}, FieldExpiredPayload{})
	ModificationAttached(context.Background(), nil, 1, logging.EntityRef{}, ModificationPayload{})
	ModificationReverted(context.Background(), nil, 1, logging.EntityRef{}, ModificationPayload{})
}
