package lifecycle

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

func TestPlayerJoinedPublishesLifecycleCategory(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	actor := logging.EntityRef{ID: "p1", Kind: "player"}
	PlayerJoined(context.Background(), pub, 1, actor, PlayerJoinedPayload{Team: 1, SpawnX: 10, SpawnY: 20})

	e := pub.events[0]
	if e.Type != EventPlayerJoined || e.Category != logging.CategoryLifecycle || e.Severity != logging.SeverityInfo {
		t.Fatalf("unexpected event shape: %+v", e)
	}
	if e.Actor != actor {
		t.Fatalf("expected actor preserved, got %+v", e.Actor)
	}
}

func TestPlayerDisconnectedIncludesReason(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	PlayerDisconnected(context.Background(), pub, 1, logging.EntityRef{ID: "p1"}, PlayerDisconnectedPayload{Reason: "timeout"})

	payload, ok := pub.events[0].Payload.(PlayerDisconnectedPayload)
	if !ok || payload.Reason != "timeout" {
		t.Fatalf("expected reason to be preserved, got %+v", pub.events[0].Payload)
	}
}

func TestRoundStartedAndEndedUseEmptyActor(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	RoundStarted(context.Background(), pub, 1, RoundStartedPayload{Round: 2})
	RoundEnded(context.Background(), pub, 2, RoundEndedPayload{Round: 2, TeamScores: map[int]int{0: 3, 1: 1}})

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	for _, e := range pub.events {
		if e.Actor != (logging.EntityRef{}) {
			t.Fatalf("expected empty actor for round events, got %+v", e.Actor)
		}
	}
	if pub.events[0].Type != EventRoundStarted || pub.events[1].Type != EventRoundEnded {
		t.Fatalf("unexpected event ordering: %v", pub.events)
	}
}

func TestMatchOverCarriesVictoryReason(t *testing.T) {
	t.Parallel()

	pub := &capturingPublisher{}
	MatchOver(context.Background(), pub, 100, MatchOverPayload{WinningTeam: 0, Reason: "score limit"})

	e := pub.events[0]
	if e.Type != EventMatchOver {
		t.Fatalf("expected EventMatchOver, got %v", e.Type)
	}
	payload, ok := e.Payload.(MatchOverPayload)
	if !ok || payload.Reason != "score limit" {
		t.Fatalf("expected reason preserved, got %+v", e.Payload)
	}
}

func TestHelpersAreNoOpsWithNilPublisher(t *testing.T) {
	t.Parallel()

	PlayerJoined(context.Background(), nil, 1, logging.EntityRef{}, PlayerJoinedPayload{})
	PlayerDisconnected(context.Background(), nil, 1, logging.EntityRef{}, PlayerDisconnectedPayload{})
	RoundStarted(context.Background(), nil, 1, RoundStartedPayload{})
	RoundEnded(context.Background(), nil, 1, RoundEndedPayload{})
	MatchOver(context.Background(), nil, 1, MatchOverPayload{})
}
