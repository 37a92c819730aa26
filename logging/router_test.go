package logging

import (
	"context"
	"log"
	"sync"
	"testing"
	"time"
)

func newTestRouter(t *testing.T, cfg Config, mem Sink) *Router {
	t.Helper()
	router, err := NewRouter(cfg, SystemClock{}, log.Default(), map[string]Sink{"memory": mem})
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	t.Cleanup(func() { router.Close(context.Background()) })
	return router
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Write(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Close(context.Context) error { return nil }

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *recordingSink) first() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[0]
}

func TestPublishForwardsEventToEnabledSink(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	mem := &recordingSink{}
	router := newTestRouter(t, cfg, mem)

	router.Publish(context.Background(), Event{Type: "test.event", Category: CategoryCombat})

	deadline := time.Now().Add(time.Second)
	for mem.len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if mem.len() != 1 {
		t.Fatalf("expected exactly one event forwarded, got %d", mem.len())
	}
}

func TestPublishFiltersBelowMinSeverity(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.MinSeverity = SeverityError
	mem := &recordingSink{}
	router := newTestRouter(t, cfg, mem)

	router.Publish(context.Background(), Event{Type: "low.severity", Severity: SeverityInfo})
	time.Sleep(50 * time.Millisecond)

	if mem.len() != 0 {
		t.Fatalf("expected low-severity event to be filtered, got %d events", mem.len())
	}
}

func TestPublishFiltersUnlistedCategory(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.Categories = []Category{CategoryCombat}
	mem := &recordingSink{}
	router := newTestRouter(t, cfg, mem)

	router.Publish(context.Background(), Event{Type: "rules.event", Category: CategoryRules})
	time.Sleep(50 * time.Millisecond)

	if mem.len() != 0 {
		t.Fatalf("expected event outside the allowed categories to be filtered, got %d", mem.len())
	}
}

func TestPublishSkipsWhenContextAlreadyDone(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	mem := &recordingSink{}
	router := newTestRouter(t, cfg, mem)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	router.Publish(ctx, Event{Type: "test.event"})
	time.Sleep(50 * time.Millisecond)

	if mem.len() != 0 {
		t.Fatalf("expected no event published on an already-cancelled context, got %d", mem.len())
	}
}

func TestPublishStampsTimeWhenZero(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	mem := &recordingSink{}
	router := newTestRouter(t, cfg, mem)

	router.Publish(context.Background(), Event{Type: "test.event"})

	deadline := time.Now().Add(time.Second)
	for mem.len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if mem.len() != 1 || mem.first().Time.IsZero() {
		t.Fatalf("expected router to stamp the event time when unset")
	}
}

func TestUnavailableSinkIsCountedDisabled(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"does-not-exist"}
	router, err := NewRouter(cfg, SystemClock{}, log.Default(), map[string]Sink{})
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	defer router.Close(context.Background())

	snap := router.MetricsSnapshot()
	if snap["sink_disabled_total"] != 1 {
		t.Fatalf("expected one disabled sink counted, got %v", snap["sink_disabled_total"])
	}
}

func TestNewRouterRejectsNonPositiveBufferSize(t *testing.T) {
	t.Parallel()

	_, err := NewRouter(Config{BufferSize: 0}, SystemClock{}, log.Default(), nil)
	if err == nil {
		t.Fatalf("expected an error for a non-positive buffer size")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	mem := &recordingSink{}
	router, err := NewRouter(cfg, SystemClock{}, log.Default(), map[string]Sink{"memory": mem})
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("second close should be a no-op, got: %v", err)
	}
}
