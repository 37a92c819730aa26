// Package ws adapts sim.Match to gorilla/websocket sessions: one goroutine
// per connected player reads client messages and feeds them into the match,
// while a single broadcaster goroutine drives the tick loop and fans the
// resulting snapshot out to every live session. The protocol is latest-wins:
// no command sequencing or resync journal, just the freshest input sample
// and the freshest broadcast snapshot.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arenacore/server/internal/entities"
	"arenacore/server/internal/net/proto"
	"arenacore/server/internal/sim"
	"arenacore/server/logging"
	loggingnetwork "arenacore/server/logging/network"
)

// session holds the one piece of state a connection needs beyond the socket
// itself: a mutex, because the reader goroutine and the broadcaster goroutine
// both write to conn and gorilla requires a single writer at a time.
type session struct {
	playerID entities.PlayerID
	conn     *websocket.Conn
	writeMu  sync.Mutex
}

func (s *session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// HubConfig bundles a Hub's dependencies.
type HubConfig struct {
	Logger    *log.Logger
	Publisher logging.Publisher
}

// Hub owns every live session for one match and the periodic broadcast loop.
type Hub struct {
	match     *sim.Match
	logger    *log.Logger
	publisher logging.Publisher
	upgrader  websocket.Upgrader

	mu       sync.RWMutex
	sessions map[entities.PlayerID]*session
}

// NewHub constructs a Hub bound to one running match.
func NewHub(match *sim.Match, cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	return &Hub{
		match:     match,
		logger:    logger,
		publisher: publisher,
		sessions:  make(map[entities.PlayerID]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run drives the match's tick loop and broadcasts the resulting snapshot to
// every registered session until ctx is cancelled or the match concludes.
func (h *Hub) Run(ctx context.Context, tickRate time.Duration) {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot, outcome := h.match.Tick(ctx)
			h.broadcast(snapshot)
			if outcome.Decided {
				return
			}
		}
	}
}

func (h *Hub) broadcast(snapshot proto.Snapshot) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.writeJSON(snapshot); err != nil {
			h.logger.Printf("ws: snapshot write failed for %s: %v", s.playerID, err)
			loggingnetwork.BroadcastDropped(context.Background(), h.publisher, snapshot.Tick,
				logging.EntityRef{ID: string(s.playerID), Kind: "player"},
				loggingnetwork.BroadcastDroppedPayload{Reason: err.Error()})
			h.removeSession(s.playerID)
		}
	}
}

func (h *Hub) addSession(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.playerID] = s
}

func (h *Hub) removeSession(id entities.PlayerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}
