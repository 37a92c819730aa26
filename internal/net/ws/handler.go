package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"arenacore/server/internal/entities"
	"arenacore/server/internal/geom"
	"arenacore/server/internal/matchid"
	"arenacore/server/internal/net/proto"
	"arenacore/server/logging"
	loggingnetwork "arenacore/server/logging/network"
)

// clientMessage is the single inbound envelope a session reads; Type selects
// which proto fields are meaningful.
type clientMessage struct {
	Type string `json:"type"`

	// type == "input"
	LeftFire bool      `json:"leftFire"`
	AltFire  bool      `json:"altFire"`
	Sprint   bool      `json:"sprint"`
	MoveDir  geom.Vec2 `json:"moveDir"`
	AimDir   geom.Vec2 `json:"aimDir"`
	Reload   bool      `json:"reload"`

	// type == "config"
	Config proto.PlayerConfigRequest `json:"config"`
}

// ServeHTTP upgrades the request to a websocket and runs the session's read
// loop until the connection closes. Query parameters: id, name, team,
// weapon, utility (all optional, used on first join). A client that omits
// id is assigned a fresh anonymous session identifier.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerIDParam := r.URL.Query().Get("id")
	if playerIDParam == "" {
		playerIDParam = matchid.NewSession()
	}
	playerID := entities.PlayerID(playerIDParam)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("ws: upgrade failed for %s: %v", playerID, err)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = playerIDParam
	}
	team := 0
	if t := r.URL.Query().Get("team"); t != "" {
		if parsed, err := strconv.Atoi(t); err == nil {
			team = parsed
		}
	}
	weapon := r.URL.Query().Get("weapon")
	utility := r.URL.Query().Get("utility")

	h.match.Join(r.Context(), playerID, name, team, weapon, utility)

	sess := &session{playerID: playerID, conn: conn}
	h.addSession(sess)

	initial := h.match.InitialState(playerID)
	if err := sess.writeJSON(initial); err != nil {
		h.logger.Printf("ws: failed to send initial state to %s: %v", playerID, err)
		h.disconnect(r.Context(), playerID, "initial state send failed")
		return
	}

	h.readLoop(r.Context(), sess)
}

func (h *Hub) readLoop(ctx context.Context, sess *session) {
	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			h.disconnect(ctx, sess.playerID, "connection closed")
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			loggingnetwork.MessageRejected(ctx, h.publisher, 0,
				refFor(sess.playerID), loggingnetwork.MessageRejectedPayload{Reason: "malformed json"})
			continue
		}

		switch msg.Type {
		case "input":
			h.match.SetInput(sess.playerID, proto.PlayerInput{
				LeftFire: msg.LeftFire,
				AltFire:  msg.AltFire,
				Sprint:   msg.Sprint,
				MoveDir:  msg.MoveDir,
				AimDir:   msg.AimDir,
				Reload:   msg.Reload,
			})
		case "config":
			h.match.ApplyConfig(sess.playerID, msg.Config)
		default:
			loggingnetwork.MessageRejected(ctx, h.publisher, 0,
				refFor(sess.playerID), loggingnetwork.MessageRejectedPayload{Reason: "unknown message type: " + msg.Type})
		}
	}
}

func (h *Hub) disconnect(ctx context.Context, playerID entities.PlayerID, reason string) {
	h.removeSession(playerID)
	h.match.Leave(ctx, playerID, reason)
}

func refFor(playerID entities.PlayerID) logging.EntityRef {
	return logging.EntityRef{ID: string(playerID), Kind: "player"}
}
