// internal/handlers/session_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cardwell/mayi/internal/game"
	"github.com/cardwell/mayi/internal/middleware"
	"github.com/cardwell/mayi/internal/models"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// wsEnvelope is what the server pushes: either a state update or a command
// rejection for the sender.
type wsEnvelope struct {
	Type  string           `json:"type"`
	State *game.PlayerView `json:"state,omitempty"`
	Error string           `json:"error,omitempty"`
}

const wsWriteTimeout = 3 * time.Second

// SessionWSHandler upgrades to WebSocket for one seat of one session:
// /session/ws/{session_id}/{player_id}. The client sends Command JSON; the
// server forces the command's player id to the seat, applies it, and pushes
// refreshed views to every connected seat.
func SessionWSHandler(logger *logrus.Logger, s *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/session/ws/"), "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			http.Error(w, "expected /session/ws/{session_id}/{player_id}", http.StatusBadRequest)
			return
		}
		sessionID, err := uuid.Parse(parts[0])
		if err != nil {
			http.Error(w, "invalid session_id", http.StatusBadRequest)
			return
		}
		playerID, err := uuid.Parse(parts[1])
		if err != nil {
			http.Error(w, "invalid player_id", http.StatusBadRequest)
			return
		}

		view, err := s.View(r.Context(), sessionID, playerID)
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if !seatExists(view, playerID) {
			http.Error(w, "player is not in this session", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"mayi"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for session %s: %v", sessionID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal error")

		if c.Subprotocol() != "mayi" {
			c.Close(websocket.StatusPolicyViolation, "client must use the 'mayi' subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		s.registerConn(sessionID, playerID, c)
		defer s.unregisterConn(sessionID, playerID, c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Initial state push.
		writeEnvelope(ctx, c, wsEnvelope{Type: "state", State: &view})

		readErr := readSessionCommands(ctx, c, s, sessionID, playerID, logger)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
		c.Close(websocket.StatusNormalClosure, "bye")
	}
}

func seatExists(v game.PlayerView, playerID uuid.UUID) bool {
	for _, p := range v.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

func readSessionCommands(ctx context.Context, c *websocket.Conn, s *SessionServer, sessionID, playerID uuid.UUID, logger *logrus.Logger) error {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		var cmd models.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			writeEnvelope(ctx, c, wsEnvelope{Type: "error", Error: "malformed command"})
			continue
		}
		cmd.PlayerID = playerID

		view, err := s.ExecuteCommand(ctx, sessionID, cmd)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"session_id": sessionID,
				"player_id":  playerID,
				"command":    cmd.Type,
			}).WithError(err).Info("command rejected")
			writeEnvelope(ctx, c, wsEnvelope{Type: "error", Error: err.Error(), State: &view})
			continue
		}
		writeEnvelope(ctx, c, wsEnvelope{Type: "state", State: &view})
	}
}

func writeEnvelope(ctx context.Context, c *websocket.Conn, env wsEnvelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	_ = c.Write(wctx, websocket.MessageText, data)
}

// pushViews renders a per-seat view and sends it to every connected seat of
// the session. Sends are asynchronous so a slow client never blocks the
// command path.
func (s *SessionServer) pushViews(eng *game.Engine, sessionID uuid.UUID) {
	conns := s.connectedPlayers(sessionID)
	for pid, c := range conns {
		view := eng.PlayerView(pid)
		env := wsEnvelope{Type: "state", State: &view}
		go func(c *websocket.Conn, env wsEnvelope) {
			ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
			defer cancel()
			data, err := json.Marshal(env)
			if err != nil {
				return
			}
			_ = c.Write(ctx, websocket.MessageText, data)
		}(c, env)
	}
}
