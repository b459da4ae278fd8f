// internal/handlers/session_server.go
package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/cardwell/mayi/internal/coordinator"
	"github.com/cardwell/mayi/internal/game"
	"github.com/cardwell/mayi/internal/models"
	"github.com/cardwell/mayi/internal/store"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionServer ties the transport to the store and the coordinator. It
// serializes human commands per session with an in-process lock; cross-node
// safety still rests on the store's compare-and-swap.
type SessionServer struct {
	Logger *logrus.Logger
	Store  store.StateStore
	Coord  *coordinator.Coordinator

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
	conns map[uuid.UUID]map[uuid.UUID]*websocket.Conn
}

func NewSessionServer(logger *logrus.Logger, st store.StateStore, coord *coordinator.Coordinator) *SessionServer {
	return &SessionServer{
		Logger: logger,
		Store:  st,
		Coord:  coord,
		locks:  make(map[uuid.UUID]*sync.Mutex),
		conns:  make(map[uuid.UUID]map[uuid.UUID]*websocket.Conn),
	}
}

func (s *SessionServer) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

func (s *SessionServer) registerConn(sessionID, playerID uuid.UUID, c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[sessionID] == nil {
		s.conns[sessionID] = make(map[uuid.UUID]*websocket.Conn)
	}
	s.conns[sessionID][playerID] = c
}

func (s *SessionServer) unregisterConn(sessionID, playerID uuid.UUID, c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[sessionID][playerID] == c {
		delete(s.conns[sessionID], playerID)
	}
}

func (s *SessionServer) connectedPlayers(sessionID uuid.UUID) map[uuid.UUID]*websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]*websocket.Conn, len(s.conns[sessionID]))
	for pid, c := range s.conns[sessionID] {
		out[pid] = c
	}
	return out
}

// CreateSession builds a fresh engine, persists it at Rev 1 and kicks the
// coordinator in case the first seat is automated.
func (s *SessionServer) CreateSession(ctx context.Context, players []*models.Player, startingRound int) (uuid.UUID, *game.Engine, error) {
	eng, err := game.NewEngine(players, startingRound)
	if err != nil {
		return uuid.Nil, nil, err
	}
	doc, err := eng.ToPersistedState()
	if err != nil {
		return uuid.Nil, nil, err
	}
	doc.Rev = 1
	sessionID := doc.Game.ID
	if err := s.Store.Set(ctx, sessionID, doc); err != nil {
		return uuid.Nil, nil, err
	}
	s.kickCoordinator(sessionID)
	return sessionID, eng, nil
}

const commandRetries = 5

// ExecuteCommand applies one human command to the latest persisted state.
// A rule rejection returns the untouched state's view with the advisory
// error attached and persists nothing. On a store conflict the command is
// re-applied to the newer revision.
func (s *SessionServer) ExecuteCommand(ctx context.Context, sessionID uuid.UUID, cmd models.Command) (game.PlayerView, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < commandRetries; attempt++ {
		doc, err := s.Store.Get(ctx, sessionID)
		if err != nil {
			return game.PlayerView{}, err
		}
		eng, err := game.FromPersistedState(doc)
		if err != nil {
			return game.PlayerView{}, err
		}
		if _, err := eng.Apply(cmd); err != nil {
			return eng.PlayerView(cmd.PlayerID), err
		}
		out, err := eng.ToPersistedState()
		if err != nil {
			return game.PlayerView{}, err
		}
		out.Rev = doc.Rev + 1
		err = s.Store.Set(ctx, sessionID, out)
		if errors.Is(err, store.ErrRevConflict) {
			continue
		}
		if err != nil {
			return game.PlayerView{}, err
		}
		if err := s.Store.Broadcast(ctx, sessionID, out); err != nil {
			s.Logger.WithError(err).WithField("session_id", sessionID).Warn("broadcast failed")
		}
		s.pushViews(eng, sessionID)
		s.kickCoordinator(sessionID)
		return eng.PlayerView(cmd.PlayerID), nil
	}
	return game.PlayerView{}, store.ErrRevConflict
}

// View reads the latest state and renders it for one player.
func (s *SessionServer) View(ctx context.Context, sessionID, playerID uuid.UUID) (game.PlayerView, error) {
	doc, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return game.PlayerView{}, err
	}
	eng, err := game.FromPersistedState(doc)
	if err != nil {
		return game.PlayerView{}, err
	}
	return eng.PlayerView(playerID), nil
}

// kickCoordinator runs the automated-turn loop in the background. A loop
// already in flight will observe the new revision itself.
func (s *SessionServer) kickCoordinator(sessionID uuid.UUID) {
	if s.Coord == nil {
		return
	}
	go func() {
		err := s.Coord.RunAutomatedTurns(context.Background(), sessionID)
		if err != nil && !errors.Is(err, coordinator.ErrLoopInFlight) {
			s.Logger.WithError(err).WithField("session_id", sessionID).
				Error("automated turn loop failed")
		}
		if err == nil {
			if doc, gerr := s.Store.Get(context.Background(), sessionID); gerr == nil {
				if eng, ferr := game.FromPersistedState(doc); ferr == nil {
					s.pushViews(eng, sessionID)
				}
			}
		}
	}()
}
