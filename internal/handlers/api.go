// internal/handlers/api.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cardwell/mayi/internal/models"
	"github.com/cardwell/mayi/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type createSessionRequest struct {
	Players []struct {
		Name      string `json:"name"`
		Automated bool   `json:"automated"`
	} `json:"players"`
	StartingRound int `json:"startingRound,omitempty"`
}

type createSessionResponse struct {
	SessionID uuid.UUID        `json:"sessionId"`
	Players   []playerIdentity `json:"players"`
}

type playerIdentity struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CreateSessionHandler handles POST /session/create. Seat order in the
// request is seating order at the table.
func CreateSessionHandler(logger *logrus.Logger, s *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
		players := make([]*models.Player, 0, len(req.Players))
		for _, p := range req.Players {
			players = append(players, &models.Player{
				ID:        uuid.New(),
				Name:      p.Name,
				Automated: p.Automated,
			})
		}
		sessionID, _, err := s.CreateSession(r.Context(), players, req.StartingRound)
		if err != nil {
			logger.WithError(err).Warn("session creation rejected")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := createSessionResponse{SessionID: sessionID}
		for _, p := range players {
			resp.Players = append(resp.Players, playerIdentity{ID: p.ID, Name: p.Name})
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(resp)
	}
}

// StateHandler handles GET /session/state?session_id=&player_id= and
// returns the redacted view for that seat.
func StateHandler(logger *logrus.Logger, s *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
		if err != nil {
			http.Error(w, "invalid session_id", http.StatusBadRequest)
			return
		}
		playerID, err := uuid.Parse(r.URL.Query().Get("player_id"))
		if err != nil {
			http.Error(w, "invalid player_id", http.StatusBadRequest)
			return
		}
		view, err := s.View(r.Context(), sessionID, playerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			logger.WithError(err).Error("state read failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(view)
	}
}
