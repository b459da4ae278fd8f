// internal/game/game.go
//
// The game machine: six-round progression, dealer rotation, cumulative
// scoring and final winner determination.
package game

import (
	"math/rand"
	"time"

	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
)

const (
	MinPlayers = 3
	MaxPlayers = 8
	FinalRound = 6
)

// GamePhase is the game machine's state.
type GamePhase string

const (
	GameSetup    GamePhase = "SETUP"
	GamePlaying  GamePhase = "PLAYING"
	GameRoundEnd GamePhase = "ROUND_END"
	GameEnd      GamePhase = "GAME_END"
)

// Game owns one active Round at a time; the Round owns the active Turn.
// Transitions are plain function calls, never message passing: concurrency
// only exists at the persistence boundary.
type Game struct {
	ID           uuid.UUID        `json:"id"`
	Phase        GamePhase        `json:"phase"`
	Players      []*models.Player `json:"players"`
	DealerIndex  int              `json:"dealerIndex"`
	CurrentRound int              `json:"currentRound"`
	Round        *Round           `json:"round,omitempty"`
	History      []RoundRecord    `json:"roundHistory"`

	rng *rand.Rand
}

// NewGame creates a game in SETUP with 3 to 8 players. startingRound lets a
// session begin mid-schedule; zero means round 1.
func NewGame(players []*models.Player, startingRound int) (*Game, error) {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, reject(ErrInvalidInput, "need %d to %d players, got %d", MinPlayers, MaxPlayers, len(players))
	}
	if startingRound == 0 {
		startingRound = 1
	}
	if startingRound < 1 || startingRound > FinalRound {
		return nil, reject(ErrInvalidInput, "starting round %d out of range", startingRound)
	}
	return &Game{
		ID:           uuid.New(),
		Phase:        GameSetup,
		Players:      players,
		CurrentRound: startingRound,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Start deals the first round.
func (g *Game) Start() *RuleError {
	if g.Phase != GameSetup {
		return reject(ErrWrongPhase, "game already started")
	}
	g.startRound()
	g.Phase = GamePlaying
	return nil
}

func (g *Game) startRound() {
	g.Round = newRound(g.CurrentRound, g.Players, g.DealerIndex, g.rng)
}

// settle consumes a finished round's record: rolls scores into totals,
// rotates the dealer and either deals the next round or ends the game after
// round 6.
func (g *Game) settle() {
	if g.Round == nil || g.Round.Phase != RoundEnd || g.Round.Record == nil {
		return
	}
	g.Phase = GameRoundEnd
	rec := *g.Round.Record
	for _, p := range g.Players {
		p.TotalScore += rec.Scores[p.ID]
	}
	g.History = append(g.History, rec)
	g.DealerIndex = (g.DealerIndex + 1) % len(g.Players)

	if g.CurrentRound >= FinalRound {
		g.Round = nil
		g.Phase = GameEnd
		return
	}
	g.CurrentRound++
	g.startRound()
	g.Phase = GamePlaying
}

// Winners returns every player tied at the minimum total score. Only
// meaningful once the game has ended.
func (g *Game) Winners() []uuid.UUID {
	if len(g.Players) == 0 {
		return nil
	}
	min := g.Players[0].TotalScore
	for _, p := range g.Players[1:] {
		if p.TotalScore < min {
			min = p.TotalScore
		}
	}
	var winners []uuid.UUID
	for _, p := range g.Players {
		if p.TotalScore == min {
			winners = append(winners, p.ID)
		}
	}
	return winners
}

// PlayerByID finds a participant, or nil.
func (g *Game) PlayerByID(id uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// rewire restores the unserialized links after hydration or deep copy.
func (g *Game) rewire() {
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.Round != nil {
		g.Round.players = g.Players
		g.Round.rng = g.rng
		// Keep the discarder column in lockstep with the pile.
		for len(g.Round.DiscarderIDs) < len(g.Round.Discard) {
			g.Round.DiscarderIDs = append(g.Round.DiscarderIDs, uuid.Nil)
		}
	}
}
