// internal/game/snapshot.go
//
// Flat, read-only projections of the nested machine hierarchy. Snapshot is
// the full-state form; PlayerView redacts every other player's hand to a
// count and the stock to its size, and is the only shape UI layers consume.
package game

import (
	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
)

// Snapshot turn phases. The turn machine's DRAWN state surfaces as
// AWAITING_ACTION: the player has drawn and may act or discard.
const (
	PhaseAwaitingDraw    = "AWAITING_DRAW"
	PhaseAwaitingAction  = "AWAITING_ACTION"
	PhaseAwaitingDiscard = "AWAITING_DISCARD"
)

// PlayerSnapshot is one seat in the full snapshot.
type PlayerSnapshot struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Hand       []models.Card `json:"hand"`
	HandCount  int           `json:"handCount"`
	IsDown     bool          `json:"isDown"`
	TotalScore int           `json:"totalScore"`
	Automated  bool          `json:"automated"`
}

// MayIView is the resolution state with the derived prompt target attached.
type MayIView struct {
	OriginalCaller      uuid.UUID   `json:"originalCaller"`
	CardBeingClaimed    models.Card `json:"cardBeingClaimed"`
	PlayersToCheck      []uuid.UUID `json:"playersToCheck"`
	CurrentPromptIndex  int         `json:"currentPromptIndex"`
	PlayerBeingPrompted uuid.UUID   `json:"playerBeingPrompted"`
	PlayersWhoAllowed   []uuid.UUID `json:"playersWhoAllowed"`
	Winner              *uuid.UUID  `json:"winner,omitempty"`
	Outcome             MayIOutcome `json:"outcome"`
}

func mayIView(m *MayIContext) *MayIView {
	if m == nil {
		return nil
	}
	return &MayIView{
		OriginalCaller:      m.OriginalCaller,
		CardBeingClaimed:    m.CardBeingClaimed,
		PlayersToCheck:      m.PlayersToCheck,
		CurrentPromptIndex:  m.CurrentPromptIndex,
		PlayerBeingPrompted: m.PlayerBeingPrompted(),
		PlayersWhoAllowed:   m.PlayersWhoAllowed,
		Winner:              m.Winner,
		Outcome:             m.Outcome,
	}
}

// Snapshot is the full derived state; it is never authoritative.
type Snapshot struct {
	GameID             uuid.UUID        `json:"gameId"`
	Phase              string           `json:"phase"`
	TurnPhase          string           `json:"turnPhase,omitempty"`
	Round              int              `json:"round"`
	Contract           *Contract        `json:"contract,omitempty"`
	Players            []PlayerSnapshot `json:"players"`
	DealerIndex        int              `json:"dealerIndex"`
	CurrentPlayerIndex int              `json:"currentPlayerIndex"`
	AwaitingPlayerID   uuid.UUID        `json:"awaitingPlayerId"`
	Stock              []models.Card    `json:"stock"`
	Discard            []models.Card    `json:"discard"`
	Table              []models.Meld    `json:"table"`
	HasDrawn           bool             `json:"hasDrawn"`
	LaidDownThisTurn   bool             `json:"laidDownThisTurn"`
	MayI               *MayIView        `json:"mayIContext,omitempty"`
	RoundHistory       []RoundRecord    `json:"roundHistory"`
	Winners            []uuid.UUID      `json:"winners,omitempty"`
	LastError          string           `json:"lastError,omitempty"`
}

// phaseOf flattens the game/round phases into the snapshot phase.
func (e *Engine) phaseOf() string {
	g := e.game
	switch {
	case g.Phase == GameEnd:
		return "GAME_END"
	case g.Round == nil:
		return string(g.Phase)
	case g.Round.Phase == RoundResolving:
		return "RESOLVING_MAY_I"
	case g.Round.Phase == RoundEnd:
		return "ROUND_END"
	default:
		return "ROUND_ACTIVE"
	}
}

func turnPhaseOf(t *Turn) string {
	if t == nil {
		return ""
	}
	switch t.Phase {
	case TurnAwaitingDraw:
		return PhaseAwaitingDraw
	case TurnDrawn:
		return PhaseAwaitingAction
	case TurnAwaitingDiscard:
		return PhaseAwaitingDiscard
	default:
		return string(t.Phase)
	}
}

// awaitingPlayer is whoever the engine is waiting on: the prompted player
// mid-May-I, otherwise the current player.
func (e *Engine) awaitingPlayer() uuid.UUID {
	r := e.game.Round
	if r == nil {
		return uuid.Nil
	}
	if r.Phase == RoundResolving && r.MayI != nil {
		return r.MayI.PlayerBeingPrompted()
	}
	if r.Turn != nil {
		return r.Turn.PlayerID
	}
	return uuid.Nil
}

// Snapshot extracts the flat full-state view.
func (e *Engine) Snapshot() Snapshot {
	g := e.game
	s := Snapshot{
		GameID:       g.ID,
		Phase:        e.phaseOf(),
		Round:        g.CurrentRound,
		DealerIndex:  g.DealerIndex,
		RoundHistory: g.History,
		LastError:    e.lastError,
	}
	if e.integrityError != "" {
		s.LastError = e.integrityError
	}
	if c, ok := ContractForRound(g.CurrentRound); ok && g.Phase != GameEnd {
		s.Contract = &c
	}
	for _, p := range g.Players {
		s.Players = append(s.Players, PlayerSnapshot{
			ID:         p.ID,
			Name:       p.Name,
			Hand:       append([]models.Card{}, p.Hand...),
			HandCount:  len(p.Hand),
			IsDown:     p.IsDown,
			TotalScore: p.TotalScore,
			Automated:  p.Automated,
		})
	}
	if r := g.Round; r != nil {
		s.CurrentPlayerIndex = r.CurrentPlayerIndex
		s.AwaitingPlayerID = e.awaitingPlayer()
		s.Stock = append([]models.Card{}, r.Stock...)
		s.Discard = append([]models.Card{}, r.Discard...)
		s.Table = append([]models.Meld{}, r.Table...)
		s.TurnPhase = turnPhaseOf(r.Turn)
		if r.Turn != nil {
			s.HasDrawn = r.Turn.HasDrawn
			s.LaidDownThisTurn = r.Turn.LaidDownThisTurn
		}
		s.MayI = mayIView(r.MayI)
	}
	if g.Phase == GameEnd {
		s.Winners = g.Winners()
	}
	return s
}

// ViewPlayer is one seat as another player sees it: hand redacted to a count
// unless it is the viewer's own.
type ViewPlayer struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	HandCount  int           `json:"handCount"`
	Hand       []models.Card `json:"hand,omitempty"`
	IsDown     bool          `json:"isDown"`
	TotalScore int           `json:"totalScore"`
	Automated  bool          `json:"automated"`
}

// PlayerView is the redacted state for one viewer. The exposed discard and
// the table are public; the stock is a count only.
type PlayerView struct {
	GameID             uuid.UUID     `json:"gameId"`
	ViewerID           uuid.UUID     `json:"viewerId"`
	Phase              string        `json:"phase"`
	TurnPhase          string        `json:"turnPhase,omitempty"`
	Round              int           `json:"round"`
	Contract           *Contract     `json:"contract,omitempty"`
	Players            []ViewPlayer  `json:"players"`
	DealerIndex        int           `json:"dealerIndex"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	AwaitingPlayerID   uuid.UUID     `json:"awaitingPlayerId"`
	StockCount         int           `json:"stockCount"`
	DiscardTop         *models.Card  `json:"discardTop,omitempty"`
	DiscardCount       int           `json:"discardCount"`
	Table              []models.Meld `json:"table"`
	HasDrawn           bool          `json:"hasDrawn"`
	LaidDownThisTurn   bool          `json:"laidDownThisTurn"`
	MayI               *MayIView     `json:"mayIContext,omitempty"`
	RoundHistory       []RoundRecord `json:"roundHistory"`
	Winners            []uuid.UUID   `json:"winners,omitempty"`
	LastError          string        `json:"lastError,omitempty"`
}

// PlayerView renders the state as seen by one player.
func (e *Engine) PlayerView(playerID uuid.UUID) PlayerView {
	s := e.Snapshot()
	v := PlayerView{
		GameID:             s.GameID,
		ViewerID:           playerID,
		Phase:              s.Phase,
		TurnPhase:          s.TurnPhase,
		Round:              s.Round,
		Contract:           s.Contract,
		DealerIndex:        s.DealerIndex,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		AwaitingPlayerID:   s.AwaitingPlayerID,
		StockCount:         len(s.Stock),
		DiscardCount:       len(s.Discard),
		Table:              s.Table,
		HasDrawn:           s.HasDrawn,
		LaidDownThisTurn:   s.LaidDownThisTurn,
		MayI:               s.MayI,
		RoundHistory:       s.RoundHistory,
		Winners:            s.Winners,
		LastError:          s.LastError,
	}
	if len(s.Discard) > 0 {
		top := s.Discard[0]
		v.DiscardTop = &top
	}
	for _, p := range s.Players {
		vp := ViewPlayer{
			ID:         p.ID,
			Name:       p.Name,
			HandCount:  p.HandCount,
			IsDown:     p.IsDown,
			TotalScore: p.TotalScore,
			Automated:  p.Automated,
		}
		if p.ID == playerID {
			vp.Hand = p.Hand
		}
		v.Players = append(v.Players, vp)
	}
	return v
}
