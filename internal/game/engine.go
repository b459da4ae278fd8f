// internal/game/engine.go
//
// The public command surface. One method per player action, each returning
// the resulting snapshot; a *RuleError means the guard failed and state is
// unchanged. Player ids are always explicit so the engine stays safe under
// concurrent or untrusted callers.
package game

import (
	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
)

// Engine is the facade over the Game/Round/Turn hierarchy.
type Engine struct {
	game *Game

	// lastError is advisory: the most recent guard rejection, cleared on the
	// next command. integrityError is sticky: it marks corrupted persisted
	// data detected at hydration and is surfaced on every snapshot.
	lastError      string
	integrityError string
}

// NewEngine creates and starts a session.
func NewEngine(players []*models.Player, startingRound int) (*Engine, error) {
	g, err := NewGame(players, startingRound)
	if err != nil {
		return nil, err
	}
	if rerr := g.Start(); rerr != nil {
		return nil, rerr
	}
	return &Engine{game: g}, nil
}

// apply runs one guarded command. Rejections record lastError and leave
// state untouched; successes settle any round/game transition they caused.
func (e *Engine) apply(fn func() *RuleError) (Snapshot, error) {
	e.lastError = ""
	if err := fn(); err != nil {
		e.lastError = err.Error()
		return e.Snapshot(), err
	}
	e.game.settle()
	return e.Snapshot(), nil
}

// activeRound resolves the player and the live round, rejecting commands
// addressed to finished games or unknown players.
func (e *Engine) activeRound(playerID uuid.UUID) (*Round, *models.Player, *RuleError) {
	p := e.game.PlayerByID(playerID)
	if p == nil {
		return nil, nil, reject(ErrWrongPlayer, "player %s is not in this game", playerID)
	}
	if e.game.Phase != GamePlaying || e.game.Round == nil {
		return nil, nil, reject(ErrWrongPhase, "game phase is %s", e.game.Phase)
	}
	return e.game.Round, p, nil
}

// currentTurn additionally requires the caller to hold the turn in an active
// round.
func (e *Engine) currentTurn(playerID uuid.UUID) (*Round, *models.Player, *RuleError) {
	r, p, err := e.activeRound(playerID)
	if err != nil {
		return nil, nil, err
	}
	if r.Phase != RoundActive {
		return nil, nil, reject(ErrWrongPhase, "round phase is %s", r.Phase)
	}
	if r.currentPlayer().ID != playerID {
		return nil, nil, reject(ErrWrongPlayer, "it is not %s's turn", p.Name)
	}
	return r, p, nil
}

// DrawFromStock draws the top stock card as the turn's draw. During a May-I
// resolution the current player may still answer with a stock draw, which
// forfeits their claim priority.
func (e *Engine) DrawFromStock(playerID uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.activeRound(playerID)
		if err != nil {
			return err
		}
		if r.currentPlayer().ID != playerID {
			return reject(ErrWrongPlayer, "it is not %s's turn", p.Name)
		}
		if r.Phase == RoundResolving {
			return r.mayIStockDraw(p)
		}
		if r.Phase != RoundActive {
			return reject(ErrWrongPhase, "round phase is %s", r.Phase)
		}
		return r.turnDrawFromStock(p)
	})
}

// DrawFromDiscard takes the exposed discard card as the turn's draw.
func (e *Engine) DrawFromDiscard(playerID uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.currentTurn(playerID)
		if err != nil {
			return err
		}
		return r.turnDrawFromDiscard(p)
	})
}

// Skip ends the optional-action phase of the caller's turn. A player being
// prompted in a May-I resolution may also skip, which counts as allowing.
func (e *Engine) Skip(playerID uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.activeRound(playerID)
		if err != nil {
			return err
		}
		if r.Phase == RoundResolving && r.MayI != nil && r.MayI.PlayerBeingPrompted() == playerID {
			return r.allowMayI(p)
		}
		if r.Phase != RoundActive || r.currentPlayer().ID != playerID {
			return reject(ErrWrongPlayer, "nothing for %s to skip", p.Name)
		}
		return r.turnSkip()
	})
}

// LayDown lays the round's contract from the caller's hand.
func (e *Engine) LayDown(playerID uuid.UUID, melds []models.MeldProposal) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.currentTurn(playerID)
		if err != nil {
			return err
		}
		return r.turnLayDown(p, melds)
	})
}

// LayOff adds one hand card to an existing meld.
func (e *Engine) LayOff(playerID, cardID, meldID uuid.UUID, pos models.LayOffPosition) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.currentTurn(playerID)
		if err != nil {
			return err
		}
		return r.turnLayOff(p, cardID, meldID, pos)
	})
}

// Swap exchanges a run's joker for the natural card it represents.
func (e *Engine) Swap(playerID, meldID, jokerCardID, handCardID uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.currentTurn(playerID)
		if err != nil {
			return err
		}
		return r.turnSwap(p, meldID, jokerCardID, handCardID)
	})
}

// Discard ends the caller's turn with the named card.
func (e *Engine) Discard(playerID, cardID uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.currentTurn(playerID)
		if err != nil {
			return err
		}
		return r.turnDiscard(p, cardID)
	})
}

// CallMayI contests the exposed discard card.
func (e *Engine) CallMayI(playerID uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.activeRound(playerID)
		if err != nil {
			return err
		}
		return r.callMayI(p)
	})
}

// AllowMayI defers to the original caller.
func (e *Engine) AllowMayI(playerID uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.activeRound(playerID)
		if err != nil {
			return err
		}
		return r.allowMayI(p)
	})
}

// ClaimMayI takes the contested card for the prompted player.
func (e *Engine) ClaimMayI(playerID uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		r, p, err := e.activeRound(playerID)
		if err != nil {
			return err
		}
		return r.claimMayI(p)
	})
}

// ReorderHand rearranges the caller's own hand. Always legal while the game
// runs, for any player, with no other state effect; the new order must be a
// permutation of the current hand.
func (e *Engine) ReorderHand(playerID uuid.UUID, order []uuid.UUID) (Snapshot, error) {
	return e.apply(func() *RuleError {
		p := e.game.PlayerByID(playerID)
		if p == nil {
			return reject(ErrWrongPlayer, "player %s is not in this game", playerID)
		}
		if e.game.Phase == GameEnd {
			return reject(ErrWrongPhase, "game is over")
		}
		if len(order) != len(p.Hand) {
			return reject(ErrInvalidInput, "order names %d cards, hand holds %d", len(order), len(p.Hand))
		}
		byID := make(map[uuid.UUID]models.Card, len(p.Hand))
		for _, c := range p.Hand {
			byID[c.ID] = c
		}
		next := make([]models.Card, 0, len(order))
		for _, id := range order {
			c, ok := byID[id]
			if !ok {
				return reject(ErrInvalidInput, "card %s is not in hand (or repeated)", id)
			}
			delete(byID, id)
			next = append(next, c)
		}
		p.Hand = next
		return nil
	})
}

// Apply dispatches a wire command to the matching engine method.
func (e *Engine) Apply(cmd models.Command) (Snapshot, error) {
	switch cmd.Type {
	case models.CmdDrawStock:
		return e.DrawFromStock(cmd.PlayerID)
	case models.CmdDrawDiscard:
		return e.DrawFromDiscard(cmd.PlayerID)
	case models.CmdSkip:
		return e.Skip(cmd.PlayerID)
	case models.CmdLayDown:
		return e.LayDown(cmd.PlayerID, cmd.Melds)
	case models.CmdLayOff:
		return e.LayOff(cmd.PlayerID, cmd.CardID, cmd.MeldID, cmd.Position)
	case models.CmdSwap:
		return e.Swap(cmd.PlayerID, cmd.MeldID, cmd.JokerCardID, cmd.HandCardID)
	case models.CmdDiscard:
		return e.Discard(cmd.PlayerID, cmd.CardID)
	case models.CmdCallMayI:
		return e.CallMayI(cmd.PlayerID)
	case models.CmdAllowMayI:
		return e.AllowMayI(cmd.PlayerID)
	case models.CmdClaimMayI:
		return e.ClaimMayI(cmd.PlayerID)
	case models.CmdReorderHand:
		return e.ReorderHand(cmd.PlayerID, cmd.CardOrder)
	default:
		e.lastError = "unknown command " + string(cmd.Type)
		return e.Snapshot(), reject(ErrInvalidInput, "unknown command %q", cmd.Type)
	}
}
