// internal/game/mayi.go
//
// The May-I claim protocol. Any eligible non-current player may contest the
// exposed discard before the current player commits to a stock draw; players
// with higher claim priority are prompted in turn order and may defer or take
// the card for themselves.
package game

import (
	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
)

// MayIOutcome records how a resolution ended.
type MayIOutcome string

const (
	MayIPending MayIOutcome = "pending"
	// MayIGranted: every prompted player allowed, the original caller wins.
	MayIGranted MayIOutcome = "granted"
	// MayIClaimed: a higher-priority player took the card instead.
	MayIClaimed MayIOutcome = "claimed"
)

// MayIContext is the in-flight state of one resolution. It persists with the
// round so a session can restart mid-prompt.
type MayIContext struct {
	OriginalCaller     uuid.UUID   `json:"originalCaller"`
	CardBeingClaimed   models.Card `json:"cardBeingClaimed"`
	PlayersToCheck     []uuid.UUID `json:"playersToCheck"`
	CurrentPromptIndex int         `json:"currentPromptIndex"`
	PlayersWhoAllowed  []uuid.UUID `json:"playersWhoAllowed"`
	Winner             *uuid.UUID  `json:"winner,omitempty"`
	Outcome            MayIOutcome `json:"outcome"`
}

// PlayerBeingPrompted is the player whose allow/claim the resolution awaits.
func (m *MayIContext) PlayerBeingPrompted() uuid.UUID {
	if m.CurrentPromptIndex < 0 || m.CurrentPromptIndex >= len(m.PlayersToCheck) {
		return uuid.Nil
	}
	return m.PlayersToCheck[m.CurrentPromptIndex]
}

// callMayI opens a resolution for the exposed discard card. Eligibility: the
// round is active, the pile is non-empty, the caller is not the current
// player, did not discard the exposed card, is not down, and the current
// player has not yet drawn.
func (r *Round) callMayI(caller *models.Player) *RuleError {
	if r.Phase == RoundResolving {
		return reject(ErrWrongPhase, "a May-I resolution is already in progress")
	}
	if r.Phase != RoundActive {
		return reject(ErrWrongPhase, "round phase is %s", r.Phase)
	}
	if len(r.Discard) == 0 {
		return reject(ErrEmptyPile, "discard pile is empty")
	}
	if caller.ID == r.currentPlayer().ID {
		return reject(ErrNotEligible, "the current player draws from discard instead of calling May I")
	}
	if caller.ID == r.exposedDiscarderID() {
		return reject(ErrNotEligible, "cannot call May I on your own discard")
	}
	if caller.IsDown {
		return reject(ErrNotEligible, "players who are down cannot call May I")
	}
	if r.Turn.HasDrawn {
		return reject(ErrWrongPhase, "the current player has already drawn; the window is closed")
	}

	ctx := &MayIContext{
		OriginalCaller:   caller.ID,
		CardBeingClaimed: r.Discard[0],
		PlayersToCheck:   r.buildMayIQueue(caller.ID),
		Outcome:          MayIPending,
	}
	if len(ctx.PlayersToCheck) == 0 {
		r.MayI = ctx
		r.resolveMayI(caller.ID, MayIGranted)
		return nil
	}
	r.MayI = ctx
	r.Phase = RoundResolving
	return nil
}

// buildMayIQueue lists every eligible player with priority over the caller:
// current player first, then turn order, stopping at the caller. The exposed
// card's discarder and players already down are skipped and do not block.
func (r *Round) buildMayIQueue(callerID uuid.UUID) []uuid.UUID {
	var queue []uuid.UUID
	discarderID := r.exposedDiscarderID()
	n := len(r.players)
	for off := 0; off < n; off++ {
		p := r.players[(r.CurrentPlayerIndex+off)%n]
		if p.ID == callerID {
			break
		}
		if p.ID == discarderID || p.IsDown {
			continue
		}
		queue = append(queue, p.ID)
	}
	return queue
}

// allowMayI defers to the original request and moves the prompt along. When
// every prompted player has allowed, the original caller wins.
func (r *Round) allowMayI(p *models.Player) *RuleError {
	if err := r.checkPrompted(p); err != nil {
		return err
	}
	m := r.MayI
	m.PlayersWhoAllowed = append(m.PlayersWhoAllowed, p.ID)
	m.CurrentPromptIndex++
	if m.CurrentPromptIndex >= len(m.PlayersToCheck) {
		r.resolveMayI(m.OriginalCaller, MayIGranted)
	}
	return nil
}

// claimMayI takes the card for the prompted player, immediately ending the
// resolution. The original caller gets nothing.
func (r *Round) claimMayI(p *models.Player) *RuleError {
	if err := r.checkPrompted(p); err != nil {
		return err
	}
	r.resolveMayI(p.ID, MayIClaimed)
	return nil
}

func (r *Round) checkPrompted(p *models.Player) *RuleError {
	if r.Phase != RoundResolving {
		return reject(ErrWrongPhase, "no May-I resolution in progress")
	}
	if prompted := r.MayI.PlayerBeingPrompted(); p.ID != prompted {
		return reject(ErrWrongPlayer, "resolution is awaiting %s", prompted)
	}
	return nil
}

// mayIStockDraw lets the current player answer a pending resolution with
// their ordinary stock draw. If they are the one being prompted this is an
// implicit allow, forfeiting their claim priority; resolution then proceeds
// among the remaining claimants while their turn continues.
func (r *Round) mayIStockDraw(p *models.Player) *RuleError {
	if r.MayI != nil && r.MayI.PlayerBeingPrompted() == p.ID {
		if err := r.allowMayI(p); err != nil {
			return err
		}
		if r.Phase == RoundEnd {
			return nil
		}
	}
	return r.turnDrawFromStock(p)
}

// resolveMayI hands the exposed card to the winner. The current player taking
// it before their draw pays nothing: it simply becomes their turn's draw. Any
// other winner pays the card plus one unseen penalty card off the stock. A
// resolution that fires before the current player's draw resets their turn.
func (r *Round) resolveMayI(winnerID uuid.UUID, outcome MayIOutcome) {
	m := r.MayI
	m.Winner = &winnerID
	m.Outcome = outcome

	card := r.popDiscardTop()
	w := r.playerByID(winnerID)
	w.Hand = append(w.Hand, card)

	cur := r.currentPlayer()
	if winnerID == cur.ID && !r.Turn.HasDrawn {
		r.Turn.HasDrawn = true
		r.Turn.DrewFromDiscard = true
		r.Turn.Phase = TurnDrawn
		r.MayI = nil
		r.Phase = RoundActive
		return
	}

	if penalty, ok := r.popStockForDraw(); ok {
		w.Hand = append(w.Hand, penalty)
	}
	if r.Phase == RoundEnd {
		// The penalty draw exhausted every reshufflable card.
		return
	}
	r.MayI = nil
	r.Phase = RoundActive
	if !r.Turn.HasDrawn {
		r.Turn = newTurn(cur.ID)
	}
}
