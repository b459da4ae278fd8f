// internal/game/turn.go
//
// The single-player turn machine: draw, then any mix of lay down / lay off /
// swap / reorder, then discard. Turn operations live here but mutate round
// state (piles, table, hands) through the owning Round, so the ownership tree
// stays Game -> Round -> Turn with plain function calls.
package game

import (
	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
)

// TurnPhase is the turn machine's state.
type TurnPhase string

const (
	TurnAwaitingDraw    TurnPhase = "AWAITING_DRAW"
	TurnDrawn           TurnPhase = "DRAWN"
	TurnAwaitingDiscard TurnPhase = "AWAITING_DISCARD"
	TurnComplete        TurnPhase = "TURN_COMPLETE"
	TurnWentOut         TurnPhase = "WENT_OUT"
)

// Turn tracks one player's rotation. It is created on rotation and destroyed
// on discard, going out, or a May-I resolution that alters the piles before
// the draw.
type Turn struct {
	PlayerID         uuid.UUID `json:"playerId"`
	Phase            TurnPhase `json:"phase"`
	HasDrawn         bool      `json:"hasDrawn"`
	DrewFromDiscard  bool      `json:"drewFromDiscard"`
	LaidDownThisTurn bool      `json:"laidDownThisTurn"`
}

func newTurn(playerID uuid.UUID) *Turn {
	return &Turn{PlayerID: playerID, Phase: TurnAwaitingDraw}
}

func (t *Turn) done() bool {
	return t.Phase == TurnComplete || t.Phase == TurnWentOut
}

// turnDrawFromStock draws the top stock card. An empty stock transparently
// reshuffles all but the exposed discard card; if there is nothing anywhere
// to reshuffle the round ends on the spot with hands scored as-is.
func (r *Round) turnDrawFromStock(p *models.Player) *RuleError {
	t := r.Turn
	if t.Phase != TurnAwaitingDraw {
		return reject(ErrWrongPhase, "cannot draw now, turn phase is %s", t.Phase)
	}
	card, ok := r.popStockForDraw()
	if !ok {
		// Round finalized inside popStockForDraw.
		return nil
	}
	p.Hand = append(p.Hand, card)
	t.HasDrawn = true
	t.Phase = TurnDrawn
	return nil
}

// turnDrawFromDiscard takes the exposed discard card as the turn's draw.
// Legal only for a player who has not yet laid down this round.
func (r *Round) turnDrawFromDiscard(p *models.Player) *RuleError {
	t := r.Turn
	if t.Phase != TurnAwaitingDraw {
		return reject(ErrWrongPhase, "cannot draw now, turn phase is %s", t.Phase)
	}
	if p.IsDown {
		return reject(ErrNotEligible, "players who are down must draw from stock")
	}
	if len(r.Discard) == 0 {
		return reject(ErrEmptyPile, "discard pile is empty")
	}
	card := r.popDiscardTop()
	p.Hand = append(p.Hand, card)
	t.HasDrawn = true
	t.DrewFromDiscard = true
	t.Phase = TurnDrawn
	return nil
}

// turnLayDown lays the round's contract. In rounds 1-5 partial hands are
// fine and the player still owes a discard. Round 6 permits laying down only
// when it consumes every card in hand, which is simultaneously going out.
func (r *Round) turnLayDown(p *models.Player, proposals []models.MeldProposal) *RuleError {
	t := r.Turn
	if t.Phase != TurnDrawn {
		return reject(ErrWrongPhase, "cannot lay down now, turn phase is %s", t.Phase)
	}
	if p.IsDown {
		return reject(ErrNotEligible, "already down this round")
	}
	contract, ok := ContractForRound(r.Number)
	if !ok {
		return reject(ErrWrongPhase, "no contract for round %d", r.Number)
	}
	if r.Number == FinalRound {
		count := 0
		for _, prop := range proposals {
			count += len(prop.CardIDs)
		}
		if count != len(p.Hand) {
			return reject(ErrInvalidMeld,
				"round %d lay-down must consume the whole hand (%d cards, proposed %d)",
				FinalRound, len(p.Hand), count)
		}
	}

	melds, err := buildContractMelds(contract, proposals, p)
	if err != nil {
		return err
	}
	for _, m := range melds {
		for _, c := range m.Cards {
			p.RemoveHandCard(c.ID)
		}
	}
	r.Table = append(r.Table, melds...)
	p.IsDown = true
	t.LaidDownThisTurn = true

	if len(p.Hand) == 0 {
		// Round 6 always lands here; earlier rounds only when the contract
		// happened to consume the entire hand.
		t.Phase = TurnWentOut
		r.finalize(p.ID)
		return nil
	}
	t.Phase = TurnAwaitingDiscard
	return nil
}

// turnLayOff adds one hand card to an existing meld. Only players who went
// down on a previous turn may lay off; the wild-ratio law deliberately does
// not apply here.
func (r *Round) turnLayOff(p *models.Player, cardID, meldID uuid.UUID, pos models.LayOffPosition) *RuleError {
	t := r.Turn
	if t.Phase != TurnDrawn {
		return reject(ErrWrongPhase, "cannot lay off now, turn phase is %s", t.Phase)
	}
	if !p.IsDown || t.LaidDownThisTurn {
		return reject(ErrNotEligible, "laying off requires being down from a previous turn")
	}
	if r.Number == FinalRound {
		return reject(ErrNotEligible, "round %d has no lay-offs", FinalRound)
	}
	idx := r.meldIndex(meldID)
	if idx < 0 {
		return reject(ErrInvalidInput, "meld %s is not on the table", meldID)
	}
	i := p.HandCardIndex(cardID)
	if i < 0 {
		return reject(ErrInvalidInput, "card %s is not in hand", cardID)
	}
	card := p.Hand[i]

	meld := r.Table[idx]
	switch meld.Type {
	case models.MeldSet:
		if !card.IsWild() && card.Rank != setRank(meld.Cards) {
			return reject(ErrInvalidMeld, "card %s does not extend a set of %ss", card.Rank, setRank(meld.Cards))
		}
		meld.Cards = append(meld.Cards, card)
	case models.MeldRun:
		extended, err := extendRun(meld, card, pos)
		if err != nil {
			return err
		}
		meld.Cards = extended
	}
	r.Table[idx] = meld
	p.RemoveHandCard(cardID)

	if len(p.Hand) == 0 {
		t.Phase = TurnWentOut
		r.finalize(p.ID)
	}
	return nil
}

// extendRun validates placing card at an end of a table run and returns the
// new canonical ordering.
func extendRun(meld models.Meld, card models.Card, pos models.LayOffPosition) ([]models.Card, *RuleError) {
	shape := shapeOfRun(meld)
	startOpen := shape.low-1 >= models.RunOrderMin
	endOpen := shape.high+1 <= models.RunOrderMax

	if !card.IsWild() {
		order, ok := card.RunOrder()
		if !ok || card.Suit != shape.suit {
			return nil, reject(ErrInvalidMeld, "card %s%s does not fit this run", card.Rank, card.Suit)
		}
		switch order {
		case shape.low - 1:
			pos = models.LayOffStart
		case shape.high + 1:
			pos = models.LayOffEnd
		default:
			return nil, reject(ErrInvalidMeld, "card %s%s does not border ranks %d-%d", card.Rank, card.Suit, shape.low, shape.high)
		}
	} else if pos == models.LayOffAuto {
		// A wild fits either open end; pick for the player only when one fits.
		switch {
		case startOpen && !endOpen:
			pos = models.LayOffStart
		case endOpen && !startOpen:
			pos = models.LayOffEnd
		case !startOpen && !endOpen:
			return nil, reject(ErrInvalidMeld, "run already spans 3 through ace")
		default:
			return nil, reject(ErrInvalidInput, "position required: wild fits both ends")
		}
	}

	switch pos {
	case models.LayOffStart:
		if !startOpen {
			return nil, reject(ErrInvalidMeld, "run cannot extend below rank 3")
		}
		return append([]models.Card{card}, meld.Cards...), nil
	case models.LayOffEnd:
		if !endOpen {
			return nil, reject(ErrInvalidMeld, "run cannot extend above ace")
		}
		return append(append([]models.Card{}, meld.Cards...), card), nil
	default:
		return nil, reject(ErrInvalidInput, "unknown position %q", pos)
	}
}

// turnSwap exchanges a Joker sitting in a table run for the natural card it
// stands in for. Only players not yet down may swap, and only against runs.
func (r *Round) turnSwap(p *models.Player, meldID, jokerCardID, handCardID uuid.UUID) *RuleError {
	t := r.Turn
	if t.Phase != TurnDrawn {
		return reject(ErrWrongPhase, "cannot swap now, turn phase is %s", t.Phase)
	}
	if p.IsDown {
		return reject(ErrNotEligible, "players who are down cannot swap jokers")
	}
	idx := r.meldIndex(meldID)
	if idx < 0 {
		return reject(ErrInvalidInput, "meld %s is not on the table", meldID)
	}
	meld := r.Table[idx]
	if meld.Type != models.MeldRun {
		return reject(ErrNotEligible, "jokers can only be swapped out of runs")
	}

	jokerIdx := -1
	for i, c := range meld.Cards {
		if c.ID == jokerCardID {
			jokerIdx = i
			break
		}
	}
	if jokerIdx < 0 || meld.Cards[jokerIdx].Rank != models.RankJoker {
		return reject(ErrInvalidInput, "card %s is not a joker in that run", jokerCardID)
	}

	hi := p.HandCardIndex(handCardID)
	if hi < 0 {
		return reject(ErrInvalidInput, "card %s is not in hand", handCardID)
	}
	hand := p.Hand[hi]
	shape := shapeOfRun(meld)
	wanted := shape.low + jokerIdx
	order, natural := hand.RunOrder()
	if !natural || hand.Suit != shape.suit || order != wanted {
		return reject(ErrInvalidMeld, "card %s%s does not represent the joker's rank", hand.Rank, hand.Suit)
	}

	joker := meld.Cards[jokerIdx]
	meld.Cards[jokerIdx] = hand
	r.Table[idx] = meld
	p.Hand[hi] = joker
	return nil
}

// turnSkip declares the player done with optional actions and moves the turn
// to its discard phase.
func (r *Round) turnSkip() *RuleError {
	t := r.Turn
	if t.Phase != TurnDrawn {
		return reject(ErrWrongPhase, "cannot skip now, turn phase is %s", t.Phase)
	}
	t.Phase = TurnAwaitingDiscard
	return nil
}

// turnDiscard ends the turn. Discarding the last card goes out, except in
// round 6 where going out happens only through the whole-hand lay-down; a
// round-6 player stuck with an unplayable card retains it.
func (r *Round) turnDiscard(p *models.Player, cardID uuid.UUID) *RuleError {
	t := r.Turn
	if t.Phase != TurnDrawn && t.Phase != TurnAwaitingDiscard {
		return reject(ErrWrongPhase, "cannot discard now, turn phase is %s", t.Phase)
	}
	if r.Number == FinalRound && len(p.Hand) == 1 {
		return reject(ErrNotEligible, "round %d turns cannot end by discarding the last card", FinalRound)
	}
	card, ok := p.RemoveHandCard(cardID)
	if !ok {
		return reject(ErrInvalidInput, "card %s is not in hand", cardID)
	}
	r.pushDiscard(card, p.ID)

	if len(p.Hand) == 0 {
		t.Phase = TurnWentOut
		r.finalize(p.ID)
		return nil
	}
	t.Phase = TurnComplete
	r.advanceTurn()
	return nil
}
