// internal/game/round.go
//
// The round machine: dealing, turn sequencing, stock/discard lifecycle and
// scoring. May-I resolution lives in mayi.go.
package game

import (
	"math/rand"

	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
)

// RoundPhase is the round machine's state.
type RoundPhase string

const (
	RoundActive    RoundPhase = "ROUND_ACTIVE"
	RoundResolving RoundPhase = "RESOLVING_MAY_I"
	RoundEnd       RoundPhase = "ROUND_END"
)

// RoundRecord is the score record a finished round emits. WentOut is the nil
// uuid when pile exhaustion ended the round with nobody out.
type RoundRecord struct {
	Round   int               `json:"round"`
	WentOut uuid.UUID         `json:"wentOut"`
	Scores  map[uuid.UUID]int `json:"scores"`
}

// Round owns the piles, the table and the active Turn. Players is shared with
// the owning Game and rewired after hydration rather than serialized twice.
type Round struct {
	Number             int           `json:"number"`
	Phase              RoundPhase    `json:"phase"`
	DealerIndex        int           `json:"dealerIndex"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	Stock              []models.Card `json:"stock"`
	// Discard index 0 is the exposed card. DiscarderIDs runs in lockstep
	// with it so May-I eligibility follows the exposed card, not the most
	// recent discard; uuid.Nil marks the opening flip.
	Discard      []models.Card `json:"discard"`
	DiscarderIDs []uuid.UUID   `json:"discarderIds"`
	Table        []models.Meld `json:"table"`
	Turn         *Turn         `json:"turn,omitempty"`
	MayI         *MayIContext  `json:"mayI,omitempty"`
	// CardCount is the number of cards dealt into the round; hydration checks
	// the zones still add up to it.
	CardCount int          `json:"cardCount"`
	Record    *RoundRecord `json:"record,omitempty"`

	players []*models.Player
	rng     *rand.Rand
}

// newRound shuffles a fresh shoe, deals HandSize cards to each player starting
// left of the dealer and flips the first stock card as the exposed discard.
func newRound(number int, players []*models.Player, dealerIndex int, rng *rand.Rand) *Round {
	deck := buildDeck(len(players))
	shuffleCards(rng, deck)

	r := &Round{
		Number:             number,
		Phase:              RoundActive,
		DealerIndex:        dealerIndex,
		CurrentPlayerIndex: (dealerIndex + 1) % len(players),
		CardCount:          len(deck),
		players:            players,
		rng:                rng,
	}

	for _, p := range players {
		p.Hand = make([]models.Card, 0, HandSize+1)
		p.IsDown = false
	}
	for i := 0; i < HandSize; i++ {
		for off := 1; off <= len(players); off++ {
			p := players[(dealerIndex+off)%len(players)]
			p.Hand = append(p.Hand, deck[0])
			deck = deck[1:]
		}
	}
	r.Discard = []models.Card{deck[0]}
	r.DiscarderIDs = []uuid.UUID{uuid.Nil}
	r.Stock = deck[1:]
	r.Turn = newTurn(players[r.CurrentPlayerIndex].ID)
	return r
}

func (r *Round) currentPlayer() *models.Player {
	return r.players[r.CurrentPlayerIndex]
}

func (r *Round) playerByID(id uuid.UUID) *models.Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Round) meldIndex(meldID uuid.UUID) int {
	for i, m := range r.Table {
		if m.ID == meldID {
			return i
		}
	}
	return -1
}

// popStockForDraw removes the top stock card. When the stock is depleted it
// transparently reshuffles all but the exposed discard card into a new stock.
// Returns false after finalizing the round if no cards exist to reshuffle.
func (r *Round) popStockForDraw() (models.Card, bool) {
	if len(r.Stock) == 0 {
		if len(r.Discard) <= 1 {
			r.finalize(uuid.Nil)
			return models.Card{}, false
		}
		refill := make([]models.Card, len(r.Discard)-1)
		copy(refill, r.Discard[1:])
		r.Discard = r.Discard[:1]
		r.DiscarderIDs = r.DiscarderIDs[:1]
		shuffleCards(r.rng, refill)
		r.Stock = refill
	}
	c := r.Stock[0]
	r.Stock = r.Stock[1:]
	return c, true
}

func (r *Round) popDiscardTop() models.Card {
	c := r.Discard[0]
	r.Discard = r.Discard[1:]
	r.DiscarderIDs = r.DiscarderIDs[1:]
	return c
}

func (r *Round) pushDiscard(c models.Card, discarderID uuid.UUID) {
	r.Discard = append([]models.Card{c}, r.Discard...)
	r.DiscarderIDs = append([]uuid.UUID{discarderID}, r.DiscarderIDs...)
}

// exposedDiscarderID names who discarded the card currently on top, or
// uuid.Nil for the opening flip.
func (r *Round) exposedDiscarderID() uuid.UUID {
	if len(r.DiscarderIDs) == 0 {
		return uuid.Nil
	}
	return r.DiscarderIDs[0]
}

// advanceTurn rotates to the next player with a fresh turn machine.
func (r *Round) advanceTurn() {
	r.CurrentPlayerIndex = (r.CurrentPlayerIndex + 1) % len(r.players)
	r.Turn = newTurn(r.players[r.CurrentPlayerIndex].ID)
}

// finalize scores every hand (the player who went out scores zero) and emits
// the round record. Card point values: 3-10 face, J/Q/K 10, ace 15, two 20,
// joker 50.
func (r *Round) finalize(wentOut uuid.UUID) {
	scores := make(map[uuid.UUID]int, len(r.players))
	for _, p := range r.players {
		if p.ID == wentOut {
			scores[p.ID] = 0
		} else {
			scores[p.ID] = models.HandPoints(p.Hand)
		}
	}
	r.Record = &RoundRecord{Round: r.Number, WentOut: wentOut, Scores: scores}
	r.MayI = nil
	r.Phase = RoundEnd
}
