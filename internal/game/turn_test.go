// internal/game/turn_test.go
package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlayers(n int) []*models.Player {
	players := make([]*models.Player, n)
	for i := range players {
		players[i] = &models.Player{ID: uuid.New(), Name: fmt.Sprintf("p%d", i+1)}
	}
	return players
}

// newBareRound builds a round with empty piles for hand-crafted scenarios.
// Callers set hands, stock and discard directly.
func newBareRound(players []*models.Player, number int) *Round {
	r := &Round{
		Number:             number,
		Phase:              RoundActive,
		CurrentPlayerIndex: 0,
		players:            players,
		rng:                rand.New(rand.NewSource(42)),
	}
	r.Turn = newTurn(players[0].ID)
	return r
}

// setDiscard replaces the pile top-first, attributing every entry to
// discarderID.
func setDiscard(r *Round, discarderID uuid.UUID, cards ...models.Card) {
	r.Discard = cards
	r.DiscarderIDs = make([]uuid.UUID, len(cards))
	for i := range r.DiscarderIDs {
		r.DiscarderIDs[i] = discarderID
	}
}

func TestTurnDrawThenDiscard(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 1)
	p := players[0]
	p.Hand = []models.Card{card("4", "H"), card("K", "S")}
	players[1].Hand = []models.Card{card("5", "C")}
	players[2].Hand = []models.Card{card("6", "C")}
	stockCard := card("9", "D")
	r.Stock = []models.Card{stockCard, card("3", "C")}
	setDiscard(r, uuid.Nil, card("J", "H"))

	require.Nil(t, r.turnDrawFromStock(p))
	assert.Equal(t, TurnDrawn, r.Turn.Phase)
	assert.True(t, r.Turn.HasDrawn)
	assert.Len(t, p.Hand, 3)
	assert.Equal(t, stockCard.ID, p.Hand[2].ID, "drawn card lands at the hand's tail")

	// Drawing twice in one turn is out of phase.
	err := r.turnDrawFromStock(p)
	require.NotNil(t, err)
	assert.Equal(t, ErrWrongPhase, err.Code)

	require.Nil(t, r.turnSkip())
	assert.Equal(t, TurnAwaitingDiscard, r.Turn.Phase)

	require.Nil(t, r.turnDiscard(p, stockCard.ID))
	assert.Equal(t, stockCard.ID, r.Discard[0].ID, "discard goes on top of the exposed pile")
	assert.Equal(t, p.ID, r.exposedDiscarderID())
	assert.Equal(t, 1, r.CurrentPlayerIndex, "turn passes to the next player")
	assert.Equal(t, players[1].ID, r.Turn.PlayerID)
	assert.Equal(t, TurnAwaitingDraw, r.Turn.Phase)
}

func TestTurnDrawFromDiscard(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 1)
	p := players[0]
	top := card("Q", "D")
	setDiscard(r, uuid.Nil, top, card("3", "C"))
	r.Stock = []models.Card{card("4", "C")}

	require.Nil(t, r.turnDrawFromDiscard(p))
	assert.True(t, r.Turn.DrewFromDiscard)
	assert.Equal(t, top.ID, p.Hand[len(p.Hand)-1].ID)
	assert.Len(t, r.Discard, 1, "the next buried card becomes exposed")
}

func TestDownPlayerMustDrawFromStock(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 2)
	p := players[0]
	p.IsDown = true
	setDiscard(r, uuid.Nil, card("Q", "D"))
	r.Stock = []models.Card{card("4", "C")}

	err := r.turnDrawFromDiscard(p)
	require.NotNil(t, err)
	assert.Equal(t, ErrNotEligible, err.Code)
}

func TestLayDownRoundOneContract(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 1)
	p := players[0]
	nines := []models.Card{card("9", "H"), card("9", "D"), card("9", "C")}
	kings := []models.Card{card("K", "H"), card("K", "D"), card("K", "C")}
	spare := card("4", "S")
	p.Hand = append(append(append([]models.Card{}, nines...), kings...), spare)
	r.Stock = []models.Card{card("6", "D")}
	r.Turn.Phase = TurnDrawn
	r.Turn.HasDrawn = true

	require.Nil(t, r.turnLayDown(p, []models.MeldProposal{
		{Type: models.MeldSet, CardIDs: idsOf(nines...)},
		{Type: models.MeldSet, CardIDs: idsOf(kings...)},
	}))
	assert.True(t, p.IsDown)
	assert.True(t, r.Turn.LaidDownThisTurn)
	assert.Len(t, r.Table, 2)
	assert.Len(t, p.Hand, 1, "unmelded cards stay in hand")
	assert.Equal(t, TurnAwaitingDiscard, r.Turn.Phase, "a partial lay-down still owes a discard")

	// Laying down twice in a round is not a thing.
	r.Turn.Phase = TurnDrawn
	err := r.turnLayDown(p, nil)
	require.NotNil(t, err)
	assert.Equal(t, ErrNotEligible, err.Code)
}

func TestLayOffSameTurnAsLayDownRejected(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 1)
	p := players[0]
	p.IsDown = true
	r.Turn.Phase = TurnDrawn
	r.Turn.LaidDownThisTurn = true

	err := r.turnLayOff(p, uuid.New(), uuid.New(), models.LayOffAuto)
	require.NotNil(t, err)
	assert.Equal(t, ErrNotEligible, err.Code)
}

func TestLayOffSetAndRun(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 2)
	p := players[0]
	p.IsDown = true
	r.Turn.Phase = TurnDrawn

	set := models.Meld{ID: uuid.New(), Type: models.MeldSet, OwnerID: players[1].ID,
		Cards: []models.Card{card("9", "H"), card("9", "D"), card("9", "C")}}
	run := models.Meld{ID: uuid.New(), Type: models.MeldRun, OwnerID: players[1].ID,
		Cards: []models.Card{card("5", "H"), card("6", "H"), card("7", "H"), card("8", "H")}}
	r.Table = []models.Meld{set, run}

	nine := card("9", "S")
	four := card("4", "H")
	nineH := card("9", "H")
	wild := card("2", "C")
	filler := card("K", "S")
	p.Hand = []models.Card{nine, four, nineH, wild, filler}

	require.Nil(t, r.turnLayOff(p, nine.ID, set.ID, models.LayOffAuto))
	assert.Len(t, r.Table[0].Cards, 4)

	require.Nil(t, r.turnLayOff(p, four.ID, run.ID, models.LayOffAuto),
		"a 4H borders the run's low end")
	assert.Equal(t, four.ID, r.Table[1].Cards[0].ID)

	require.Nil(t, r.turnLayOff(p, nineH.ID, run.ID, models.LayOffAuto))
	assert.Equal(t, nineH.ID, r.Table[1].Cards[len(r.Table[1].Cards)-1].ID)

	// Both ends of the run are still open, so a wild needs a position.
	err := r.turnLayOff(p, wild.ID, run.ID, models.LayOffAuto)
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidInput, err.Code)

	require.Nil(t, r.turnLayOff(p, wild.ID, run.ID, models.LayOffStart))
	assert.Equal(t, wild.ID, r.Table[1].Cards[0].ID)
	assert.Len(t, p.Hand, 1)
}

func TestLayOffWildRatioDoesNotApply(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 2)
	p := players[0]
	p.IsDown = true
	r.Turn.Phase = TurnDrawn

	set := models.Meld{ID: uuid.New(), Type: models.MeldSet, OwnerID: p.ID,
		Cards: []models.Card{card("6", "H"), card("6", "D"), card("2", "S")}}
	r.Table = []models.Meld{set}

	w1, w2 := joker(), card("2", "D")
	p.Hand = []models.Card{w1, w2, card("K", "S")}

	require.Nil(t, r.turnLayOff(p, w1.ID, set.ID, models.LayOffAuto))
	require.Nil(t, r.turnLayOff(p, w2.ID, set.ID, models.LayOffAuto))
	assert.Len(t, r.Table[0].Cards, 5, "table melds may grow past the lay-down ratio")
}

func TestLayOffRequiresBeingDown(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 2)
	p := players[0]
	r.Turn.Phase = TurnDrawn

	err := r.turnLayOff(p, uuid.New(), uuid.New(), models.LayOffAuto)
	require.NotNil(t, err)
	assert.Equal(t, ErrNotEligible, err.Code)
}

func TestRunCannotGrowPastItsWindow(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 2)
	p := players[0]
	p.IsDown = true
	r.Turn.Phase = TurnDrawn

	run := models.Meld{ID: uuid.New(), Type: models.MeldRun, OwnerID: p.ID,
		Cards: []models.Card{card("3", "H"), card("4", "H"), card("5", "H"), card("6", "H")}}
	r.Table = []models.Meld{run}
	w := joker()
	p.Hand = []models.Card{w, card("K", "S")}

	err := r.turnLayOff(p, w.ID, run.ID, models.LayOffStart)
	require.NotNil(t, err, "nothing sits below rank 3")
	assert.Equal(t, ErrInvalidMeld, err.Code)
}

func TestJokerSwap(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 2)
	p := players[0]
	r.Turn.Phase = TurnDrawn

	j := joker()
	run := models.Meld{ID: uuid.New(), Type: models.MeldRun, OwnerID: players[1].ID,
		Cards: []models.Card{card("5", "H"), j, card("7", "H"), card("8", "H")}}
	r.Table = []models.Meld{run}

	six := card("6", "H")
	wrongSuit := card("6", "D")
	p.Hand = []models.Card{six, wrongSuit}

	err := r.turnSwap(p, run.ID, j.ID, wrongSuit.ID)
	require.NotNil(t, err, "the replacement must match the joker's suit and rank")
	assert.Equal(t, ErrInvalidMeld, err.Code)

	require.Nil(t, r.turnSwap(p, run.ID, j.ID, six.ID))
	assert.Equal(t, six.ID, r.Table[0].Cards[1].ID)
	assert.Equal(t, j.ID, p.Hand[0].ID, "the joker moves to the swapper's hand")

	// Down players cannot harvest jokers.
	p.IsDown = true
	err = r.turnSwap(p, run.ID, six.ID, j.ID)
	require.NotNil(t, err)
	assert.Equal(t, ErrNotEligible, err.Code)
}

func TestDiscardLastCardGoesOut(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 2)
	p := players[0]
	last := card("4", "S")
	p.Hand = []models.Card{last}
	players[1].Hand = []models.Card{card("J", "H"), card("Q", "H")}
	players[2].Hand = []models.Card{card("A", "S"), joker(), card("5", "D")}
	r.Turn.Phase = TurnAwaitingDiscard

	require.Nil(t, r.turnDiscard(p, last.ID))
	assert.Equal(t, TurnWentOut, r.Turn.Phase)
	assert.Equal(t, RoundEnd, r.Phase)
	require.NotNil(t, r.Record)
	assert.Equal(t, p.ID, r.Record.WentOut)
	assert.Equal(t, 0, r.Record.Scores[p.ID])
	assert.Equal(t, 20, r.Record.Scores[players[1].ID], "J and Q count 10 each")
	assert.Equal(t, 70, r.Record.Scores[players[2].ID], "ace 15, joker 50, five 5")
}

func TestFinalRoundRules(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, FinalRound)
	p := players[0]

	// No ending a round-6 turn by discarding the last card.
	lone := card("4", "S")
	p.Hand = []models.Card{lone}
	r.Turn.Phase = TurnAwaitingDiscard
	err := r.turnDiscard(p, lone.ID)
	require.NotNil(t, err)
	assert.Equal(t, ErrNotEligible, err.Code)

	// No lay-offs at all.
	p.IsDown = true
	r.Turn.Phase = TurnDrawn
	err = r.turnLayOff(p, uuid.New(), uuid.New(), models.LayOffAuto)
	require.NotNil(t, err)
	assert.Equal(t, ErrNotEligible, err.Code)
}

func TestFinalRoundWholeHandLayDown(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, FinalRound)
	p := players[0]

	sevens := []models.Card{card("7", "H"), card("7", "D"), card("7", "S"), card("7", "C")}
	runA := spadeRun("3", "4", "5", "6")
	runB := spadeRun("9", "10", "J", "Q")
	p.Hand = append(append(append([]models.Card{}, sevens...), runA...), runB...)
	players[1].Hand = []models.Card{card("K", "H")}
	players[2].Hand = []models.Card{card("A", "D")}
	r.Turn.Phase = TurnDrawn
	r.Turn.HasDrawn = true

	// Holding anything back is rejected.
	err := r.turnLayDown(p, []models.MeldProposal{
		{Type: models.MeldSet, CardIDs: idsOf(sevens[0], sevens[1], sevens[2])},
		{Type: models.MeldRun, CardIDs: idsOf(runA...)},
		{Type: models.MeldRun, CardIDs: idsOf(runB...)},
	})
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidMeld, err.Code)

	require.Nil(t, r.turnLayDown(p, []models.MeldProposal{
		{Type: models.MeldSet, CardIDs: idsOf(sevens...)},
		{Type: models.MeldRun, CardIDs: idsOf(runA...)},
		{Type: models.MeldRun, CardIDs: idsOf(runB...)},
	}))
	assert.Equal(t, TurnWentOut, r.Turn.Phase, "the whole-hand lay-down is going out")
	assert.Equal(t, RoundEnd, r.Phase)
	assert.Equal(t, p.ID, r.Record.WentOut)
}

func TestStockReshuffleKeepsExposedCard(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 1)
	p := players[0]
	exposed := card("Q", "H")
	buried1, buried2 := card("3", "C"), card("8", "D")
	r.Stock = nil
	setDiscard(r, uuid.Nil, exposed, buried1, buried2)

	require.Nil(t, r.turnDrawFromStock(p))
	assert.Len(t, p.Hand, 1)
	assert.Len(t, r.Discard, 1, "only the exposed card survives the reshuffle")
	assert.Equal(t, exposed.ID, r.Discard[0].ID)
	assert.Len(t, r.Stock, 1, "two reshuffled, one drawn")
	drawn := p.Hand[0].ID
	assert.True(t, drawn == buried1.ID || drawn == buried2.ID)
}

func TestTotalExhaustionEndsRoundScoredAsIs(t *testing.T) {
	players := testPlayers(3)
	r := newBareRound(players, 1)
	players[0].Hand = []models.Card{card("5", "H")}
	players[1].Hand = []models.Card{card("K", "H")}
	players[2].Hand = []models.Card{card("A", "H")}
	r.Stock = nil
	setDiscard(r, uuid.Nil, card("Q", "H"))

	require.Nil(t, r.turnDrawFromStock(players[0]), "exhaustion is not the drawer's error")
	assert.Equal(t, RoundEnd, r.Phase)
	require.NotNil(t, r.Record)
	assert.Equal(t, uuid.Nil, r.Record.WentOut, "nobody went out")
	assert.Equal(t, 5, r.Record.Scores[players[0].ID])
	assert.Equal(t, 10, r.Record.Scores[players[1].ID])
	assert.Equal(t, 15, r.Record.Scores[players[2].ID])
}
