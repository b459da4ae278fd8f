// internal/bot/bot_test.go
package bot

import (
	"testing"

	"github.com/cardwell/mayi/internal/game"
	"github.com/cardwell/mayi/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(rank, suit string) models.Card {
	return models.NewCard(rank, suit)
}

func TestCostliestCardPrefersHighestPoints(t *testing.T) {
	hand := []models.Card{
		card("4", "H"),
		card("A", "S"),
		card("Joker", ""),
		card("K", "D"),
	}
	id, ok := costliestCard(hand)
	require.True(t, ok)
	assert.Equal(t, hand[2].ID, id, "the joker costs 50")

	_, ok = costliestCard(nil)
	assert.False(t, ok)
}

func TestNaturalRunFindsLongestStretch(t *testing.T) {
	hand := []models.Card{
		card("3", "H"), card("4", "H"), card("5", "H"),
		card("7", "H"), card("8", "H"), card("9", "H"), card("10", "H"),
		card("2", "H"), // wild, never a run member
		card("8", "S"),
	}
	ids := naturalRun(hand, models.SuitHearts)
	require.Len(t, ids, 4, "7-8-9-10 beats the three-card 3-4-5")
	assert.Equal(t, hand[3].ID, ids[0])
	assert.Equal(t, hand[6].ID, ids[3])

	assert.Nil(t, naturalRun(hand, models.SuitSpades))
}

func TestProposeContractTwoSets(t *testing.T) {
	hand := []models.Card{
		card("9", "H"), card("9", "D"), card("9", "S"),
		card("K", "C"), card("K", "H"), card("K", "D"),
		card("4", "S"),
	}
	melds, ok := proposeContract(hand, game.Contract{Sets: 2}, false)
	require.True(t, ok)
	require.Len(t, melds, 2)
	for _, m := range melds {
		assert.Equal(t, models.MeldSet, m.Type)
		assert.Len(t, m.CardIDs, 3)
	}
}

func TestProposeContractKeepsADiscard(t *testing.T) {
	// Two clean sets but nothing left over afterwards.
	hand := []models.Card{
		card("9", "H"), card("9", "D"), card("9", "S"),
		card("K", "C"), card("K", "H"), card("K", "D"),
	}
	_, ok := proposeContract(hand, game.Contract{Sets: 2}, false)
	assert.False(t, ok, "laying down may not strand the discard")
}

func TestProposeContractSetAndRun(t *testing.T) {
	hand := []models.Card{
		card("5", "S"), card("6", "S"), card("7", "S"), card("8", "S"),
		card("J", "H"), card("J", "D"), card("J", "C"),
		card("3", "D"),
	}
	melds, ok := proposeContract(hand, game.Contract{Sets: 1, Runs: 1}, false)
	require.True(t, ok)
	require.Len(t, melds, 2)
	assert.Equal(t, models.MeldRun, melds[0].Type)
	assert.Len(t, melds[0].CardIDs, 4)
	assert.Equal(t, models.MeldSet, melds[1].Type)
}

func TestProposeContractRejectsShortHand(t *testing.T) {
	hand := []models.Card{
		card("9", "H"), card("9", "D"),
		card("K", "C"), card("K", "H"), card("K", "D"),
		card("4", "S"),
	}
	_, ok := proposeContract(hand, game.Contract{Sets: 2}, false)
	assert.False(t, ok, "a pair is not a set")
}

func TestProposeContractWholeHand(t *testing.T) {
	hand := []models.Card{
		card("5", "S"), card("6", "S"), card("7", "S"), card("8", "S"),
		card("10", "H"), card("J", "H"), card("Q", "H"), card("K", "H"),
		card("A", "C"), card("A", "D"), card("A", "S"),
	}
	melds, ok := proposeContract(hand, game.Contract{Sets: 1, Runs: 2}, true)
	require.True(t, ok)
	total := 0
	for _, m := range melds {
		total += len(m.CardIDs)
	}
	assert.Equal(t, len(hand), total)

	withLeftover := append(hand, card("4", "D"))
	_, ok = proposeContract(withLeftover, game.Contract{Sets: 1, Runs: 2}, true)
	assert.False(t, ok, "the final round consumes every card")
}
