// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/cardwell/mayi/internal/models"
)

// HandSize is the per-player deal for every round.
const HandSize = 10

var (
	deckSuits = []string{models.SuitHearts, models.SuitDiamonds, models.SuitClubs, models.SuitSpades}
	deckRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// jokersPerDeck: two jokers accompany each 52-card deck.
const jokersPerDeck = 2

// decksFor sizes the shoe by table size: two decks up to four players,
// three beyond that.
func decksFor(playerCount int) int {
	if playerCount <= 4 {
		return 2
	}
	return 3
}

// buildDeck constructs the full shoe for a round, unshuffled. Every card gets
// its own id so multi-deck duplicates stay individually addressable.
func buildDeck(playerCount int) []models.Card {
	decks := decksFor(playerCount)
	cards := make([]models.Card, 0, decks*(52+jokersPerDeck))
	for d := 0; d < decks; d++ {
		for _, suit := range deckSuits {
			for _, rank := range deckRanks {
				cards = append(cards, models.NewCard(rank, suit))
			}
		}
		for j := 0; j < jokersPerDeck; j++ {
			cards = append(cards, models.NewCard(models.RankJoker, ""))
		}
	}
	return cards
}

func shuffleCards(rng *rand.Rand, cards []models.Card) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
