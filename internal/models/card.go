// internal/models/card.go
package models

import "github.com/google/uuid"

// Card ranks. Tens are spelled out as "10" so snapshots read naturally.
const (
	RankTwo   = "2"
	RankJoker = "Joker"
)

// Suits use single letters; a Joker has no suit.
const (
	SuitHearts   = "H"
	SuitDiamonds = "D"
	SuitClubs    = "C"
	SuitSpades   = "S"
)

// Card identity is the ID, never (rank, suit): multi-deck games hold
// legitimate duplicates that must stay individually addressable.
type Card struct {
	ID   uuid.UUID `json:"id"`
	Rank string    `json:"rank"`
	Suit string    `json:"suit,omitempty"`
}

// NewCard mints a card with a fresh id.
func NewCard(rank, suit string) Card {
	return Card{ID: uuid.New(), Rank: rank, Suit: suit}
}

// IsWild reports whether the card substitutes freely in melds.
// Twos and Jokers are always wild; a "2" is never a natural run member.
func (c Card) IsWild() bool {
	return c.Rank == RankTwo || c.Rank == RankJoker
}

// runOrder maps natural ranks to their position in a run. Ace is high only.
var runOrder = map[string]int{
	"3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 11, "Q": 12, "K": 13, "A": 14,
}

// RunOrderMin and RunOrderMax bound the rank positions a run may occupy.
const (
	RunOrderMin = 3
	RunOrderMax = 14
)

// RunOrder returns the card's rank position for run sequencing, or false for
// wilds (which take whatever position they are assigned).
func (c Card) RunOrder() (int, bool) {
	o, ok := runOrder[c.Rank]
	return o, ok
}

// RankForOrder is the inverse of RunOrder for natural ranks.
func RankForOrder(order int) (string, bool) {
	for rank, o := range runOrder {
		if o == order {
			return rank, true
		}
	}
	return "", false
}

// cardPoints holds hand-scoring values for the non-numeric ranks.
var cardPoints = map[string]int{
	"J": 10, "Q": 10, "K": 10, "A": 15, RankTwo: 20, RankJoker: 50,
}

// Points is the card's value when counted against a hand at round end.
func (c Card) Points() int {
	if p, ok := cardPoints[c.Rank]; ok {
		return p
	}
	// 3 through 10 score face value.
	return runOrder[c.Rank]
}

// HandPoints sums the penalty value of a hand.
func HandPoints(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += c.Points()
	}
	return total
}
