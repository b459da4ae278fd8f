// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is one seat in a session. Hand order is player-controlled and must
// survive every other actor's commands verbatim; that contract is what the
// coordinator's merge discipline protects.
type Player struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Hand       []Card    `json:"hand"`
	IsDown     bool      `json:"isDown"`
	TotalScore int       `json:"totalScore"`
	Automated  bool      `json:"automated"`
}

// HandCardIndex locates a card in the player's hand by id, or -1.
func (p *Player) HandCardIndex(cardID uuid.UUID) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// RemoveHandCard takes a card out of the hand by id, preserving the order of
// the rest. The second return is false if the card is not held.
func (p *Player) RemoveHandCard(cardID uuid.UUID) (Card, bool) {
	i := p.HandCardIndex(cardID)
	if i < 0 {
		return Card{}, false
	}
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return c, true
}
