// internal/game/contract.go
package game

import (
	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
)

// Contract is the fixed meld composition required to lay down in a round.
type Contract struct {
	Sets int `json:"sets"`
	Runs int `json:"runs"`
}

// contracts is the round table. Round 6 additionally requires consuming the
// entire hand in one lay-down (enforced by the turn machine, not here).
var contracts = map[int]Contract{
	1: {Sets: 2, Runs: 0},
	2: {Sets: 1, Runs: 1},
	3: {Sets: 0, Runs: 2},
	4: {Sets: 3, Runs: 0},
	5: {Sets: 2, Runs: 1},
	6: {Sets: 1, Runs: 2},
}

// ContractForRound looks up the contract for rounds 1 through 6.
func ContractForRound(round int) (Contract, bool) {
	c, ok := contracts[round]
	return c, ok
}

// MinCards is the smallest hand a contract can consume.
func (c Contract) MinCards() int {
	return c.Sets*3 + c.Runs*4
}

// minRunGap is the smallest rank interval allowed between two same-suit runs
// laid down together. Adjacent or overlapping runs are really one longer run
// split to cheat the meld count.
const minRunGap = 2

// buildContractMelds validates a lay-down proposal against the contract and
// the player's hand, returning the canonicalized melds. Every card id must
// come from the hand and no id may be reused across melds; duplicate (rank,
// suit) pairs from the multi-deck shoe are legal, duplicate ids are not.
func buildContractMelds(contract Contract, proposals []models.MeldProposal, owner *models.Player) ([]models.Meld, *RuleError) {
	sets, runs := 0, 0
	for _, p := range proposals {
		switch p.Type {
		case models.MeldSet:
			sets++
		case models.MeldRun:
			runs++
		default:
			return nil, reject(ErrInvalidInput, "unknown meld type %q", p.Type)
		}
	}
	if sets != contract.Sets || runs != contract.Runs {
		return nil, reject(ErrInvalidMeld,
			"contract requires %d set(s) and %d run(s), got %d and %d",
			contract.Sets, contract.Runs, sets, runs)
	}

	used := make(map[uuid.UUID]bool)
	melds := make([]models.Meld, 0, len(proposals))
	var shapes []runShape
	for _, p := range proposals {
		cards := make([]models.Card, 0, len(p.CardIDs))
		for _, id := range p.CardIDs {
			if used[id] {
				return nil, reject(ErrInvalidMeld, "card %s used in more than one meld", id)
			}
			used[id] = true
			i := owner.HandCardIndex(id)
			if i < 0 {
				return nil, reject(ErrInvalidInput, "card %s is not in hand", id)
			}
			cards = append(cards, owner.Hand[i])
		}

		switch p.Type {
		case models.MeldSet:
			if err := validateSet(cards); err != nil {
				return nil, err
			}
		case models.MeldRun:
			shape, err := normalizeRun(cards)
			if err != nil {
				return nil, err
			}
			cards = shape.cards
			shapes = append(shapes, shape)
		}
		melds = append(melds, models.Meld{
			ID:      uuid.New(),
			Type:    p.Type,
			Cards:   cards,
			OwnerID: owner.ID,
		})
	}

	if err := checkRunGaps(shapes); err != nil {
		return nil, err
	}
	return melds, nil
}

// checkRunGaps enforces the same-suit gap rule across runs proposed together:
// gap = (low of higher run) - (high of lower run) - 1, valid iff gap >= 2.
func checkRunGaps(shapes []runShape) *RuleError {
	for i := 0; i < len(shapes); i++ {
		for j := i + 1; j < len(shapes); j++ {
			a, b := shapes[i], shapes[j]
			if a.suit != b.suit {
				continue
			}
			if b.low < a.low {
				a, b = b, a
			}
			gap := b.low - a.high - 1
			if gap < minRunGap {
				return reject(ErrInvalidMeld,
					"same-suit runs too close: gap of %d between ranks %d and %d", gap, a.high, b.low)
			}
		}
	}
	return nil
}
