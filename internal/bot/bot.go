// internal/bot/bot.go
//
// Greedy is the baseline automated player. It allows every May-I prompt,
// draws from the stock, lays down when its natural cards alone satisfy the
// contract, and discards its most expensive card so an exhaustion-scored
// round hurts it least. It never uses wilds in a lay-down and never lays
// off, so every move it proposes is legal by construction.
package bot

import (
	"context"
	"errors"

	"github.com/cardwell/mayi/internal/coordinator"
	"github.com/cardwell/mayi/internal/game"
	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
)

type Greedy struct{}

var _ coordinator.Decider = Greedy{}

func (Greedy) PlayTurn(ctx context.Context, h coordinator.TurnHandle) error {
	const maxSteps = 24
	for i := 0; i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := h.View()
		if v.Phase == "GAME_END" || v.AwaitingPlayerID != v.ViewerID {
			return nil
		}
		var cmd models.Command
		switch {
		case v.Phase == "RESOLVING_MAY_I":
			cmd = models.Command{Type: models.CmdAllowMayI, PlayerID: v.ViewerID}
		case v.TurnPhase == game.PhaseAwaitingDraw:
			cmd = models.Command{Type: models.CmdDrawStock, PlayerID: v.ViewerID}
		case v.TurnPhase == game.PhaseAwaitingAction || v.TurnPhase == game.PhaseAwaitingDiscard:
			hand := handOf(v)
			if v.TurnPhase == game.PhaseAwaitingAction && !viewerIsDown(v) && v.Contract != nil {
				if melds, ok := proposeContract(hand, *v.Contract, v.Round == game.FinalRound); ok {
					cmd = models.Command{Type: models.CmdLayDown, PlayerID: v.ViewerID, Melds: melds}
					break
				}
			}
			card, ok := costliestCard(hand)
			if !ok {
				return errors.New("bot: nothing to discard")
			}
			cmd = models.Command{Type: models.CmdDiscard, PlayerID: v.ViewerID, CardID: card}
		default:
			return nil
		}
		if _, err := h.Act(cmd); err != nil {
			return err
		}
	}
	return errors.New("bot: turn did not settle")
}

func handOf(v game.PlayerView) []models.Card {
	for _, p := range v.Players {
		if p.ID == v.ViewerID {
			return p.Hand
		}
	}
	return nil
}

func viewerIsDown(v game.PlayerView) bool {
	for _, p := range v.Players {
		if p.ID == v.ViewerID {
			return p.IsDown
		}
	}
	return false
}

func costliestCard(hand []models.Card) (uuid.UUID, bool) {
	if len(hand) == 0 {
		return uuid.Nil, false
	}
	best := hand[0]
	for _, c := range hand[1:] {
		if c.Points() > best.Points() {
			best = c
		}
	}
	return best.ID, true
}

// proposeContract searches the hand for natural-only melds meeting the
// contract. Runs take one suit each, sets use exactly three cards, and
// outside the final round at least one card must survive for the discard.
func proposeContract(hand []models.Card, contract game.Contract, wholeHand bool) ([]models.MeldProposal, bool) {
	used := make(map[uuid.UUID]bool)
	melds := make([]models.MeldProposal, 0, contract.Sets+contract.Runs)

	suits := []string{models.SuitHearts, models.SuitDiamonds, models.SuitClubs, models.SuitSpades}
	runs := 0
	for _, suit := range suits {
		if runs == contract.Runs {
			break
		}
		ids := naturalRun(hand, suit)
		if ids == nil {
			continue
		}
		for _, id := range ids {
			used[id] = true
		}
		melds = append(melds, models.MeldProposal{Type: models.MeldRun, CardIDs: ids})
		runs++
	}
	if runs < contract.Runs {
		return nil, false
	}

	byRank := make(map[string][]uuid.UUID)
	for _, c := range hand {
		if c.IsWild() || used[c.ID] {
			continue
		}
		byRank[c.Rank] = append(byRank[c.Rank], c.ID)
	}
	sets := 0
	for _, c := range hand {
		if sets == contract.Sets {
			break
		}
		ids := byRank[c.Rank]
		if len(ids) < 3 {
			continue
		}
		take := ids[:3]
		if wholeHand {
			take = ids
		}
		for _, id := range take {
			used[id] = true
		}
		melds = append(melds, models.MeldProposal{Type: models.MeldSet, CardIDs: take})
		delete(byRank, c.Rank)
		sets++
	}
	if sets < contract.Sets {
		return nil, false
	}

	if wholeHand {
		if len(used) != len(hand) {
			return nil, false
		}
	} else if len(used) >= len(hand) {
		return nil, false
	}
	return melds, true
}

// naturalRun returns the longest consecutive same-suit stretch of at least
// four natural cards, in ascending order, or nil.
func naturalRun(hand []models.Card, suit string) []uuid.UUID {
	byOrder := make(map[int]uuid.UUID)
	for _, c := range hand {
		if c.Suit != suit || c.IsWild() {
			continue
		}
		o, ok := c.RunOrder()
		if !ok {
			continue
		}
		if _, dup := byOrder[o]; !dup {
			byOrder[o] = c.ID
		}
	}
	bestLo, bestLen := 0, 0
	for lo := models.RunOrderMin; lo <= models.RunOrderMax; lo++ {
		if _, ok := byOrder[lo]; !ok {
			continue
		}
		hi := lo
		for {
			if _, ok := byOrder[hi+1]; !ok {
				break
			}
			hi++
		}
		if hi-lo+1 > bestLen {
			bestLo, bestLen = lo, hi-lo+1
		}
		lo = hi
	}
	if bestLen < 4 {
		return nil
	}
	ids := make([]uuid.UUID, 0, bestLen)
	for o := bestLo; o < bestLo+bestLen; o++ {
		ids = append(ids, byOrder[o])
	}
	return ids
}
