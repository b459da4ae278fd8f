// internal/game/meld.go
//
// Structural meld validation: sets, runs, the wild-ratio law and run
// canonicalization. Lay-down input may arrive in any order; a valid run is
// always stored ascending with each wild occupying the rank gap it fills.
package game

import "github.com/cardwell/mayi/internal/models"

// CountWildsAndNaturals splits a proposal into its wild and natural counts.
func CountWildsAndNaturals(cards []models.Card) (wilds, naturals int) {
	for _, c := range cards {
		if c.IsWild() {
			wilds++
		} else {
			naturals++
		}
	}
	return wilds, naturals
}

// IsValidSet reports whether cards form a set: at least three cards, every
// natural sharing one rank, and wilds never outnumbering naturals.
func IsValidSet(cards []models.Card) bool {
	return validateSet(cards) == nil
}

func validateSet(cards []models.Card) *RuleError {
	if len(cards) < 3 {
		return reject(ErrInvalidMeld, "a set needs at least 3 cards, got %d", len(cards))
	}
	wilds, naturals := CountWildsAndNaturals(cards)
	if wilds > naturals {
		return reject(ErrInvalidMeld, "set has %d wilds against %d naturals", wilds, naturals)
	}
	rank := ""
	for _, c := range cards {
		if c.IsWild() {
			continue
		}
		if rank == "" {
			rank = c.Rank
		} else if c.Rank != rank {
			return reject(ErrInvalidMeld, "set mixes ranks %s and %s", rank, c.Rank)
		}
	}
	return nil
}

// setRank is the natural rank a valid set is built on.
func setRank(cards []models.Card) string {
	for _, c := range cards {
		if !c.IsWild() {
			return c.Rank
		}
	}
	return ""
}

// runShape is a canonicalized run: cards ascending, wilds in their resolved
// rank gaps, plus the effective rank interval the run covers.
type runShape struct {
	cards []models.Card
	suit  string
	low   int
	high  int
}

// IsValidRun reports whether cards can form a run in some ordering.
func IsValidRun(cards []models.Card) bool {
	_, err := normalizeRun(cards)
	return err == nil
}

// normalizeRun finds the unique ascending placement of wilds that makes the
// proposal a contiguous run, or rejects. Rules enforced here: at least four
// cards, one suit among naturals, ace high only (no wrap), twos are always
// wild, and wilds never outnumber naturals. Surplus wilds extend the high end
// first, then the low end, bounded by the 3..A rank window.
func normalizeRun(cards []models.Card) (runShape, *RuleError) {
	var shape runShape
	if len(cards) < 4 {
		return shape, reject(ErrInvalidMeld, "a run needs at least 4 cards, got %d", len(cards))
	}

	var wilds []models.Card
	naturalAt := make(map[int]models.Card)
	suit := ""
	lo, hi := 0, 0
	for _, c := range cards {
		if c.IsWild() {
			wilds = append(wilds, c)
			continue
		}
		if suit == "" {
			suit = c.Suit
		} else if c.Suit != suit {
			return shape, reject(ErrInvalidMeld, "run mixes suits %s and %s", suit, c.Suit)
		}
		order, ok := c.RunOrder()
		if !ok {
			return shape, reject(ErrInvalidMeld, "rank %s cannot appear naturally in a run", c.Rank)
		}
		if _, dup := naturalAt[order]; dup {
			return shape, reject(ErrInvalidMeld, "run holds rank %s twice", c.Rank)
		}
		naturalAt[order] = c
		if len(naturalAt) == 1 {
			lo, hi = order, order
		} else {
			if order < lo {
				lo = order
			}
			if order > hi {
				hi = order
			}
		}
	}

	naturals := len(naturalAt)
	if len(wilds) > naturals {
		return shape, reject(ErrInvalidMeld, "run has %d wilds against %d naturals", len(wilds), naturals)
	}

	gaps := (hi - lo + 1) - naturals
	if gaps > len(wilds) {
		return shape, reject(ErrInvalidMeld, "run leaves %d gaps with only %d wilds", gaps, len(wilds))
	}

	// Surplus wilds must still fit inside the 3..A window.
	extra := len(wilds) - gaps
	highExt := extra
	if room := models.RunOrderMax - hi; highExt > room {
		highExt = room
	}
	lowExt := extra - highExt
	if lo-lowExt < models.RunOrderMin {
		return shape, reject(ErrInvalidMeld, "run cannot extend below rank 3")
	}
	lo -= lowExt
	hi += highExt

	ordered := make([]models.Card, 0, hi-lo+1)
	next := 0
	for pos := lo; pos <= hi; pos++ {
		if c, ok := naturalAt[pos]; ok {
			ordered = append(ordered, c)
		} else {
			ordered = append(ordered, wilds[next])
			next++
		}
	}
	return runShape{cards: ordered, suit: suit, low: lo, high: hi}, nil
}

// shapeOfRun recovers the rank interval of an already-canonical table run.
// The first natural anchors the sequence; each card's position is its index
// offset from the run's low end.
func shapeOfRun(m models.Meld) runShape {
	shape := runShape{cards: m.Cards}
	for i, c := range m.Cards {
		if c.IsWild() {
			continue
		}
		order, _ := c.RunOrder()
		shape.suit = c.Suit
		shape.low = order - i
		shape.high = shape.low + len(m.Cards) - 1
		break
	}
	return shape
}
