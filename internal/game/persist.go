// internal/game/persist.go
//
// Serialization of the full nested machine hierarchy. The persisted form is
// a versioned JSON document; hydration re-validates the card-conservation
// invariant and surfaces a sticky diagnostic instead of crashing, since a
// violation means corrupted stored data rather than a bad player action.
package game

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// StateVersion gates future migrations of the persisted document.
const StateVersion = 1

// PersistedState is the opaque durable form of a session. Rev is an
// optimistic-concurrency token managed by the storage layer: a writer bumps
// it and the store accepts the write only if it still holds Rev-1.
type PersistedState struct {
	Version        int    `json:"version"`
	Rev            int64  `json:"rev"`
	LastError      string `json:"lastError,omitempty"`
	IntegrityError string `json:"integrityError,omitempty"`
	Game           *Game  `json:"game"`
}

// Clone deep-copies the document so independent callers never alias state.
func (ps *PersistedState) Clone() (*PersistedState, error) {
	raw, err := json.Marshal(ps)
	if err != nil {
		return nil, fmt.Errorf("clone persisted state: %w", err)
	}
	var out PersistedState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone persisted state: %w", err)
	}
	if out.Game != nil {
		out.Game.rewire()
	}
	return &out, nil
}

// ToPersistedState captures the entire hierarchy (game, active round, active
// turn, mid-resolution May-I state) detached from the live engine.
func (e *Engine) ToPersistedState() (*PersistedState, error) {
	ps := &PersistedState{
		Version:        StateVersion,
		LastError:      e.lastError,
		IntegrityError: e.integrityError,
		Game:           e.game,
	}
	return ps.Clone()
}

// FromPersistedState reconstructs an engine that is behaviorally identical to
// the one that produced the document and accepts further commands.
func FromPersistedState(ps *PersistedState) (*Engine, error) {
	if ps == nil || ps.Game == nil {
		return nil, fmt.Errorf("persisted state is empty")
	}
	if ps.Version != StateVersion {
		return nil, fmt.Errorf("unsupported state version %d (want %d)", ps.Version, StateVersion)
	}
	clone, err := ps.Clone()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		game:           clone.Game,
		lastError:      clone.LastError,
		integrityError: clone.IntegrityError,
	}
	if diag := validateConservation(clone.Game); diag != "" {
		e.integrityError = diag
	}
	return e, nil
}

// validateConservation checks that every dealt card id sits in exactly one
// zone (a hand, the stock, the discard, or a table meld) and that the zones
// still add up to the round's deal.
func validateConservation(g *Game) string {
	r := g.Round
	if r == nil {
		return ""
	}
	seen := make(map[uuid.UUID]bool, r.CardCount)
	total := 0
	track := func(zone string, id uuid.UUID) string {
		total++
		if seen[id] {
			return fmt.Sprintf("integrity: card %s appears in more than one zone (last seen in %s)", id, zone)
		}
		seen[id] = true
		return ""
	}
	for _, p := range g.Players {
		for _, c := range p.Hand {
			if msg := track("hand", c.ID); msg != "" {
				return msg
			}
		}
	}
	for _, c := range r.Stock {
		if msg := track("stock", c.ID); msg != "" {
			return msg
		}
	}
	for _, c := range r.Discard {
		if msg := track("discard", c.ID); msg != "" {
			return msg
		}
	}
	for _, m := range r.Table {
		for _, c := range m.Cards {
			if msg := track("table", c.ID); msg != "" {
				return msg
			}
		}
	}
	if total != r.CardCount {
		return fmt.Sprintf("integrity: %d cards in play, round dealt %d", total, r.CardCount)
	}
	return ""
}
