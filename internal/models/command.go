// internal/models/command.go
package models

import "github.com/google/uuid"

// CommandType enumerates every player-facing engine command.
type CommandType string

const (
	CmdDrawStock   CommandType = "draw_stock"
	CmdDrawDiscard CommandType = "draw_discard"
	CmdSkip        CommandType = "skip"
	CmdLayDown     CommandType = "lay_down"
	CmdLayOff      CommandType = "lay_off"
	CmdSwap        CommandType = "swap"
	CmdDiscard     CommandType = "discard"
	CmdCallMayI    CommandType = "call_may_i"
	CmdAllowMayI   CommandType = "allow_may_i"
	CmdClaimMayI   CommandType = "claim_may_i"
	CmdReorderHand CommandType = "reorder_hand"
)

// Command captures a player's move. PlayerID is always explicit rather than
// inferred from whose turn it is, so the engine stays safe under concurrent
// or untrusted callers.
type Command struct {
	Type     CommandType `json:"type"`
	PlayerID uuid.UUID   `json:"playerId"`

	// CardID names the hand card for discard and lay_off.
	CardID uuid.UUID `json:"cardId,omitempty"`

	// MeldID targets a table meld for lay_off and swap.
	MeldID uuid.UUID `json:"meldId,omitempty"`

	// Position picks the run end for lay_off; empty means infer.
	Position LayOffPosition `json:"position,omitempty"`

	// JokerCardID / HandCardID drive the joker swap.
	JokerCardID uuid.UUID `json:"jokerCardId,omitempty"`
	HandCardID  uuid.UUID `json:"handCardId,omitempty"`

	// Melds is the lay_down payload.
	Melds []MeldProposal `json:"melds,omitempty"`

	// CardOrder is the reorder_hand payload: a permutation of the hand's ids.
	CardOrder []uuid.UUID `json:"cardOrder,omitempty"`
}
