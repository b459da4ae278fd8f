// internal/models/meld.go
package models

import "github.com/google/uuid"

// MeldType distinguishes sets (same rank) from runs (consecutive, one suit).
type MeldType string

const (
	MeldSet MeldType = "set"
	MeldRun MeldType = "run"
)

// Meld is a laid-down set or run on the table. A set's card order carries no
// meaning; a run is stored ascending with wilds sitting in the rank gap they
// fill, not wherever the player happened to submit them.
type Meld struct {
	ID      uuid.UUID `json:"id"`
	Type    MeldType  `json:"type"`
	Cards   []Card    `json:"cards"`
	OwnerID uuid.UUID `json:"ownerId"`
}

// MeldProposal is the wire form of a meld in a lay-down command: the player
// names card ids out of their own hand.
type MeldProposal struct {
	Type    MeldType    `json:"type"`
	CardIDs []uuid.UUID `json:"cardIds"`
}

// LayOffPosition selects which end of a run a lay-off extends.
type LayOffPosition string

const (
	LayOffStart LayOffPosition = "start"
	LayOffEnd   LayOffPosition = "end"
	// LayOffAuto lets the engine pick the only end that fits.
	LayOffAuto LayOffPosition = ""
)
