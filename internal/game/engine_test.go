// internal/game/engine_test.go
package game

import (
	"testing"

	"github.com/cardwell/mayi/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, n int) *Engine {
	e, err := NewEngine(testPlayers(n), 0)
	require.NoError(t, err)
	return e
}

func handOf(s Snapshot, playerID uuid.UUID) []models.Card {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p.Hand
		}
	}
	return nil
}

func TestEngineScriptedTurn(t *testing.T) {
	e := newTestEngine(t, 3)
	snap := e.Snapshot()
	assert.Equal(t, "ROUND_ACTIVE", snap.Phase)
	assert.Equal(t, PhaseAwaitingDraw, snap.TurnPhase)
	cur := snap.AwaitingPlayerID

	snap, err := e.DrawFromStock(cur)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingAction, snap.TurnPhase)
	assert.True(t, snap.HasDrawn)
	require.Len(t, handOf(snap, cur), HandSize+1)

	drawn := handOf(snap, cur)[HandSize]
	snap, err = e.Discard(cur, drawn.ID)
	require.NoError(t, err)
	assert.Equal(t, drawn.ID, snap.Discard[0].ID)
	assert.NotEqual(t, cur, snap.AwaitingPlayerID, "the turn moved on")
	assert.Equal(t, PhaseAwaitingDraw, snap.TurnPhase)
	assert.Empty(t, snap.LastError)
}

func TestEngineRejectionIsAdvisory(t *testing.T) {
	e := newTestEngine(t, 3)
	snap := e.Snapshot()
	cur := snap.AwaitingPlayerID
	var other uuid.UUID
	for _, p := range snap.Players {
		if p.ID != cur {
			other = p.ID
			break
		}
	}

	before := e.Snapshot()
	snap, err := e.DrawFromStock(other)
	require.Error(t, err)
	var rerr *RuleError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrWrongPlayer, rerr.Code)
	assert.NotEmpty(t, snap.LastError)
	assert.Equal(t, before.Stock, snap.Stock, "a rejection changes nothing")
	assert.Equal(t, handOf(before, other), handOf(snap, other))

	// The next command clears the advisory error.
	snap, err = e.DrawFromStock(cur)
	require.NoError(t, err)
	assert.Empty(t, snap.LastError)
}

func TestEngineSkipDuringResolutionMeansAllow(t *testing.T) {
	e := newTestEngine(t, 3)
	snap := e.Snapshot()
	cur := snap.AwaitingPlayerID
	caller := snap.Players[(snap.CurrentPlayerIndex+1)%len(snap.Players)].ID

	snap, err := e.CallMayI(caller)
	require.NoError(t, err)
	assert.Equal(t, "RESOLVING_MAY_I", snap.Phase)
	require.NotNil(t, snap.MayI)
	assert.Equal(t, cur, snap.MayI.PlayerBeingPrompted)
	assert.Equal(t, cur, snap.AwaitingPlayerID, "the prompt target is the awaited player")

	snap, err = e.Skip(cur)
	require.NoError(t, err, "skip while prompted defers the claim")
	assert.Equal(t, "ROUND_ACTIVE", snap.Phase)
	require.Len(t, handOf(snap, caller), HandSize+2, "card plus penalty")
}

func TestEngineReorderHand(t *testing.T) {
	e := newTestEngine(t, 3)
	snap := e.Snapshot()
	p := snap.Players[2].ID
	hand := handOf(snap, p)

	order := make([]uuid.UUID, 0, len(hand))
	for i := len(hand) - 1; i >= 0; i-- {
		order = append(order, hand[i].ID)
	}
	snap, err := e.ReorderHand(p, order)
	require.NoError(t, err)
	got := handOf(snap, p)
	for i, id := range order {
		assert.Equal(t, id, got[i].ID)
	}

	_, err = e.ReorderHand(p, order[:3])
	require.Error(t, err, "the order must name the whole hand")

	dup := append([]uuid.UUID{order[0]}, order[:len(order)-1]...)
	_, err = e.ReorderHand(p, dup)
	require.Error(t, err, "the order must be a permutation")
}

func TestPlayerViewRedaction(t *testing.T) {
	e := newTestEngine(t, 3)
	snap := e.Snapshot()
	viewer := snap.Players[0].ID

	v := e.PlayerView(viewer)
	assert.Equal(t, viewer, v.ViewerID)
	assert.Equal(t, len(snap.Stock), v.StockCount)
	require.NotNil(t, v.DiscardTop)
	assert.Equal(t, snap.Discard[0].ID, v.DiscardTop.ID)

	for _, p := range v.Players {
		if p.ID == viewer {
			assert.Len(t, p.Hand, HandSize, "a player sees their own cards")
		} else {
			assert.Nil(t, p.Hand, "other hands are counts only")
			assert.Equal(t, HandSize, p.HandCount)
		}
	}
}

func TestEngineApplyDispatch(t *testing.T) {
	e := newTestEngine(t, 3)
	cur := e.Snapshot().AwaitingPlayerID

	snap, err := e.Apply(models.Command{Type: models.CmdDrawStock, PlayerID: cur})
	require.NoError(t, err)
	assert.True(t, snap.HasDrawn)

	_, err = e.Apply(models.Command{Type: "bogus_command", PlayerID: cur})
	require.Error(t, err)
	var rerr *RuleError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrInvalidInput, rerr.Code)
}
