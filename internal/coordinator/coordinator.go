// internal/coordinator/coordinator.go
//
// The coordinator drives automated seats. It owns no game semantics: it
// hydrates an engine from the store, hands a scoped view to the Decider,
// and writes the result back under the store's compare-and-swap token,
// merging in the cosmetic fields other players may have changed while the
// turn was in flight.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cardwell/mayi/internal/game"
	"github.com/cardwell/mayi/internal/models"
	"github.com/cardwell/mayi/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ErrLoopInFlight means another goroutine already runs this session's
// automated turns. Callers treat it as success: the running loop will pick
// up the state change on its next hydration.
var ErrLoopInFlight = errors.New("coordinator: automated turn loop already in flight")

// TurnHandle is what a Decider gets for one automated turn: a redacted view,
// a way to act, and a way to checkpoint mid-turn.
type TurnHandle interface {
	// View is the current redacted state for the acting player.
	View() game.PlayerView
	// Act applies one command as the acting player and returns the
	// refreshed view. A rule rejection comes back as the error.
	Act(cmd models.Command) (game.PlayerView, error)
	// Persist checkpoints the session mid-turn so a crash loses at most
	// the commands since the last checkpoint.
	Persist(ctx context.Context) error
}

// Decider chooses the commands for one automated turn. It must stop when
// the view's awaiting player is no longer the viewer.
type Decider interface {
	PlayTurn(ctx context.Context, h TurnHandle) error
}

const casRetries = 5

type Coordinator struct {
	store   store.StateStore
	decider Decider
	logger  *logrus.Logger
	timeout time.Duration

	mu   sync.Mutex
	sems map[uuid.UUID]*semaphore.Weighted
}

func New(st store.StateStore, decider Decider, logger *logrus.Logger, timeout time.Duration) *Coordinator {
	return &Coordinator{
		store:   st,
		decider: decider,
		logger:  logger,
		timeout: timeout,
		sems:    make(map[uuid.UUID]*semaphore.Weighted),
	}
}

func (c *Coordinator) sem(sessionID uuid.UUID) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sems[sessionID]
	if !ok {
		s = semaphore.NewWeighted(1)
		c.sems[sessionID] = s
	}
	return s
}

// RunAutomatedTurns plays every consecutive automated seat of the session
// until a human is awaited, the game ends, or the context is cancelled.
// At most one loop per session runs at a time; a second caller gets
// ErrLoopInFlight without blocking.
func (c *Coordinator) RunAutomatedTurns(ctx context.Context, sessionID uuid.UUID) error {
	sem := c.sem(sessionID)
	if !sem.TryAcquire(1) {
		return ErrLoopInFlight
	}
	defer sem.Release(1)

	log := c.logger.WithField("session_id", sessionID)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := c.store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		eng, err := game.FromPersistedState(doc)
		if err != nil {
			return err
		}
		snap := eng.Snapshot()
		if snap.Phase == "GAME_END" {
			return nil
		}
		actor, ok := automatedActor(snap)
		if !ok {
			return nil
		}

		h := &turnHandle{coord: c, sessionID: sessionID, eng: eng, actorID: actor}
		dctx, cancel := context.WithTimeout(ctx, c.timeout)
		derr := c.decider.PlayTurn(dctx, h)
		cancel()
		if derr != nil {
			log.WithError(derr).WithField("player_id", actor).
				Warn("decider failed, degrading to fallback move")
		}
		if stillAwaiting(eng, actor) {
			if !c.fallbackMove(eng, actor, log) {
				return errors.New("coordinator: automated turn made no progress")
			}
		}
		if err := c.persistMerged(ctx, sessionID, eng, actor); err != nil {
			return err
		}
	}
}

// automatedActor reports the awaited player if that seat is automated.
func automatedActor(snap game.Snapshot) (uuid.UUID, bool) {
	if snap.AwaitingPlayerID == uuid.Nil {
		return uuid.Nil, false
	}
	for _, p := range snap.Players {
		if p.ID == snap.AwaitingPlayerID {
			return p.ID, p.Automated
		}
	}
	return uuid.Nil, false
}

func stillAwaiting(eng *game.Engine, actor uuid.UUID) bool {
	s := eng.Snapshot()
	return s.Phase != "GAME_END" && s.AwaitingPlayerID == actor
}

// fallbackMove forces the session forward when the decider errored, timed
// out, or returned without moving: allow a pending May-I prompt, otherwise
// draw from the stock and discard the first card. Reports whether any
// command landed.
func (c *Coordinator) fallbackMove(eng *game.Engine, actor uuid.UUID, log *logrus.Entry) bool {
	progressed := false
	// Bounded: each branch either errors or advances a machine phase.
	for i := 0; i < 4 && stillAwaiting(eng, actor); i++ {
		v := eng.PlayerView(actor)
		var err error
		switch {
		case v.Phase == "RESOLVING_MAY_I":
			_, err = eng.AllowMayI(actor)
		case v.TurnPhase == game.PhaseAwaitingDraw:
			_, err = eng.DrawFromStock(actor)
		case v.TurnPhase == game.PhaseAwaitingAction || v.TurnPhase == game.PhaseAwaitingDiscard:
			var cardID uuid.UUID
			for _, p := range v.Players {
				if p.ID == actor && len(p.Hand) > 0 {
					cardID = p.Hand[0].ID
				}
			}
			_, err = eng.Discard(actor, cardID)
		default:
			return progressed
		}
		if err != nil {
			log.WithError(err).WithField("player_id", actor).
				Error("fallback move rejected")
			return progressed
		}
		progressed = true
	}
	return progressed
}

// persistMerged writes the engine state back, folding in the fields other
// players own (hand order, display name) from whatever revision landed in
// the meantime. Retries the compare-and-swap a bounded number of times.
func (c *Coordinator) persistMerged(ctx context.Context, sessionID uuid.UUID, eng *game.Engine, actor uuid.UUID) error {
	mine, err := eng.ToPersistedState()
	if err != nil {
		return err
	}
	for attempt := 0; attempt < casRetries; attempt++ {
		latest, err := c.store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		merged, err := MergeStates(latest, mine, actor)
		if err != nil {
			return err
		}
		merged.Rev = latest.Rev + 1
		err = c.store.Set(ctx, sessionID, merged)
		if errors.Is(err, store.ErrRevConflict) {
			continue
		}
		if err != nil {
			return err
		}
		return c.store.Broadcast(ctx, sessionID, merged)
	}
	return store.ErrRevConflict
}

// MergeStates takes the actor's state as the authoritative base and adopts,
// for every other player, the hand order and name from the latest revision.
// Card identity stays with the base: latest ordering is applied only to ids
// the base still holds, and base-only cards (a May-I penalty draw, say)
// keep their base position at the tail.
func MergeStates(latest, mine *game.PersistedState, actor uuid.UUID) (*game.PersistedState, error) {
	out, err := mine.Clone()
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Game == nil || out.Game == nil {
		return out, nil
	}
	for _, p := range out.Game.Players {
		if p.ID == actor {
			continue
		}
		lp := latest.Game.PlayerByID(p.ID)
		if lp == nil {
			continue
		}
		p.Name = lp.Name
		p.Hand = mergeHandOrder(lp.Hand, p.Hand)
	}
	return out, nil
}

func mergeHandOrder(latest, base []models.Card) []models.Card {
	byID := make(map[uuid.UUID]models.Card, len(base))
	for _, c := range base {
		byID[c.ID] = c
	}
	out := make([]models.Card, 0, len(base))
	for _, c := range latest {
		if kept, ok := byID[c.ID]; ok {
			out = append(out, kept)
			delete(byID, c.ID)
		}
	}
	for _, c := range base {
		if _, ok := byID[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

type turnHandle struct {
	coord     *Coordinator
	sessionID uuid.UUID
	eng       *game.Engine
	actorID   uuid.UUID
}

func (h *turnHandle) View() game.PlayerView {
	return h.eng.PlayerView(h.actorID)
}

func (h *turnHandle) Act(cmd models.Command) (game.PlayerView, error) {
	if cmd.PlayerID != h.actorID {
		return h.View(), errors.New("coordinator: command player does not match turn actor")
	}
	_, err := h.eng.Apply(cmd)
	return h.View(), err
}

func (h *turnHandle) Persist(ctx context.Context) error {
	return h.coord.persistMerged(ctx, h.sessionID, h.eng, h.actorID)
}
