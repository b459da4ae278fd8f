// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/cardwell/mayi/internal/game"
	"github.com/google/uuid"
)

var (
	// ErrNotFound means no document exists for the session.
	ErrNotFound = errors.New("store: session not found")
	// ErrRevConflict means another writer committed first; re-read and merge.
	ErrRevConflict = errors.New("store: revision conflict")
)

// StateStore is the durable boundary the engine never touches directly.
// Set is compare-and-swap: the write lands only if the store still holds
// revision state.Rev-1 (or nothing, for a fresh document at Rev 1). This is
// the optimistic-concurrency token the coordinator's merge discipline
// depends on; the store itself guarantees no transactional isolation beyond
// that single check.
type StateStore interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*game.PersistedState, error)
	Set(ctx context.Context, sessionID uuid.UUID, state *game.PersistedState) error
	Broadcast(ctx context.Context, sessionID uuid.UUID, state *game.PersistedState) error
}
