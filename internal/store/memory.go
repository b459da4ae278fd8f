// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/cardwell/mayi/internal/game"
	"github.com/google/uuid"
)

// Memory is the in-process StateStore used by tests and single-node runs.
type Memory struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*game.PersistedState
	subs map[uuid.UUID][]func(*game.PersistedState)
}

func NewMemory() *Memory {
	return &Memory{
		docs: make(map[uuid.UUID]*game.PersistedState),
		subs: make(map[uuid.UUID][]func(*game.PersistedState)),
	}
}

func (m *Memory) Get(ctx context.Context, sessionID uuid.UUID) (*game.PersistedState, error) {
	m.mu.RLock()
	doc, ok := m.docs[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone()
}

func (m *Memory) Set(ctx context.Context, sessionID uuid.UUID, state *game.PersistedState) error {
	clone, err := state.Clone()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[sessionID]
	if !ok {
		if state.Rev != 1 {
			return ErrRevConflict
		}
		m.docs[sessionID] = clone
		return nil
	}
	if cur.Rev != state.Rev-1 {
		return ErrRevConflict
	}
	m.docs[sessionID] = clone
	return nil
}

// Subscribe registers fn for every Broadcast on sessionID. Callbacks run
// synchronously on the broadcasting goroutine.
func (m *Memory) Subscribe(sessionID uuid.UUID, fn func(*game.PersistedState)) {
	m.mu.Lock()
	m.subs[sessionID] = append(m.subs[sessionID], fn)
	m.mu.Unlock()
}

func (m *Memory) Broadcast(ctx context.Context, sessionID uuid.UUID, state *game.PersistedState) error {
	m.mu.RLock()
	subs := append([]func(*game.PersistedState){}, m.subs[sessionID]...)
	m.mu.RUnlock()
	for _, fn := range subs {
		clone, err := state.Clone()
		if err != nil {
			return err
		}
		fn(clone)
	}
	return nil
}
