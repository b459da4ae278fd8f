// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cardwell/mayi/internal/game"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres persists one session per row. The rev column carries the
// compare-and-swap token; the full engine document lives in a jsonb column
// so schema migrations never touch game semantics.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the sessions table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id uuid PRIMARY KEY,
			rev bigint NOT NULL,
			doc jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		);
	`)
	return err
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Get(ctx context.Context, sessionID uuid.UUID) (*game.PersistedState, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM sessions WHERE id=$1`, sessionID).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	var state game.PersistedState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("decode session doc: %w", err)
	}
	return &state, nil
}

func (p *Postgres) Set(ctx context.Context, sessionID uuid.UUID, state *game.PersistedState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session doc: %w", err)
	}
	if state.Rev == 1 {
		tag, err := p.pool.Exec(ctx, `
			INSERT INTO sessions (id, rev, doc) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, sessionID, state.Rev, doc)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrRevConflict
		}
		return nil
	}
	tag, err := p.pool.Exec(ctx, `
		UPDATE sessions SET rev=$2, doc=$3, updated_at=now()
		WHERE id=$1 AND rev=$4
	`, sessionID, state.Rev, doc, state.Rev-1)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRevConflict
	}
	return nil
}

// Broadcast wakes listeners via pg_notify. The payload is the session id
// only; subscribers re-read the row, so a dropped notification costs a
// refresh, never a lost write.
func (p *Postgres) Broadcast(ctx context.Context, sessionID uuid.UUID, state *game.PersistedState) error {
	_, err := p.pool.Exec(ctx,
		`SELECT pg_notify('mayi_sessions', $1)`, sessionID.String())
	if err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}
