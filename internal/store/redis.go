// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cardwell/mayi/internal/game"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mayi:session:"

// Redis keeps each session document as a JSON string under
// mayi:session:<id>. Compare-and-swap rides on WATCH/MULTI: if the key
// changes between the read and the pipeline exec, go-redis surfaces
// TxFailedErr and we report a rev conflict.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, addr string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func sessionKey(sessionID uuid.UUID) string {
	return redisKeyPrefix + sessionID.String()
}

func (r *Redis) Get(ctx context.Context, sessionID uuid.UUID) (*game.PersistedState, error) {
	raw, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var state game.PersistedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session doc: %w", err)
	}
	return &state, nil
}

func (r *Redis) Set(ctx context.Context, sessionID uuid.UUID, state *game.PersistedState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session doc: %w", err)
	}
	key := sessionKey(sessionID)

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if state.Rev != 1 {
				return ErrRevConflict
			}
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			var cur game.PersistedState
			if err := json.Unmarshal(raw, &cur); err != nil {
				return fmt.Errorf("decode session doc: %w", err)
			}
			if cur.Rev != state.Rev-1 {
				return ErrRevConflict
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, doc, 0)
			return nil
		})
		return err
	}

	err = r.client.Watch(ctx, txn, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrRevConflict
	}
	return err
}

func (r *Redis) Broadcast(ctx context.Context, sessionID uuid.UUID, state *game.PersistedState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session doc: %w", err)
	}
	if err := r.client.Publish(ctx, sessionKey(sessionID), doc).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// SubscribeUpdates opens a pub/sub channel for a session and decodes each
// published document. The returned close func tears the subscription down.
func (r *Redis) SubscribeUpdates(ctx context.Context, sessionID uuid.UUID, fn func(*game.PersistedState)) (func() error, error) {
	sub := r.client.Subscribe(ctx, sessionKey(sessionID))
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}
	go func() {
		for msg := range sub.Channel() {
			var state game.PersistedState
			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				continue
			}
			fn(&state)
		}
	}()
	return sub.Close, nil
}
