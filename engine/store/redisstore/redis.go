// Package redisstore implements StateStore against Redis, grounded on
// the teacher's RedisCache (JSON-encoded values, key prefixing, redis.Nil
// cache-miss handling).
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/cryptorun/engine/store"
)

type Store struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(engineID string) string {
	return s.prefix + engineID
}

func (s *Store) Save(ctx context.Context, engineID string, state store.EngineState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal engine state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(engineID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set engine state: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, engineID string) (store.EngineState, bool, error) {
	val, err := s.client.Get(ctx, s.key(engineID)).Result()
	if err == redis.Nil {
		return store.EngineState{}, false, nil
	}
	if err != nil {
		return store.EngineState{}, false, fmt.Errorf("redis get engine state: %w", err)
	}
	var state store.EngineState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return store.EngineState{}, false, fmt.Errorf("unmarshal engine state: %w", err)
	}
	return state, true, nil
}
