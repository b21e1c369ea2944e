// Package memory implements an in-process StateStore, used by the
// backtest runner which never needs to survive a restart (spec.md §6
// "Backtest uses an in-memory implementation").
package memory

import (
	"context"
	"sync"

	"github.com/cryptorun/engine/store"
)

type Store struct {
	mu     sync.RWMutex
	states map[string]store.EngineState
}

func New() *Store {
	return &Store{states: map[string]store.EngineState{}}
}

func (s *Store) Save(ctx context.Context, engineID string, state store.EngineState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[engineID] = state
	return nil
}

func (s *Store) Load(ctx context.Context, engineID string) (store.EngineState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[engineID]
	return st, ok, nil
}
