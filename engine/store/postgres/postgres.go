// Package postgres implements StateStore against PostgreSQL, grounded
// on the teacher's trades_repo.go persistence pattern: sqlx.DB,
// per-call context timeout, and pq.Error code checks on write.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cryptorun/engine/store"
)

type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

func New(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// Schema is the DDL this store expects; callers apply it via their own
// migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS engine_state (
	engine_id        TEXT PRIMARY KEY,
	last_ts_close_ms BIGINT NOT NULL,
	position_open    BOOLEAN NOT NULL,
	position_side    TEXT NOT NULL,
	entry_price      DOUBLE PRECISION NOT NULL,
	notional         DOUBLE PRECISION NOT NULL,
	equity           DOUBLE PRECISION NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (s *Store) Save(ctx context.Context, engineID string, state store.EngineState) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO engine_state (engine_id, last_ts_close_ms, position_open, position_side, entry_price, notional, equity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (engine_id) DO UPDATE SET
			last_ts_close_ms = EXCLUDED.last_ts_close_ms,
			position_open = EXCLUDED.position_open,
			position_side = EXCLUDED.position_side,
			entry_price = EXCLUDED.entry_price,
			notional = EXCLUDED.notional,
			equity = EXCLUDED.equity,
			updated_at = now()`

	_, err := s.db.ExecContext(ctx, query,
		engineID, state.LastTsCloseMs, state.PositionOpen, state.PositionSide,
		state.EntryPrice, state.Notional, state.Equity)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate engine state for %s: %w", engineID, err)
		}
		return fmt.Errorf("save engine state: %w", err)
	}
	return nil
}

type row struct {
	EngineID      string  `db:"engine_id"`
	LastTsCloseMs int64   `db:"last_ts_close_ms"`
	PositionOpen  bool    `db:"position_open"`
	PositionSide  string  `db:"position_side"`
	EntryPrice    float64 `db:"entry_price"`
	Notional      float64 `db:"notional"`
	Equity        float64 `db:"equity"`
}

func (s *Store) Load(ctx context.Context, engineID string) (store.EngineState, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var r row
	err := s.db.GetContext(ctx, &r, `
		SELECT engine_id, last_ts_close_ms, position_open, position_side, entry_price, notional, equity
		FROM engine_state WHERE engine_id = $1`, engineID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.EngineState{}, false, nil
	}
	if err != nil {
		return store.EngineState{}, false, fmt.Errorf("load engine state: %w", err)
	}
	return store.EngineState{
		EngineID:      r.EngineID,
		LastTsCloseMs: r.LastTsCloseMs,
		PositionOpen:  r.PositionOpen,
		PositionSide:  r.PositionSide,
		EntryPrice:    r.EntryPrice,
		Notional:      r.Notional,
		Equity:        r.Equity,
	}, true, nil
}
