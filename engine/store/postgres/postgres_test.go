package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptorun/engine/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return New(sqlxDB, time.Second), mock
}

func TestSaveUpsertsRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO engine_state").
		WithArgs("eng-1", int64(60000), true, "long", 100.0, 1000.0, 10100.0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Save(context.Background(), "eng-1", store.EngineState{
		LastTsCloseMs: 60000, PositionOpen: true, PositionSide: "long",
		EntryPrice: 100, Notional: 1000, Equity: 10100,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadReturnsFalseWhenMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT engine_id").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"engine_id", "last_ts_close_ms", "position_open", "position_side", "entry_price", "notional", "equity"}))

	_, found, err := s.Load(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadReturnsStateWhenPresent(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"engine_id", "last_ts_close_ms", "position_open", "position_side", "entry_price", "notional", "equity"}).
		AddRow("eng-1", int64(60000), true, "long", 100.0, 1000.0, 10100.0)
	mock.ExpectQuery("SELECT engine_id").WithArgs("eng-1").WillReturnRows(rows)

	state, found, err := s.Load(context.Background(), "eng-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "eng-1", state.EngineID)
	assert.InDelta(t, 10100.0, state.Equity, 1e-9)
}
