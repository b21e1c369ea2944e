package redisstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptorun/engine/store"
)

func TestSaveSetsJSONEncodedKey(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := New(client, "engine:")

	state := store.EngineState{EngineID: "eng-1", LastTsCloseMs: 60000, Equity: 10100}
	data, err := json.Marshal(state)
	require.NoError(t, err)

	mock.ExpectSet("engine:eng-1", data, 0).SetVal("OK")

	err = s.Save(context.Background(), "eng-1", state)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadReturnsFalseOnMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := New(client, "engine:")

	mock.ExpectGet("engine:missing").RedisNil()

	_, found, err := s.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadDecodesStoredState(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := New(client, "engine:")

	state := store.EngineState{EngineID: "eng-1", Equity: 10100}
	data, err := json.Marshal(state)
	require.NoError(t, err)
	mock.ExpectGet("engine:eng-1").SetVal(string(data))

	got, found, err := s.Load(context.Background(), "eng-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 10100.0, got.Equity, 1e-9)
}
