package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatus struct{ s EngineStatus }

func (f fakeStatus) EngineStatus() EngineStatus { return f.s }

func TestHealthEndpointReturnsOK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	srv, err := NewServer(cfg, fakeStatus{}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusEndpointReturnsEngineStatus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	want := EngineStatus{Symbol: "BTC-USDT", Equity: 10100, BarsProcessed: 42}
	srv, err := NewServer(cfg, fakeStatus{s: want}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got EngineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want, got)
}

func TestUnknownRouteReturns404JSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	srv, err := NewServer(cfg, nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/nope", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
