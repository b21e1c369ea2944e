package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptorun/engine/bar"
)

func frameJSON(t *testing.T, f klineFrame) []byte {
	t.Helper()
	data, err := json.Marshal(f)
	require.NoError(t, err)
	return data
}

func TestSubscribeSkipsUnconfirmedFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, frameJSON(t, klineFrame{Confirm: false, Close: 999}))
		_ = conn.WriteMessage(websocket.TextMessage, frameJSON(t, klineFrame{
			Confirm: true, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10,
			TsOpen: 0, TsClose: 60000,
		}))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	sub := NewSubscriber(func(symbol string, tf bar.Timeframe) string { return wsURL })

	var received []bar.Bar
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := sub.Subscribe(ctx, "BTC-USDT", bar.TF1m, func(b bar.Bar) error {
		received = append(received, b)
		return nil
	})
	assert.Error(t, err) // ctx deadline exceeded, expected shutdown path

	require.Len(t, received, 1)
	assert.InDelta(t, 1.5, received[0].Close, 1e-9)
	assert.Equal(t, int64(60000), received[0].TsClose)
}

func TestNextBackoffCapsAtMax(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second, 30*time.Second))
	assert.Equal(t, 30*time.Second, nextBackoff(20*time.Second, 30*time.Second))
}
