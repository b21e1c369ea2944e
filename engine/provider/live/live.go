// Package live implements a closed-bar WebSocket data provider
// (spec.md §6 "Data provider ... subscribe_closed_bars(symbol, tf,
// callback)"), grounded on the teacher's exchanges/binance/book.go
// reconnect-loop pattern and original_source's bybit websocket closed-
// candle framing (a kline message carries a `confirm`/`x` flag; only
// confirm=true frames are forwarded).
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cryptorun/engine/bar"
)

// BarCallback receives one closed bar; implementations must not block
// for long, since the subscription loop delivers serially.
type BarCallback func(b bar.Bar) error

// Subscriber dials a venue's kline/candle WebSocket stream and delivers
// only confirmed (closed) bars to cb, reconnecting with backoff on any
// read or dial error.
type Subscriber struct {
	dialURL     func(symbol string, tf bar.Timeframe) string
	dialTimeout time.Duration
	backoff     time.Duration
	maxBackoff  time.Duration
}

func NewSubscriber(dialURL func(symbol string, tf bar.Timeframe) string) *Subscriber {
	return &Subscriber{
		dialURL:     dialURL,
		dialTimeout: 10 * time.Second,
		backoff:     time.Second,
		maxBackoff:  30 * time.Second,
	}
}

// klineFrame is the venue-agnostic shape this package expects off the
// wire: a confirm flag plus the OHLCV fields needed to build a bar.Bar.
// A concrete venue adapter translates its native message into this
// shape before Subscribe's decoder sees it; this package only frames
// the reconnect loop and the closed-bar filter.
type klineFrame struct {
	Confirm bool    `json:"confirm"`
	TsOpen  int64   `json:"ts_open"`
	TsClose int64   `json:"ts_close"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Close   float64 `json:"close"`
	Volume  float64 `json:"volume"`
}

// Subscribe blocks until ctx is canceled, redelivering closed bars to
// cb as they arrive. Failed dials are retried after an exponential
// backoff capped at maxBackoff; the backoff resets once a dial succeeds.
// When an established connection's read loop ends, the loop waits the
// base backoff before redialing.
func (s *Subscriber) Subscribe(ctx context.Context, symbol string, tf bar.Timeframe, cb BarCallback) error {
	url := s.dialURL(symbol, tf)
	wait := s.backoff

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
		conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("live provider dial failed, retrying")
			if !sleepOrDone(ctx, wait) {
				return ctx.Err()
			}
			wait = nextBackoff(wait, s.maxBackoff)
			continue
		}

		wait = s.backoff
		readLoopErr := s.readLoop(ctx, conn, symbol, cb)
		_ = conn.Close()
		if readLoopErr != nil {
			log.Warn().Err(readLoopErr).Str("symbol", symbol).Msg("live provider read loop ended, reconnecting")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !sleepOrDone(ctx, s.backoff) {
			return ctx.Err()
		}
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn, symbol string, cb BarCallback) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		var frame klineFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("live provider: malformed frame discarded")
			continue
		}
		if !frame.Confirm {
			continue
		}
		b := bar.Bar{
			Open: frame.Open, High: frame.High, Low: frame.Low, Close: frame.Close,
			Volume: frame.Volume, TsOpen: frame.TsOpen, TsClose: frame.TsClose,
		}
		if err := cb(b); err != nil {
			return fmt.Errorf("bar callback: %w", err)
		}
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
