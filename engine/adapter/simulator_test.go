package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorFillsEntryAtMarkPlusSlippage(t *testing.T) {
	sim := NewSimulator(10000, 0.001, 10) // 10 bps slippage
	sim.MarkPrice("BTC-USDT", 100)

	res, err := sim.Submit(context.Background(), OrderIntent{Symbol: "BTC-USDT", Side: SideLong, Notional: 1000})
	require.NoError(t, err)
	assert.True(t, res.Success)

	pos, err := sim.CurrentPosition(context.Background(), "BTC-USDT")
	require.NoError(t, err)
	assert.True(t, pos.Open)
	assert.InDelta(t, 100.1, pos.EntryPrice, 1e-9)
}

func TestSimulatorReduceOnlyClosesPosition(t *testing.T) {
	sim := NewSimulator(10000, 0, 0)
	sim.MarkPrice("BTC-USDT", 100)
	_, err := sim.Submit(context.Background(), OrderIntent{Symbol: "BTC-USDT", Side: SideLong, Notional: 1000})
	require.NoError(t, err)

	sim.MarkPrice("BTC-USDT", 110)
	res, err := sim.Submit(context.Background(), OrderIntent{Symbol: "BTC-USDT", Side: SideShort, ReduceOnly: true, Notional: 1000})
	require.NoError(t, err)
	assert.True(t, res.Success)

	pos, err := sim.CurrentPosition(context.Background(), "BTC-USDT")
	require.NoError(t, err)
	assert.False(t, pos.Open)

	acct, err := sim.AccountStateOf(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10100, acct.Equity, 1e-6) // 10% gain on 1000 notional
}

func TestSimulatorRejectsReduceOnlyWithNoPosition(t *testing.T) {
	sim := NewSimulator(10000, 0, 0)
	sim.MarkPrice("BTC-USDT", 100)
	res, err := sim.Submit(context.Background(), OrderIntent{Symbol: "BTC-USDT", Side: SideShort, ReduceOnly: true, Notional: 1000})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ErrRejected, res.Error)
}
