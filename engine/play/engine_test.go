package play

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptorun/engine/adapter"
	"github.com/cryptorun/engine/bar"
)

type fakeAdapter struct {
	pos     adapter.Position
	submits []adapter.OrderIntent
}

func (f *fakeAdapter) Submit(ctx context.Context, intent adapter.OrderIntent) (adapter.OrderResult, error) {
	f.submits = append(f.submits, intent)
	if !intent.ReduceOnly {
		f.pos = adapter.Position{Open: true, Symbol: intent.Symbol, Side: intent.Side, Notional: intent.Notional}
	} else {
		f.pos = adapter.Position{}
	}
	return adapter.OrderResult{Success: true, OrderID: "sim-1"}, nil
}
func (f *fakeAdapter) CurrentPosition(ctx context.Context, symbol string) (adapter.Position, error) {
	return f.pos, nil
}
func (f *fakeAdapter) AccountStateOf(ctx context.Context) (adapter.AccountState, error) {
	return adapter.AccountState{Equity: 10000, Available: 10000}, nil
}
func (f *fakeAdapter) Cancel(ctx context.Context, orderID string) (bool, error) { return true, nil }

func TestEngineEntersOnRSIOverbought(t *testing.T) {
	raw := minimalRawPlay()
	p, err := CompilePlay(raw)
	require.NoError(t, err)

	ad := &fakeAdapter{}
	eng, err := NewEngine(p, "BTC-USDT", ad, adapter.NoopJournal{})
	require.NoError(t, err)

	values := []float64{50, 55, 60, 65, 80, 90} // unused: rsi14 is computed by the engine from the bars fed below
	_ = values

	for i := 0; i < 20; i++ {
		c := 100.0 + float64(i)
		b := bar.Bar{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10,
			TsOpen: int64(i) * 60000, TsClose: int64(i+1) * 60000}
		require.NoError(t, eng.IngestBar(bar.RoleExec, b))
		_, err := eng.ProcessBar(context.Background(), nil)
		require.NoError(t, err)
	}

	// A steadily rising close feed should eventually push RSI into
	// overbought territory and trigger entry_long at least once.
	assert.True(t, len(ad.submits) > 0)
}

func TestEnginePauseSkipsEvaluation(t *testing.T) {
	raw := minimalRawPlay()
	p, err := CompilePlay(raw)
	require.NoError(t, err)
	ad := &fakeAdapter{}
	eng, err := NewEngine(p, "BTC-USDT", ad, adapter.NoopJournal{})
	require.NoError(t, err)
	eng.Pause()

	b := bar.Bar{Open: 100, High: 101, Low: 99, Close: 100, Volume: 10, TsOpen: 0, TsClose: 60000}
	require.NoError(t, eng.IngestBar(bar.RoleExec, b))
	res, err := eng.ProcessBar(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.EntryEval)
	assert.Empty(t, res.ExitEval)
}
