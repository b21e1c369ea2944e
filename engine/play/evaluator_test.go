package play

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptorun/engine/bar"
	"github.com/cryptorun/engine/snapshot"
)

func buildRSISnap(t *testing.T, rsi []float64) *snapshot.Snapshot {
	f := bar.NewFeed("BTC-USDT", bar.TF1m, []string{"rsi"}, nil)
	for i, v := range rsi {
		b := bar.Bar{Open: v, High: v, Low: v, Close: v, Volume: 1, TsOpen: int64(i) * 60000, TsClose: int64(i+1) * 60000}
		require.NoError(t, f.Append(b, map[string]float64{"rsi": v}, nil))
	}
	mf := bar.NewMultiFeed(f, nil, nil)
	return snapshot.New(mf, len(rsi)-1, nil)
}

func rsiRegistry() *Registry {
	reg := NewRegistry()
	reg.Features["rsi"] = FeatureDecl{ID: "rsi", TF: bar.RoleExec}
	return reg
}

// TestHoldsForAllTrue covers spec.md §8 scenario S4: holds_for(N, expr)
// requires expr true at every offset 0..N-1.
func TestHoldsForAllTrue(t *testing.T) {
	reg := rsiRegistry()
	snap := buildRSISnap(t, []float64{71, 72, 73, 74})
	cond, err := Compile(RawCond{"op": ">", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	require.NoError(t, err)
	expr := HoldsForExpr{N: 3, Child: cond}
	ev := NewEvaluator(snap, NewSetupStore(nil, reg), bar.TF1m)
	res := ev.Eval(expr)
	assert.True(t, res.OK)
}

func TestHoldsForFailsOnOneFalse(t *testing.T) {
	reg := rsiRegistry()
	snap := buildRSISnap(t, []float64{71, 69, 73, 74})
	cond, err := Compile(RawCond{"op": ">", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	require.NoError(t, err)
	expr := HoldsForExpr{N: 3, Child: cond}
	ev := NewEvaluator(snap, NewSetupStore(nil, reg), bar.TF1m)
	res := ev.Eval(expr)
	assert.False(t, res.OK)
}

func TestOccurredWithinFindsOneTrue(t *testing.T) {
	reg := rsiRegistry()
	snap := buildRSISnap(t, []float64{60, 60, 72, 60})
	cond, err := Compile(RawCond{"op": ">", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	require.NoError(t, err)
	expr := OccurredWithinExpr{N: 3, Child: cond}
	ev := NewEvaluator(snap, NewSetupStore(nil, reg), bar.TF1m)
	res := ev.Eval(expr)
	assert.True(t, res.OK)
}

func TestCountTrueShortCircuitsAtK(t *testing.T) {
	reg := rsiRegistry()
	snap := buildRSISnap(t, []float64{71, 72, 60, 73})
	cond, err := Compile(RawCond{"op": ">", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	require.NoError(t, err)
	expr := CountTrueExpr{N: 4, K: 2, Child: cond}
	ev := NewEvaluator(snap, NewSetupStore(nil, reg), bar.TF1m)
	res := ev.Eval(expr)
	assert.True(t, res.OK)
}

func TestAllShortCircuitsOnFirstFalse(t *testing.T) {
	reg := rsiRegistry()
	snap := buildRSISnap(t, []float64{71})
	condTrue, _ := Compile(RawCond{"op": ">", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	condFalse, _ := Compile(RawCond{"op": "<", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	ev := NewEvaluator(snap, NewSetupStore(nil, reg), bar.TF1m)
	res := ev.Eval(AllExpr{Children: []Expr{condTrue, condFalse}})
	assert.False(t, res.OK)
}

func TestAnyShortCircuitsOnFirstTrue(t *testing.T) {
	reg := rsiRegistry()
	snap := buildRSISnap(t, []float64{71})
	condTrue, _ := Compile(RawCond{"op": ">", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	condFalse, _ := Compile(RawCond{"op": "<", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	ev := NewEvaluator(snap, NewSetupStore(nil, reg), bar.TF1m)
	res := ev.Eval(AnyExpr{Children: []Expr{condFalse, condTrue}})
	assert.True(t, res.OK)
}

func TestSetupRefResolvesAndCaches(t *testing.T) {
	reg := rsiRegistry()
	snap := buildRSISnap(t, []float64{71})
	raw := map[string]RawCond{
		"overbought": {"op": ">", "lhs": "indicator.rsi", "rhs": 70.0},
	}
	store := NewSetupStore(raw, reg)
	ev := NewEvaluator(snap, store, bar.TF1m)
	res := ev.Eval(SetupRefExpr{ID: "overbought"})
	assert.True(t, res.OK)
	// second resolve should hit the cache, not re-compile.
	_, ok := store.compiled["overbought"]
	assert.True(t, ok)
}

func TestSetupRefCycleDetected(t *testing.T) {
	reg := rsiRegistry()
	raw := map[string]RawCond{
		"a": {"setup_ref": "b"},
		"b": {"setup_ref": "a"},
	}
	store := NewSetupStore(raw, reg)
	_, err := store.Resolve("a")
	require.Error(t, err)
}

// TestEvaluatorDeterminism is spec.md §8 property S6: the same feed +
// same Play compiled twice yields bit-identical EvalResult sequences.
func TestEvaluatorDeterminism(t *testing.T) {
	reg := rsiRegistry()
	values := []float64{65, 72, 68, 74, 80, 55}
	cond, err := Compile(RawCond{"op": ">", "lhs": "indicator.rsi", "rhs": 70.0}, reg)
	require.NoError(t, err)

	runOnce := func() []bool {
		var out []bool
		for i := range values {
			snap := buildRSISnap(t, values[:i+1])
			ev := NewEvaluator(snap, NewSetupStore(nil, reg), bar.TF1m)
			out = append(out, ev.Eval(cond).OK)
		}
		return out
	}

	a := runOnce()
	b := runOnce()
	assert.Equal(t, a, b)
}
