package play

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptorun/engine/bar"
	"github.com/cryptorun/engine/snapshot"
)

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.Features["ema_fast"] = FeatureDecl{ID: "ema_fast", TF: bar.RoleExec}
	reg.Features["ema_slow"] = FeatureDecl{ID: "ema_slow", TF: bar.RoleExec}
	reg.Features["macd"] = FeatureDecl{ID: "macd", TF: bar.RoleExec, OutputNames: []string{"macd", "signal", "histogram"}}
	reg.Structures["swing1"] = FeatureDecl{ID: "swing1", TF: bar.RoleExec, OutputNames: []string{"pair_version"}}
	return reg
}

func buildSnap(t *testing.T, closes, emaFast, emaSlow []float64) *snapshot.Snapshot {
	keys := []string{"ema_fast", "ema_slow"}
	f := bar.NewFeed("BTC-USDT", bar.TF1m, keys, nil)
	for i, c := range closes {
		b := bar.Bar{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10, TsOpen: int64(i) * 60000, TsClose: int64(i+1) * 60000}
		vals := map[string]float64{"ema_fast": emaFast[i], "ema_slow": emaSlow[i]}
		require.NoError(t, f.Append(b, vals, nil))
	}
	mf := bar.NewMultiFeed(f, nil, nil)
	return snapshot.New(mf, len(closes)-1, nil)
}

func TestEvalCompareGT(t *testing.T) {
	reg := testRegistry()
	snap := buildSnap(t, []float64{1, 2, 3}, []float64{5, 6, 7}, []float64{1, 2, 3})
	expr, err := Compile(RawCond{"op": ">", "lhs": "indicator.ema_fast", "rhs": "indicator.ema_slow"}, reg)
	require.NoError(t, err)
	res := evalCompare(expr.(CompareExpr), snap)
	assert.True(t, res.OK)
	assert.Equal(t, ReasonOK, res.Reason)
}

func TestEvalCompareMissingLHS(t *testing.T) {
	reg := testRegistry()
	snap := buildSnap(t, []float64{1}, []float64{5}, []float64{1})
	expr, err := Compile(RawCond{"op": ">", "lhs": "indicator.ema_fast#5", "rhs": "indicator.ema_slow"}, reg)
	require.NoError(t, err)
	res := evalCompare(expr.(CompareExpr), snap)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonMissingLHS, res.Reason)
}

func TestEvalNearAbsRequiresTolerance(t *testing.T) {
	reg := testRegistry()
	_, err := Compile(RawCond{"op": "near_abs", "lhs": "indicator.ema_fast", "rhs": 1.0}, reg)
	require.Error(t, err)
}

func TestEvalNearAbsWithinTolerance(t *testing.T) {
	reg := testRegistry()
	snap := buildSnap(t, []float64{1, 2}, []float64{10.0, 10.02}, []float64{1, 10.0})
	expr, err := Compile(RawCond{"op": "near_abs", "lhs": "indicator.ema_fast", "rhs": "indicator.ema_slow", "tolerance": 0.05}, reg)
	require.NoError(t, err)
	res := evalCompare(expr.(CompareExpr), snap)
	assert.True(t, res.OK)
}

func TestEvalEqualityRejectsFloatLiteral(t *testing.T) {
	reg := testRegistry()
	_, err := Compile(RawCond{"op": "==", "lhs": "indicator.ema_fast", "rhs": 1.5}, reg)
	require.Error(t, err)
}

func TestEvalBetween(t *testing.T) {
	reg := testRegistry()
	snap := buildSnap(t, []float64{1}, []float64{5}, []float64{1})
	expr, err := Compile(RawCond{"op": "between", "lhs": "indicator.ema_fast", "low": 1.0, "high": 10.0}, reg)
	require.NoError(t, err)
	res := evalBetween(expr.(BetweenExpr), snap)
	assert.True(t, res.OK)
}

func TestEvalCrossAboveRequiresPrevHistory(t *testing.T) {
	reg := testRegistry()
	snap := buildSnap(t, []float64{1}, []float64{5}, []float64{1})
	expr, err := Compile(RawCond{"op": "cross_above", "lhs": "indicator.ema_fast", "rhs": "indicator.ema_slow"}, reg)
	require.NoError(t, err)
	res := evalCross(expr.(CrossExpr), snap)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonMissingPrevValue, res.Reason)
}

func TestEvalCrossAboveTriggersOnCross(t *testing.T) {
	reg := testRegistry()
	// fast was below slow, now above.
	snap := buildSnap(t, []float64{1, 2}, []float64{1, 5}, []float64{2, 3})
	expr, err := Compile(RawCond{"op": "cross_above", "lhs": "indicator.ema_fast", "rhs": "indicator.ema_slow"}, reg)
	require.NoError(t, err)
	res := evalCross(expr.(CrossExpr), snap)
	assert.True(t, res.OK)
}

func TestEvalUnknownOperatorRejectedAtCompile(t *testing.T) {
	reg := testRegistry()
	_, err := Compile(RawCond{"op": "not_a_real_op", "lhs": "indicator.ema_fast", "rhs": "indicator.ema_slow"}, reg)
	require.Error(t, err)
}

func TestEvalUnknownRefRejectedAtCompile(t *testing.T) {
	reg := testRegistry()
	_, err := Compile(RawCond{"op": ">", "lhs": "indicator.nonexistent", "rhs": 1}, reg)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}
