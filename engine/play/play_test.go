package play

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalRawPlay() *rawPlayFile {
	return &rawPlayFile{
		ID:      "test-play",
		Version: "1.0.0",
		SymbolUniverse: []string{"BTC-USDT"},
		Timeframes:     Timeframes{Exec: "1m", HighTF: "1h"},
		Features: []FeatureSpec{
			{ID: "rsi14", TF: "exec", IndicatorType: "rsi", Params: map[string]float64{"length": 14}},
			{ID: "macd_std", TF: "exec", IndicatorType: "macd"},
		},
		Structures: []StructureSpec{
			{ID: "swing1", TF: "exec", Type: "swing", Confirmation: map[string]float64{"left": 2, "right": 2}},
		},
		Actions: map[string]interface{}{
			"entry_long": RawCond{"op": ">", "lhs": "indicator.rsi14", "rhs": 70.0},
			"exit_long":  RawCond{"op": "<", "lhs": "indicator.rsi14", "rhs": 50.0},
		},
		RiskModel: RiskModel{
			StopLoss:   RiskLeg{Type: "percent", Value: 0.02},
			TakeProfit: RiskLeg{Type: "rr_ratio", Value: 2.0},
			Sizing:     SizingSpec{Model: "percent_equity", Value: 0.1},
		},
		Account: Account{StartingEquityUSDT: 10000, MaxLeverage: 3},
	}
}

func TestCompilePlayBuildsRegistryFromActualIndicatorOutputs(t *testing.T) {
	p, err := CompilePlay(minimalRawPlay())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"macd", "signal", "histogram"}, p.Registry.Features["macd_std"].OutputNames)
	assert.Nil(t, p.Registry.Features["rsi14"].OutputNames)
}

func TestCompilePlayActionOrderIsDeterministic(t *testing.T) {
	p, err := CompilePlay(minimalRawPlay())
	require.NoError(t, err)
	assert.Equal(t, []string{"entry_long", "exit_long"}, p.ActionOrder)
}

func TestCompilePlayRejectsUnknownFeatureRef(t *testing.T) {
	raw := minimalRawPlay()
	raw.Actions["entry_long"] = RawCond{"op": ">", "lhs": "indicator.nope", "rhs": 1.0}
	_, err := CompilePlay(raw)
	require.Error(t, err)
}

func TestCompilePlayRejectsUnknownIndicatorKind(t *testing.T) {
	raw := minimalRawPlay()
	raw.Features = append(raw.Features, FeatureSpec{ID: "bad", TF: "exec", IndicatorType: "not_a_kind"})
	_, err := CompilePlay(raw)
	require.Error(t, err)
}
