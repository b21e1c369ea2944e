package indicator

import "fmt"

// Params is the parameter map a Feature Spec supplies to the factory,
// keyed by the indicator's own parameter names (e.g. "length", "fast",
// "slow"). Integer-valued parameters are read via IntOr/FloatOr with
// sensible defaults so a Play that omits an optional parameter still
// compiles.
type Params map[string]float64

func (p Params) IntOr(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

func (p Params) FloatOr(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p Params) StringOr(key string, def string) string {
	// Params is numeric-only, so this always returns def. Choices such as
	// the VWAP anchor are passed as numeric flags instead; see New's
	// anchor_weekly/anchor_none handling below.
	return def
}

// UnknownIndicatorError is returned by New for a kind outside the closed
// registry (spec.md §9 "closed indicator polymorphism").
type UnknownIndicatorError struct {
	Kind string
}

func (e *UnknownIndicatorError) Error() string {
	return fmt.Sprintf("unknown indicator kind: %q", e.Kind)
}

// New is the tagged-sum factory mapping (kind, params) to a concrete
// Indicator. Grounded on
// original_source/src/indicators/incremental/factory.py's master
// indicator-name registry.
func New(kind string, params Params) (Indicator, error) {
	switch kind {
	case "sma":
		return NewSMA(params.IntOr("length", 20)), nil
	case "ema":
		return NewEMA(params.IntOr("length", 20)), nil
	case "dema":
		return NewDEMA(params.IntOr("length", 20)), nil
	case "tema":
		return NewTEMA(params.IntOr("length", 20)), nil
	case "wma":
		return NewWMA(params.IntOr("length", 20)), nil
	case "trima":
		return NewTRIMA(params.IntOr("length", 20)), nil
	case "kama":
		return NewKAMA(params.IntOr("length", 10), params.IntOr("fast", 2), params.IntOr("slow", 30)), nil
	case "alma":
		return NewALMA(params.IntOr("length", 10), params.FloatOr("sigma", 6.0), params.FloatOr("offset", 0.85)), nil
	case "zlma":
		return NewZLMA(params.IntOr("length", 20)), nil
	case "rsi":
		return NewRSI(params.IntOr("length", 14)), nil
	case "atr":
		return &ATR{Length: params.IntOr("length", 14)}, nil
	case "natr":
		return NewNATR(params.IntOr("length", 14)), nil
	case "macd":
		return NewMACD(params.IntOr("fast", 12), params.IntOr("slow", 26), params.IntOr("signal", 9)), nil
	case "ppo":
		return NewPPO(params.IntOr("fast", 12), params.IntOr("slow", 26), params.IntOr("signal", 9)), nil
	case "trix":
		return NewTRIX(params.IntOr("length", 15), params.IntOr("signal_length", 9)), nil
	case "tsi":
		return NewTSI(params.IntOr("long", 25), params.IntOr("short", 13)), nil
	case "bbands":
		return NewBBands(params.IntOr("length", 20), params.FloatOr("std_dev", 2.0)), nil
	case "linreg":
		return NewLinReg(params.IntOr("length", 14)), nil
	case "williams_r":
		return NewWilliamsR(params.IntOr("length", 14)), nil
	case "cci":
		c := NewCCI(params.IntOr("length", 20))
		c.Const = params.FloatOr("const", 0.015)
		return c, nil
	case "stoch":
		return NewStochastic(params.IntOr("k_length", 14), params.IntOr("k_smooth", 3), params.IntOr("d_smooth", 3)), nil
	case "stochrsi":
		return NewStochRSI(params.IntOr("rsi_length", 14), params.IntOr("stoch_length", 14), params.IntOr("k_smooth", 3), params.IntOr("d_smooth", 3)), nil
	case "adx":
		return NewADX(params.IntOr("length", 14)), nil
	case "supertrend":
		return NewSuperTrend(params.IntOr("length", 10), params.FloatOr("multiplier", 3.0)), nil
	case "obv":
		return NewOBV(), nil
	case "cmf":
		return NewCMF(params.IntOr("length", 20)), nil
	case "cmo":
		return NewCMO(params.IntOr("length", 14)), nil
	case "mfi":
		return NewMFI(params.IntOr("length", 14)), nil
	case "aroon":
		return NewAroon(params.IntOr("length", 14)), nil
	case "donchian":
		upper := params.IntOr("upper_length", params.IntOr("length", 20))
		lower := params.IntOr("lower_length", params.IntOr("length", 20))
		return NewDonchian(upper, lower), nil
	case "kc":
		return NewKC(params.IntOr("length", 20), params.FloatOr("multiplier", 2.0)), nil
	case "dm":
		return NewDM(params.IntOr("length", 14)), nil
	case "vortex":
		return NewVortex(params.IntOr("length", 14)), nil
	case "psar":
		return NewPSAR(params.FloatOr("af_step", 0.02), params.FloatOr("af_max", 0.2)), nil
	case "squeeze":
		return NewSqueeze(
			params.IntOr("bb_length", 20), params.FloatOr("bb_std_dev", 2.0),
			params.IntOr("kc_length", 20), params.FloatOr("kc_multiplier", 1.5),
			params.IntOr("mom_length", 12),
		), nil
	case "fisher":
		return NewFisher(params.IntOr("length", 9), params.IntOr("signal_length", 1)), nil
	case "uo":
		return NewUO(params.IntOr("fast", 7), params.IntOr("medium", 14), params.IntOr("slow", 28)), nil
	case "kvo":
		return NewKVO(params.IntOr("fast", 34), params.IntOr("slow", 55), params.IntOr("signal", 13)), nil
	case "vwap":
		anchor := VWAPAnchor("D")
		switch params.IntOr("anchor_weekly", 0) {
		case 1:
			anchor = VWAPAnchorWeekly
		}
		if params.IntOr("anchor_none", 0) == 1 {
			anchor = VWAPAnchorNone
		}
		return NewVWAP(anchor), nil
	case "anchored_vwap":
		return NewAnchoredVWAP(AnchorSwingAny), nil
	case "ohlc4":
		return NewOHLC4(), nil
	case "midprice":
		return NewMidprice(params.IntOr("length", 14)), nil
	case "roc":
		return NewROC(params.IntOr("length", 10)), nil
	case "mom":
		return NewMOM(params.IntOr("length", 10)), nil
	}
	return nil, &UnknownIndicatorError{Kind: kind}
}

// Names lists the closed registry's indicator kind strings, e.g. for Play
// validation error messages ("Allowed: ...").
func Names() []string {
	return []string{
		"sma", "ema", "dema", "tema", "wma", "trima", "kama", "alma", "zlma",
		"rsi", "atr", "natr", "macd", "ppo", "trix", "tsi", "bbands", "linreg",
		"williams_r", "cci", "stoch", "stochrsi", "adx", "supertrend",
		"obv", "cmf", "cmo", "mfi", "aroon", "donchian", "kc", "dm", "vortex",
		"psar", "squeeze", "fisher", "uo", "kvo", "vwap", "anchored_vwap",
		"ohlc4", "midprice", "roc", "mom",
	}
}
