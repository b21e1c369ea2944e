package indicator

// KVO is the Klinger Volume Oscillator: signed volume (sign from hlc3
// direction) fed through fast/slow EMAs, with an EMA signal line.
// Grounded on volume.py:IncrementalKVO.
type KVO struct {
	Fast, Slow, Signal int

	prevHLC3  float64
	haveFirst bool
	emaFast, emaSlow, emaSignal *EMA
	kvo, signal float64
	ready     bool
}

func NewKVO(fast, slow, signal int) *KVO {
	return &KVO{
		Fast: fast, Slow: slow, Signal: signal,
		emaFast: NewEMA(fast), emaSlow: NewEMA(slow), emaSignal: NewEMA(signal),
	}
}

func (k *KVO) Update(in Input) {
	hlc3 := (in.High + in.Low + in.Close) / 3.0
	if !k.haveFirst {
		k.prevHLC3 = hlc3
		k.haveFirst = true
		return
	}
	diff := hlc3 - k.prevHLC3
	sign := 0.0
	if diff > 0 {
		sign = 1.0
	} else if diff < 0 {
		sign = -1.0
	}
	k.prevHLC3 = hlc3

	signedVolume := in.Volume * sign
	k.emaFast.Update(Input{Close: signedVolume})
	k.emaSlow.Update(Input{Close: signedVolume})

	fv, fok := k.emaFast.Value()
	sv, sok := k.emaSlow.Value()
	if !fok || !sok {
		return
	}
	k.kvo = fv - sv
	k.emaSignal.Update(Input{Close: k.kvo})
	if sig, ok := k.emaSignal.Value(); ok {
		k.signal = sig
		k.ready = true
	}
}

func (k *KVO) Reset() { *k = *NewKVO(k.Fast, k.Slow, k.Signal) }

func (k *KVO) Value() (float64, bool) {
	if !k.ready {
		return missing()
	}
	return k.kvo, true
}

func (k *KVO) IsReady() bool { return k.ready }

func (k *KVO) Output(name string) (float64, bool) {
	if name == "signal" {
		if !k.ready {
			return missing()
		}
		return k.signal, true
	}
	return k.Value()
}

func (k *KVO) OutputNames() []string { return []string{"kvo", "signal"} }

// VWAPAnchor selects the session-reset boundary for VWAP.
type VWAPAnchor string

const (
	VWAPAnchorDaily  VWAPAnchor = "D"
	VWAPAnchorWeekly VWAPAnchor = "W"
	VWAPAnchorNone   VWAPAnchor = ""
)

// msPerDay is the millisecond count of one UTC day.
const msPerDay = 86_400_000

// VWAP is the session Volume Weighted Average Price: cumsum(typical_price
// * volume) / cumsum(volume), reset at the anchor boundary. The weekly
// boundary uses a Monday-based ISO week (see SPEC_FULL.md's Open Question
// decision #1). Grounded on volume.py:IncrementalVWAP.
type VWAP struct {
	Anchor VWAPAnchor

	cumTPVol, cumVol float64
	count            int
	lastBoundary     int64
	haveBoundary     bool
}

func NewVWAP(anchor VWAPAnchor) *VWAP {
	return &VWAP{Anchor: anchor}
}

func vwapBoundary(anchor VWAPAnchor, tsOpenMs int64) int64 {
	switch anchor {
	case VWAPAnchorDaily:
		return tsOpenMs / msPerDay
	case VWAPAnchorWeekly:
		return (tsOpenMs + 3*msPerDay) / (msPerDay * 7)
	}
	return 0
}

func (v *VWAP) Update(in Input) {
	if v.Anchor != VWAPAnchorNone {
		boundary := vwapBoundary(v.Anchor, in.TsOpen)
		if v.haveBoundary && boundary != v.lastBoundary {
			v.cumTPVol, v.cumVol = 0, 0
		}
		v.lastBoundary = boundary
		v.haveBoundary = true
	}

	v.count++
	if isNaN(in.High) || isNaN(in.Low) || isNaN(in.Close) || isNaN(in.Volume) {
		return
	}
	tp := (in.High + in.Low + in.Close) / 3.0
	v.cumTPVol += tp * in.Volume
	v.cumVol += in.Volume
}

func (v *VWAP) Reset() { *v = *NewVWAP(v.Anchor) }

func (v *VWAP) Value() (float64, bool) {
	if v.count < 1 || v.cumVol == 0 {
		return missing()
	}
	return v.cumTPVol / v.cumVol, true
}

func (v *VWAP) IsReady() bool { return v.count >= 1 }

// AnchorSource selects what structure event resets an AnchoredVWAP.
type AnchorSource string

const (
	AnchorSwingHigh AnchorSource = "swing_high"
	AnchorSwingLow  AnchorSource = "swing_low"
	AnchorSwingAny  AnchorSource = "swing_any"
	AnchorPairHigh  AnchorSource = "pair_high"
	AnchorPairLow   AnchorSource = "pair_low"
	AnchorPairAny   AnchorSource = "pair_any"
	AnchorManual    AnchorSource = "manual"
)

// AnchoredVWAP resets on structure pivot/pair events rather than time
// boundaries. Pair-based sources debounce multiple same-bar version
// bumps into a single reset against the last-seen version (see
// SPEC_FULL.md's Open Question decision #3). Grounded on
// volume.py:IncrementalAnchoredVWAP.
type AnchoredVWAP struct {
	Source AnchorSource

	cumTPVol, cumVol   float64
	count              int
	barsSinceAnchor    int
	lastSwingHighVer   float64
	lastSwingLowVer    float64
	lastPairVersion    float64
}

func NewAnchoredVWAP(source AnchorSource) *AnchoredVWAP {
	return &AnchoredVWAP{Source: source, lastSwingHighVer: -1, lastSwingLowVer: -1, lastPairVersion: -1}
}

func (a *AnchoredVWAP) Update(in Input) {
	shouldReset := false

	switch a.Source {
	case AnchorPairHigh, AnchorPairLow, AnchorPairAny:
		pairVer := extraOr(in.Extra, "swing_pair_version", -1)
		pairDir := ""
		if in.Extra != nil {
			if d, ok := in.Extra["swing_pair_direction_bullish"]; ok && d != 0 {
				pairDir = "bullish"
			} else if d, ok := in.Extra["swing_pair_direction_bearish"]; ok && d != 0 {
				pairDir = "bearish"
			}
		}
		if pairVer > a.lastPairVersion && a.lastPairVersion >= 0 {
			switch a.Source {
			case AnchorPairAny:
				shouldReset = true
			case AnchorPairHigh:
				shouldReset = pairDir == "bullish"
			case AnchorPairLow:
				shouldReset = pairDir == "bearish"
			}
		}
		if pairVer >= 0 {
			a.lastPairVersion = pairVer
		}
	case AnchorSwingHigh, AnchorSwingLow, AnchorSwingAny:
		swingHighVer := extraOr(in.Extra, "swing_high_version", -1)
		swingLowVer := extraOr(in.Extra, "swing_low_version", -1)
		if (a.Source == AnchorSwingHigh || a.Source == AnchorSwingAny) &&
			swingHighVer > a.lastSwingHighVer && a.lastSwingHighVer >= 0 {
			shouldReset = true
		}
		if (a.Source == AnchorSwingLow || a.Source == AnchorSwingAny) &&
			swingLowVer > a.lastSwingLowVer && a.lastSwingLowVer >= 0 {
			shouldReset = true
		}
		if swingHighVer >= 0 {
			a.lastSwingHighVer = swingHighVer
		}
		if swingLowVer >= 0 {
			a.lastSwingLowVer = swingLowVer
		}
	}

	if shouldReset {
		a.cumTPVol, a.cumVol = 0, 0
		a.barsSinceAnchor = 0
	}

	a.count++
	a.barsSinceAnchor++

	if isNaN(in.High) || isNaN(in.Low) || isNaN(in.Close) || isNaN(in.Volume) {
		return
	}
	tp := (in.High + in.Low + in.Close) / 3.0
	a.cumTPVol += tp * in.Volume
	a.cumVol += in.Volume
}

func extraOr(extra map[string]float64, key string, def float64) float64 {
	if extra == nil {
		return def
	}
	if v, ok := extra[key]; ok {
		return v
	}
	return def
}

func (a *AnchoredVWAP) Reset() { *a = *NewAnchoredVWAP(a.Source) }

func (a *AnchoredVWAP) Value() (float64, bool) {
	if a.count < 1 || a.cumVol == 0 {
		return missing()
	}
	return a.cumTPVol / a.cumVol, true
}

func (a *AnchoredVWAP) IsReady() bool { return a.count >= 1 }

// BarsSinceAnchor returns the number of bars since the last reset.
func (a *AnchoredVWAP) BarsSinceAnchor() int { return a.barsSinceAnchor }
