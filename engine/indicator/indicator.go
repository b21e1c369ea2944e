// Package indicator implements the Incremental Indicator Registry: a closed
// set of ~40 technical indicators, each updating in amortised O(1) per bar
// and required to match its vectorised batch counterpart within 1e-6
// absolute tolerance after warmup.
package indicator

import "math"

// Input is one closed bar's OHLCV components, the minimal surface every
// indicator's Update accepts. Indicators that only need a subset of these
// fields simply ignore the rest.
type Input struct {
	Open, High, Low, Close, Volume float64
	// TsOpen is the bar's open timestamp in epoch milliseconds, used by
	// session-anchored indicators (VWAP daily/weekly).
	TsOpen int64
	// Extra carries structure-detector anchor signals (swing/pair version
	// and direction) consumed by AnchoredVWAP; absent for all others.
	Extra map[string]float64
}

// Indicator is the uniform contract every registry member satisfies:
// update/reset/value/is_ready (spec.md §4.2), ported from the
// IncrementalIndicator ABC in original_source/.../incremental/base.py.
type Indicator interface {
	Update(in Input)
	Reset()
	Value() (float64, bool)
	IsReady() bool
}

// MultiOutput is implemented by indicators exposing named secondary
// outputs (MACD's signal/histogram, BBands' upper/lower/%b, ...).
type MultiOutput interface {
	Indicator
	Output(name string) (float64, bool)
	OutputNames() []string
}

func missing() (float64, bool) { return 0, false }

func isNaN(v float64) bool { return math.IsNaN(v) }

const nan = math.NaN()
