// Package bar implements the Feed Store: ordered, append-only OHLCV and
// derived-output arrays for a single (symbol, timeframe) pair, plus a
// MultiFeed that coordinates forward-fill lookups across timeframe roles.
package bar

import (
	"fmt"
	"math"
)

// Timeframe is one of the canonical bar intervals.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF3m  Timeframe = "3m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF2h  Timeframe = "2h"
	TF4h  Timeframe = "4h"
	TF6h  Timeframe = "6h"
	TF12h Timeframe = "12h"
	TF1d  Timeframe = "D"
)

// Minutes returns the timeframe's duration in minutes, used to scale
// anchor_tf offsets in window operators.
func (t Timeframe) Minutes() int {
	switch t {
	case TF1m:
		return 1
	case TF3m:
		return 3
	case TF5m:
		return 5
	case TF15m:
		return 15
	case TF30m:
		return 30
	case TF1h:
		return 60
	case TF2h:
		return 120
	case TF4h:
		return 240
	case TF6h:
		return 360
	case TF12h:
		return 720
	case TF1d:
		return 1440
	default:
		return 0
	}
}

// Bar is an immutable OHLCV quintuple with open/close timestamps in
// millisecond UTC. ts_open is inclusive, ts_close is exclusive.
type Bar struct {
	Open, High, Low, Close, Volume float64
	TsOpen, TsClose                int64
}

// Missing is the sentinel used internally inside feed arrays. Once a value
// crosses into the rule evaluator it is represented as a distinguished
// Missing RefValue, never as NaN (spec.md §9 design note).
var Missing = math.NaN()

// IsMissing reports whether v is the feed-array missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// NonMonotonicTimestampError is returned by Feed.Append when the new bar's
// ts_close does not strictly exceed the last appended bar's ts_close.
type NonMonotonicTimestampError struct {
	Last, New int64
}

func (e *NonMonotonicTimestampError) Error() string {
	return fmt.Sprintf("non-monotonic timestamp: last ts_close=%d, new ts_close=%d", e.Last, e.New)
}

// UnregisteredKeyError is returned when append is given a value for an
// indicator or structure key that was not registered at construction.
type UnregisteredKeyError struct {
	Key string
}

func (e *UnregisteredKeyError) Error() string {
	return fmt.Sprintf("unregistered feed key: %q", e.Key)
}

// BarView is a read-only view of one bar's OHLCV at a feed index.
type BarView struct {
	Bar
	Index int
}

// Feed holds parallel OHLCV arrays plus keyed indicator/structure output
// arrays for one (symbol, timeframe) pair, and a ts_close index for O(1)
// amortised lookups. It is owned exclusively by the engine that writes to
// it; everything else only reads it (spec.md §5 shared-resource policy).
type Feed struct {
	Symbol    string
	TF        Timeframe
	open      []float64
	high      []float64
	low       []float64
	close     []float64
	volume    []float64
	tsOpen    []int64
	tsClose   []int64
	indicator map[string][]float64
	structure map[string][]float64
	tsIndex   map[int64]int
}

// NewFeed constructs an empty feed with the given indicator/structure
// output keys pre-registered. Writing a key not in either set is an error.
func NewFeed(symbol string, tf Timeframe, indicatorKeys, structureKeys []string) *Feed {
	f := &Feed{
		Symbol:    symbol,
		TF:        tf,
		indicator: make(map[string][]float64, len(indicatorKeys)),
		structure: make(map[string][]float64, len(structureKeys)),
		tsIndex:   make(map[int64]int),
	}
	for _, k := range indicatorKeys {
		f.indicator[k] = nil
	}
	for _, k := range structureKeys {
		f.structure[k] = nil
	}
	return f
}

// Length returns the number of bars currently stored.
func (f *Feed) Length() int { return len(f.close) }

// Append adds one closed bar and its computed indicator/structure values.
// ts_close must strictly exceed the previous bar's ts_close.
func (f *Feed) Append(b Bar, indicatorValues, structureValues map[string]float64) error {
	if n := len(f.tsClose); n > 0 && b.TsClose <= f.tsClose[n-1] {
		return &NonMonotonicTimestampError{Last: f.tsClose[n-1], New: b.TsClose}
	}
	for k, v := range indicatorValues {
		arr, ok := f.indicator[k]
		if !ok {
			return &UnregisteredKeyError{Key: k}
		}
		f.indicator[k] = append(arr, v)
	}
	for k, v := range structureValues {
		arr, ok := f.structure[k]
		if !ok {
			return &UnregisteredKeyError{Key: k}
		}
		f.structure[k] = append(arr, v)
	}
	// Backfill missing keys this bar didn't supply, to keep arrays aligned.
	idx := len(f.close)
	for k, arr := range f.indicator {
		if len(arr) == idx {
			f.indicator[k] = append(arr, Missing)
		}
	}
	for k, arr := range f.structure {
		if len(arr) == idx {
			f.structure[k] = append(arr, Missing)
		}
	}

	f.open = append(f.open, b.Open)
	f.high = append(f.high, b.High)
	f.low = append(f.low, b.Low)
	f.close = append(f.close, b.Close)
	f.volume = append(f.volume, b.Volume)
	f.tsOpen = append(f.tsOpen, b.TsOpen)
	f.tsClose = append(f.tsClose, b.TsClose)
	f.tsIndex[b.TsClose] = idx
	return nil
}

// At returns a read-only view of the bar at idx.
func (f *Feed) At(idx int) (BarView, bool) {
	if idx < 0 || idx >= len(f.close) {
		return BarView{}, false
	}
	return BarView{
		Bar: Bar{
			Open: f.open[idx], High: f.high[idx], Low: f.low[idx],
			Close: f.close[idx], Volume: f.volume[idx],
			TsOpen: f.tsOpen[idx], TsClose: f.tsClose[idx],
		},
		Index: idx,
	}, true
}

// Get returns the value for a registered key at idx, or (0, false) if
// missing or out of range. "open"/"high"/"low"/"close"/"volume" resolve
// against the OHLCV arrays directly; all other keys resolve against the
// registered indicator/structure arrays.
func (f *Feed) Get(key string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(f.close) {
		return 0, false
	}
	var v float64
	switch key {
	case "open":
		v = f.open[idx]
	case "high":
		v = f.high[idx]
	case "low":
		v = f.low[idx]
	case "close":
		v = f.close[idx]
	case "volume":
		v = f.volume[idx]
	default:
		if arr, ok := f.indicator[key]; ok {
			if idx >= len(arr) {
				return 0, false
			}
			v = arr[idx]
		} else if arr, ok := f.structure[key]; ok {
			if idx >= len(arr) {
				return 0, false
			}
			v = arr[idx]
		} else {
			return 0, false
		}
	}
	if IsMissing(v) {
		return 0, false
	}
	return v, true
}

// FindIdxAtOrBefore returns the largest index whose ts_close is <= tsCloseMs,
// or (-1, false) if no such bar exists. Exact matches hit the ts index
// directly in O(1); any other timestamp falls back to an O(log n) binary
// search over the ts_close array.
func (f *Feed) FindIdxAtOrBefore(tsCloseMs int64) (int, bool) {
	if idx, ok := f.tsIndex[tsCloseMs]; ok {
		return idx, true
	}
	// Binary search since arrays are strictly ascending in ts_close.
	lo, hi := 0, len(f.tsClose)-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if f.tsClose[mid] <= tsCloseMs {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}

// Role identifies a feed's position in a MultiFeed.
type Role string

const (
	RoleExec  Role = "exec"
	RoleMed   Role = "med_tf"
	RoleHigh  Role = "high_tf"
)

// MultiFeed coordinates an exec feed with optional med_tf/high_tf companion
// feeds, resolving forward-fill indices on demand.
type MultiFeed struct {
	Feeds map[Role]*Feed
}

// NewMultiFeed constructs a MultiFeed from an exec feed and optional
// companions. med and high may be nil.
func NewMultiFeed(exec, med, high *Feed) *MultiFeed {
	m := &MultiFeed{Feeds: map[Role]*Feed{RoleExec: exec}}
	if med != nil {
		m.Feeds[RoleMed] = med
	}
	if high != nil {
		m.Feeds[RoleHigh] = high
	}
	return m
}

// ForwardFillIndex returns the companion feed's forward-filled index for
// the given role at the exec feed's current ts_close: the largest index i
// in the companion feed such that companion.ts_close[i] <= execTsClose.
func (m *MultiFeed) ForwardFillIndex(role Role, execTsClose int64) (int, bool) {
	f, ok := m.Feeds[role]
	if !ok || f == nil {
		return -1, false
	}
	return f.FindIdxAtOrBefore(execTsClose)
}
