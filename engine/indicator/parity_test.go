package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthetic deterministic OHLCV series, seeded so every test run is
// identical (spec.md's determinism contract extends to test fixtures).
func syntheticBars(n int) []Input {
	bars := make([]Input, n)
	price := 100.0
	for i := 0; i < n; i++ {
		drift := math.Sin(float64(i)*0.1) * 2.0
		price += drift
		high := price + 1.5
		low := price - 1.5
		vol := 1000.0 + float64(i%7)*50
		bars[i] = Input{Open: price - 0.3, High: high, Low: low, Close: price, Volume: vol, TsOpen: int64(i) * 60_000}
	}
	return bars
}

// batchSMA recomputes SMA from scratch at each index as a reference
// implementation independent of the incremental ring-buffer code path.
func batchSMA(closes []float64, length, i int) (float64, bool) {
	if i+1 < length {
		return 0, false
	}
	sum := 0.0
	for j := i - length + 1; j <= i; j++ {
		sum += closes[j]
	}
	return sum / float64(length), true
}

func closesOf(bars []Input) []float64 {
	c := make([]float64, len(bars))
	for i, b := range bars {
		c[i] = b.Close
	}
	return c
}

func TestSMAParityWithBatch(t *testing.T) {
	bars := syntheticBars(100)
	closes := closesOf(bars)
	sma := NewSMA(20)
	for i, b := range bars {
		sma.Update(b)
		want, wantOK := batchSMA(closes, 20, i)
		got, gotOK := sma.Value()
		require.Equal(t, wantOK, gotOK, "readiness mismatch at bar %d", i)
		if wantOK {
			assert.InDelta(t, want, got, 1e-6, "SMA mismatch at bar %d", i)
		}
	}
}

func TestWMAParityWithBatch(t *testing.T) {
	bars := syntheticBars(60)
	closes := closesOf(bars)
	length := 10
	wma := NewWMA(length)
	for i, b := range bars {
		wma.Update(b)
		got, gotOK := wma.Value()
		if i+1 < length {
			assert.False(t, gotOK)
			continue
		}
		require.True(t, gotOK)
		num, den := 0.0, 0.0
		weight := 1.0
		for j := i - length + 1; j <= i; j++ {
			num += closes[j] * weight
			den += weight
			weight++
		}
		assert.InDelta(t, num/den, got, 1e-6, "WMA mismatch at bar %d", i)
	}
}

func TestLinRegParityWithBatch(t *testing.T) {
	bars := syntheticBars(60)
	closes := closesOf(bars)
	length := 14
	lr := NewLinReg(length)
	for i, b := range bars {
		lr.Update(b)
		got, gotOK := lr.Value()
		if i+1 < length {
			assert.False(t, gotOK)
			continue
		}
		require.True(t, gotOK)

		window := closes[i-length+1 : i+1]
		n := float64(length)
		var sumX, sumY, sumXY, sumXX float64
		for k, v := range window {
			x := float64(k)
			sumX += x
			sumY += v
			sumXY += x * v
			sumXX += x * x
		}
		denom := n*sumXX - sumX*sumX
		slope := (n*sumXY - sumX*sumY) / denom
		intercept := (sumY - slope*sumX) / n
		want := intercept + slope*(n-1)
		assert.InDelta(t, want, got, 1e-6, "LinReg mismatch at bar %d", i)
	}
}

func TestBBandsParityWithBatch(t *testing.T) {
	bars := syntheticBars(60)
	closes := closesOf(bars)
	length := 20
	bb := NewBBands(length, 2.0)
	for i, b := range bars {
		bb.Update(b)
		mid, ok := bb.Value()
		if i+1 < length {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		window := closes[i-length+1 : i+1]
		n := float64(length)
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= n
		variance := 0.0
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}
		variance /= n - 1
		std := math.Sqrt(variance)
		assert.InDelta(t, mean, mid, 1e-6, "BBands middle mismatch at bar %d", i)
		upper, _ := bb.Output("upper")
		assert.InDelta(t, mean+2.0*std, upper, 1e-6, "BBands upper mismatch at bar %d", i)
	}
}

// TestRSIParityWithWilderRMA checks the incremental RSI against an
// independent re-implementation of Wilder's RMA (ewm(alpha=1/length,
// adjust=False), seeded from the first gain/loss change rather than a
// plain mean over the first `length` changes), matching
// original_source/src/indicators/incremental/core.py:IncrementalRSI.
func TestRSIParityWithWilderRMA(t *testing.T) {
	bars := syntheticBars(80)
	length := 14
	rsi := NewRSI(length)

	var prevClose, avgGain, avgLoss float64
	count := 0

	for i, b := range bars {
		rsi.Update(b)

		count++
		var want float64
		wantOK := false
		if count == 1 {
			prevClose = b.Close
		} else {
			change := b.Close - prevClose
			prevClose = b.Close
			gain, loss := 0.0, 0.0
			if change > 0 {
				gain = change
			} else if change < 0 {
				loss = -change
			}
			if count == 2 {
				avgGain, avgLoss = gain, loss
			} else {
				alpha := 1.0 / float64(length)
				avgGain = alpha*gain + (1-alpha)*avgGain
				avgLoss = alpha*loss + (1-alpha)*avgLoss
			}
			want = rsiFromAvgs(avgGain, avgLoss)
			wantOK = count > length
		}

		got, gotOK := rsi.Value()
		require.Equal(t, wantOK, gotOK, "readiness mismatch at bar %d", i)
		if wantOK {
			assert.InDelta(t, want, got, 1e-9, "RSI mismatch at bar %d", i)
		}
	}
}

// TestFactoryCoversAllNames ensures every name in the closed registry
// produces a non-nil indicator with default params (spec.md §9's "closed
// indicator polymorphism" -- no silently-unregistered kind).
func TestFactoryCoversAllNames(t *testing.T) {
	for _, name := range Names() {
		ind, err := New(name, Params{})
		require.NoError(t, err, "kind %q", name)
		require.NotNil(t, ind, "kind %q", name)
	}
}

func TestFactoryUnknownKind(t *testing.T) {
	_, err := New("not_a_real_indicator", Params{})
	require.Error(t, err)
	var unkErr *UnknownIndicatorError
	require.ErrorAs(t, err, &unkErr)
}

// TestWarmupMonotonic checks every factory-default indicator transitions
// from not-ready to ready exactly once and never flips back (spec.md §8
// testable property: warmup monotonicity).
func TestWarmupMonotonic(t *testing.T) {
	bars := syntheticBars(200)
	for _, name := range Names() {
		ind, err := New(name, Params{})
		require.NoError(t, err, "kind %q", name)
		sawReady := false
		for i, b := range bars {
			ind.Update(b)
			_, ok := ind.Value()
			if sawReady {
				assert.True(t, ok, "%s: un-readied after warmup at bar %d", name, i)
			}
			if ok {
				sawReady = true
			}
		}
	}
}

// TestResetClearsState checks Reset() returns an indicator to its
// pre-warmup state.
func TestResetClearsState(t *testing.T) {
	bars := syntheticBars(100)
	for _, name := range Names() {
		ind, err := New(name, Params{})
		require.NoError(t, err, "kind %q", name)
		for _, b := range bars {
			ind.Update(b)
		}
		require.True(t, ind.IsReady(), "%s should be ready before reset", name)
		ind.Reset()
		assert.False(t, ind.IsReady(), "%s should not be ready after reset", name)
	}
}
