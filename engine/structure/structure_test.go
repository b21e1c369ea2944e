package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// highs/lows describing a clean zigzag: up to a high at idx 5, down to a
// low at idx 11, up again -- enough bars either side to confirm with
// Left=2, Right=2.
func zigzagBars() (highs, lows []float64) {
	highs = []float64{10, 11, 12, 13, 14, 15, 14, 13, 12, 11, 10, 9, 10, 11, 12, 13, 14, 16}
	lows = []float64{8, 9, 10, 11, 12, 13, 12, 11, 10, 9, 8, 7, 8, 9, 10, 11, 12, 14}
	return
}

func TestSwingConfirmsHighAndLow(t *testing.T) {
	highs, lows := zigzagBars()
	sw := NewSwing(2, 2)
	for i := range highs {
		sw.Update(highs[i], lows[i])
	}
	out := sw.Output()
	require.Greater(t, out.HighVersion, 0)
	require.Greater(t, out.LowVersion, 0)
	assert.Equal(t, 15.0, out.HighLevel)
	assert.Equal(t, 7.0, out.LowLevel)
}

func TestSwingPairVersionIncrementsOnAlternation(t *testing.T) {
	highs, lows := zigzagBars()
	sw := NewSwing(2, 2)
	for i := range highs {
		sw.Update(highs[i], lows[i])
	}
	out := sw.Output()
	assert.GreaterOrEqual(t, out.PairVersion, 1)
}

func TestSwingNoLookahead(t *testing.T) {
	// A pivot must not be confirmed until Right bars have actually closed
	// after it -- feeding only Left+1 bars (no right side yet) must never
	// confirm anything.
	sw := NewSwing(2, 2)
	highs := []float64{10, 11, 15}
	lows := []float64{8, 9, 13}
	for i := range highs {
		sw.Update(highs[i], lows[i])
	}
	out := sw.Output()
	assert.Equal(t, 0, out.HighVersion)
	assert.Equal(t, 0, out.LowVersion)
}

func TestTrendClassifiesUpOnHHHL(t *testing.T) {
	tr := NewTrend()
	tr.Update(SwingOutput{HighVersion: 1, HighLevel: 10, LowVersion: 1, LowLevel: 5})
	assert.Equal(t, TrendUnknown, tr.State())
	tr.Update(SwingOutput{HighVersion: 2, HighLevel: 12, LowVersion: 2, LowLevel: 7})
	assert.Equal(t, TrendUp, tr.State())
}

func TestTrendClassifiesDownOnLLLH(t *testing.T) {
	tr := NewTrend()
	tr.Update(SwingOutput{HighVersion: 1, HighLevel: 12, LowVersion: 1, LowLevel: 7})
	tr.Update(SwingOutput{HighVersion: 2, HighLevel: 10, LowVersion: 2, LowLevel: 5})
	assert.Equal(t, TrendDown, tr.State())
}

func TestZoneActivatesThenBreaks(t *testing.T) {
	z := NewZone(true, 2.0) // supply zone, 2-wide, above swing high
	z.Update(SwingOutput{HighVersion: 1, HighLevel: 100}, 98)
	assert.Equal(t, ZoneActive, z.State())
	upper, lower := z.Bounds()
	assert.Equal(t, 100.0, lower)
	assert.Equal(t, 102.0, upper)

	z.Update(SwingOutput{HighVersion: 1, HighLevel: 100}, 103)
	assert.Equal(t, ZoneBroken, z.State())
}

func TestZoneReanchorsOnNewSwingVersion(t *testing.T) {
	z := NewZone(false, 3.0) // demand zone below swing low
	z.Update(SwingOutput{LowVersion: 1, LowLevel: 50}, 52)
	assert.Equal(t, ZoneActive, z.State())
	z.Update(SwingOutput{LowVersion: 1, LowLevel: 50}, 46) // breaks below
	assert.Equal(t, ZoneBroken, z.State())
	z.Update(SwingOutput{LowVersion: 2, LowLevel: 60}, 58) // new swing re-anchors, back to active
	assert.Equal(t, ZoneActive, z.State())
}
