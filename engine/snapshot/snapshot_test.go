package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptorun/engine/bar"
)

func mkFeed(t *testing.T, tf bar.Timeframe, n int, keys []string) *bar.Feed {
	f := bar.NewFeed("BTC-USDT", tf, keys, nil)
	stepMs := int64(tf.Minutes()) * 60_000
	for i := 0; i < n; i++ {
		b := bar.Bar{
			Open: float64(i), High: float64(i) + 1, Low: float64(i) - 1, Close: float64(i),
			Volume: 100, TsOpen: int64(i) * stepMs, TsClose: int64(i+1) * stepMs,
		}
		vals := map[string]float64{}
		for _, k := range keys {
			vals[k] = float64(i) * 10
		}
		require.NoError(t, f.Append(b, vals, nil))
	}
	return f
}

// TestSnapshotGetMatchesDirectArrayRead is the plumbing audit from
// spec.md §4.4/§8 property 4: at sampled exec bars and offsets, Get must
// equal a direct feed array read at ctxIdx-offset.
func TestSnapshotGetMatchesDirectArrayRead(t *testing.T) {
	keys := []string{"ema_20"}
	exec := mkFeed(t, bar.TF1m, 200, keys)
	high := mkFeed(t, bar.TF1h, 5, keys)
	mf := bar.NewMultiFeed(exec, nil, high)

	offsets := []int{0, 1, 2, 5}
	for _, execIdx := range []int{10, 59, 60, 119, 120, 150, 199} {
		snap := New(mf, execIdx, nil)
		for _, off := range offsets {
			got, gotOK := snap.Get("ema_20", bar.RoleExec, off)
			want, wantOK := exec.Get("ema_20", execIdx-off)
			assert.Equal(t, wantOK, gotOK, "exec idx=%d off=%d", execIdx, off)
			if wantOK {
				assert.Equal(t, want, got, "exec idx=%d off=%d", execIdx, off)
			}

			execView, _ := exec.At(execIdx)
			highIdx, highOK := high.FindIdxAtOrBefore(execView.TsClose)
			gotH, gotHOK := snap.Get("ema_20", bar.RoleHigh, off)
			if !highOK {
				assert.False(t, gotHOK)
				continue
			}
			wantH, wantHOK := high.Get("ema_20", highIdx-off)
			assert.Equal(t, wantHOK, gotHOK, "high idx=%d off=%d", execIdx, off)
			if wantHOK {
				assert.Equal(t, wantH, gotH, "high idx=%d off=%d", execIdx, off)
			}
			_ = gotH
		}
	}
}

func TestSnapshotTsCloseMatchesExecBar(t *testing.T) {
	exec := mkFeed(t, bar.TF1m, 10, nil)
	mf := bar.NewMultiFeed(exec, nil, nil)
	snap := New(mf, 5, nil)
	view, _ := exec.At(5)
	assert.Equal(t, view.TsClose, snap.TsClose())
}

func TestGetDeclaredTypeDefaultsToFloat(t *testing.T) {
	exec := mkFeed(t, bar.TF1m, 3, nil)
	mf := bar.NewMultiFeed(exec, nil, nil)
	snap := New(mf, 1, FieldTypes{"supertrend.direction": TypeInt})
	assert.Equal(t, TypeInt, snap.GetDeclaredType("supertrend", "direction"))
	assert.Equal(t, TypeFloat, snap.GetDeclaredType("ema_20", ""))
}

func TestMissingRoleReturnsNotOK(t *testing.T) {
	exec := mkFeed(t, bar.TF1m, 3, nil)
	mf := bar.NewMultiFeed(exec, nil, nil)
	snap := New(mf, 1, nil)
	_, ok := snap.Get("close", bar.RoleHigh, 0)
	assert.False(t, ok)
}
