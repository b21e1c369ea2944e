package bar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBar(tsClose int64, close float64) Bar {
	return Bar{Open: close, High: close, Low: close, Close: close, Volume: 1, TsOpen: tsClose - 60000, TsClose: tsClose}
}

func TestFeedAppendMonotonic(t *testing.T) {
	f := NewFeed("BTC-USD", TF1m, []string{"ema_20"}, nil)
	require.NoError(t, f.Append(mkBar(1000, 10), map[string]float64{"ema_20": 10}, nil))
	require.NoError(t, f.Append(mkBar(2000, 11), map[string]float64{"ema_20": 10.5}, nil))

	err := f.Append(mkBar(2000, 12), map[string]float64{"ema_20": 11}, nil)
	require.Error(t, err)
	var nmErr *NonMonotonicTimestampError
	require.ErrorAs(t, err, &nmErr)
}

func TestFeedUnregisteredKey(t *testing.T) {
	f := NewFeed("BTC-USD", TF1m, []string{"ema_20"}, nil)
	err := f.Append(mkBar(1000, 10), map[string]float64{"rsi_14": 50}, nil)
	require.Error(t, err)
	var keyErr *UnregisteredKeyError
	require.ErrorAs(t, err, &keyErr)
}

func TestFeedGetMissingBeforeWarmup(t *testing.T) {
	f := NewFeed("BTC-USD", TF1m, []string{"ema_20"}, nil)
	require.NoError(t, f.Append(mkBar(1000, 10), nil, nil))

	_, ok := f.Get("ema_20", 0)
	assert.False(t, ok, "indicator value should be missing until explicitly supplied")

	v, ok := f.Get("close", 0)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestFindIdxAtOrBefore(t *testing.T) {
	f := NewFeed("BTC-USD", TF1h, nil, nil)
	require.NoError(t, f.Append(mkBar(3_600_000, 1), nil, nil))
	require.NoError(t, f.Append(mkBar(7_200_000, 2), nil, nil))
	require.NoError(t, f.Append(mkBar(10_800_000, 3), nil, nil))

	idx, ok := f.FindIdxAtOrBefore(9_000_000)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = f.FindIdxAtOrBefore(3_600_000)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = f.FindIdxAtOrBefore(1000)
	assert.False(t, ok)
}

func TestMultiFeedForwardFill(t *testing.T) {
	execFeed := NewFeed("BTC-USD", TF1m, nil, nil)
	highFeed := NewFeed("BTC-USD", TF1h, nil, nil)
	require.NoError(t, highFeed.Append(mkBar(3_600_000, 100), nil, nil))

	mf := NewMultiFeed(execFeed, nil, highFeed)
	idx, ok := mf.ForwardFillIndex(RoleHigh, 3_600_500)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = mf.ForwardFillIndex(RoleMed, 3_600_500)
	assert.False(t, ok, "no med_tf feed registered")
}
