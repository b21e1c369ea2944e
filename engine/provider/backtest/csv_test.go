package backtest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "bars-*.csv")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestCSVSourceReadsBarsInOrder(t *testing.T) {
	path := writeTempCSV(t, "ts_open,ts_close,open,high,low,close,volume\n"+
		"0,60000,100,101,99,100.5,10\n"+
		"60000,120000,100.5,102,100,101.5,12\n")
	src, err := OpenCSVSource(path)
	require.NoError(t, err)
	defer src.Close()

	b1, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(60000), b1.TsClose)
	assert.InDelta(t, 100.5, b1.Close, 1e-9)

	b2, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(120000), b2.TsClose)

	_, err = src.Next()
	assert.True(t, IsEOF(err))
}

func TestCSVSourceRejectsNonMonotonicTimestamps(t *testing.T) {
	path := writeTempCSV(t, "ts_open,ts_close,open,high,low,close,volume\n"+
		"0,60000,100,101,99,100.5,10\n"+
		"60000,60000,100.5,102,100,101.5,12\n")
	src, err := OpenCSVSource(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next()
	require.NoError(t, err)
	_, err = src.Next()
	require.Error(t, err)
}
