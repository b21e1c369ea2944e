// Package backtest implements the backtest-mode data provider: a
// next_closed_bar(symbol, tf) iterator over historical OHLCV candles
// (spec.md §6), reading from CSV the way the teacher's report/export
// pipelines read and write CSV (encoding/csv, stdlib — no ecosystem CSV
// library appears anywhere in the example pack, so this one concern
// stays on the standard library; see DESIGN.md).
package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cryptorun/engine/bar"
)

// CSVSource iterates historical bars from a CSV file with columns
// ts_open,ts_close,open,high,low,close,volume (header row required).
type CSVSource struct {
	f      *os.File
	r      *csv.Reader
	lastTs int64
	seen   bool
}

func OpenCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bar source %s: %w", path, err)
	}
	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return &CSVSource{f: f, r: r}, nil
}

// Next returns the next closed bar, or io.EOF when the file is
// exhausted. It rejects a non-monotonic ts_close sequence, since the
// engine assumes the provider already enforces spec.md §6's
// "timestamp-monotone order" invariant.
func (s *CSVSource) Next() (bar.Bar, error) {
	rec, err := s.r.Read()
	if err != nil {
		return bar.Bar{}, err
	}
	if len(rec) < 7 {
		return bar.Bar{}, fmt.Errorf("bar source: expected 7 columns, got %d", len(rec))
	}
	tsOpen, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return bar.Bar{}, fmt.Errorf("parse ts_open: %w", err)
	}
	tsClose, err := strconv.ParseInt(rec[1], 10, 64)
	if err != nil {
		return bar.Bar{}, fmt.Errorf("parse ts_close: %w", err)
	}
	if s.seen && tsClose <= s.lastTs {
		return bar.Bar{}, &bar.NonMonotonicTimestampError{Last: s.lastTs, New: tsClose}
	}
	s.seen, s.lastTs = true, tsClose

	vals := make([]float64, 4)
	for i, col := range rec[2:6] {
		v, err := strconv.ParseFloat(col, 64)
		if err != nil {
			return bar.Bar{}, fmt.Errorf("parse OHLC column %d: %w", i, err)
		}
		vals[i] = v
	}
	volume, err := strconv.ParseFloat(rec[6], 64)
	if err != nil {
		return bar.Bar{}, fmt.Errorf("parse volume: %w", err)
	}

	return bar.Bar{
		Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: volume,
		TsOpen: tsOpen, TsClose: tsClose,
	}, nil
}

// Close releases the underlying file handle.
func (s *CSVSource) Close() error { return s.f.Close() }

// IsEOF reports whether err is the sentinel returned by Next when the
// source is exhausted.
func IsEOF(err error) bool { return err == io.EOF }
