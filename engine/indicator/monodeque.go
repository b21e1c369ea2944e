package indicator

// monoMode selects whether a monoDeque tracks a running max or min.
type monoMode int

const (
	maxMode monoMode = iota
	minMode
)

type dqEntry struct {
	idx   int
	value float64
}

// monoDeque is a double-ended queue of (value, index) pairs kept monotonic
// so its front is always the O(1) extremum over the trailing window; the
// expired front is popped lazily on the next push. Reconstructed from its
// call sites in original_source/.../incremental/trivial.py and lookback.py
// (the MonotonicDeque helper itself lived in src.structures.primitives,
// which the retrieval pack's file-size cap excluded).
type monoDeque struct {
	mode monoMode
	buf  []dqEntry
}

func newMonoDeque(mode monoMode) *monoDeque {
	return &monoDeque{mode: mode}
}

// push adds (idx, value) to the deque, evicting entries worse than value
// from the back and entries older than window from the front.
func (d *monoDeque) push(idx int, value float64, window int) {
	worse := func(a, b float64) bool {
		if d.mode == maxMode {
			return a <= b
		}
		return a >= b
	}
	for len(d.buf) > 0 && worse(d.buf[len(d.buf)-1].value, value) {
		d.buf = d.buf[:len(d.buf)-1]
	}
	d.buf = append(d.buf, dqEntry{idx: idx, value: value})
	floor := idx - window + 1
	for len(d.buf) > 0 && d.buf[0].idx < floor {
		d.buf = d.buf[1:]
	}
}

// front returns the current extremum. Caller must not call before the
// first push.
func (d *monoDeque) front() float64 {
	if len(d.buf) == 0 {
		return nan
	}
	return d.buf[0].value
}

func (d *monoDeque) reset() { d.buf = nil }
