package indicator

import "math"

// OHLC4 is the average of open/high/low/close. Ready from the first bar.
type OHLC4 struct {
	value float64
	ready bool
}

func NewOHLC4() *OHLC4 { return &OHLC4{} }

func (o *OHLC4) Update(in Input) {
	o.value = (in.Open + in.High + in.Low + in.Close) / 4.0
	o.ready = true
}

func (o *OHLC4) Reset() { *o = OHLC4{} }

func (o *OHLC4) Value() (float64, bool) {
	if !o.ready {
		return missing()
	}
	return o.value, true
}

func (o *OHLC4) IsReady() bool { return o.ready }

// Midprice is (highestHigh + lowestLow) / 2 over Length bars, via
// monotonic-deque max/min. Grounded on trivial.py:IncrementalMidprice.
type Midprice struct {
	Length int

	highDQ *monoDeque
	lowDQ  *monoDeque
	idx    int
	value  float64
	ready  bool
}

func NewMidprice(length int) *Midprice {
	return &Midprice{Length: length, highDQ: newMonoDeque(maxMode), lowDQ: newMonoDeque(minMode)}
}

func (m *Midprice) Update(in Input) {
	m.highDQ.push(m.idx, in.High, m.Length)
	m.lowDQ.push(m.idx, in.Low, m.Length)
	m.idx++
	if m.idx < m.Length {
		return
	}
	m.value = (m.highDQ.front() + m.lowDQ.front()) / 2.0
	m.ready = true
}

func (m *Midprice) Reset() { *m = *NewMidprice(m.Length) }

func (m *Midprice) Value() (float64, bool) {
	if !m.ready {
		return missing()
	}
	return m.value, true
}

func (m *Midprice) IsReady() bool { return m.ready }

// ROC is the rate of change over Length bars: (close - close[-length]) /
// close[-length] * 100.
type ROC struct {
	Length int

	buf   []float64
	head  int
	count int
	value float64
	ready bool
}

func NewROC(length int) *ROC { return &ROC{Length: length, buf: make([]float64, length+1)} }

func (r *ROC) Update(in Input) {
	n := r.Length + 1
	if r.count < n {
		r.buf[r.count] = in.Close
		r.count++
	} else {
		copy(r.buf, r.buf[1:])
		r.buf[n-1] = in.Close
	}
	if r.count < n {
		return
	}
	oldest := r.buf[0]
	if oldest == 0 {
		r.value = 0
	} else {
		r.value = (in.Close - oldest) / oldest * 100.0
	}
	r.ready = true
}

func (r *ROC) Reset() { *r = *NewROC(r.Length) }

func (r *ROC) Value() (float64, bool) {
	if !r.ready {
		return missing()
	}
	return r.value, true
}

func (r *ROC) IsReady() bool { return r.ready }

// MOM is momentum: close - close[-length].
type MOM struct {
	Length int

	buf   []float64
	count int
	value float64
	ready bool
}

func NewMOM(length int) *MOM { return &MOM{Length: length, buf: make([]float64, length+1)} }

func (m *MOM) Update(in Input) {
	n := m.Length + 1
	if m.count < n {
		m.buf[m.count] = in.Close
		m.count++
	} else {
		copy(m.buf, m.buf[1:])
		m.buf[n-1] = in.Close
	}
	if m.count < n {
		return
	}
	m.value = in.Close - m.buf[0]
	m.ready = true
}

func (m *MOM) Reset() { *m = *NewMOM(m.Length) }

func (m *MOM) Value() (float64, bool) {
	if !m.ready {
		return missing()
	}
	return m.value, true
}

func (m *MOM) IsReady() bool { return m.ready }

// OBV is On-Balance Volume: a signed running sum of volume, sign from the
// close-to-close direction. Accumulation starts at the second bar.
// Grounded on trivial.py:IncrementalOBV.
type OBV struct {
	prevClose float64
	count     int
	value     float64
}

func NewOBV() *OBV { return &OBV{} }

func (o *OBV) Update(in Input) {
	o.count++
	if o.count == 1 {
		o.prevClose = in.Close
		return
	}
	if in.Close > o.prevClose {
		o.value += in.Volume
	} else if in.Close < o.prevClose {
		o.value -= in.Volume
	}
	o.prevClose = in.Close
}

func (o *OBV) Reset() { *o = OBV{} }

func (o *OBV) Value() (float64, bool) {
	if o.count < 2 {
		return missing()
	}
	return o.value, true
}

func (o *OBV) IsReady() bool { return o.count >= 2 }

// NATR is Normalised ATR: ATR / close * 100, using an EMA-smoothed true
// range (pandas_ta's default mamode="ema") rather than Wilder's RMA --
// this is an important divergence from the standalone ATR indicator.
// Grounded on trivial.py:IncrementalNATR.
type NATR struct {
	Length int

	ema       *EMA
	prevClose float64
	haveFirst bool
	value     float64
}

func NewNATR(length int) *NATR { return &NATR{Length: length, ema: NewEMA(length)} }

func (n *NATR) Update(in Input) {
	var tr float64
	if !n.haveFirst {
		tr = in.High - in.Low
		n.haveFirst = true
	} else {
		hl := in.High - in.Low
		hc := math.Abs(in.High - n.prevClose)
		lc := math.Abs(in.Low - n.prevClose)
		tr = math.Max(hl, math.Max(hc, lc))
	}
	n.prevClose = in.Close
	n.ema.Update(Input{Close: tr})
	if atrEMA, ok := n.ema.Value(); ok && in.Close != 0 {
		n.value = atrEMA / in.Close * 100.0
	}
}

func (n *NATR) Reset() { *n = *NewNATR(n.Length) }

func (n *NATR) Value() (float64, bool) {
	if !n.ema.IsReady() {
		return missing()
	}
	return n.value, true
}

func (n *NATR) IsReady() bool { return n.ema.IsReady() }
