package indicator

import "math"

// WMA is the linearly-weighted moving average, with true O(1) updates via
// a running weighted-sum and running plain-sum (the "drop oldest, shift
// weights" trick): wsum_new = wsum_old - sum_old + length*newest.
// Grounded on buffer_based.py:IncrementalWMA.
type WMA struct {
	Length int

	buf      []float64
	head     int
	count    int
	sum      float64
	wsum     float64
	value    float64
	ready    bool
}

func NewWMA(length int) *WMA { return &WMA{Length: length, buf: make([]float64, length)} }

func (w *WMA) Update(in Input) {
	n := float64(w.Length)
	if w.count < w.Length {
		w.buf[w.count] = in.Close
		w.count++
		w.sum += in.Close
		w.wsum += in.Close * float64(w.count)
		if w.count == w.Length {
			w.value = w.wsum / (n * (n + 1) / 2)
			w.ready = true
		}
		return
	}
	old := w.buf[w.head]
	w.buf[w.head] = in.Close
	w.head = (w.head + 1) % w.Length
	w.wsum = w.wsum - w.sum + n*in.Close
	w.sum = w.sum - old + in.Close
	w.value = w.wsum / (n * (n + 1) / 2)
}

func (w *WMA) Reset() { *w = *NewWMA(w.Length) }

func (w *WMA) Value() (float64, bool) {
	if !w.ready {
		return missing()
	}
	return w.value, true
}

func (w *WMA) IsReady() bool { return w.ready }

// TRIMA is the Triangular Moving Average: an SMA of an SMA, with
// half_length = round(0.5 * (length + 1)). Grounded on
// buffer_based.py:IncrementalTRIMA.
type TRIMA struct {
	Length int

	sma1, sma2 *SMA
	value      float64
	ready      bool
}

func NewTRIMA(length int) *TRIMA {
	half := int(math.Round(0.5 * float64(length+1)))
	return &TRIMA{Length: length, sma1: NewSMA(half), sma2: NewSMA(half)}
}

func (t *TRIMA) Update(in Input) {
	t.sma1.Update(in)
	v1, ok := t.sma1.Value()
	if !ok {
		return
	}
	t.sma2.Update(Input{Close: v1})
	if v2, ok := t.sma2.Value(); ok {
		t.value = v2
		t.ready = true
	}
}

func (t *TRIMA) Reset() {
	half := int(math.Round(0.5 * float64(t.Length+1)))
	*t = TRIMA{Length: t.Length, sma1: NewSMA(half), sma2: NewSMA(half)}
}

func (t *TRIMA) Value() (float64, bool) {
	if !t.ready {
		return missing()
	}
	return t.value, true
}

func (t *TRIMA) IsReady() bool { return t.ready }

// LinReg is the linear regression endpoint forecast over Length bars,
// true O(1) via precomputed sum_x/sum_xx/denominator and an incrementally
// maintained running sum_y/sum_xy: sliding the window by one position
// shifts every y's x-weight down by one, which works out to
// sumXY' = sumXY - sumY + oldest + (n-1)*newest (derived by re-indexing
// the window rather than recomputing the dot product). Grounded on
// buffer_based.py:IncrementalLINREG.
type LinReg struct {
	Length int

	ring        []float64
	head, count int
	sumX, sumXX, denom float64
	sumY, sumXY float64
	value       float64
	ready       bool
}

func NewLinReg(length int) *LinReg {
	n := float64(length)
	var sumX, sumXX float64
	for i := 0.0; i < n; i++ {
		sumX += i
		sumXX += i * i
	}
	denom := n*sumXX - sumX*sumX
	return &LinReg{Length: length, ring: make([]float64, length), sumX: sumX, denom: denom}
}

func (l *LinReg) Update(in Input) {
	n := float64(l.Length)
	if l.count < l.Length {
		idx := l.count
		l.ring[idx] = in.Close
		l.sumY += in.Close
		l.sumXY += float64(idx) * in.Close
		l.count++
	} else {
		oldest := l.ring[l.head]
		l.ring[l.head] = in.Close
		l.head = (l.head + 1) % l.Length
		l.sumXY = l.sumXY - l.sumY + oldest + (n-1)*in.Close
		l.sumY = l.sumY - oldest + in.Close
	}
	if l.count < l.Length {
		return
	}
	if l.denom == 0 {
		l.value = l.sumY / n
	} else {
		slope := (n*l.sumXY - l.sumX*l.sumY) / l.denom
		intercept := (l.sumY - slope*l.sumX) / n
		l.value = intercept + slope*(n-1)
	}
	l.ready = true
}

func (l *LinReg) Reset() { *l = *NewLinReg(l.Length) }

func (l *LinReg) Value() (float64, bool) {
	if !l.ready {
		return missing()
	}
	return l.value, true
}

func (l *LinReg) IsReady() bool { return l.ready }

// CMF is the Chaikin Money Flow: sum(mfVolume, length) / sum(volume,
// length), where mfVolume = ((close-low)-(high-close))/(high-low) *
// volume. Grounded on buffer_based.py:IncrementalCMF.
type CMF struct {
	Length int

	mfvBuf, volBuf []float64
	head, count    int
	mfvSum, volSum float64
	value          float64
	ready          bool
}

func NewCMF(length int) *CMF {
	return &CMF{Length: length, mfvBuf: make([]float64, length), volBuf: make([]float64, length)}
}

func (c *CMF) Update(in Input) {
	mfMultiplier := 0.0
	if in.High != in.Low {
		mfMultiplier = ((in.Close - in.Low) - (in.High - in.Close)) / (in.High - in.Low)
	}
	mfv := mfMultiplier * in.Volume

	if c.count < c.Length {
		c.mfvBuf[c.count] = mfv
		c.volBuf[c.count] = in.Volume
		c.mfvSum += mfv
		c.volSum += in.Volume
		c.count++
	} else {
		oldMFV := c.mfvBuf[c.head]
		oldVol := c.volBuf[c.head]
		c.mfvBuf[c.head] = mfv
		c.volBuf[c.head] = in.Volume
		c.mfvSum += mfv - oldMFV
		c.volSum += in.Volume - oldVol
		c.head = (c.head + 1) % c.Length
	}
	if c.count < c.Length {
		return
	}
	if c.volSum == 0 {
		c.value = 0
	} else {
		c.value = c.mfvSum / c.volSum
	}
	c.ready = true
}

func (c *CMF) Reset() { *c = *NewCMF(c.Length) }

func (c *CMF) Value() (float64, bool) {
	if !c.ready {
		return missing()
	}
	return c.value, true
}

func (c *CMF) IsReady() bool { return c.ready }

// CMO is the Chande Momentum Oscillator: 100 * (sumGains - sumLosses) /
// (sumGains + sumLosses) over Length bars of close-to-close changes.
// Grounded on buffer_based.py:IncrementalCMO.
type CMO struct {
	Length int

	prevClose   float64
	haveFirst   bool
	gainBuf     []float64
	lossBuf     []float64
	head, count int
	gainSum     float64
	lossSum     float64
	value       float64
	ready       bool
}

func NewCMO(length int) *CMO {
	return &CMO{Length: length, gainBuf: make([]float64, length), lossBuf: make([]float64, length)}
}

func (c *CMO) Update(in Input) {
	if !c.haveFirst {
		c.prevClose = in.Close
		c.haveFirst = true
		return
	}
	change := in.Close - c.prevClose
	c.prevClose = in.Close
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else if change < 0 {
		loss = -change
	}

	if c.count < c.Length {
		c.gainBuf[c.count] = gain
		c.lossBuf[c.count] = loss
		c.gainSum += gain
		c.lossSum += loss
		c.count++
	} else {
		oldGain := c.gainBuf[c.head]
		oldLoss := c.lossBuf[c.head]
		c.gainBuf[c.head] = gain
		c.lossBuf[c.head] = loss
		c.gainSum += gain - oldGain
		c.lossSum += loss - oldLoss
		c.head = (c.head + 1) % c.Length
	}
	if c.count < c.Length {
		return
	}
	total := c.gainSum + c.lossSum
	if total == 0 {
		c.value = 0
	} else {
		c.value = 100.0 * (c.gainSum - c.lossSum) / total
	}
	c.ready = true
}

func (c *CMO) Reset() { *c = *NewCMO(c.Length) }

func (c *CMO) Value() (float64, bool) {
	if !c.ready {
		return missing()
	}
	return c.value, true
}

func (c *CMO) IsReady() bool { return c.ready }

// MFI is the Money Flow Index: RSI-like oscillator on typical-price money
// flow rather than price change. Grounded on buffer_based.py:IncrementalMFI.
type MFI struct {
	Length int

	prevTP            float64
	haveFirst         bool
	posFlowBuf        []float64
	negFlowBuf        []float64
	head, count       int
	posSum, negSum    float64
	value             float64
	ready             bool
}

func NewMFI(length int) *MFI {
	return &MFI{Length: length, posFlowBuf: make([]float64, length), negFlowBuf: make([]float64, length)}
}

func (m *MFI) Update(in Input) {
	tp := (in.High + in.Low + in.Close) / 3.0
	rawMF := tp * in.Volume

	if !m.haveFirst {
		m.prevTP = tp
		m.haveFirst = true
		return
	}

	posFlow, negFlow := 0.0, 0.0
	if tp > m.prevTP {
		posFlow = rawMF
	} else if tp < m.prevTP {
		negFlow = rawMF
	}
	m.prevTP = tp

	if m.count < m.Length {
		m.posFlowBuf[m.count] = posFlow
		m.negFlowBuf[m.count] = negFlow
		m.posSum += posFlow
		m.negSum += negFlow
		m.count++
	} else {
		oldPos := m.posFlowBuf[m.head]
		oldNeg := m.negFlowBuf[m.head]
		m.posFlowBuf[m.head] = posFlow
		m.negFlowBuf[m.head] = negFlow
		m.posSum += posFlow - oldPos
		m.negSum += negFlow - oldNeg
		m.head = (m.head + 1) % m.Length
	}
	if m.count < m.Length {
		return
	}
	if m.negSum == 0 {
		m.value = 100.0
	} else {
		moneyRatio := m.posSum / m.negSum
		m.value = 100.0 - (100.0 / (1.0 + moneyRatio))
	}
	m.ready = true
}

func (m *MFI) Reset() { *m = *NewMFI(m.Length) }

func (m *MFI) Value() (float64, bool) {
	if !m.ready {
		return missing()
	}
	return m.value, true
}

func (m *MFI) IsReady() bool { return m.ready }
