package indicator

import "math"

// EMA is the exponential moving average, SMA-seeded then recursively
// blended. Grounded on original_source/.../incremental/core.py:IncrementalEMA.
type EMA struct {
	Length int

	alpha float64
	sum   float64
	count int
	value float64
	ready bool
}

// NewEMA constructs an EMA with the given length (alpha = 2/(length+1)).
func NewEMA(length int) *EMA {
	return &EMA{Length: length, alpha: 2.0 / float64(length+1)}
}

func (e *EMA) Update(in Input) {
	e.count++
	if e.count < e.Length {
		e.sum += in.Close
		return
	}
	if e.count == e.Length {
		e.sum += in.Close
		e.value = e.sum / float64(e.Length)
		e.ready = true
		return
	}
	e.value = (in.Close-e.value)*e.alpha + e.value
}

func (e *EMA) Reset() { *e = EMA{Length: e.Length, alpha: e.alpha} }

func (e *EMA) Value() (float64, bool) {
	if !e.ready {
		return missing()
	}
	return e.value, true
}

func (e *EMA) IsReady() bool { return e.ready }

// SMA is the simple moving average via ring buffer + running sum.
type SMA struct {
	Length int

	buf   []float64
	head  int
	sum   float64
	count int
}

func NewSMA(length int) *SMA { return &SMA{Length: length, buf: make([]float64, length)} }

func (s *SMA) Update(in Input) {
	if s.count < s.Length {
		s.buf[s.count] = in.Close
		s.sum += in.Close
		s.count++
		return
	}
	old := s.buf[s.head]
	s.buf[s.head] = in.Close
	s.sum += in.Close - old
	s.head = (s.head + 1) % s.Length
}

func (s *SMA) Reset() {
	*s = SMA{Length: s.Length, buf: make([]float64, s.Length)}
}

func (s *SMA) Value() (float64, bool) {
	if s.count < s.Length {
		return missing()
	}
	return s.sum / float64(s.Length), true
}

func (s *SMA) IsReady() bool { return s.count >= s.Length }

// RSI is Wilder's Relative Strength Index: EWM(alpha=1/length, adjust=False)
// on gains and losses separately, seeded from the first gain/loss change
// (not a plain mean over the first `length` changes). Grounded on
// core.py:IncrementalRSI.
type RSI struct {
	Length int

	prevClose float64
	count     int
	avgGain   float64
	avgLoss   float64
	ready     bool
	value     float64
}

func NewRSI(length int) *RSI { return &RSI{Length: length} }

func (r *RSI) Update(in Input) {
	r.count++
	if r.count == 1 {
		r.prevClose = in.Close
		return
	}

	change := in.Close - r.prevClose
	r.prevClose = in.Close
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else if change < 0 {
		loss = -change
	}

	if r.count == 2 {
		r.avgGain = gain
		r.avgLoss = loss
	} else {
		alpha := 1.0 / float64(r.Length)
		r.avgGain = alpha*gain + (1-alpha)*r.avgGain
		r.avgLoss = alpha*loss + (1-alpha)*r.avgLoss
	}

	r.value = rsiFromAvgs(r.avgGain, r.avgLoss)
	r.ready = r.count > r.Length
}

func rsiFromAvgs(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

func (r *RSI) Reset() { *r = RSI{Length: r.Length} }

func (r *RSI) Value() (float64, bool) {
	if !r.ready {
		return missing()
	}
	return r.value, true
}

func (r *RSI) IsReady() bool { return r.ready }

// ATR is Wilder's Average True Range. When Prenan is true, the first
// `length` outputs are missing even though TR accumulation begins at bar 1
// (matches ADX's internal ATR(prenan=True) dependency).
type ATR struct {
	Length int
	Prenan bool

	prevClose float64
	haveFirst bool
	trSum     float64
	trCount   int
	avgTR     float64
	ready     bool
}

func NewATR(length int) *ATR { return &ATR{Length: length} }

func (a *ATR) trueRange(in Input) float64 {
	if !a.haveFirst {
		return in.High - in.Low
	}
	hl := in.High - in.Low
	hc := math.Abs(in.High - a.prevClose)
	lc := math.Abs(in.Low - a.prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

func (a *ATR) Update(in Input) {
	if a.Prenan && !a.haveFirst {
		a.prevClose = in.Close
		a.haveFirst = true
		return
	}
	tr := a.trueRange(in)
	a.prevClose = in.Close
	a.haveFirst = true

	if a.trCount < a.Length {
		a.trSum += tr
		a.trCount++
		if a.trCount == a.Length {
			a.avgTR = a.trSum / float64(a.Length)
			a.ready = true
		}
		return
	}
	a.avgTR = (a.avgTR*float64(a.Length-1) + tr) / float64(a.Length)
}

func (a *ATR) Reset() { *a = ATR{Length: a.Length, Prenan: a.Prenan} }

func (a *ATR) Value() (float64, bool) {
	if !a.ready {
		return missing()
	}
	return a.avgTR, true
}

func (a *ATR) IsReady() bool { return a.ready }

// MACD is fast EMA minus slow EMA, plus an EMA-smoothed signal line and
// histogram. Grounded on core.py:IncrementalMACD.
type MACD struct {
	Fast, Slow, Signal int

	fastEMA   *EMA
	slowEMA   *EMA
	signalEMA *EMA
	macd      float64
	signal    float64
	hist      float64
	ready     bool
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		Fast: fast, Slow: slow, Signal: signal,
		fastEMA: NewEMA(fast), slowEMA: NewEMA(slow), signalEMA: NewEMA(signal),
	}
}

func (m *MACD) Update(in Input) {
	m.fastEMA.Update(in)
	m.slowEMA.Update(in)
	fv, fok := m.fastEMA.Value()
	sv, sok := m.slowEMA.Value()
	if !fok || !sok {
		return
	}
	m.macd = fv - sv
	m.signalEMA.Update(Input{Close: m.macd})
	sig, sigOK := m.signalEMA.Value()
	if sigOK {
		m.signal = sig
		m.hist = m.macd - sig
		m.ready = true
	}
}

func (m *MACD) Reset() { *m = *NewMACD(m.Fast, m.Slow, m.Signal) }

func (m *MACD) Value() (float64, bool) {
	if !m.ready {
		return missing()
	}
	return m.macd, true
}

func (m *MACD) IsReady() bool { return m.ready }

func (m *MACD) Output(name string) (float64, bool) {
	if !m.ready {
		return missing()
	}
	switch name {
	case "signal":
		return m.signal, true
	case "histogram":
		return m.hist, true
	case "macd":
		return m.macd, true
	}
	return missing()
}

func (m *MACD) OutputNames() []string { return []string{"macd", "signal", "histogram"} }

// BBands is Bollinger Bands: SMA middle band +/- k * sample stddev
// (ddof=1, matching the batch pandas reference).
type BBands struct {
	Length int
	StdDev float64

	buf         []float64
	head, count int
	sum, sumSq  float64

	lower, middle, upper, bandwidth, percentB float64
	ready                                     bool
}

func NewBBands(length int, stdDev float64) *BBands {
	return &BBands{Length: length, StdDev: stdDev, buf: make([]float64, length)}
}

func (b *BBands) Update(in Input) {
	if b.count < b.Length {
		b.buf[b.count] = in.Close
		b.sum += in.Close
		b.sumSq += in.Close * in.Close
		b.count++
	} else {
		old := b.buf[b.head]
		b.buf[b.head] = in.Close
		b.sum += in.Close - old
		b.sumSq += in.Close*in.Close - old*old
		b.head = (b.head + 1) % b.Length
	}
	if b.count < b.Length {
		return
	}
	n := float64(b.Length)
	mean := b.sum / n
	variance := (b.sumSq - n*mean*mean) / (n - 1) // ddof=1
	if variance < 0 {
		variance = 0
	}
	std := math.Sqrt(variance)
	b.middle = mean
	b.lower = mean - b.StdDev*std
	b.upper = mean + b.StdDev*std
	b.bandwidth = (b.upper - b.lower) / mean
	if b.upper != b.lower {
		b.percentB = (in.Close - b.lower) / (b.upper - b.lower)
	} else {
		b.percentB = 0.5
	}
	b.ready = true
}

func (b *BBands) Reset() { *b = *NewBBands(b.Length, b.StdDev) }

func (b *BBands) Value() (float64, bool) {
	if !b.ready {
		return missing()
	}
	return b.middle, true
}

func (b *BBands) IsReady() bool { return b.ready }

func (b *BBands) Output(name string) (float64, bool) {
	if !b.ready {
		return missing()
	}
	switch name {
	case "lower":
		return b.lower, true
	case "middle":
		return b.middle, true
	case "upper":
		return b.upper, true
	case "bandwidth":
		return b.bandwidth, true
	case "percent_b":
		return b.percentB, true
	}
	return missing()
}

func (b *BBands) OutputNames() []string {
	return []string{"lower", "middle", "upper", "bandwidth", "percent_b"}
}

// WilliamsR is %R: (highestHigh - close) / (highestHigh - lowestLow) * -100,
// using a monotonic-deque max/min over Length bars.
type WilliamsR struct {
	Length int

	highDQ *monoDeque
	lowDQ  *monoDeque
	idx    int
	value  float64
	ready  bool
}

func NewWilliamsR(length int) *WilliamsR {
	return &WilliamsR{Length: length, highDQ: newMonoDeque(maxMode), lowDQ: newMonoDeque(minMode)}
}

func (w *WilliamsR) Update(in Input) {
	w.highDQ.push(w.idx, in.High, w.Length)
	w.lowDQ.push(w.idx, in.Low, w.Length)
	w.idx++
	if w.idx < w.Length {
		return
	}
	hh := w.highDQ.front()
	ll := w.lowDQ.front()
	if hh == ll {
		w.value = 0
	} else {
		w.value = (hh - in.Close) / (hh - ll) * -100.0
	}
	w.ready = true
}

func (w *WilliamsR) Reset() { *w = *NewWilliamsR(w.Length) }

func (w *WilliamsR) Value() (float64, bool) {
	if !w.ready {
		return missing()
	}
	return w.value, true
}

func (w *WilliamsR) IsReady() bool { return w.ready }

// CCI is the Commodity Channel Index. Mean-deviation over the window is
// O(n) on value read despite O(1) update -- a mathematical property of the
// definition, not a design defect (spec.md §4.2).
type CCI struct {
	Length int
	Const  float64

	tpBuf []float64
	head  int
	count int
	sum   float64
	value float64
	ready bool
}

func NewCCI(length int) *CCI {
	return &CCI{Length: length, Const: 0.015, tpBuf: make([]float64, length)}
}

func (c *CCI) Update(in Input) {
	tp := (in.High + in.Low + in.Close) / 3.0
	if c.count < c.Length {
		c.tpBuf[c.count] = tp
		c.sum += tp
		c.count++
	} else {
		old := c.tpBuf[c.head]
		c.tpBuf[c.head] = tp
		c.sum += tp - old
		c.head = (c.head + 1) % c.Length
	}
	if c.count < c.Length {
		return
	}
	n := float64(c.Length)
	mean := c.sum / n
	meanDev := 0.0
	for _, v := range c.tpBuf[:c.count] {
		meanDev += math.Abs(v - mean)
	}
	meanDev /= n
	if meanDev == 0 {
		c.value = 0
	} else {
		c.value = (tp - mean) / (c.Const * meanDev)
	}
	c.ready = true
}

func (c *CCI) Reset() { *c = *NewCCI(c.Length) }

func (c *CCI) Value() (float64, bool) {
	if !c.ready {
		return missing()
	}
	return c.value, true
}

func (c *CCI) IsReady() bool { return c.ready }

// Stochastic is the %K/%D stochastic oscillator.
type Stochastic struct {
	KLength, KSmooth, DSmooth int

	highDQ  *monoDeque
	lowDQ   *monoDeque
	idx     int
	rawK    *SMA
	dLine   *SMA
	k, d    float64
	readyK  bool
	readyD  bool
}

func NewStochastic(kLength, kSmooth, dSmooth int) *Stochastic {
	return &Stochastic{
		KLength: kLength, KSmooth: kSmooth, DSmooth: dSmooth,
		highDQ: newMonoDeque(maxMode), lowDQ: newMonoDeque(minMode),
		rawK: NewSMA(kSmooth), dLine: NewSMA(dSmooth),
	}
}

func (s *Stochastic) Update(in Input) {
	s.highDQ.push(s.idx, in.High, s.KLength)
	s.lowDQ.push(s.idx, in.Low, s.KLength)
	s.idx++
	if s.idx < s.KLength {
		return
	}
	hh := s.highDQ.front()
	ll := s.lowDQ.front()
	raw := 50.0
	if hh != ll {
		raw = (in.Close - ll) / (hh - ll) * 100.0
	}
	s.rawK.Update(Input{Close: raw})
	kv, ok := s.rawK.Value()
	if !ok {
		return
	}
	s.k = kv
	s.readyK = true
	s.dLine.Update(Input{Close: kv})
	if dv, ok := s.dLine.Value(); ok {
		s.d = dv
		s.readyD = true
	}
}

func (s *Stochastic) Reset() { *s = *NewStochastic(s.KLength, s.KSmooth, s.DSmooth) }

func (s *Stochastic) Value() (float64, bool) {
	if !s.readyK {
		return missing()
	}
	return s.k, true
}

func (s *Stochastic) IsReady() bool { return s.readyK }

func (s *Stochastic) Output(name string) (float64, bool) {
	if name == "d" {
		if !s.readyD {
			return missing()
		}
		return s.d, true
	}
	return s.Value()
}

func (s *Stochastic) OutputNames() []string { return []string{"k", "d"} }

// StochRSI applies the stochastic formula to RSI's output rather than
// price, then smooths %K/%D the same way.
type StochRSI struct {
	RSILength, StochLength, KSmooth, DSmooth int

	rsi    *RSI
	rsiBuf []float64
	head   int
	count  int
	rawK   *SMA
	dLine  *SMA
	k, d   float64
	readyK bool
	readyD bool
}

func NewStochRSI(rsiLength, stochLength, kSmooth, dSmooth int) *StochRSI {
	return &StochRSI{
		RSILength: rsiLength, StochLength: stochLength, KSmooth: kSmooth, DSmooth: dSmooth,
		rsi: NewRSI(rsiLength), rsiBuf: make([]float64, stochLength),
		rawK: NewSMA(kSmooth), dLine: NewSMA(dSmooth),
	}
}

func (s *StochRSI) Update(in Input) {
	s.rsi.Update(in)
	rv, ok := s.rsi.Value()
	if !ok {
		return
	}
	if s.count < s.StochLength {
		s.rsiBuf[s.count] = rv
		s.count++
	} else {
		copy(s.rsiBuf, s.rsiBuf[1:])
		s.rsiBuf[s.StochLength-1] = rv
	}
	if s.count < s.StochLength {
		return
	}
	lo, hi := s.rsiBuf[0], s.rsiBuf[0]
	for _, v := range s.rsiBuf {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	raw := 50.0
	if hi != lo {
		raw = (rv - lo) / (hi - lo) * 100.0
	}
	s.rawK.Update(Input{Close: raw})
	if kv, ok := s.rawK.Value(); ok {
		s.k = kv
		s.readyK = true
		s.dLine.Update(Input{Close: kv})
		if dv, ok := s.dLine.Value(); ok {
			s.d = dv
			s.readyD = true
		}
	}
}

func (s *StochRSI) Reset() {
	*s = *NewStochRSI(s.RSILength, s.StochLength, s.KSmooth, s.DSmooth)
}

func (s *StochRSI) Value() (float64, bool) {
	if !s.readyK {
		return missing()
	}
	return s.k, true
}

func (s *StochRSI) IsReady() bool { return s.readyK }

func (s *StochRSI) Output(name string) (float64, bool) {
	if name == "d" {
		if !s.readyD {
			return missing()
		}
		return s.d, true
	}
	return s.Value()
}

func (s *StochRSI) OutputNames() []string { return []string{"k", "d"} }

// ADX is the Average Directional Index: wraps ATR(prenan=True), tracks
// smoothed +DM/-DM via Wilder RMA, derives DX and ADX (EWM of DX). Exposes
// adxr via a capped history of past ADX values. Grounded on
// core.py:IncrementalADX.
type ADX struct {
	Length int

	atr           *ATR
	prevHigh      float64
	prevLow       float64
	haveFirst     bool
	dmPlusSum     float64
	dmMinusSum    float64
	dmCount       int
	avgDMPlus     float64
	avgDMMinus    float64
	dxSum         float64
	dxCount       int
	adx           float64
	adxReady      bool
	adxrHistory   []float64
	plusDI        float64
	minusDI       float64
}

func NewADX(length int) *ADX {
	return &ADX{Length: length, atr: &ATR{Length: length, Prenan: true}}
}

func (a *ADX) Update(in Input) {
	a.atr.Update(in)

	if !a.haveFirst {
		a.prevHigh, a.prevLow = in.High, in.Low
		a.haveFirst = true
		return
	}
	upMove := in.High - a.prevHigh
	downMove := a.prevLow - in.Low
	a.prevHigh, a.prevLow = in.High, in.Low

	dmPlus, dmMinus := 0.0, 0.0
	if upMove > downMove && upMove > 0 {
		dmPlus = upMove
	}
	if downMove > upMove && downMove > 0 {
		dmMinus = downMove
	}

	if a.dmCount < a.Length {
		a.dmPlusSum += dmPlus
		a.dmMinusSum += dmMinus
		a.dmCount++
		if a.dmCount == a.Length {
			a.avgDMPlus = a.dmPlusSum / float64(a.Length)
			a.avgDMMinus = a.dmMinusSum / float64(a.Length)
		}
	} else {
		a.avgDMPlus = (a.avgDMPlus*float64(a.Length-1) + dmPlus) / float64(a.Length)
		a.avgDMMinus = (a.avgDMMinus*float64(a.Length-1) + dmMinus) / float64(a.Length)
	}

	atrVal, atrOK := a.atr.Value()
	if a.dmCount < a.Length || !atrOK || atrVal == 0 {
		return
	}

	a.plusDI = 100.0 * a.avgDMPlus / atrVal
	a.minusDI = 100.0 * a.avgDMMinus / atrVal
	diSum := a.plusDI + a.minusDI
	dx := 0.0
	if diSum != 0 {
		dx = 100.0 * math.Abs(a.plusDI-a.minusDI) / diSum
	}

	if a.dxCount < a.Length {
		a.dxSum += dx
		a.dxCount++
		if a.dxCount == a.Length {
			a.adx = a.dxSum / float64(a.Length)
			a.adxReady = true
		}
	} else {
		a.adx = (a.adx*float64(a.Length-1) + dx) / float64(a.Length)
	}

	if a.adxReady {
		a.adxrHistory = append(a.adxrHistory, a.adx)
		if len(a.adxrHistory) > a.Length {
			a.adxrHistory = a.adxrHistory[1:]
		}
	}
}

func (a *ADX) Reset() { *a = *NewADX(a.Length) }

func (a *ADX) Value() (float64, bool) {
	if !a.adxReady {
		return missing()
	}
	return a.adx, true
}

func (a *ADX) IsReady() bool { return a.adxReady }

func (a *ADX) Output(name string) (float64, bool) {
	if !a.adxReady {
		return missing()
	}
	switch name {
	case "adx":
		return a.adx, true
	case "plus_di":
		return a.plusDI, true
	case "minus_di":
		return a.minusDI, true
	case "adxr":
		if len(a.adxrHistory) < a.Length {
			return missing()
		}
		return (a.adx + a.adxrHistory[0]) / 2.0, true
	}
	return missing()
}

func (a *ADX) OutputNames() []string { return []string{"adx", "plus_di", "minus_di", "adxr"} }

// SuperTrend wraps an ATR and maintains pandas_ta's exact band-holding
// direction state machine. Grounded on core.py:IncrementalSuperTrend.
type SuperTrend struct {
	Length     int
	Multiplier float64

	atr           *ATR
	prevClose     float64
	haveFirst     bool
	finalUpper    float64
	finalLower    float64
	haveBands     bool
	direction     int // 1 = up (bullish), -1 = down (bearish)
	trendValue    float64
	ready         bool
}

func NewSuperTrend(length int, multiplier float64) *SuperTrend {
	return &SuperTrend{Length: length, Multiplier: multiplier, atr: &ATR{Length: length}, direction: 1}
}

func (st *SuperTrend) Update(in Input) {
	st.atr.Update(in)
	atrVal, atrOK := st.atr.Value()
	if !atrOK {
		st.prevClose = in.Close
		st.haveFirst = true
		return
	}

	hl2 := (in.High + in.Low) / 2.0
	basicUpper := hl2 + st.Multiplier*atrVal
	basicLower := hl2 - st.Multiplier*atrVal

	if !st.haveBands {
		st.finalUpper = basicUpper
		st.finalLower = basicLower
		st.haveBands = true
		st.prevClose = in.Close
		st.haveFirst = true
		return
	}

	finalUpper := basicUpper
	if basicUpper < st.finalUpper || st.prevClose > st.finalUpper {
		finalUpper = basicUpper
	} else {
		finalUpper = st.finalUpper
	}
	finalLower := basicLower
	if basicLower > st.finalLower || st.prevClose < st.finalLower {
		finalLower = basicLower
	} else {
		finalLower = st.finalLower
	}

	direction := st.direction
	if st.direction == 1 && in.Close < finalLower {
		direction = -1
	} else if st.direction == -1 && in.Close > finalUpper {
		direction = 1
	}

	st.finalUpper = finalUpper
	st.finalLower = finalLower
	st.direction = direction
	if direction == 1 {
		st.trendValue = finalLower
	} else {
		st.trendValue = finalUpper
	}
	st.prevClose = in.Close
	st.ready = true
}

func (st *SuperTrend) Reset() { *st = *NewSuperTrend(st.Length, st.Multiplier) }

func (st *SuperTrend) Value() (float64, bool) {
	if !st.ready {
		return missing()
	}
	return st.trendValue, true
}

func (st *SuperTrend) IsReady() bool { return st.ready }

func (st *SuperTrend) Output(name string) (float64, bool) {
	if !st.ready {
		return missing()
	}
	switch name {
	case "trend":
		return st.trendValue, true
	case "direction":
		return float64(st.direction), true
	case "long":
		if st.direction == 1 {
			return st.trendValue, true
		}
		return missing()
	case "short":
		if st.direction == -1 {
			return st.trendValue, true
		}
		return missing()
	}
	return missing()
}

func (st *SuperTrend) OutputNames() []string { return []string{"trend", "direction", "long", "short"} }
