package indicator

// DEMA is the Double EMA: 2*ema1 - ema2(ema1). Grounded on
// ema_composable.py:IncrementalDEMA.
type DEMA struct {
	Length int

	ema1, ema2 *EMA
	value      float64
	ready      bool
}

func NewDEMA(length int) *DEMA {
	return &DEMA{Length: length, ema1: NewEMA(length), ema2: NewEMA(length)}
}

func (d *DEMA) Update(in Input) {
	d.ema1.Update(in)
	e1, ok := d.ema1.Value()
	if !ok {
		return
	}
	d.ema2.Update(Input{Close: e1})
	e2, ok := d.ema2.Value()
	if !ok {
		return
	}
	d.value = 2*e1 - e2
	d.ready = true
}

func (d *DEMA) Reset() { *d = *NewDEMA(d.Length) }

func (d *DEMA) Value() (float64, bool) {
	if !d.ready {
		return missing()
	}
	return d.value, true
}

func (d *DEMA) IsReady() bool { return d.ready }

// TEMA is the Triple EMA: 3*ema1 - 3*ema2 + ema3. Grounded on
// ema_composable.py:IncrementalTEMA.
type TEMA struct {
	Length int

	ema1, ema2, ema3 *EMA
	value            float64
	ready            bool
}

func NewTEMA(length int) *TEMA {
	return &TEMA{Length: length, ema1: NewEMA(length), ema2: NewEMA(length), ema3: NewEMA(length)}
}

func (t *TEMA) Update(in Input) {
	t.ema1.Update(in)
	e1, ok := t.ema1.Value()
	if !ok {
		return
	}
	t.ema2.Update(Input{Close: e1})
	e2, ok := t.ema2.Value()
	if !ok {
		return
	}
	t.ema3.Update(Input{Close: e2})
	e3, ok := t.ema3.Value()
	if !ok {
		return
	}
	t.value = 3*e1 - 3*e2 + e3
	t.ready = true
}

func (t *TEMA) Reset() { *t = *NewTEMA(t.Length) }

func (t *TEMA) Value() (float64, bool) {
	if !t.ready {
		return missing()
	}
	return t.value, true
}

func (t *TEMA) IsReady() bool { return t.ready }

// PPO is the Percentage Price Oscillator: (smaFast - smaSlow) / smaSlow *
// 100, with an EMA-smoothed signal line. Grounded on
// ema_composable.py:IncrementalPPO.
type PPO struct {
	Fast, Slow, Signal int

	smaFast, smaSlow *SMA
	signalEMA        *EMA
	ppo, signal, hist float64
	ready            bool
}

func NewPPO(fast, slow, signal int) *PPO {
	return &PPO{
		Fast: fast, Slow: slow, Signal: signal,
		smaFast: NewSMA(fast), smaSlow: NewSMA(slow), signalEMA: NewEMA(signal),
	}
}

func (p *PPO) Update(in Input) {
	p.smaFast.Update(in)
	p.smaSlow.Update(in)
	f, fok := p.smaFast.Value()
	s, sok := p.smaSlow.Value()
	if !fok || !sok || s == 0 {
		return
	}
	p.ppo = (f - s) / s * 100.0
	p.signalEMA.Update(Input{Close: p.ppo})
	if sig, ok := p.signalEMA.Value(); ok {
		p.signal = sig
		p.hist = p.ppo - sig
		p.ready = true
	}
}

func (p *PPO) Reset() { *p = *NewPPO(p.Fast, p.Slow, p.Signal) }

func (p *PPO) Value() (float64, bool) {
	if !p.ready {
		return missing()
	}
	return p.ppo, true
}

func (p *PPO) IsReady() bool { return p.ready }

func (p *PPO) Output(name string) (float64, bool) {
	if !p.ready {
		return missing()
	}
	switch name {
	case "ppo":
		return p.ppo, true
	case "signal":
		return p.signal, true
	case "histogram":
		return p.hist, true
	}
	return missing()
}

func (p *PPO) OutputNames() []string { return []string{"ppo", "signal", "histogram"} }

// TRIX is the rate of change of a triple-smoothed EMA, with an SMA signal
// line. Grounded on ema_composable.py:IncrementalTRIX.
type TRIX struct {
	Length, SignalLength int

	ema1, ema2, ema3 *EMA
	prevEMA3         float64
	haveprevEMA3     bool
	signalSMA        *SMA
	trix, signal     float64
	ready            bool
}

func NewTRIX(length, signalLength int) *TRIX {
	return &TRIX{
		Length: length, SignalLength: signalLength,
		ema1: NewEMA(length), ema2: NewEMA(length), ema3: NewEMA(length),
		signalSMA: NewSMA(signalLength),
	}
}

func (t *TRIX) Update(in Input) {
	t.ema1.Update(in)
	e1, ok := t.ema1.Value()
	if !ok {
		return
	}
	t.ema2.Update(Input{Close: e1})
	e2, ok := t.ema2.Value()
	if !ok {
		return
	}
	t.ema3.Update(Input{Close: e2})
	e3, ok := t.ema3.Value()
	if !ok {
		return
	}
	if !t.haveprevEMA3 {
		t.prevEMA3 = e3
		t.haveprevEMA3 = true
		return
	}
	if t.prevEMA3 != 0 {
		t.trix = (e3 - t.prevEMA3) / t.prevEMA3 * 100.0
	}
	t.prevEMA3 = e3
	t.signalSMA.Update(Input{Close: t.trix})
	if sig, ok := t.signalSMA.Value(); ok {
		t.signal = sig
		t.ready = true
	}
}

func (t *TRIX) Reset() { *t = *NewTRIX(t.Length, t.SignalLength) }

func (t *TRIX) Value() (float64, bool) {
	if !t.ready {
		return missing()
	}
	return t.trix, true
}

func (t *TRIX) IsReady() bool { return t.ready }

func (t *TRIX) Output(name string) (float64, bool) {
	if name == "signal" {
		if !t.ready {
			return missing()
		}
		return t.signal, true
	}
	return t.Value()
}

func (t *TRIX) OutputNames() []string { return []string{"trix", "signal"} }

// TSI is the True Strength Index: double-smoothed momentum divided by
// double-smoothed absolute momentum, scaled to +-100. Grounded on
// ema_composable.py:IncrementalTSI.
type TSI struct {
	Long, Short int

	prevClose       float64
	haveFirst       bool
	momEMA1, momEMA2 *EMA
	absEMA1, absEMA2 *EMA
	value           float64
	ready           bool
}

func NewTSI(long, short int) *TSI {
	return &TSI{
		Long: long, Short: short,
		momEMA1: NewEMA(long), momEMA2: NewEMA(short),
		absEMA1: NewEMA(long), absEMA2: NewEMA(short),
	}
}

func (t *TSI) Update(in Input) {
	if !t.haveFirst {
		t.prevClose = in.Close
		t.haveFirst = true
		return
	}
	mom := in.Close - t.prevClose
	t.prevClose = in.Close
	absMom := mom
	if absMom < 0 {
		absMom = -absMom
	}

	t.momEMA1.Update(Input{Close: mom})
	t.absEMA1.Update(Input{Close: absMom})
	m1, m1ok := t.momEMA1.Value()
	a1, a1ok := t.absEMA1.Value()
	if !m1ok || !a1ok {
		return
	}
	t.momEMA2.Update(Input{Close: m1})
	t.absEMA2.Update(Input{Close: a1})
	m2, m2ok := t.momEMA2.Value()
	a2, a2ok := t.absEMA2.Value()
	if !m2ok || !a2ok || a2 == 0 {
		return
	}
	t.value = 100.0 * m2 / a2
	t.ready = true
}

func (t *TSI) Reset() { *t = *NewTSI(t.Long, t.Short) }

func (t *TSI) Value() (float64, bool) {
	if !t.ready {
		return missing()
	}
	return t.value, true
}

func (t *TSI) IsReady() bool { return t.ready }
