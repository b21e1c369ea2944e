package indicator

import "math"

// Aroon tracks bars-since-highest-high and bars-since-lowest-low over a
// length+1 window (matching pandas_ta's rolling(length+1)), via monotonic
// deques that also record index so "bars since" can be derived. Grounded
// on lookback.py:IncrementalAROON.
type Aroon struct {
	Length int

	highDQ   *aroonDeque
	lowDQ    *aroonDeque
	idx      int
	up, down float64
	ready    bool
}

// aroonDeque is a monoDeque variant that also reports the index of the
// current extremum (needed for "bars since" rather than just the value).
type aroonDeque struct {
	mode monoMode
	buf  []dqEntry
}

func newAroonDeque(mode monoMode) *aroonDeque { return &aroonDeque{mode: mode} }

func (d *aroonDeque) push(idx int, value float64, window int) {
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

func (d *aroonDeque) frontIdx() int {
	if len(d.buf) == 0 {
		return -1
	}
	return d.buf[0].idx
}

func NewAroon(length int) *Aroon {
	return &Aroon{Length: length, highDQ: newAroonDeque(maxMode), lowDQ: newAroonDeque(minMode)}
}

func (a *Aroon) Update(in Input) {
	window := a.Length + 1
	a.highDQ.push(a.idx, in.High, window)
	a.lowDQ.push(a.idx, in.Low, window)

	if a.idx < a.Length {
		a.idx++
		return
	}
	sinceHigh := a.idx - a.highDQ.frontIdx()
	sinceLow := a.idx - a.lowDQ.frontIdx()
	a.up = 100.0 * float64(a.Length-sinceHigh) / float64(a.Length)
	a.down = 100.0 * float64(a.Length-sinceLow) / float64(a.Length)
	a.ready = true
	a.idx++
}

func (a *Aroon) Reset() { *a = *NewAroon(a.Length) }

func (a *Aroon) Value() (float64, bool) {
	if !a.ready {
		return missing()
	}
	return a.up, true
}

func (a *Aroon) IsReady() bool { return a.ready }

func (a *Aroon) Output(name string) (float64, bool) {
	if !a.ready {
		return missing()
	}
	switch name {
	case "up":
		return a.up, true
	case "down":
		return a.down, true
	case "oscillator":
		return a.up - a.down, true
	}
	return missing()
}

func (a *Aroon) OutputNames() []string { return []string{"up", "down", "oscillator"} }

// Donchian tracks independent upper/lower channel lengths via monotonic
// deques. Grounded on lookback.py:IncrementalDonchian.
type Donchian struct {
	UpperLength, LowerLength int

	highDQ   *monoDeque
	lowDQ    *monoDeque
	idx      int
	upper, lower, middle float64
	ready    bool
}

func NewDonchian(upperLength, lowerLength int) *Donchian {
	return &Donchian{
		UpperLength: upperLength, LowerLength: lowerLength,
		highDQ: newMonoDeque(maxMode), lowDQ: newMonoDeque(minMode),
	}
}

func (d *Donchian) Update(in Input) {
	d.highDQ.push(d.idx, in.High, d.UpperLength)
	d.lowDQ.push(d.idx, in.Low, d.LowerLength)
	d.idx++
	maxLen := d.UpperLength
	if d.LowerLength > maxLen {
		maxLen = d.LowerLength
	}
	if d.idx < maxLen {
		return
	}
	d.upper = d.highDQ.front()
	d.lower = d.lowDQ.front()
	d.middle = (d.upper + d.lower) / 2.0
	d.ready = true
}

func (d *Donchian) Reset() { *d = *NewDonchian(d.UpperLength, d.LowerLength) }

func (d *Donchian) Value() (float64, bool) {
	if !d.ready {
		return missing()
	}
	return d.middle, true
}

func (d *Donchian) IsReady() bool { return d.ready }

func (d *Donchian) Output(name string) (float64, bool) {
	if !d.ready {
		return missing()
	}
	switch name {
	case "upper":
		return d.upper, true
	case "lower":
		return d.lower, true
	case "middle":
		return d.middle, true
	}
	return missing()
}

func (d *Donchian) OutputNames() []string { return []string{"upper", "lower", "middle"} }

// KC is the Keltner Channel: EMA midline +/- multiplier*ATR, skipping TR
// on bar 0. Grounded on lookback.py:IncrementalKC.
type KC struct {
	Length     int
	Multiplier float64

	ema       *EMA
	atrEMA    *EMA
	prevClose float64
	haveFirst bool
	upper, middle, lower float64
	ready     bool
}

func NewKC(length int, multiplier float64) *KC {
	return &KC{Length: length, Multiplier: multiplier, ema: NewEMA(length), atrEMA: NewEMA(length)}
}

func (k *KC) Update(in Input) {
	k.ema.Update(in)
	if !k.haveFirst {
		k.prevClose = in.Close
		k.haveFirst = true
		return
	}
	hl := in.High - in.Low
	hc := math.Abs(in.High - k.prevClose)
	lc := math.Abs(in.Low - k.prevClose)
	tr := math.Max(hl, math.Max(hc, lc))
	k.prevClose = in.Close
	k.atrEMA.Update(Input{Close: tr})

	mid, midOK := k.ema.Value()
	atr, atrOK := k.atrEMA.Value()
	if !midOK || !atrOK {
		return
	}
	k.middle = mid
	k.upper = mid + k.Multiplier*atr
	k.lower = mid - k.Multiplier*atr
	k.ready = true
}

func (k *KC) Reset() { *k = *NewKC(k.Length, k.Multiplier) }

func (k *KC) Value() (float64, bool) {
	if !k.ready {
		return missing()
	}
	return k.middle, true
}

func (k *KC) IsReady() bool { return k.ready }

func (k *KC) Output(name string) (float64, bool) {
	if !k.ready {
		return missing()
	}
	switch name {
	case "middle":
		return k.middle, true
	case "upper":
		return k.upper, true
	case "lower":
		return k.lower, true
	}
	return missing()
}

func (k *KC) OutputNames() []string { return []string{"middle", "upper", "lower"} }

// DM is TA-Lib-style Wilder-smoothed directional movement: the first
// Length-1 values are accumulated by plain sum, then decayed via
// prev - prev/length + current. Grounded on lookback.py:IncrementalDM.
type DM struct {
	Length int

	prevHigh, prevLow float64
	haveFirst         bool
	plusSum, minusSum float64
	count             int
	plusDM, minusDM   float64
	ready             bool
}

func NewDM(length int) *DM { return &DM{Length: length} }

func (d *DM) Update(in Input) {
	if !d.haveFirst {
		d.prevHigh, d.prevLow = in.High, in.Low
		d.haveFirst = true
		return
	}
	upMove := in.High - d.prevHigh
	downMove := d.prevLow - in.Low
	d.prevHigh, d.prevLow = in.High, in.Low

	plus, minus := 0.0, 0.0
	if upMove > downMove && upMove > 0 {
		plus = upMove
	}
	if downMove > upMove && downMove > 0 {
		minus = downMove
	}

	if !d.ready {
		d.plusSum += plus
		d.minusSum += minus
		d.count++
		if d.count >= d.Length-1 {
			d.plusDM = d.plusSum
			d.minusDM = d.minusSum
			d.ready = true
		}
		return
	}
	n := float64(d.Length)
	d.plusDM = d.plusDM - d.plusDM/n + plus
	d.minusDM = d.minusDM - d.minusDM/n + minus
}

func (d *DM) Reset() { *d = *NewDM(d.Length) }

func (d *DM) Value() (float64, bool) {
	if !d.ready {
		return missing()
	}
	return d.plusDM, true
}

func (d *DM) IsReady() bool { return d.ready }

func (d *DM) Output(name string) (float64, bool) {
	if name == "minus" {
		if !d.ready {
			return missing()
		}
		return d.minusDM, true
	}
	return d.Value()
}

func (d *DM) OutputNames() []string { return []string{"plus", "minus"} }

// Vortex computes VI+/VI- from rolling sums of +VM/-VM and true range.
// Grounded on lookback.py:IncrementalVortex.
type Vortex struct {
	Length int

	prevHigh, prevLow, prevClose float64
	haveFirst                   bool
	vmPlusBuf, vmMinusBuf, trBuf []float64
	head, count                 int
	vmPlusSum, vmMinusSum, trSum float64
	viPlus, viMinus             float64
	ready                       bool
}

func NewVortex(length int) *Vortex {
	return &Vortex{
		Length: length,
		vmPlusBuf: make([]float64, length), vmMinusBuf: make([]float64, length), trBuf: make([]float64, length),
	}
}

func (v *Vortex) Update(in Input) {
	if !v.haveFirst {
		v.prevHigh, v.prevLow, v.prevClose = in.High, in.Low, in.Close
		v.haveFirst = true
		return
	}
	vmPlus := math.Abs(in.High - v.prevLow)
	vmMinus := math.Abs(in.Low - v.prevHigh)
	hl := in.High - in.Low
	hc := math.Abs(in.High - v.prevClose)
	lc := math.Abs(in.Low - v.prevClose)
	tr := math.Max(hl, math.Max(hc, lc))
	v.prevHigh, v.prevLow, v.prevClose = in.High, in.Low, in.Close

	if v.count < v.Length {
		v.vmPlusBuf[v.count] = vmPlus
		v.vmMinusBuf[v.count] = vmMinus
		v.trBuf[v.count] = tr
		v.vmPlusSum += vmPlus
		v.vmMinusSum += vmMinus
		v.trSum += tr
		v.count++
	} else {
		oldPlus := v.vmPlusBuf[v.head]
		oldMinus := v.vmMinusBuf[v.head]
		oldTR := v.trBuf[v.head]
		v.vmPlusBuf[v.head] = vmPlus
		v.vmMinusBuf[v.head] = vmMinus
		v.trBuf[v.head] = tr
		v.vmPlusSum += vmPlus - oldPlus
		v.vmMinusSum += vmMinus - oldMinus
		v.trSum += tr - oldTR
		v.head = (v.head + 1) % v.Length
	}
	if v.count < v.Length {
		return
	}
	if v.trSum == 0 {
		v.viPlus, v.viMinus = 0, 0
	} else {
		v.viPlus = v.vmPlusSum / v.trSum
		v.viMinus = v.vmMinusSum / v.trSum
	}
	v.ready = true
}

func (v *Vortex) Reset() { *v = *NewVortex(v.Length) }

func (v *Vortex) Value() (float64, bool) {
	if !v.ready {
		return missing()
	}
	return v.viPlus, true
}

func (v *Vortex) IsReady() bool { return v.ready }

func (v *Vortex) Output(name string) (float64, bool) {
	if name == "minus" {
		if !v.ready {
			return missing()
		}
		return v.viMinus, true
	}
	return v.Value()
}

func (v *Vortex) OutputNames() []string { return []string{"plus", "minus"} }
