package indicator

import "math"

// KAMA is the Kaufman Adaptive Moving Average: an efficiency-ratio-driven
// smoothing constant blends a trailing SMA seed forward. Grounded on
// adaptive.py:IncrementalKAMA.
type KAMA struct {
	Length, Fast, Slow int

	buf          []float64
	changeBuf    []float64
	changeSum    float64
	count        int
	kama         float64
	ready        bool
	fastSC, slowSC float64
}

func NewKAMA(length, fast, slow int) *KAMA {
	return &KAMA{
		Length: length, Fast: fast, Slow: slow,
		fastSC: 2.0 / float64(fast+1), slowSC: 2.0 / float64(slow+1),
	}
}

func (k *KAMA) Update(in Input) {
	k.count++

	if len(k.buf) > 0 {
		change := math.Abs(in.Close - k.buf[len(k.buf)-1])
		k.changeSum += change
		k.changeBuf = append(k.changeBuf, change)
		if len(k.changeBuf) > k.Length {
			k.changeSum -= k.changeBuf[0]
			k.changeBuf = k.changeBuf[1:]
		}
	}

	k.buf = append(k.buf, in.Close)
	if len(k.buf) > k.Length+1 {
		k.buf = k.buf[1:]
	}

	if len(k.buf) == k.Length {
		sum := 0.0
		for _, v := range k.buf {
			sum += v
		}
		k.kama = sum / float64(k.Length)
		k.ready = true
	} else if len(k.buf) > k.Length {
		priceChange := math.Abs(in.Close - k.buf[0])
		er := 0.0
		if k.changeSum != 0 {
			er = priceChange / k.changeSum
		}
		sc := math.Pow(er*(k.fastSC-k.slowSC)+k.slowSC, 2)
		k.kama = k.kama + sc*(in.Close-k.kama)
	}
}

func (k *KAMA) Reset() { *k = *NewKAMA(k.Length, k.Fast, k.Slow) }

func (k *KAMA) Value() (float64, bool) {
	if !k.ready {
		return missing()
	}
	return k.kama, true
}

func (k *KAMA) IsReady() bool { return k.ready }

// ALMA is the Arnaud Legoux Moving Average: precomputed position-based
// Gaussian weights over Length bars. Update is O(1); value read is O(n),
// which is a mathematical property of position-weighted Gaussian
// smoothing, not an optimisation gap. Grounded on adaptive.py:IncrementalALMA.
type ALMA struct {
	Length         int
	Sigma, Offset  float64

	weights []float64
	buf     []float64
}

func NewALMA(length int, sigma, offset float64) *ALMA {
	a := &ALMA{Length: length, Sigma: sigma, Offset: offset}
	k := math.Floor(offset * float64(length-1))
	weights := make([]float64, length)
	sum := 0.0
	for i := 0; i < length; i++ {
		w := math.Exp(-0.5 * math.Pow((sigma/float64(length))*(float64(i)-k), 2))
		weights[i] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	a.weights = weights
	return a
}

func (a *ALMA) Update(in Input) {
	a.buf = append(a.buf, in.Close)
	if len(a.buf) > a.Length {
		a.buf = a.buf[1:]
	}
}

func (a *ALMA) Reset() { *a = *NewALMA(a.Length, a.Sigma, a.Offset) }

func (a *ALMA) Value() (float64, bool) {
	if !a.IsReady() {
		return missing()
	}
	sum := 0.0
	for i, v := range a.buf {
		sum += a.weights[i] * v
	}
	return sum, true
}

func (a *ALMA) IsReady() bool { return len(a.buf) >= a.Length }

// ZLMA is the Zero Lag Moving Average: an EMA of a lag-corrected series
// (2*close - close[lag]), lag = (length-1)/2. Grounded on
// adaptive.py:IncrementalZLMA.
type ZLMA struct {
	Length int

	buf []float64
	ema *EMA
	lag int
}

func NewZLMA(length int) *ZLMA {
	return &ZLMA{Length: length, ema: NewEMA(length), lag: (length - 1) / 2}
}

func (z *ZLMA) Update(in Input) {
	z.buf = append(z.buf, in.Close)
	if len(z.buf) > z.lag+1 {
		z.buf = z.buf[1:]
	}
	if len(z.buf) > z.lag {
		lagged := z.buf[0]
		adjusted := 2*in.Close - lagged
		z.ema.Update(Input{Close: adjusted})
	}
}

func (z *ZLMA) Reset() { *z = *NewZLMA(z.Length) }

func (z *ZLMA) Value() (float64, bool) { return z.ema.Value() }

func (z *ZLMA) IsReady() bool { return z.ema.IsReady() }

// UO is the Ultimate Oscillator: a 4:2:1-weighted combination of three
// nested buying-pressure/true-range window ratios. Grounded on
// adaptive.py:IncrementalUO.
type UO struct {
	Fast, Medium, Slow int

	prevClose       float64
	haveFirst       bool
	bpBuf, trBuf    []float64
}

func NewUO(fast, medium, slow int) *UO { return &UO{Fast: fast, Medium: medium, Slow: slow} }

func (u *UO) Update(in Input) {
	if !u.haveFirst {
		u.prevClose = in.Close
		u.haveFirst = true
		return
	}
	bp := in.Close - math.Min(in.Low, u.prevClose)
	tr := math.Max(in.High, u.prevClose) - math.Min(in.Low, u.prevClose)
	u.prevClose = in.Close

	u.bpBuf = append(u.bpBuf, bp)
	u.trBuf = append(u.trBuf, tr)
	if len(u.bpBuf) > u.Slow {
		u.bpBuf = u.bpBuf[1:]
		u.trBuf = u.trBuf[1:]
	}
}

func (u *UO) Reset() { *u = *NewUO(u.Fast, u.Medium, u.Slow) }

func (u *UO) Value() (float64, bool) {
	if !u.IsReady() {
		return missing()
	}
	n := len(u.bpBuf)
	sumRange := func(bp, tr []float64, window int) (float64, float64) {
		start := n - window
		var bpSum, trSum float64
		for i := start; i < n; i++ {
			bpSum += bp[i]
			trSum += tr[i]
		}
		return bpSum, trSum
	}
	bpF, trF := sumRange(u.bpBuf, u.trBuf, u.Fast)
	bpM, trM := sumRange(u.bpBuf, u.trBuf, u.Medium)
	bpS, trS := sumRange(u.bpBuf, u.trBuf, u.Slow)

	avg1, avg2, avg3 := 0.0, 0.0, 0.0
	if trF != 0 {
		avg1 = bpF / trF
	}
	if trM != 0 {
		avg2 = bpM / trM
	}
	if trS != 0 {
		avg3 = bpS / trS
	}
	return 100.0 * ((4 * avg1) + (2 * avg2) + avg3) / 7.0, true
}

func (u *UO) IsReady() bool { return len(u.bpBuf) >= u.Slow }
