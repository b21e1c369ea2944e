package indicator

import "math"

// PSAR is the Parabolic Stop-And-Reverse: an extreme-point/acceleration-
// factor state machine matching pandas_ta's band-holding rules exactly.
// Bar 0 sets sar=close; bar 1 determines the initial direction from the
// first two bars' highs/lows; subsequent bars check direction continuity
// against the previous final bands, hold or reverse, and clamp on
// reversal. Grounded on stateful.py:IncrementalPSAR.
type PSAR struct {
	AfStep, AfMax float64

	count       int
	prevHigh, prevLow float64
	falling     bool
	sar         float64
	ep          float64
	af          float64
	reversed    bool
	ready       bool
}

func NewPSAR(afStep, afMax float64) *PSAR {
	return &PSAR{AfStep: afStep, AfMax: afMax, af: afStep}
}

func (p *PSAR) Update(in Input) {
	p.count++
	switch p.count {
	case 1:
		p.sar = in.Close
		p.prevHigh, p.prevLow = in.High, in.Low
		return
	case 2:
		p.falling = in.High < p.prevHigh
		if p.falling {
			p.sar = p.prevHigh
			p.ep = in.Low
		} else {
			p.sar = p.prevLow
			p.ep = in.High
		}
		p.af = p.AfStep
		p.ready = true
		p.prevHigh, p.prevLow = in.High, in.Low
		return
	}

	reversed := false
	newSAR := p.sar + p.af*(p.ep-p.sar)

	if p.falling {
		if newSAR < in.High {
			if in.High > p.prevHigh {
				newSAR = p.prevHigh
			}
		}
		if in.High >= newSAR {
			reversed = true
			newSAR = p.ep
			p.falling = false
			p.ep = in.High
			p.af = p.AfStep
		} else {
			if in.Low < p.ep {
				p.ep = in.Low
				p.af = math.Min(p.af+p.AfStep, p.AfMax)
			}
		}
	} else {
		if newSAR > in.Low {
			if in.Low < p.prevLow {
				newSAR = p.prevLow
			}
		}
		if in.Low <= newSAR {
			reversed = true
			newSAR = p.ep
			p.falling = true
			p.ep = in.Low
			p.af = p.AfStep
		} else {
			if in.High > p.ep {
				p.ep = in.High
				p.af = math.Min(p.af+p.AfStep, p.AfMax)
			}
		}
	}

	p.sar = newSAR
	p.reversed = reversed
	p.prevHigh, p.prevLow = in.High, in.Low
}

func (p *PSAR) Reset() { *p = *NewPSAR(p.AfStep, p.AfMax) }

func (p *PSAR) Value() (float64, bool) {
	if !p.ready {
		return missing()
	}
	return p.sar, true
}

func (p *PSAR) IsReady() bool { return p.ready }

func (p *PSAR) Output(name string) (float64, bool) {
	if !p.ready {
		return missing()
	}
	switch name {
	case "sar":
		return p.sar, true
	case "long":
		if !p.falling {
			return p.sar, true
		}
		return missing()
	case "short":
		if p.falling {
			return p.sar, true
		}
		return missing()
	case "af":
		return p.af, true
	case "reversal":
		if p.reversed {
			return 1, true
		}
		return 0, true
	}
	return missing()
}

func (p *PSAR) OutputNames() []string { return []string{"sar", "long", "short", "af", "reversal"} }

// Squeeze tracks the classic TTM-style squeeze on/off state by comparing
// Bollinger Bands width to Keltner Channel width, plus a momentum value
// that is the SMA of close over MomLength; no linreg momentum oscillator
// is computed. Grounded on
// stateful.py:IncrementalSqueeze.
type Squeeze struct {
	BBLength  int
	BBStdDev  float64
	KCLength  int
	KCMult    float64
	MomLength int

	bb      *BBands
	kc      *KC
	momSMA  *SMA
	prevSqz string
	sqz     string
	mom     float64
	ready   bool
}

func NewSqueeze(bbLength int, bbStdDev float64, kcLength int, kcMult float64, momLength int) *Squeeze {
	return &Squeeze{
		BBLength: bbLength, BBStdDev: bbStdDev, KCLength: kcLength, KCMult: kcMult, MomLength: momLength,
		bb: NewBBands(bbLength, bbStdDev), kc: NewKC(kcLength, kcMult), momSMA: NewSMA(momLength),
	}
}

func (s *Squeeze) Update(in Input) {
	s.bb.Update(in)
	s.kc.Update(in)

	bbUpper, bbOK := s.bb.Output("upper")
	bbLower, _ := s.bb.Output("lower")
	kcUpper, kcOK := s.kc.Output("upper")
	kcLower, _ := s.kc.Output("lower")
	if !bbOK || !kcOK {
		return
	}

	if bbLower > kcLower && bbUpper < kcUpper {
		s.sqz = "on"
	} else if bbLower < kcLower && bbUpper > kcUpper {
		s.sqz = "off"
	} else {
		s.sqz = "no_sqz"
	}

	s.momSMA.Update(in)
	if m, ok := s.momSMA.Value(); ok {
		s.mom = m
		s.ready = true
	}
}

func (s *Squeeze) Reset() { *s = *NewSqueeze(s.BBLength, s.BBStdDev, s.KCLength, s.KCMult, s.MomLength) }

func (s *Squeeze) Value() (float64, bool) {
	if !s.ready {
		return missing()
	}
	return s.mom, true
}

func (s *Squeeze) IsReady() bool { return s.ready }

// SqueezeState returns the enum-like state string ("on", "off", "no_sqz").
func (s *Squeeze) SqueezeState() (string, bool) {
	if !s.ready {
		return "", false
	}
	return s.sqz, true
}

// Fisher is the Fisher Transform: a hl2 rolling-buffer position formula,
// smoothed and clamped, fed through a recursive log-based recurrence.
// Signal is the fisher value shifted by SignalLength bars. Grounded on
// stateful.py:IncrementalFisher.
type Fisher struct {
	Length       int
	SignalLength int

	hl2Buf      []float64
	value       float64
	prevValue   float64
	fisher      float64
	prevFisher  float64
	history     []float64
	count       int
	ready       bool
}

func NewFisher(length, signalLength int) *Fisher {
	return &Fisher{Length: length, SignalLength: signalLength}
}

func (f *Fisher) Update(in Input) {
	hl2 := (in.High + in.Low) / 2.0
	f.hl2Buf = append(f.hl2Buf, hl2)
	if len(f.hl2Buf) > f.Length {
		f.hl2Buf = f.hl2Buf[1:]
	}
	f.count++
	if len(f.hl2Buf) < f.Length {
		return
	}

	lo, hi := f.hl2Buf[0], f.hl2Buf[0]
	for _, v := range f.hl2Buf {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	pos := 0.0
	if hi != lo {
		pos = (hl2 - lo) / (hi - lo)
	}
	raw := 2.0*pos - 1.0
	smoothed := 0.33*raw + 0.67*f.prevValue
	if smoothed > 0.999 {
		smoothed = 0.999
	}
	if smoothed < -0.999 {
		smoothed = -0.999
	}
	f.prevValue = smoothed

	if !f.ready {
		f.fisher = 0
	} else {
		f.fisher = 0.5*math.Log((1+smoothed)/(1-smoothed)) + 0.5*f.prevFisher
	}
	f.prevFisher = f.fisher
	f.ready = true

	f.history = append(f.history, f.fisher)
	if len(f.history) > f.SignalLength+1 {
		f.history = f.history[1:]
	}
}

func (f *Fisher) Reset() { *f = *NewFisher(f.Length, f.SignalLength) }

func (f *Fisher) Value() (float64, bool) {
	if !f.ready {
		return missing()
	}
	return f.fisher, true
}

func (f *Fisher) IsReady() bool { return f.ready }

func (f *Fisher) Output(name string) (float64, bool) {
	if name == "signal" {
		if len(f.history) <= f.SignalLength {
			return missing()
		}
		return f.history[len(f.history)-1-f.SignalLength], true
	}
	return f.Value()
}

func (f *Fisher) OutputNames() []string { return []string{"fisher", "signal"} }
