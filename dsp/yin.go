package dsp

import "math"

// Candidate is one fundamental-frequency estimate
type Candidate struct {
	Frequency  float64 // Hz
	Confidence float64 // 1 - normalized difference at the chosen lag, 0..1
}

// YIN estimates the fundamental frequency of a frame with the YIN
// cumulative-mean-normalized difference method. A frame is split into
// Window-sized analysis windows every Hop samples; each window yields at
// most one candidate. The first dip below Threshold is taken; without one
// the lowest point of the curve is reported with its (low) confidence.
type YIN struct {
	SampleRate   float64
	MinFrequency float64 // lowest f0 searched
	MaxFrequency float64 // highest f0 searched
	Threshold    float64 // first dip below this wins over the global minimum
	Window       int     // integration window in samples
	Hop          int     // step between windows
}

// NewYIN returns an estimator with the usual 0.15 threshold
func NewYIN(sampleRate, minFreq, maxFreq float64, window, hop int) *YIN {
	return &YIN{
		SampleRate:   sampleRate,
		MinFrequency: minFreq,
		MaxFrequency: maxFreq,
		Threshold:    0.15,
		Window:       window,
		Hop:          hop,
	}
}

func (y *YIN) lags() (lo, hi int) {
	lo = int(math.Floor(y.SampleRate / y.MaxFrequency))
	if lo < 2 {
		lo = 2
	}
	// two lags of headroom so the parabola around the lowest pitch has a right neighbour
	hi = int(math.Ceil(y.SampleRate/y.MinFrequency)) + 2
	return lo, hi
}

// Span is the number of samples one analysis window consumes
func (y *YIN) Span() int {
	_, hi := y.lags()
	return y.Window + hi + 1
}

// Candidates runs the estimator over every window that fits in frame
func (y *YIN) Candidates(frame []float64) []Candidate {
	span := y.Span()
	hop := y.Hop
	if hop <= 0 {
		hop = y.Window
	}

	var out []Candidate
	for start := 0; start+span <= len(frame); start += hop {
		if c, ok := y.Estimate(frame[start : start+span]); ok {
			out = append(out, c)
		}
	}
	return out
}

// Estimate analyses the first window of x. ok is false when x is too
// short, aperiodic (silence) or the best lag falls outside the range.
func (y *YIN) Estimate(x []float64) (Candidate, bool) {
	lo, hi := y.lags()
	w := y.Window
	if w <= 0 || len(x) < w+hi+1 {
		return Candidate{}, false
	}

	// difference function
	diff := make([]float64, hi+1)
	for tau := 1; tau <= hi; tau++ {
		var sum float64
		for j := 0; j < w; j++ {
			d := x[j] - x[j+tau]
			sum += d * d
		}
		diff[tau] = sum
	}

	// cumulative mean normalized difference
	cmnd := make([]float64, hi+1)
	cmnd[0] = 1
	var running float64
	for tau := 1; tau <= hi; tau++ {
		running += diff[tau]
		if running == 0 {
			cmnd[tau] = 1
			continue
		}
		cmnd[tau] = diff[tau] * float64(tau) / running
	}

	tau := -1
	for t := lo; t <= hi; t++ {
		if cmnd[t] < y.Threshold {
			for t+1 <= hi && cmnd[t+1] < cmnd[t] {
				t++
			}
			tau = t
			break
		}
	}
	if tau < 0 {
		// no dip under the threshold: best guess is the global minimum,
		// left to the caller's confidence gate
		tau = lo
		for t := lo + 1; t < hi; t++ {
			if cmnd[t] < cmnd[tau] {
				tau = t
			}
		}
		if cmnd[tau] >= 1 {
			return Candidate{}, false
		}
	}

	period := float64(tau)
	if tau > 1 && tau < hi {
		s0, s1, s2 := cmnd[tau-1], cmnd[tau], cmnd[tau+1]
		if den := s0 - 2*s1 + s2; den != 0 {
			period += (s0 - s2) / (2 * den)
		}
	}

	freq := y.SampleRate / period
	if freq < y.MinFrequency || freq > y.MaxFrequency {
		return Candidate{}, false
	}
	return Candidate{Frequency: freq, Confidence: clamp01(1 - cmnd[tau])}, true
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
