package dsp

// FindPeaks returns the indices of local maxima in x that are at least
// height tall and whose prominence is at least prominence. Flat-topped
// peaks report their middle sample; the first and last samples are never
// peaks.
func FindPeaks(x []float64, height, prominence float64) []int {
	var peaks []int
	for _, p := range LocalMaxima(x) {
		if x[p] < height {
			continue
		}
		if Prominence(x, p) < prominence {
			continue
		}
		peaks = append(peaks, p)
	}
	return peaks
}

// LocalMaxima returns every sample strictly greater than its neighbours,
// treating a plateau as one maximum at its middle.
func LocalMaxima(x []float64) []int {
	var peaks []int
	last := len(x) - 1
	i := 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return peaks
}

// Prominence measures how far peak p rises above the higher of the two
// lowest points reachable on either side before meeting a taller sample.
func Prominence(x []float64, p int) float64 {
	top := x[p]

	leftMin := top
	for i := p; i >= 0 && x[i] <= top; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
		}
	}

	rightMin := top
	for i := p; i < len(x) && x[i] <= top; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
		}
	}

	return top - max(leftMin, rightMin)
}
