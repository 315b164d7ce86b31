package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Spectrum computes Hann-windowed magnitude spectra of fixed-size frames.
// A Spectrum reuses its buffers and is not safe for concurrent use.
type Spectrum struct {
	size       int
	sampleRate float64
	fft        *fourier.FFT
	window     []float64
	buf        []float64
	coeff      []complex128
	mags       []float64
}

// NewSpectrum prepares a transform for frames of size samples
func NewSpectrum(size int, sampleRate float64) *Spectrum {
	return &Spectrum{
		size:       size,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(size),
		window:     window.Hann(size),
		buf:        make([]float64, size),
		coeff:      make([]complex128, size/2+1),
		mags:       make([]float64, size/2+1),
	}
}

// Magnitudes windows the frame and returns |rfft|. Short frames are
// zero-padded and long ones truncated. The returned slice is reused by
// the next call.
func (s *Spectrum) Magnitudes(frame []float64) []float64 {
	if len(frame) >= s.size {
		floats.MulTo(s.buf, frame[:s.size], s.window)
	} else {
		for i := range s.buf {
			s.buf[i] = 0
		}
		floats.MulTo(s.buf[:len(frame)], frame, s.window[:len(frame)])
	}

	s.coeff = s.fft.Coefficients(s.coeff, s.buf)
	for i, c := range s.coeff {
		s.mags[i] = cmplx.Abs(c)
	}
	return s.mags
}

// Frequency returns the center frequency of bin i in Hz
func (s *Spectrum) Frequency(bin int) float64 {
	return s.fft.Freq(bin) * s.sampleRate
}
