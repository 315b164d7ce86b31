package audio

import (
	"context"
	"math"
	"sync"
	"time"
)

// Tone renders n samples of equal-amplitude sines at the given frequencies
func Tone(sampleRate float64, n int, amp float64, freqs ...float64) []float64 {
	out := make([]float64, n)
	for _, f := range freqs {
		for i := range out {
			out[i] += amp * math.Sin(2*math.Pi*f*float64(i)/sampleRate)
		}
	}
	return out
}

// Generator is an Input that plays whatever frequencies it is told to,
// for running the pipeline without a microphone.
type Generator struct {
	SampleRate float64
	Amplitude  float64
	Realtime   bool // pace reads at the sample rate like a real device

	mu    sync.Mutex
	freqs []float64
}

// NewGenerator returns a silent generator
func NewGenerator(sampleRate, amp float64) *Generator {
	return &Generator{SampleRate: sampleRate, Amplitude: amp}
}

// Play sets the frequencies heard by every open stream; none means silence
func (g *Generator) Play(freqs ...float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.freqs = append([]float64(nil), freqs...)
}

func (g *Generator) playing() []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.freqs
}

func (g *Generator) Open(ctx context.Context, frameSize int) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &genStream{gen: g}, nil
}

type genStream struct {
	gen    *Generator
	mu     sync.Mutex
	closed bool
}

func (s *genStream) Read(n int) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.gen.Realtime {
		time.Sleep(time.Duration(float64(n) / s.gen.SampleRate * float64(time.Second)))
	}
	return Tone(s.gen.SampleRate, n, s.gen.Amplitude, s.gen.playing()...), nil
}

func (s *genStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
