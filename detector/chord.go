package detector

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"go-practice/audio"
	"go-practice/dsp"
	"go-practice/pitch"
)

// Chord reports whether every target pitch is sounding at once. A frame is
// correct when the targets are a subset of the pitches found at spectral
// peaks; the chord is confirmed after ConfirmationSize correct frames in a
// row. Every analysed frame is published so the display can show which
// notes are already there.
type Chord struct {
	cfg      ChordConfig
	spectrum *dsp.Spectrum
	queue    *Queue
	w        *worker
	log      *zap.SugaredLogger

	mu      sync.Mutex // guards targets and buffer
	targets map[string]struct{}
	buffer  *ConfirmationBuffer

	level       atomic.Uint64
	sendTimeout time.Duration
}

// NewChord creates a stopped detector publishing to queue
func NewChord(input audio.Input, cfg ChordConfig, queue *Queue, log *zap.SugaredLogger) *Chord {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	d := &Chord{
		queue:       queue,
		log:         log.Named("chord"),
		targets:     map[string]struct{}{},
		sendTimeout: DefaultConfig().SendTimeout,
	}
	d.w = newWorker("chord", input, queue, d.log)
	d.Configure(cfg)
	return d
}

// Configure replaces the tunables and clears confirmation progress. Call only while stopped.
func (d *Chord) Configure(cfg ChordConfig) {
	cfg = Config{Chord: cfg}.normalized().Chord
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.spectrum = dsp.NewSpectrum(cfg.FrameSize, cfg.SampleRate)
	d.buffer = NewConfirmationBuffer(cfg.ConfirmationSize)
}

func (d *Chord) Config() ChordConfig { return d.cfg }

// SetTargets replaces the target pitches. Confirmation progress from the
// previous target never carries over.
func (d *Chord) SetTargets(notes []string) {
	targets := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		if norm, err := pitch.Normalize(n); err == nil {
			targets[norm] = struct{}{}
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.targets = targets
	d.buffer.Clear()
	d.log.Debugf("targets %v", sortedKeys(targets))
}

// Targets returns the current targets, sorted by name
func (d *Chord) Targets() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedKeys(d.targets)
}

func (d *Chord) Level() float64 {
	return math.Float64frombits(d.level.Load())
}

// Start opens the input and begins detecting in the background
func (d *Chord) Start(ctx context.Context) error {
	if d.w.Running() {
		return nil
	}
	return d.w.start(ctx, d.cfg.FrameSize, d.sendTimeout, d.step)
}

// Stop halts the worker, waiting at most timeout for the input to close
func (d *Chord) Stop(timeout time.Duration) bool {
	return d.w.halt(timeout)
}

func (d *Chord) Running() bool { return d.w.Running() }

func (d *Chord) step(frame []float64, readErr error, now time.Time) (Result, bool) {
	var r Result
	if readErr != nil {
		r = d.Miss()
	} else {
		r = d.Process(frame)
	}
	r.At = now
	return r, true
}

// Detect returns the pitches at spectral peaks in frame. ok is false when
// the frame is below the volume floor and no spectral work was done.
func (d *Chord) Detect(frame []float64) (map[string]struct{}, bool) {
	rms := dsp.RMS(frame)
	d.level.Store(math.Float64bits(rms))
	if rms < d.cfg.VolumeFloor {
		return nil, false
	}

	mags := d.spectrum.Magnitudes(frame)
	detected := make(map[string]struct{})
	for _, i := range dsp.FindPeaks(mags, d.cfg.PeakHeight, d.cfg.PeakProminence) {
		// peaks below the audible floor have no name and are dropped
		if name, ok := pitch.FromFrequency(d.spectrum.Frequency(i)); ok {
			detected[name] = struct{}{}
		}
	}
	return detected, true
}

// Process analyses one frame and advances the confirmation buffer
func (d *Chord) Process(frame []float64) Result {
	detected, loud := d.Detect(frame)

	d.mu.Lock()
	defer d.mu.Unlock()

	found, correct := MatchTargets(d.targets, detected)
	if !loud {
		correct = false
	}
	confirmed := d.buffer.Push(correct)
	if confirmed {
		d.log.Debugf("confirmed %v", sortedKeys(d.targets))
	}
	return Result{Kind: ChordKind, Found: found, Confirmed: confirmed, Streak: d.buffer.Streak()}
}

// Miss records a frame that could not be read as an incorrect one
func (d *Chord) Miss() Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	found, _ := MatchTargets(d.targets, nil)
	d.buffer.Push(false)
	return Result{Kind: ChordKind, Found: found, Confirmed: false}
}

// MatchTargets builds a fresh found map for targets and reports whether
// every target is in detected. An empty target set never matches.
func MatchTargets(targets, detected map[string]struct{}) (map[string]bool, bool) {
	found := make(map[string]bool, len(targets))
	all := len(targets) > 0
	for t := range targets {
		_, ok := detected[t]
		found[t] = ok
		all = all && ok
	}
	return found, all
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
