package detector

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"go-practice/audio"
	"go-practice/dsp"
	"go-practice/pitch"
)

// SinglePitch reports clearly articulated, sustained single notes. Each
// frame goes through a volume gate, attack rejection after an onset, YIN
// estimation, a stability vote and a cooldown before a note is emitted.
type SinglePitch struct {
	cfg    SingleConfig
	yin    *dsp.YIN
	window *Window[string]
	queue  *Queue
	w      *worker
	log    *zap.SugaredLogger

	aboveGate bool
	attack    int       // frames left to ignore after the last onset
	emitted   string    // note already reported for the current onset
	lastEmit  time.Time // zero until the first emission
	heard     float64   // median frequency of the last voiced frame

	level       atomic.Uint64 // float64 bits of the last frame's RMS
	sendTimeout time.Duration
}

// NewSinglePitch creates a stopped detector publishing to queue
func NewSinglePitch(input audio.Input, cfg SingleConfig, queue *Queue, log *zap.SugaredLogger) *SinglePitch {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	d := &SinglePitch{queue: queue, log: log.Named("single"), sendTimeout: DefaultConfig().SendTimeout}
	d.w = newWorker("single", input, queue, d.log)
	d.Configure(cfg)
	return d
}

// Configure replaces the tunables and resets all state. Call only while stopped.
func (d *SinglePitch) Configure(cfg SingleConfig) {
	cfg = Config{Single: cfg}.normalized().Single
	d.cfg = cfg
	d.yin = dsp.NewYIN(cfg.SampleRate, cfg.MinFrequency, cfg.MaxFrequency, cfg.YINWindow, cfg.YINHop)
	if d.window == nil {
		d.window = NewWindow[string](cfg.StabilityWindow)
	} else {
		d.window.Resize(cfg.StabilityWindow)
	}
	d.Reset()
}

func (d *SinglePitch) Config() SingleConfig { return d.cfg }

// Reset forgets the onset, vote and cooldown state
func (d *SinglePitch) Reset() {
	d.window.Clear()
	d.aboveGate = false
	d.attack = 0
	d.emitted = ""
	d.lastEmit = time.Time{}
	d.heard = 0
	d.level.Store(0)
}

// Level is the RMS of the most recent frame. Safe to call while running.
func (d *SinglePitch) Level() float64 {
	return math.Float64frombits(d.level.Load())
}

// Start opens the input and begins detecting in the background
func (d *SinglePitch) Start(ctx context.Context) error {
	if d.w.Running() {
		return nil
	}
	d.Reset()
	return d.w.start(ctx, d.cfg.FrameSize, d.sendTimeout, d.step)
}

// Stop halts the worker, waiting at most timeout for the input to close
func (d *SinglePitch) Stop(timeout time.Duration) bool {
	return d.w.halt(timeout)
}

func (d *SinglePitch) Running() bool { return d.w.Running() }

func (d *SinglePitch) step(frame []float64, readErr error, now time.Time) (Result, bool) {
	if readErr != nil {
		// a failed read is a frame with no pitch
		return Result{}, false
	}
	note, ok := d.Process(frame, now)
	if !ok {
		return Result{}, false
	}
	r := Result{Kind: Single, Note: note, At: now}
	// the vote may have settled on a note other than this frame's
	if n, _ := pitch.FromFrequency(d.heard); n == note {
		r.Frequency = d.heard
	}
	return r, true
}

// Process analyses one frame and returns a note when one should be emitted
func (d *SinglePitch) Process(frame []float64, now time.Time) (string, bool) {
	rms := dsp.RMS(frame)
	d.level.Store(math.Float64bits(rms))

	if rms < d.cfg.VolumeThreshold {
		d.aboveGate = false
		d.attack = 0
		d.emitted = ""
		d.window.Clear()
		return "", false
	}
	if !d.aboveGate {
		// rising edge: a new onset
		d.aboveGate = true
		d.attack = d.cfg.AttackFrames
		d.emitted = ""
		d.window.Clear()
	}
	if d.attack > 0 {
		d.attack--
		return "", false
	}

	note, ok := d.estimate(frame)
	if !ok {
		d.window.Clear()
		return "", false
	}
	d.window.Push(note)

	stable, votes := d.window.Mode()
	if votes < d.cfg.Quorum || stable == d.emitted {
		return "", false
	}
	if !d.lastEmit.IsZero() && now.Sub(d.lastEmit) < d.cfg.Cooldown {
		return "", false
	}
	d.emitted = stable
	d.lastEmit = now
	d.log.Debugf("emit %s (%d/%d votes, rms %.0f)", stable, votes, d.window.Len(), rms)
	return stable, true
}

// estimate names the median of the confidently voiced candidates
func (d *SinglePitch) estimate(frame []float64) (string, bool) {
	var freqs []float64
	for _, c := range d.yin.Candidates(frame) {
		if c.Confidence >= d.cfg.Confidence {
			freqs = append(freqs, c.Frequency)
		}
	}
	f, ok := dsp.Median(freqs)
	if !ok {
		return "", false
	}
	d.heard = f
	return pitch.FromFrequency(f)
}
