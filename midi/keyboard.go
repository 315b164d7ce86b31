// Package midi lets a MIDI keyboard stand in for the microphone. Key
// presses are turned into the same results the audio detectors produce.
package midi

import (
	"context"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"go-practice/detector"
	"go-practice/pitch"
)

// Keyboard listens to a MIDI port and reports key presses as detector
// results. Every note-on is an onset; a chord counts once all its targets
// are held down. Methods other than the port callback are called from a
// single goroutine.
type Keyboard struct {
	port  Port
	log   *zap.SugaredLogger
	queue *detector.Queue
	cfg   detector.Config
	now   func() time.Time
	stop  func()

	holdUntil time.Time

	mu       sync.Mutex
	kind     detector.Kind
	targets  map[string]struct{}
	held     map[string]struct{}
	velocity uint8
}

func NewKeyboard(port Port, cfg detector.Config, log *zap.SugaredLogger) *Keyboard {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = detector.DefaultConfig().QueueSize
	}
	return &Keyboard{
		port:  port,
		log:   log.Named("keyboard"),
		queue: detector.NewQueue(cfg.QueueSize),
		cfg:   cfg,
		now:   time.Now,
	}
}

// SelectAndStart starts listening for targets. A rest listens to nothing.
func (k *Keyboard) SelectAndStart(ctx context.Context, targets []string) error {
	k.StopAll()

	kind := detector.KindFor(len(targets))
	if kind == detector.None {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if name, err := pitch.Normalize(t); err == nil {
			set[name] = struct{}{}
		}
	}

	k.mu.Lock()
	k.kind = kind
	k.targets = set
	k.held = make(map[string]struct{})
	k.velocity = 0
	k.mu.Unlock()

	stop, err := k.port.Listen(k.handle)
	if err != nil {
		k.mu.Lock()
		k.kind = detector.None
		k.mu.Unlock()
		k.log.Warnf("listening on %s: %v", k.port.Name(), err)
		return fmt.Errorf("keyboard %s: %w", k.port.Name(), err)
	}
	k.stop = stop
	k.log.Debugf("active %s for %v", kind, targets)
	return nil
}

// handle runs on the driver's goroutine
func (k *Keyboard) handle(msg gomidi.Message) {
	var channel, key, velocity uint8

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.kind == detector.None {
		return
	}

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
		name := pitch.FromMIDI(key)
		k.held[name] = struct{}{}
		k.velocity = velocity
		if k.kind == detector.Single {
			k.offer(detector.Result{Kind: detector.Single, Note: name, At: k.now()})
			return
		}
		k.offerChord()

	case msg.GetNoteOff(&channel, &key, &velocity), msg.GetNoteOn(&channel, &key, &velocity):
		delete(k.held, pitch.FromMIDI(key))
		if len(k.held) == 0 {
			k.velocity = 0
		}
		if k.kind == detector.ChordKind {
			k.offerChord()
		}
	}
}

func (k *Keyboard) offerChord() {
	found, all := detector.MatchTargets(k.targets, k.held)
	k.offer(detector.Result{Kind: detector.ChordKind, Found: found, Confirmed: all, At: k.now()})
}

// offer must not block the driver; a full queue drops
func (k *Keyboard) offer(r detector.Result) {
	if !k.queue.Offer(r, nil, 0) {
		k.log.Debugf("queue full, dropped %s result", r.Kind)
	}
}

// Poll returns at most one result without blocking, nothing while cooling down
func (k *Keyboard) Poll(now time.Time) (detector.Result, bool) {
	if now.Before(k.holdUntil) || k.Active() == detector.None {
		return detector.Result{}, false
	}
	return k.queue.Poll()
}

// StopAll stops listening and drops anything not yet polled
func (k *Keyboard) StopAll() {
	k.mu.Lock()
	k.kind = detector.None
	k.held = nil
	k.velocity = 0
	k.mu.Unlock()

	if k.stop != nil {
		k.stop()
		k.stop = nil
	}
	k.queue.Drain()
}

func (k *Keyboard) CoolDown(now time.Time) {
	k.holdUntil = now.Add(k.cfg.PostSuccessCooldown)
}

func (k *Keyboard) Active() detector.Kind {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kind
}

// Level maps the last key velocity onto the 16-bit sample scale
func (k *Keyboard) Level() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return float64(k.velocity) / 127 * 32767
}

// Configure keeps the cooldown; the audio tunables do not apply here
func (k *Keyboard) Configure(cfg detector.Config) {
	k.StopAll()
	k.cfg.PostSuccessCooldown = cfg.PostSuccessCooldown
}
