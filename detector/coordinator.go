package detector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-practice/audio"
)

// Coordinator owns the two detectors and decides which one runs. At most
// one holds the input at a time. All methods are meant to be called from a
// single goroutine (the UI tick); only the queues cross to the workers.
type Coordinator struct {
	cfg     Config
	log     *zap.SugaredLogger
	single  *SinglePitch
	chord   *Chord
	singleQ *Queue
	chordQ  *Queue

	active    Kind
	holdUntil time.Time
}

// NewCoordinator builds both detectors over input. Nothing is started.
func NewCoordinator(input audio.Input, cfg Config, log *zap.SugaredLogger) *Coordinator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	cfg = cfg.normalized()
	c := &Coordinator{
		cfg:     cfg,
		log:     log.Named("coordinator"),
		singleQ: NewQueue(cfg.QueueSize),
		chordQ:  NewQueue(cfg.QueueSize),
	}
	c.single = NewSinglePitch(input, cfg.Single, c.singleQ, log)
	c.chord = NewChord(input, cfg.Chord, c.chordQ, log)
	c.single.sendTimeout = cfg.SendTimeout
	c.chord.sendTimeout = cfg.SendTimeout
	return c
}

// SelectAndStart stops whatever is running and starts the detector that
// fits targets: none for a rest, SinglePitch for one note, Chord for more.
// A device error is returned once and leaves nothing running. When a
// previous detector did not let go of the input within JoinTimeout the
// device is not opened again and the error wraps ErrDeviceBusy.
func (c *Coordinator) SelectAndStart(ctx context.Context, targets []string) error {
	released := c.stopAll()

	kind := KindFor(len(targets))
	if kind != None && !released {
		err := fmt.Errorf("starting %s detector: %w", kind, ErrDeviceBusy)
		c.log.Warn(err)
		return err
	}
	var err error
	switch kind {
	case Single:
		err = c.single.Start(ctx)
	case ChordKind:
		c.chord.SetTargets(targets)
		err = c.chord.Start(ctx)
	}
	if err != nil {
		c.log.Warnf("starting %s detector: %v", kind, err)
		c.active = None
		return err
	}
	c.active = kind
	c.log.Debugf("active %s for %v", kind, targets)
	return nil
}

// Poll returns at most one result from the active detector without
// blocking. Nothing is returned during the post-success cooldown.
func (c *Coordinator) Poll(now time.Time) (Result, bool) {
	if c.CoolingDown(now) {
		return Result{}, false
	}
	switch c.active {
	case Single:
		return c.singleQ.Poll()
	case ChordKind:
		return c.chordQ.Poll()
	}
	return Result{}, false
}

// StopAll stops both detectors and empties both queues. Safe to call repeatedly.
func (c *Coordinator) StopAll() {
	c.stopAll()
}

// stopAll is StopAll reporting whether both workers released the input in time
func (c *Coordinator) stopAll() bool {
	single := c.single.Stop(c.cfg.JoinTimeout)
	chord := c.chord.Stop(c.cfg.JoinTimeout)
	// anything a worker sent before it noticed the stop is stale now
	if n := c.singleQ.Drain() + c.chordQ.Drain(); n > 0 {
		c.log.Debugf("drained %d stale results", n)
	}
	c.active = None
	return single && chord
}

// CoolDown starts the post-success cooldown at now
func (c *Coordinator) CoolDown(now time.Time) {
	c.holdUntil = now.Add(c.cfg.PostSuccessCooldown)
}

// CoolingDown reports whether polling is suppressed at now
func (c *Coordinator) CoolingDown(now time.Time) bool {
	return now.Before(c.holdUntil)
}

// Active is the detector currently running
func (c *Coordinator) Active() Kind {
	return c.active
}

// Level is the input level seen by the active detector
func (c *Coordinator) Level() float64 {
	switch c.active {
	case Single:
		return c.single.Level()
	case ChordKind:
		return c.chord.Level()
	}
	return 0
}

// Config returns the tunables in use
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Configure stops both detectors and applies new tunables. The caller
// restarts detection with SelectAndStart.
func (c *Coordinator) Configure(cfg Config) {
	c.StopAll()
	cfg = cfg.normalized()
	if cfg.QueueSize != c.cfg.QueueSize {
		// workers are stopped, so the queues can be swapped
		c.singleQ, c.chordQ = NewQueue(cfg.QueueSize), NewQueue(cfg.QueueSize)
		c.single.queue, c.single.w.queue = c.singleQ, c.singleQ
		c.chord.queue, c.chord.w.queue = c.chordQ, c.chordQ
	}
	c.cfg = cfg
	c.single.Configure(cfg.Single)
	c.chord.Configure(cfg.Chord)
	c.single.sendTimeout = cfg.SendTimeout
	c.chord.sendTimeout = cfg.SendTimeout
	c.log.Debugf("reconfigured: %+v", cfg)
}
