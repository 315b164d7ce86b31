package detector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"go-practice/audio"
	"go-practice/debug"
)

// ErrDeviceBusy means a stopped detector's loop has not yet closed the input
var ErrDeviceBusy = errors.New("input device busy")

// stepFunc analyses one frame (or a failed read) and says whether to publish
type stepFunc func(frame []float64, readErr error, now time.Time) (Result, bool)

// worker owns the input stream for one detector: it reads, analyses and
// publishes on its own goroutine until halted.
type worker struct {
	name    string
	input   audio.Input
	queue   *Queue
	log     *zap.SugaredLogger
	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	now     func() time.Time
}

// run is what one loop goroutine works with; a restarted worker gets a new one
type run struct {
	stream      audio.Stream
	frameSize   int
	sendTimeout time.Duration
	step        stepFunc
	stop        <-chan struct{}
	done        chan<- struct{}
}

func newWorker(name string, input audio.Input, queue *Queue, log *zap.SugaredLogger) *worker {
	return &worker{
		name:  name,
		input: input,
		queue: queue,
		log:   log,
		now:   time.Now,
	}
}

// start opens the input and launches the loop. Open failures are returned
// and the worker stays stopped.
func (w *worker) start(ctx context.Context, frameSize int, sendTimeout time.Duration, step stepFunc) error {
	if w.running.Load() {
		return nil
	}
	if !w.finished() {
		return fmt.Errorf("%s detector: %w", w.name, ErrDeviceBusy)
	}
	stream, err := w.input.Open(ctx, frameSize)
	if err != nil {
		return fmt.Errorf("%s detector: opening input: %w", w.name, err)
	}

	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.running.Store(true)

	go w.loop(run{
		stream:      stream,
		frameSize:   frameSize,
		sendTimeout: sendTimeout,
		step:        step,
		stop:        w.stop,
		done:        w.done,
	})
	w.log.Debugf("%s detector started (frame %d)", w.name, frameSize)
	return nil
}

func (w *worker) loop(r run) {
	defer close(r.done)
	defer func() {
		if err := r.stream.Close(); err != nil {
			w.log.Warnf("%s detector: closing input: %v", w.name, err)
		}
	}()

	readErrs := debug.NewEvery(50)
	drops := debug.NewEvery(50)

	for {
		select {
		case <-r.stop:
			return
		default:
		}
		frame, err := r.stream.Read(r.frameSize)
		if errors.Is(err, audio.ErrClosed) {
			w.running.CompareAndSwap(true, false)
			return
		}
		if err != nil && readErrs.Allow() {
			w.log.Debugf("%s detector: read failed (%d so far): %v", w.name, readErrs.Count(), err)
		}
		select {
		case <-r.stop:
			return
		default:
		}

		res, ok := r.step(frame, err, w.now())
		if !ok {
			continue
		}
		if !w.queue.Offer(res, r.stop, r.sendTimeout) {
			select {
			case <-r.stop:
				return
			default:
			}
			if drops.Allow() {
				w.log.Debugf("%s detector: queue full, dropped %d results", w.name, drops.Count())
			}
		}
	}
}

// halt clears the running flag and waits up to timeout for the loop to
// release the stream. It reports whether the loop finished in time.
// finished reports whether the last loop has exited and closed its stream
func (w *worker) finished() bool {
	if w.done == nil {
		return true
	}
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *worker) halt(timeout time.Duration) bool {
	if w.stop == nil {
		return true
	}
	w.running.Store(false)
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}

	select {
	case <-w.done:
		return true
	case <-time.After(timeout):
		w.log.Warnf("%s detector did not stop within %v", w.name, timeout)
		return false
	}
}

// Running reports whether the loop is active
func (w *worker) Running() bool {
	return w.running.Load()
}
