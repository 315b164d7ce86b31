// Package audio is the capture side of the practice pipeline: something
// that can be opened at a fixed frame size and read one frame at a time.
package audio

import (
	"context"
	"errors"
)

var (
	ErrNoDevice    = errors.New("no audio input device")
	ErrOpenTimeout = errors.New("timed out opening audio input")
	ErrClosed      = errors.New("audio stream closed")
)

// Input opens capture streams. Only one stream per device may be open at a time.
type Input interface {
	// Open starts capturing mono frames of frameSize samples. It must
	// fail fast rather than block on a stuck device.
	Open(ctx context.Context, frameSize int) (Stream, error)
}

// Stream is an open capture stream
type Stream interface {
	// Read blocks until n samples are available. Samples are on a 16-bit
	// scale (-32768..32767) regardless of the device format.
	Read(n int) ([]float64, error)

	// Close stops capture and releases the device
	Close() error
}

// openResult carries the outcome of an open attempt across a goroutine
type openResult struct {
	stream Stream
	err    error
}

// openWithTimeout runs open on its own goroutine so a hung driver cannot
// stall the caller. A stream that arrives after the caller gave up is closed.
func openWithTimeout(ctx context.Context, timeout <-chan struct{}, open func() (Stream, error)) (Stream, error) {
	ch := make(chan openResult, 1)
	go func() {
		s, err := open()
		ch <- openResult{stream: s, err: err}
	}()

	abandon := func() {
		go func() {
			if r := <-ch; r.stream != nil {
				r.stream.Close()
			}
		}()
	}

	select {
	case r := <-ch:
		return r.stream, r.err
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	case <-timeout:
		abandon()
		return nil, ErrOpenTimeout
	}
}
