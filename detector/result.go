// Package detector turns microphone frames into practice events. A
// SinglePitch detector reports sustained single notes; a Chord detector
// reports whether every target pitch is sounding. The Coordinator owns
// whichever one is running and is the only thing the rest of the program
// talks to.
package detector

import (
	"time"
)

// Kind tags which detector a result came from, or which one is active
type Kind int

const (
	None Kind = iota
	Single
	ChordKind
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case ChordKind:
		return "chord"
	}
	return "none"
}

// KindFor picks the detector for a target set of the given size
func KindFor(targets int) Kind {
	switch {
	case targets == 1:
		return Single
	case targets >= 2:
		return ChordKind
	}
	return None
}

// Result is one message from a detector worker
type Result struct {
	Kind Kind

	// Single: the stable note that was heard, and its measured frequency
	// when the emitting frame was on that note (0 otherwise)
	Note      string
	Frequency float64

	// Chord: presence of each target pitch this frame, and whether the
	// chord has been held long enough to count
	Found     map[string]bool
	Confirmed bool
	Streak    int // correct frames in a row so far

	At time.Time
}

// Queue carries results from one detector worker to the poller. There is
// exactly one producer and one consumer.
type Queue struct {
	ch chan Result
}

// NewQueue creates a queue holding up to capacity results
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan Result, capacity)}
}

// Offer blocks until r is queued, stop is closed or timeout passes
func (q *Queue) Offer(r Result, stop <-chan struct{}, timeout time.Duration) bool {
	// fast path
	select {
	case q.ch <- r:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- r:
		return true
	case <-stop:
		return false
	case <-timer.C:
		return false
	}
}

// Poll returns the oldest queued result without blocking
func (q *Queue) Poll() (Result, bool) {
	select {
	case r := <-q.ch:
		return r, true
	default:
		return Result{}, false
	}
}

// Drain discards everything queued and returns how many were dropped
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

// Len is the number of queued results
func (q *Queue) Len() int {
	return len(q.ch)
}
