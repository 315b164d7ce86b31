// Package score holds the piece being practised as an ordered list of
// moments, each with the notes, chords and rests that begin there.
package score

import (
	"errors"
	"fmt"
	"sort"

	"go-practice/pitch"
)

var ErrOffsetOrder = errors.New("moment offsets must be strictly increasing")

// Staff is the stave an event is written on
type Staff int

const (
	Treble Staff = iota
	Bass
)

func (s Staff) String() string {
	if s == Bass {
		return "bass"
	}
	return "treble"
}

// Event is a Note, Chord or Rest
type Event interface {
	// Pitches returns the pitch names the event asks for (none for a rest)
	Pitches() []string
	isEvent()
}

// Note is a single pitch
type Note struct {
	Pitch    string  // e.g. "F#4"
	Duration float64 // quarter notes
	Staff    Staff
}

// Chord is several pitches struck together on one staff
type Chord struct {
	Notes    []Note
	Duration float64
	Staff    Staff
}

// Rest is a silence
type Rest struct {
	Duration float64
	Staff    Staff
}

func (n Note) Pitches() []string { return []string{n.Pitch} }
func (r Rest) Pitches() []string { return nil }

func (c Chord) Pitches() []string {
	out := make([]string, len(c.Notes))
	for i, n := range c.Notes {
		out[i] = n.Pitch
	}
	return out
}

func (Note) isEvent()  {}
func (Chord) isEvent() {}
func (Rest) isEvent()  {}

// Moment is every event that starts at one offset
type Moment struct {
	Events []Event
	Offset float64 // quarter notes from the start
}

// Score is a loaded piece. It is not modified after New returns.
type Score struct {
	Title   string
	moments []Moment
}

// New validates moments and returns a score. Pitch names are rewritten in
// the sharp spelling the detectors produce.
func New(title string, moments []Moment) (*Score, error) {
	out := make([]Moment, len(moments))
	for i, m := range moments {
		if i > 0 && m.Offset <= moments[i-1].Offset {
			return nil, fmt.Errorf("%w: moment %d at %v follows %v", ErrOffsetOrder, i, m.Offset, moments[i-1].Offset)
		}
		events := make([]Event, len(m.Events))
		for j, e := range m.Events {
			ne, err := normalizeEvent(e)
			if err != nil {
				return nil, fmt.Errorf("moment %d: %w", i, err)
			}
			events[j] = ne
		}
		out[i] = Moment{Events: events, Offset: m.Offset}
	}
	return &Score{Title: title, moments: out}, nil
}

func normalizeEvent(e Event) (Event, error) {
	switch ev := e.(type) {
	case Note:
		p, err := pitch.Normalize(ev.Pitch)
		if err != nil {
			return nil, err
		}
		ev.Pitch = p
		return ev, nil
	case Chord:
		notes := make([]Note, len(ev.Notes))
		for i, n := range ev.Notes {
			p, err := pitch.Normalize(n.Pitch)
			if err != nil {
				return nil, err
			}
			n.Pitch = p
			notes[i] = n
		}
		ev.Notes = notes
		return ev, nil
	case Rest:
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event %T", e)
	}
}

// Len returns the number of moments
func (s *Score) Len() int {
	if s == nil {
		return 0
	}
	return len(s.moments)
}

// Moment returns moment i
func (s *Score) Moment(i int) (Moment, bool) {
	if i < 0 || i >= s.Len() {
		return Moment{}, false
	}
	m := s.moments[i]
	return Moment{Events: append([]Event(nil), m.Events...), Offset: m.Offset}, true
}

// TargetNotes returns the sorted distinct pitches asked for at moment i.
// A rest, an empty moment or an index out of range gives none.
func (s *Score) TargetNotes(i int) []string {
	if i < 0 || i >= s.Len() {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range s.moments[i].Events {
		for _, p := range e.Pitches() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return lessPitch(out[a], out[b])
	})
	return out
}

// lessPitch orders by pitch height, falling back to name order
func lessPitch(a, b string) bool {
	na, errA := pitch.Parse(a)
	nb, errB := pitch.Parse(b)
	if errA != nil || errB != nil || na == nb {
		return a < b
	}
	return na < nb
}

// Builder collects events by offset and produces moments in time order
type Builder struct {
	title    string
	byOffset map[float64][]Event
}

func NewBuilder(title string) *Builder {
	return &Builder{title: title, byOffset: make(map[float64][]Event)}
}

// Add places e at offset
func (b *Builder) Add(offset float64, e Event) {
	b.byOffset[offset] = append(b.byOffset[offset], e)
}

// Build sorts the collected offsets and validates the result
func (b *Builder) Build() (*Score, error) {
	offsets := make([]float64, 0, len(b.byOffset))
	for o := range b.byOffset {
		offsets = append(offsets, o)
	}
	sort.Float64s(offsets)

	moments := make([]Moment, len(offsets))
	for i, o := range offsets {
		moments[i] = Moment{Events: b.byOffset[o], Offset: o}
	}
	return New(b.title, moments)
}
