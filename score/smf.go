package score

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"

	"go-practice/pitch"
)

// keys below middle C are written on the bass staff
const splitKey = 60

var (
	ErrUnknownFormat = errors.New("unknown score format")
	ErrNoNotes       = errors.New("no notes in file")
)

type heldNote struct {
	key        uint8
	start, end int64
}

// LoadMIDI reads a standard MIDI file. The title is the first track name,
// or the file name when no track is named.
func LoadMIDI(path string) (*Score, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	return ReadMIDI(bytes.NewReader(dat), baseName(path))
}

// ReadMIDI parses a standard MIDI file from r. Every distinct onset tick
// becomes a moment; gaps where no key is held become rests.
func ReadMIDI(r io.Reader, fallbackTitle string) (s *Score, err error) {
	// smf panics on some malformed files
	defer func() {
		if rec := recover(); rec != nil {
			s, err = nil, fmt.Errorf("parsing midi file: %v", rec)
		}
	}()

	mf, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}

	resolution := 480.0
	if mt, ok := mf.TimeFormat.(smf.MetricTicks); ok && mt > 0 {
		resolution = float64(mt)
	}

	title := fallbackTitle
	named := false
	var notes []heldNote

	for _, track := range mf.Tracks {
		var abs int64
		open := make(map[uint8][]int64)
		for _, ev := range track {
			abs += int64(ev.Delta)
			var channel, key, velocity uint8
			var text string
			switch {
			case !named && ev.Message.GetMetaTrackName(&text) && strings.TrimSpace(text) != "":
				title = strings.TrimSpace(text)
				named = true
			case ev.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				open[key] = append(open[key], abs)
			case ev.Message.GetNoteOn(&channel, &key, &velocity), ev.Message.GetNoteOff(&channel, &key, &velocity):
				starts := open[key]
				if len(starts) == 0 {
					continue
				}
				notes = append(notes, heldNote{key: key, start: starts[0], end: abs})
				open[key] = starts[1:]
			}
		}
		// notes never released end with their track
		for key, starts := range open {
			for _, st := range starts {
				notes = append(notes, heldNote{key: key, start: st, end: abs})
			}
		}
	}
	if len(notes) == 0 {
		return nil, ErrNoNotes
	}

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].start != notes[j].start {
			return notes[i].start < notes[j].start
		}
		return notes[i].key < notes[j].key
	})

	quarters := func(ticks int64) float64 { return float64(ticks) / resolution }

	b := NewBuilder(title)
	var covered int64
	lastOnset := int64(-1)
	for i := 0; i < len(notes); {
		start := notes[i].start
		// a zero-length note leaves covered on its own onset; no rest there
		if start > covered && covered != lastOnset {
			b.Add(quarters(covered), Rest{Duration: quarters(start - covered), Staff: Treble})
		}

		lastOnset = start
		var treble, bass []heldNote
		for ; i < len(notes) && notes[i].start == start; i++ {
			n := notes[i]
			if n.end > covered {
				covered = n.end
			}
			if n.key < splitKey {
				bass = append(bass, n)
			} else {
				treble = append(treble, n)
			}
		}
		for _, group := range []struct {
			notes []heldNote
			staff Staff
		}{{treble, Treble}, {bass, Bass}} {
			if ev := groupEvent(group.notes, group.staff, quarters); ev != nil {
				b.Add(quarters(start), ev)
			}
		}
	}
	return b.Build()
}

// groupEvent turns the keys struck together on one staff into a Note or Chord
func groupEvent(notes []heldNote, staff Staff, quarters func(int64) float64) Event {
	switch len(notes) {
	case 0:
		return nil
	case 1:
		n := notes[0]
		return Note{Pitch: pitch.FromMIDI(n.key), Duration: quarters(n.end - n.start), Staff: staff}
	}
	c := Chord{Staff: staff}
	for _, n := range notes {
		d := quarters(n.end - n.start)
		if d > c.Duration {
			c.Duration = d
		}
		c.Notes = append(c.Notes, Note{Pitch: pitch.FromMIDI(n.key), Duration: d, Staff: staff})
	}
	return c
}

// Load picks a loader by file extension
func Load(path string) (*Score, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi", ".smf":
		return LoadMIDI(path)
	case ".json":
		return LoadJSON(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
