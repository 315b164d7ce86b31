package score

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// File is the JSON exercise format:
//
//	{"title": "Scale", "moments": [
//	  {"offset": 0, "events": [{"notes": ["C4"], "duration": 1}]},
//	  {"events": [{"notes": ["C3", "E3", "G3"], "duration": 2, "staff": "bass"}]},
//	  {"events": [{"duration": 1}]}
//	]}
//
// An event with no notes is a rest, one note is a Note and more is a Chord.
// A moment without an offset follows the longest event of the one before it.
type File struct {
	Title   string       `json:"title"`
	Moments []FileMoment `json:"moments"`
}

type FileMoment struct {
	Offset *float64    `json:"offset,omitempty"`
	Events []FileEvent `json:"events"`
}

type FileEvent struct {
	Notes    []string `json:"notes,omitempty"`
	Duration float64  `json:"duration"`
	Staff    Staff    `json:"staff"`
}

func (s Staff) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Staff) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "treble":
		*s = Treble
	case "bass":
		*s = Bass
	default:
		return fmt.Errorf("unknown staff %q", b)
	}
	return nil
}

// LoadJSON reads an exercise file. The title defaults to the file name.
func LoadJSON(path string) (*Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading score: %w", err)
	}
	defer f.Close()
	return ReadJSON(f, baseName(path))
}

func ReadJSON(r io.Reader, fallbackTitle string) (*Score, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing score: %w", err)
	}
	if file.Title == "" {
		file.Title = fallbackTitle
	}
	return file.Score()
}

// Score converts the file into a validated score
func (f File) Score() (*Score, error) {
	moments := make([]Moment, 0, len(f.Moments))
	next := 0.0
	for _, fm := range f.Moments {
		offset := next
		if fm.Offset != nil {
			offset = *fm.Offset
		}
		m := Moment{Offset: offset}
		longest := 0.0
		for _, fe := range fm.Events {
			m.Events = append(m.Events, fe.event())
			if fe.Duration > longest {
				longest = fe.Duration
			}
		}
		if longest == 0 {
			longest = 1
		}
		next = offset + longest
		moments = append(moments, m)
	}
	return New(f.Title, moments)
}

func (fe FileEvent) event() Event {
	switch len(fe.Notes) {
	case 0:
		return Rest{Duration: fe.Duration, Staff: fe.Staff}
	case 1:
		return Note{Pitch: fe.Notes[0], Duration: fe.Duration, Staff: fe.Staff}
	}
	c := Chord{Duration: fe.Duration, Staff: fe.Staff}
	for _, p := range fe.Notes {
		c.Notes = append(c.Notes, Note{Pitch: p, Duration: fe.Duration, Staff: fe.Staff})
	}
	return c
}

// ToFile converts a score back into the exercise format
func ToFile(s *Score) File {
	f := File{Title: s.Title}
	for i := 0; i < s.Len(); i++ {
		m, _ := s.Moment(i)
		off := m.Offset
		fm := FileMoment{Offset: &off}
		for _, e := range m.Events {
			fe := FileEvent{Notes: e.Pitches()}
			switch ev := e.(type) {
			case Note:
				fe.Duration, fe.Staff = ev.Duration, ev.Staff
			case Chord:
				fe.Duration, fe.Staff = ev.Duration, ev.Staff
			case Rest:
				fe.Duration, fe.Staff = ev.Duration, ev.Staff
			}
			fm.Events = append(fm.Events, fe)
		}
		f.Moments = append(f.Moments, fm)
	}
	return f
}
