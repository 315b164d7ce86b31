// Package practice moves a cursor through a score as the player gets each
// moment right.
package practice

import (
	"go-practice/score"
)

// Engine is the practice cursor over a loaded score. Every transition
// clamps to the score; misuse returns false and changes nothing. It is not
// safe for concurrent use.
type Engine struct {
	score     *score.Score
	index     int
	listening bool
}

func NewEngine() *Engine {
	return &Engine{}
}

// Load replaces the score and rewinds to the first moment
func (e *Engine) Load(s *score.Score) {
	e.score = s
	e.index = 0
}

func (e *Engine) Score() *score.Score { return e.score }

// Index is the current moment
func (e *Engine) Index() int { return e.index }

// Len is the number of moments in the loaded score
func (e *Engine) Len() int { return e.score.Len() }

// AtEnd reports whether the cursor is on the last moment
func (e *Engine) AtEnd() bool { return e.Len() == 0 || e.index == e.Len()-1 }

// TargetNotes is every pitch asked for at the current moment
func (e *Engine) TargetNotes() []string {
	return e.score.TargetNotes(e.index)
}

// CheckSingleNote accepts name only when the moment asks for exactly one
// pitch and name matches it including octave. A match advances the cursor.
func (e *Engine) CheckSingleNote(name string) bool {
	targets := e.TargetNotes()
	if len(targets) != 1 || targets[0] != name {
		return false
	}
	e.Advance()
	return true
}

// ConfirmChord advances after the chord detector confirmed the current
// moment. It refuses when the moment is not a chord.
func (e *Engine) ConfirmChord() bool {
	if len(e.TargetNotes()) < 2 {
		return false
	}
	e.Advance()
	return true
}

// Advance moves to the next moment. It reports whether the cursor moved.
func (e *Engine) Advance() bool {
	return e.Set(e.index + 1)
}

// Rewind moves to the previous moment. It reports whether the cursor moved.
func (e *Engine) Rewind() bool {
	return e.Set(e.index - 1)
}

// Set moves to moment i, clamped to the score. It reports whether the cursor moved.
func (e *Engine) Set(i int) bool {
	n := e.Len()
	if n == 0 {
		return false
	}
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	moved := i != e.index
	e.index = i
	return moved
}

// Restart returns to the first moment
func (e *Engine) Restart() bool {
	return e.Set(0)
}

func (e *Engine) Listening() bool { return e.listening }

func (e *Engine) SetListening(on bool) { e.listening = on }
