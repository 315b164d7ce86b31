package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-practice/score"
)

// testScore is C4, rest, C4+E4+G4, D5
func testScore(t *testing.T) *score.Score {
	t.Helper()
	b := score.NewBuilder("test")
	b.Add(0, score.Note{Pitch: "C4", Duration: 1})
	b.Add(1, score.Rest{Duration: 1})
	b.Add(2, score.Chord{Notes: []score.Note{{Pitch: "C4"}, {Pitch: "E4"}, {Pitch: "G4"}}, Duration: 1})
	b.Add(3, score.Note{Pitch: "D5", Duration: 1})
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestEngineEmpty(t *testing.T) {
	assert := assert.New(t)
	e := NewEngine()
	assert.Empty(e.TargetNotes())
	assert.False(e.Advance())
	assert.False(e.Rewind())
	assert.False(e.CheckSingleNote("C4"))
	assert.False(e.ConfirmChord())
	assert.Equal(0, e.Index())
}

func TestEngineLoadResetsIndex(t *testing.T) {
	e := NewEngine()
	e.Load(testScore(t))
	e.Set(3)
	e.Load(testScore(t))
	assert.Equal(t, 0, e.Index())
	assert.Equal(t, 4, e.Len())
}

func TestEngineClampsAtBoundaries(t *testing.T) {
	assert := assert.New(t)
	e := NewEngine()
	e.Load(testScore(t))

	assert.False(e.Rewind())
	assert.Equal(0, e.Index())

	e.Set(3)
	assert.True(e.AtEnd())
	assert.False(e.Advance())
	assert.Equal(3, e.Index())

	e.Set(99)
	assert.Equal(3, e.Index())
	e.Set(-5)
	assert.Equal(0, e.Index())

	e.Set(2)
	assert.True(e.Restart())
	assert.Equal(0, e.Index())
}

func TestCheckSingleNoteIsOctaveStrict(t *testing.T) {
	assert := assert.New(t)
	e := NewEngine()
	e.Load(testScore(t))

	assert.False(e.CheckSingleNote("C5"))
	assert.Equal(0, e.Index())
	assert.False(e.CheckSingleNote("C#4"))
	assert.Equal(0, e.Index())

	assert.True(e.CheckSingleNote("C4"))
	assert.Equal(1, e.Index())
}

func TestTargetSizeGuardsCheckAndConfirm(t *testing.T) {
	assert := assert.New(t)
	e := NewEngine()
	e.Load(testScore(t))

	// single-note moment refuses chord confirmation
	assert.False(e.ConfirmChord())
	assert.Equal(0, e.Index())

	// rest refuses both
	e.Set(1)
	assert.Empty(e.TargetNotes())
	assert.False(e.CheckSingleNote("C4"))
	assert.False(e.ConfirmChord())
	assert.Equal(1, e.Index())

	// chord refuses a single note even when it is one of the chord tones
	e.Set(2)
	assert.Equal([]string{"C4", "E4", "G4"}, e.TargetNotes())
	assert.False(e.CheckSingleNote("C4"))
	assert.True(e.ConfirmChord())
	assert.Equal(3, e.Index())
}

func TestSuccessOnLastMomentStaysPut(t *testing.T) {
	e := NewEngine()
	e.Load(testScore(t))
	e.Set(3)
	assert.True(t, e.CheckSingleNote("D5"))
	assert.Equal(t, 3, e.Index())
}
