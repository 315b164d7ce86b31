package pitch

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestA4IsReference(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("A4", FromSemitone(0))
	assert.Equal(440.0, Frequency(0))

	name, ok := FromFrequency(440)
	assert.True(ok)
	assert.Equal("A4", name)
}

func TestKnownFrequencies(t *testing.T) {
	cases := map[float64]string{
		27.5:   "A0",
		65.41:  "C2",
		246.94: "B3",
		261.63: "C4",
		277.18: "C#4",
		349.23: "F4",
		392.0:  "G4",
		523.25: "C5",
		2093.0: "C7",
	}
	for freq, want := range cases {
		t.Run(want, func(t *testing.T) {
			got, ok := FromFrequency(freq)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestRoundTripIsStable(t *testing.T) {
	for n := -48; n <= 50; n++ {
		name := FromSemitone(n)
		freq := Frequency(n)

		back, ok := Semitone(freq)
		require.True(t, ok, name)
		assert.Equal(t, n, back, name)

		parsed, err := Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, n, parsed, name)

		again, ok := FromFrequency(freq)
		require.True(t, ok)
		assert.Equal(t, name, again)
	}
}

func TestBelowAudibleHasNoPitch(t *testing.T) {
	for _, f := range []float64{0, 5, 19.99, -440, math.NaN(), math.Inf(1)} {
		_, ok := FromFrequency(f)
		assert.False(t, ok, fmt.Sprint(f))
	}
}

func TestOctaveBoundaryIsAtC(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("B3", FromSemitone(-10))
	assert.Equal("C4", FromSemitone(-9))
	assert.Equal("B4", FromSemitone(2))
	assert.Equal("C5", FromSemitone(3))
}

func TestNormalizeSpellings(t *testing.T) {
	cases := map[string]string{
		"C4":   "C4",
		"c4":   "C4",
		"Db4":  "C#4",
		"E-5":  "D#5",
		"B#3":  "C4",
		"Cb4":  "B3",
		"F##2": "G2",
	}
	for in, want := range cases {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseRejectsMalformedNames(t *testing.T) {
	for _, in := range []string{"", "C", "H4", "C#", "4C", "Cx4", "C-"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidName, in)
	}
}

func TestCents(t *testing.T) {
	c, ok := Cents(Frequency(0) * math.Pow(2, 20.0/1200))
	require.True(t, ok)
	assert.InDelta(t, 20, c, 1e-6)
}

func TestFromMIDI(t *testing.T) {
	assert.Equal(t, "C4", FromMIDI(60))
	assert.Equal(t, "A0", FromMIDI(21))
	assert.Equal(t, "C8", FromMIDI(108))
}
