package pitch

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// A4 is the tuning reference in Hz
const A4 = 440.0

// MinFrequency is the lowest frequency that maps to a pitch
const MinFrequency = 20.0

// Names is the pitch class table, indexed from A
var Names = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

var ErrInvalidName = errors.New("invalid pitch name")

// Semitone returns the equal-tempered semitone index relative to A4
// (A4 = 0, A#4 = 1, G#4 = -1). ok is false below MinFrequency.
func Semitone(freq float64) (n int, ok bool) {
	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq < MinFrequency {
		return 0, false
	}
	return int(math.Round(12 * math.Log2(freq/A4))), true
}

// FromSemitone names semitone index n, e.g. 0 -> "A4", -9 -> "C4"
func FromSemitone(n int) string {
	class := ((n % 12) + 12) % 12
	octave := 4 + floorDiv(n+9, 12)
	return Names[class] + strconv.Itoa(octave)
}

// FromFrequency names the nearest equal-tempered pitch to freq
func FromFrequency(freq float64) (string, bool) {
	n, ok := Semitone(freq)
	if !ok {
		return "", false
	}
	return FromSemitone(n), true
}

// Frequency returns the exact frequency of semitone index n
func Frequency(n int) float64 {
	return A4 * math.Pow(2, float64(n)/12)
}

// Cents returns how far freq sits from its nearest pitch, in [-50, 50]
func Cents(freq float64) (float64, bool) {
	n, ok := Semitone(freq)
	if !ok {
		return 0, false
	}
	return 1200 * math.Log2(freq/Frequency(n)), true
}

// FromMIDI names a MIDI key number (60 = C4)
func FromMIDI(key uint8) string {
	return FromSemitone(int(key) - 69)
}

// letter offsets from A within the octave that starts at C
var letters = map[byte]int{'C': -9, 'D': -7, 'E': -5, 'F': -4, 'G': -2, 'A': 0, 'B': 2}

// Parse returns the semitone index for a name like "C4", "F#3", "Bb2" or
// "E-5" ("-" is a flat, as music notation software spells it). Octaves are
// numbered from C, so "B3" is one semitone below "C4".
func Parse(name string) (int, error) {
	s := strings.TrimSpace(name)
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	base, ok := letters[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	i := 1
	accidental := 0
	for ; i < len(s); i++ {
		switch s[i] {
		case '#':
			accidental++
			continue
		case 'b', '-':
			accidental--
			continue
		}
		break
	}

	oct, err := strconv.Atoi(s[i:])
	if err != nil || oct < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base + accidental + (oct-4)*12, nil
}

// Normalize rewrites a name in the canonical sharp spelling used for
// detected notes ("Db4" -> "C#4").
func Normalize(name string) (string, error) {
	n, err := Parse(name)
	if err != nil {
		return "", err
	}
	return FromSemitone(n), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
