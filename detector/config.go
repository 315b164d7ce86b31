package detector

import (
	"math"
	"time"

	"go-practice/pitch"
)

// SingleConfig tunes the single-note detector
type SingleConfig struct {
	SampleRate      float64
	FrameSize       int           // samples per read
	VolumeThreshold float64       // RMS on the int16 scale; quieter frames are silence
	AttackFrames    int           // frames ignored after a volume rising edge
	StabilityWindow int           // observations kept for the stable-note vote
	Quorum          int           // votes the stable note needs before it is emitted
	Confidence      float64       // minimum estimator confidence, 0..1
	MinFrequency    float64       // lowest pitch searched, Hz
	MaxFrequency    float64       // highest pitch searched, Hz
	YINWindow       int           // estimator integration window
	YINHop          int           // step between estimator windows
	Cooldown        time.Duration // minimum gap between emissions
}

// ChordConfig tunes the chord detector
type ChordConfig struct {
	SampleRate       float64
	FrameSize        int
	VolumeFloor      float64 // RMS on the int16 scale
	PeakHeight       float64 // minimum spectral magnitude of a peak
	PeakProminence   float64 // minimum prominence of a peak
	ConfirmationSize int     // consecutive correct frames needed
}

// Config holds everything the coordinator and both detectors need
type Config struct {
	Single SingleConfig
	Chord  ChordConfig

	// PostSuccessCooldown suppresses polling after a correct answer so the
	// decaying note is not heard as the next one
	PostSuccessCooldown time.Duration
	QueueSize           int
	SendTimeout         time.Duration
	JoinTimeout         time.Duration
}

// halfSemitone widens a pitch range so its end notes are not rejected
var halfSemitone = math.Pow(2, 1.0/24)

// DefaultConfig returns the calibrated defaults: a C2..C7 single-note range,
// 44.1 kHz capture, 2048-sample single frames and 8192-sample chord frames.
func DefaultConfig() Config {
	c2, _ := pitch.Parse("C2")
	c7, _ := pitch.Parse("C7")
	return Config{
		Single: SingleConfig{
			SampleRate:      44100,
			FrameSize:       2048,
			VolumeThreshold: 200,
			AttackFrames:    2,
			StabilityWindow: 8,
			Quorum:          3,
			Confidence:      0.8,
			MinFrequency:    pitch.Frequency(c2) / halfSemitone,
			MaxFrequency:    pitch.Frequency(c7) * halfSemitone,
			YINWindow:       1024,
			YINHop:          256,
			Cooldown:        500 * time.Millisecond,
		},
		Chord: ChordConfig{
			SampleRate:       44100,
			FrameSize:        8192,
			VolumeFloor:      100,
			PeakHeight:       50000,
			PeakProminence:   10000,
			ConfirmationSize: 4,
		},
		PostSuccessCooldown: 250 * time.Millisecond,
		QueueSize:           16,
		SendTimeout:         100 * time.Millisecond,
		JoinTimeout:         time.Second,
	}
}

// normalized fills zero values from the defaults and keeps counts sane
func (c Config) normalized() Config {
	d := DefaultConfig()
	s, ch := &c.Single, &c.Chord

	if s.SampleRate <= 0 {
		s.SampleRate = d.Single.SampleRate
	}
	if s.FrameSize <= 0 {
		s.FrameSize = d.Single.FrameSize
	}
	if s.StabilityWindow < 1 {
		s.StabilityWindow = 1
	}
	if s.Quorum < 1 {
		s.Quorum = 1
	}
	if s.Quorum > s.StabilityWindow {
		s.Quorum = s.StabilityWindow
	}
	if s.AttackFrames < 0 {
		s.AttackFrames = 0
	}
	if s.MinFrequency <= 0 {
		s.MinFrequency = d.Single.MinFrequency
	}
	if s.MaxFrequency <= s.MinFrequency {
		s.MaxFrequency = d.Single.MaxFrequency
	}
	if s.YINWindow <= 0 {
		s.YINWindow = d.Single.YINWindow
	}
	if s.YINHop <= 0 {
		s.YINHop = d.Single.YINHop
	}

	if ch.SampleRate <= 0 {
		ch.SampleRate = d.Chord.SampleRate
	}
	if ch.FrameSize <= 0 {
		ch.FrameSize = d.Chord.FrameSize
	}
	if ch.ConfirmationSize < 1 {
		ch.ConfirmationSize = 1
	}

	if c.QueueSize < 1 {
		c.QueueSize = d.QueueSize
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = d.SendTimeout
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = d.JoinTimeout
	}
	return c
}
