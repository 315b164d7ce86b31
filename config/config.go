package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"go-practice/detector"
)

// EnvPrefix prefixes environment overrides, e.g. PRACTICE_SINGLE_VOLUME_THRESHOLD=300
const EnvPrefix = "practice"

// Duration is a time.Duration written as text ("250ms") in JSON and env vars
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Decode lets envconfig parse the same format
func (d *Duration) Decode(value string) error {
	return d.UnmarshalText([]byte(value))
}

// InputConfig selects the capture device
type InputConfig struct {
	Device      string   `json:"device,omitempty"` // substring of the device name; empty for the default input
	SampleRate  float64  `json:"sampleRate" split_words:"true"`
	OpenTimeout Duration `json:"openTimeout" split_words:"true"`
	// MIDIPort picks a MIDI keyboard port (by substring) when practicing with --midi
	MIDIPort string `json:"midiPort,omitempty" split_words:"true"`
}

// SingleConfig holds the single-note knobs
type SingleConfig struct {
	VolumeThreshold float64  `json:"volumeThreshold" split_words:"true"`
	AttackFrames    int      `json:"attackFrames" split_words:"true"`
	StabilityWindow int      `json:"stabilityWindow" split_words:"true"`
	Quorum          int      `json:"quorum"`
	Confidence      float64  `json:"confidence"`
	Cooldown        Duration `json:"cooldown"`
}

// ChordConfig holds the chord knobs
type ChordConfig struct {
	VolumeFloor      float64 `json:"volumeFloor" split_words:"true"`
	PeakHeight       float64 `json:"peakHeight" split_words:"true"`
	PeakProminence   float64 `json:"peakProminence" split_words:"true"`
	ConfirmationSize int     `json:"confirmationSize" split_words:"true"`
}

// PracticeConfig controls how the session moves
type PracticeConfig struct {
	PostSuccessCooldown Duration `json:"postSuccessCooldown" split_words:"true"`
	SkipRests           bool     `json:"skipRests,omitempty" split_words:"true"`
	Flash               Duration `json:"flash"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette   string `json:"palette,omitempty"`   // path to a GIMP .gpl palette
	LastScore string `json:"lastScore,omitempty" split_words:"true"`
}

// Config is the main configuration structure
type Config struct {
	Input    InputConfig    `json:"input"`
	Single   SingleConfig   `json:"single"`
	Chord    ChordConfig    `json:"chord"`
	Practice PracticeConfig `json:"practice"`
	UI       UIConfig       `json:"ui,omitempty"`
}

// DefaultConfig returns a config matching the detector defaults
func DefaultConfig() *Config {
	d := detector.DefaultConfig()
	return &Config{
		Input: InputConfig{
			SampleRate:  d.Single.SampleRate,
			OpenTimeout: Duration{3 * time.Second},
		},
		Single: SingleConfig{
			VolumeThreshold: d.Single.VolumeThreshold,
			AttackFrames:    d.Single.AttackFrames,
			StabilityWindow: d.Single.StabilityWindow,
			Quorum:          d.Single.Quorum,
			Confidence:      d.Single.Confidence,
			Cooldown:        Duration{d.Single.Cooldown},
		},
		Chord: ChordConfig{
			VolumeFloor:      d.Chord.VolumeFloor,
			PeakHeight:       d.Chord.PeakHeight,
			PeakProminence:   d.Chord.PeakProminence,
			ConfirmationSize: d.Chord.ConfirmationSize,
		},
		Practice: PracticeConfig{
			PostSuccessCooldown: Duration{d.PostSuccessCooldown},
			Flash:               Duration{500 * time.Millisecond},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-practice"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Environment overrides are applied on top.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := DefaultConfig()
		return cfg, cfg.ApplyEnv()
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults, then applies environment overrides
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays PRACTICE_* environment variables
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Detector converts the knobs into detector tunables. Anything the file
// does not cover keeps its detector default.
func (c *Config) Detector() detector.Config {
	d := detector.DefaultConfig()

	d.Single.SampleRate = c.Input.SampleRate
	d.Single.VolumeThreshold = c.Single.VolumeThreshold
	d.Single.AttackFrames = c.Single.AttackFrames
	d.Single.StabilityWindow = c.Single.StabilityWindow
	d.Single.Quorum = c.Single.Quorum
	d.Single.Confidence = c.Single.Confidence
	d.Single.Cooldown = c.Single.Cooldown.Duration

	d.Chord.SampleRate = c.Input.SampleRate
	d.Chord.VolumeFloor = c.Chord.VolumeFloor
	d.Chord.PeakHeight = c.Chord.PeakHeight
	d.Chord.PeakProminence = c.Chord.PeakProminence
	d.Chord.ConfirmationSize = c.Chord.ConfirmationSize

	d.PostSuccessCooldown = c.Practice.PostSuccessCooldown.Duration
	return d
}
