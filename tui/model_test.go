package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-practice/audio"
	"go-practice/config"
	"go-practice/detector"
	"go-practice/practice"
	"go-practice/score"
	"go-practice/theme"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type harness struct {
	m     Model
	gen   *audio.Generator
	coord *detector.Coordinator
	saved []*config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := score.NewBuilder("Etude")
	b.Add(0, score.Note{Pitch: "C4", Duration: 1})
	b.Add(1, score.Rest{Duration: 1})
	b.Add(2, score.Note{Pitch: "E4", Duration: 1})
	sc, err := b.Build()
	require.NoError(t, err)

	ctx := context.Background()
	gen := audio.NewGenerator(44100, 2000)
	cfg := config.DefaultConfig()
	coord := detector.NewCoordinator(gen, cfg.Detector(), nil)
	sess := practice.NewSession(coord, practice.Options{}, nil)
	t.Cleanup(sess.Close)
	sess.Load(ctx, sc)

	h := &harness{gen: gen, coord: coord}
	h.m = NewModel(ctx, sess, cfg, theme.New(nil), nil)
	h.m.SaveConfig = func(c *config.Config) error {
		cp := *c
		h.saved = append(h.saved, &cp)
		return nil
	}
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) view() string { return ansi.Strip(h.m.View()) }

func TestViewShowsScoreAndIdleMic(t *testing.T) {
	h := newHarness(t)
	v := h.view()
	assert.Contains(t, v, "Etude  1/3  idle")
	assert.Contains(t, v, "Mic is Off")
	assert.Contains(t, v, "○ C4")
	assert.Contains(t, v, "gate 200  window 8  confirm 4")
	assert.Contains(t, v, "peak 50000  prominence 10000  cooldown 500ms  hold 250ms")
}

func TestNavigationKeys(t *testing.T) {
	h := newHarness(t)

	h.send(runes("l"))
	assert.Contains(t, h.view(), "2/3")
	assert.Contains(t, h.view(), "Rest")

	h.send(runes("G"))
	assert.Contains(t, h.view(), "3/3")

	h.send(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Contains(t, h.view(), "2/3")

	h.send(runes("r"))
	assert.Contains(t, h.view(), "1/3")
}

func TestPlayingTheNoteAdvances(t *testing.T) {
	h := newHarness(t)

	h.gen.Play(261.63)
	h.send(tea.KeyMsg{Type: tea.KeySpace})
	assert.Contains(t, h.view(), "Listening...")
	assert.Contains(t, h.view(), "single")

	require.Eventually(t, func() bool {
		h.send(tickMsg(time.Now()))
		return h.m.status.Index == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, h.view(), "Correct!")

	h.send(tea.KeyMsg{Type: tea.KeySpace})
	assert.Contains(t, h.view(), "Mic is Off")
}

func TestViewShowsPitchAndChordFeedback(t *testing.T) {
	h := newHarness(t)

	h.m.status = practice.Status{Title: "Etude", Len: 3, Targets: []string{"C4"},
		Listening: true, Mode: detector.Single, Played: "C5", Heard: 526.9}
	assert.Contains(t, h.view(), "heard C5 +12¢")
	assert.NotContains(t, h.view(), "hold ")

	h.m.status = practice.Status{Title: "Etude", Len: 3, Targets: []string{"C4", "E4"},
		Listening: true, Mode: detector.ChordKind, Streak: 2}
	assert.Contains(t, h.view(), "hold ██░░ 2/4")
}

func TestKnobsApplyOnceSettled(t *testing.T) {
	h := newHarness(t)

	h.send(runes("+"))
	h.send(runes("+"))
	h.send(runes("]"))
	h.send(runes("<"))
	h.send(runes("K"))
	h.send(runes("p"))
	h.send(runes("c"))
	h.send(runes("S"))
	assert.Equal(t, 250.0, h.m.Config.Single.VolumeThreshold)
	assert.Equal(t, 9, h.m.Config.Single.StabilityWindow)
	assert.Equal(t, 3, h.m.Config.Chord.ConfirmationSize)
	assert.Equal(t, 55000.0, h.m.Config.Chord.PeakHeight)
	assert.Equal(t, 9000.0, h.m.Config.Chord.PeakProminence)
	assert.Equal(t, 450*time.Millisecond, h.m.Config.Single.Cooldown.Duration)
	assert.Equal(t, 300*time.Millisecond, h.m.Config.Practice.PostSuccessCooldown.Duration)
	assert.Empty(t, h.saved)

	select {
	case <-h.m.knobs:
	case <-time.After(2 * time.Second):
		t.Fatal("knob change never settled")
	}
	cmd := h.send(knobsSettledMsg{})
	assert.NotNil(t, cmd)
	require.Len(t, h.saved, 1)
	assert.Equal(t, 250.0, h.saved[0].Single.VolumeThreshold)
	assert.Equal(t, 55000.0, h.saved[0].Chord.PeakHeight)
	assert.Equal(t, 300*time.Millisecond, h.saved[0].Practice.PostSuccessCooldown.Duration)

	// the detectors run with the new values
	applied := h.coord.Config()
	assert.Equal(t, 55000.0, applied.Chord.PeakHeight)
	assert.Equal(t, 9000.0, applied.Chord.PeakProminence)
	assert.Equal(t, 450*time.Millisecond, applied.Single.Cooldown)
	assert.Equal(t, 300*time.Millisecond, applied.PostSuccessCooldown)

	v := h.view()
	assert.Contains(t, v, "gate 250  window 9  confirm 3")
	assert.Contains(t, v, "peak 55000  prominence 9000  cooldown 450ms  hold 300ms")
}

func TestKnobLimits(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 20; i++ {
		h.send(runes("["))
		h.send(runes(","))
		h.send(runes("k"))
		h.send(runes("p"))
		h.send(runes("c"))
		h.send(runes("s"))
	}
	assert.Equal(t, windowMin, h.m.Config.Single.StabilityWindow)
	assert.Equal(t, confirmMin, h.m.Config.Chord.ConfirmationSize)
	assert.Equal(t, peakMin, h.m.Config.Chord.PeakHeight)
	assert.Equal(t, prominenceMin, h.m.Config.Chord.PeakProminence)
	assert.Equal(t, cooldownMin, h.m.Config.Single.Cooldown.Duration)
	assert.Equal(t, cooldownMin, h.m.Config.Practice.PostSuccessCooldown.Duration)

	for i := 0; i < 100; i++ {
		h.send(runes("K"))
		h.send(runes("P"))
		h.send(runes("C"))
		h.send(runes("S"))
	}
	assert.Equal(t, peakMax, h.m.Config.Chord.PeakHeight)
	assert.Equal(t, prominenceMax, h.m.Config.Chord.PeakProminence)
	assert.Equal(t, cooldownMax, h.m.Config.Single.Cooldown.Duration)
	assert.Equal(t, cooldownMax, h.m.Config.Practice.PostSuccessCooldown.Duration)
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	cmd := h.send(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.m.View())
}
