package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"go-practice/config"
	"go-practice/detector"
	"go-practice/practice"
	"go-practice/theme"
	"go-practice/widgets"
)

const (
	tickRate    = time.Second / 30
	settleDelay = 300 * time.Millisecond
	meterWidth  = 32
	stripWidth  = 48
)

// Knob limits
const (
	volumeStep = 25.0
	volumeMin  = 25.0
	volumeMax  = 5000.0
	windowMin  = 2
	windowMax  = 16
	confirmMin = 1
	confirmMax = 12

	peakStep       = 5000.0
	peakMin        = 5000.0
	peakMax        = 500000.0
	prominenceStep = 1000.0
	prominenceMin  = 1000.0
	prominenceMax  = 100000.0

	// single-note cooldown and post-success hold share a range
	cooldownStep = 50 * time.Millisecond
	cooldownMin  = 50 * time.Millisecond
	cooldownMax  = 2 * time.Second
)

type Model struct {
	Session *practice.Session
	Config  *config.Config
	Theme   *theme.Theme

	// SaveConfig persists knob changes once they settle
	SaveConfig func(*config.Config) error

	ctx      context.Context
	log      *zap.SugaredLogger
	keys     keyMap
	help     help.Model
	settle   func(func())
	knobs    chan struct{}
	status   practice.Status
	quitting bool
}

type tickMsg time.Time

// knobsSettledMsg arrives once the knobs have been left alone for settleDelay
type knobsSettledMsg struct{}

func NewModel(ctx context.Context, sess *practice.Session, cfg *config.Config, th *theme.Theme, log *zap.SugaredLogger) Model {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return Model{
		Session:    sess,
		Config:     cfg,
		Theme:      th,
		SaveConfig: (*config.Config).Save,
		ctx:        ctx,
		log:        log.Named("tui"),
		keys:       defaultKeys(),
		help:       help.New(),
		settle:     debounce.New(settleDelay),
		knobs:      make(chan struct{}, 1),
		status:     sess.Status(time.Now()),
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func ListenForKnobs(knobs <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-knobs
		return knobsSettledMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), ListenForKnobs(m.knobs))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tickMsg:
		now := time.Time(msg)
		m.Session.Tick(m.ctx, now)
		m.status = m.Session.Status(now)
		return m, tick()

	case knobsSettledMsg:
		m.Session.Reconfigure(m.ctx, m.Config.Detector())
		if m.SaveConfig != nil {
			if err := m.SaveConfig(m.Config); err != nil {
				m.log.Warnw("saving config", "error", err)
			}
		}
		m.status = m.Session.Status(time.Now())
		return m, ListenForKnobs(m.knobs)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			m.Session.Close()
			return m, tea.Quit
		}
		m.handleKey(msg)
		m.status = m.Session.Status(time.Now())
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	ctx := m.ctx
	cfg := m.Config

	switch {
	case key.Matches(msg, m.keys.Listen):
		if err := m.Session.ToggleListening(ctx); err != nil {
			m.log.Warnw("toggling microphone", "error", err)
		}
	case key.Matches(msg, m.keys.Next):
		m.Session.Next(ctx)
	case key.Matches(msg, m.keys.Prev):
		m.Session.Prev(ctx)
	case key.Matches(msg, m.keys.Restart):
		m.Session.Restart(ctx)
	case key.Matches(msg, m.keys.First):
		m.Session.Seek(ctx, 0)
	case key.Matches(msg, m.keys.Last):
		m.Session.Seek(ctx, m.status.Len-1)

	case key.Matches(msg, m.keys.VolumeUp):
		cfg.Single.VolumeThreshold = min(cfg.Single.VolumeThreshold+volumeStep, volumeMax)
		m.knobsChanged()
	case key.Matches(msg, m.keys.VolumeDown):
		cfg.Single.VolumeThreshold = max(cfg.Single.VolumeThreshold-volumeStep, volumeMin)
		m.knobsChanged()
	case key.Matches(msg, m.keys.WindowUp):
		cfg.Single.StabilityWindow = min(cfg.Single.StabilityWindow+1, windowMax)
		m.knobsChanged()
	case key.Matches(msg, m.keys.WindowDown):
		cfg.Single.StabilityWindow = max(cfg.Single.StabilityWindow-1, windowMin)
		m.knobsChanged()
	case key.Matches(msg, m.keys.ConfirmUp):
		cfg.Chord.ConfirmationSize = min(cfg.Chord.ConfirmationSize+1, confirmMax)
		m.knobsChanged()
	case key.Matches(msg, m.keys.ConfirmDown):
		cfg.Chord.ConfirmationSize = max(cfg.Chord.ConfirmationSize-1, confirmMin)
		m.knobsChanged()
	case key.Matches(msg, m.keys.PeakUp):
		cfg.Chord.PeakHeight = min(cfg.Chord.PeakHeight+peakStep, peakMax)
		m.knobsChanged()
	case key.Matches(msg, m.keys.PeakDown):
		cfg.Chord.PeakHeight = max(cfg.Chord.PeakHeight-peakStep, peakMin)
		m.knobsChanged()
	case key.Matches(msg, m.keys.ProminenceUp):
		cfg.Chord.PeakProminence = min(cfg.Chord.PeakProminence+prominenceStep, prominenceMax)
		m.knobsChanged()
	case key.Matches(msg, m.keys.ProminenceDown):
		cfg.Chord.PeakProminence = max(cfg.Chord.PeakProminence-prominenceStep, prominenceMin)
		m.knobsChanged()
	case key.Matches(msg, m.keys.CooldownUp):
		cfg.Single.Cooldown.Duration = min(cfg.Single.Cooldown.Duration+cooldownStep, cooldownMax)
		m.knobsChanged()
	case key.Matches(msg, m.keys.CooldownDown):
		cfg.Single.Cooldown.Duration = max(cfg.Single.Cooldown.Duration-cooldownStep, cooldownMin)
		m.knobsChanged()
	case key.Matches(msg, m.keys.HoldUp):
		cfg.Practice.PostSuccessCooldown.Duration = min(cfg.Practice.PostSuccessCooldown.Duration+cooldownStep, cooldownMax)
		m.knobsChanged()
	case key.Matches(msg, m.keys.HoldDown):
		cfg.Practice.PostSuccessCooldown.Duration = max(cfg.Practice.PostSuccessCooldown.Duration-cooldownStep, cooldownMin)
		m.knobsChanged()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
}

// knobsChanged restarts the settle timer. Reconfiguring reopens the device,
// so a held key only applies once.
func (m *Model) knobsChanged() {
	knobs := m.knobs
	m.settle(func() {
		select {
		case knobs <- struct{}{}:
		default:
		}
	})
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.status
	th := m.Theme

	headerStyle := th.Style(theme.RoleAccent)
	dimStyle := th.Style(theme.RoleMuted)

	title := st.Title
	if title == "" {
		title = "no score"
	}
	position := "-"
	if st.Len > 0 {
		position = fmt.Sprintf("%d/%d", st.Index+1, st.Len)
	}
	mode := "idle"
	if st.Listening && st.Mode != detector.None {
		mode = st.Mode.String()
	}
	header := headerStyle.Render(fmt.Sprintf("go-practice  %s  %s  %s", title, position, mode))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(m.statusLine())
	out.WriteString("\n\n")
	out.WriteString("  ")
	out.WriteString(widgets.RenderTargets(th, st.Targets, st.Found, st.Correct))
	if st.Played != "" && !st.Correct {
		out.WriteString("   ")
		out.WriteString(widgets.RenderHeard(th, st.Played, st.Heard))
	}
	if st.Listening && st.Mode == detector.ChordKind && !st.Correct {
		out.WriteString("   ")
		out.WriteString(widgets.RenderProgress(th, st.Streak, m.Config.Chord.ConfirmationSize))
	}
	out.WriteString("\n\n")
	if sc := m.Session.Engine().Score(); sc != nil {
		out.WriteString("  ")
		out.WriteString(widgets.RenderTimeline(th, sc, st.Index, stripWidth))
		out.WriteString("\n\n")
	}

	gate := m.Config.Single.VolumeThreshold
	if st.Mode == detector.ChordKind {
		gate = m.Config.Chord.VolumeFloor
	}
	out.WriteString("  ")
	out.WriteString(widgets.RenderMeter(th, st.Level, gate, meterWidth))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(fmt.Sprintf("  gate %.0f  window %d  confirm %d",
		m.Config.Single.VolumeThreshold, m.Config.Single.StabilityWindow, m.Config.Chord.ConfirmationSize)))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(fmt.Sprintf("  peak %.0f  prominence %.0f  cooldown %v  hold %v",
		m.Config.Chord.PeakHeight, m.Config.Chord.PeakProminence,
		m.Config.Single.Cooldown.Duration, m.Config.Practice.PostSuccessCooldown.Duration)))
	out.WriteString("\n\n")
	out.WriteString(m.help.View(m.keys))

	return out.String()
}

func (m Model) statusLine() string {
	st := m.status
	th := m.Theme
	switch {
	case st.Err != nil:
		return th.Style(theme.RoleWrong).Render("  Mic error: " + st.Err.Error())
	case st.Correct && st.Listening:
		return th.Style(theme.RoleSuccess).Bold(true).Render("  Correct!")
	case st.Finished:
		return th.Style(theme.RoleSuccess).Render("  Finished")
	case st.Listening:
		return th.Style(theme.RoleFG).Render("  Listening...")
	default:
		return th.Style(theme.RoleMuted).Render("  Mic is Off")
	}
}
