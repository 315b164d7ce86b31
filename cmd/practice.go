package cmd

import (
	"context"
	"errors"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-practice/audio"
	"go-practice/config"
	"go-practice/debug"
	"go-practice/detector"
	"go-practice/midi"
	"go-practice/practice"
	"go-practice/score"
	"go-practice/theme"
	"go-practice/tui"
)

var (
	deviceFlag    string
	listenFlag    bool
	skipRestsFlag bool
	midiFlag      bool
	midiPortFlag  string
)

func init() {
	practiceCmd.Flags().StringVar(&deviceFlag, "device", "", "input device name, or part of it")
	practiceCmd.Flags().BoolVar(&listenFlag, "listen", false, "turn the microphone on at start")
	practiceCmd.Flags().BoolVar(&skipRestsFlag, "skip-rests", false, "move past rests while listening")
	practiceCmd.Flags().BoolVar(&midiFlag, "midi", false, "listen to a MIDI keyboard instead of the microphone")
	practiceCmd.Flags().StringVar(&midiPortFlag, "midi-port", "", "MIDI input port name, or part of it (implies --midi)")
	rootCmd.AddCommand(practiceCmd)
}

var practiceCmd = &cobra.Command{
	Use:   "practice [score]",
	Short: "Practice a MIDI or JSON score",
	Long: `Practice a MIDI (.mid) or JSON score. Without an argument the last
practiced score is opened again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		}
		return runPractice(cmd.Context(), path)
	},
}

func runPractice(ctx context.Context, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := debug.Logger("practice")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if deviceFlag != "" {
		cfg.Input.Device = deviceFlag
	}
	if skipRestsFlag {
		cfg.Practice.SkipRests = true
	}
	if path == "" {
		path = cfg.UI.LastScore
	}
	if path == "" {
		return errors.New("no score given and none practiced before")
	}

	sc, err := score.Load(path)
	if err != nil {
		return err
	}
	if abs, err := filepath.Abs(path); err == nil {
		cfg.UI.LastScore = abs
		if err := cfg.Save(); err != nil {
			log.Warnw("saving config", "error", err)
		}
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		log.Warnw("palette unavailable, using default", "path", cfg.UI.Palette, "error", err)
	}

	det, err := detection(cfg, log)
	if err != nil {
		return err
	}
	if _, ok := det.(*midi.Keyboard); ok {
		defer midi.Close()
	}
	sess := practice.NewSession(det, practice.Options{
		SkipRests: cfg.Practice.SkipRests,
		Flash:     cfg.Practice.Flash.Duration,
	}, log)
	defer sess.Close()

	sess.Load(ctx, sc)
	if listenFlag {
		// a failure shows in the status line
		_ = sess.SetListening(ctx, true)
	}

	m := tui.NewModel(ctx, sess, cfg, theme.New(palette), log)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// detection listens on the microphone, or on a MIDI keyboard when asked
func detection(cfg *config.Config, log *zap.SugaredLogger) (practice.Detection, error) {
	if midiPortFlag != "" {
		cfg.Input.MIDIPort = midiPortFlag
		midiFlag = true
	}
	if midiFlag {
		port, err := midi.FindPort(cfg.Input.MIDIPort)
		if err != nil {
			return nil, err
		}
		log.Infow("practicing with MIDI keyboard", "port", port.Name())
		return midi.NewKeyboard(port, cfg.Detector(), log), nil
	}
	input := audio.NewPortAudio(cfg.Input.SampleRate, cfg.Input.Device, cfg.Input.OpenTimeout.Duration)
	return detector.NewCoordinator(input, cfg.Detector(), log), nil
}
