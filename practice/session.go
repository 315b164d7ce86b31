package practice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-practice/detector"
	"go-practice/score"
)

// Detection is the part of detector.Coordinator a Session drives
type Detection interface {
	SelectAndStart(ctx context.Context, targets []string) error
	Poll(now time.Time) (detector.Result, bool)
	StopAll()
	CoolDown(now time.Time)
	Active() detector.Kind
	Level() float64
	Configure(cfg detector.Config)
}

// Options changes how a session moves through a score
type Options struct {
	// SkipRests moves past rest moments while listening, since nothing
	// can be played to clear them
	SkipRests bool
	// Flash is how long a correct answer is shown
	Flash time.Duration
}

// Status is a snapshot for the presenter
type Status struct {
	Title     string
	Index     int
	Len       int
	Targets   []string
	Found     map[string]bool // chord path: which targets are sounding
	Played    string          // single path: last wrong note heard
	Heard     float64         // measured frequency of Played, 0 when unknown
	Streak    int             // chord path: correct frames in a row
	Correct   bool
	Finished  bool
	Listening bool
	Mode      detector.Kind
	Level     float64
	Err       error // last device error, cleared by the next successful start
}

// Session joins the engine to the detectors. Tick is called at a fixed
// cadence from one goroutine; every other method must be called from that
// same goroutine.
type Session struct {
	ID     uuid.UUID
	engine *Engine
	det    Detection
	opts   Options
	log    *zap.SugaredLogger

	found        map[string]bool
	played       string
	heard        float64
	streak       int
	correctUntil time.Time
	finished     bool
	err          error
}

func NewSession(det Detection, opts Options, log *zap.SugaredLogger) *Session {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Flash <= 0 {
		opts.Flash = 500 * time.Millisecond
	}
	id := uuid.New()
	return &Session{
		ID:     id,
		engine: NewEngine(),
		det:    det,
		opts:   opts,
		log:    log.Named("session").With("session", id.String()),
	}
}

func (s *Session) Engine() *Engine { return s.engine }

// Load replaces the score and clears all feedback from the previous one.
// Detection restarts on the first moment when listening. A nil score
// unloads.
func (s *Session) Load(ctx context.Context, sc *score.Score) {
	s.engine.Load(sc)
	s.finished = false
	s.correctUntil = time.Time{}
	s.err = nil
	if sc == nil {
		s.log.Infow("score unloaded")
	} else {
		s.log.Infow("score loaded", "title", sc.Title, "moments", sc.Len())
	}
	s.reselect(ctx, forward)
}

// SetListening turns the microphone on or off. Turning it on may fail to
// open the device; the error is returned and kept in Status.
func (s *Session) SetListening(ctx context.Context, on bool) error {
	s.engine.SetListening(on)
	s.log.Infow("listening", "on", on)
	s.reselect(ctx, forward)
	return s.err
}

// ToggleListening flips the microphone
func (s *Session) ToggleListening(ctx context.Context) error {
	return s.SetListening(ctx, !s.engine.Listening())
}

func (s *Session) Next(ctx context.Context) {
	if s.engine.Advance() {
		s.reselect(ctx, forward)
	}
}

func (s *Session) Prev(ctx context.Context) {
	if s.engine.Rewind() {
		s.reselect(ctx, backward)
	}
}

func (s *Session) Restart(ctx context.Context) {
	s.engine.Restart()
	s.reselect(ctx, forward)
}

// Seek jumps to moment i (clamped)
func (s *Session) Seek(ctx context.Context, i int) {
	if s.engine.Set(i) {
		s.reselect(ctx, forward)
	}
}

// Reconfigure applies new detector tunables and restarts detection
func (s *Session) Reconfigure(ctx context.Context, cfg detector.Config) {
	s.det.Configure(cfg)
	s.reselect(ctx, forward)
}

// Tick polls the active detector once and applies what it heard. It
// reports whether anything visible changed.
func (s *Session) Tick(ctx context.Context, now time.Time) bool {
	if !s.engine.Listening() {
		return false
	}
	r, ok := s.det.Poll(now)
	if !ok {
		return false
	}

	switch r.Kind {
	case detector.Single:
		atEnd := s.engine.AtEnd()
		if s.engine.CheckSingleNote(r.Note) {
			s.log.Debugw("correct", "note", r.Note, "index", s.engine.Index())
			s.succeed(ctx, now, atEnd)
			return true
		}
		s.played = r.Note
		s.heard = r.Frequency
		s.log.Debugw("wrong note", "note", r.Note, "targets", s.engine.TargetNotes())
	case detector.ChordKind:
		s.found = r.Found
		s.streak = r.Streak
		if r.Confirmed {
			atEnd := s.engine.AtEnd()
			if s.engine.ConfirmChord() {
				s.log.Debugw("chord confirmed", "found", r.Found, "index", s.engine.Index())
				s.succeed(ctx, now, atEnd)
			}
		}
	}
	return true
}

func (s *Session) succeed(ctx context.Context, now time.Time, wasAtEnd bool) {
	s.det.CoolDown(now)
	s.correctUntil = now.Add(s.opts.Flash)
	if wasAtEnd {
		s.finished = true
		s.log.Infow("piece finished")
	}
	s.reselect(ctx, forward)
}

// direction the cursor last moved in; rests are skipped the same way
type direction int

const (
	forward direction = iota
	backward
)

// reselect clears per-moment feedback and starts the detector that fits
// the current moment, or stops detection when not listening
func (s *Session) reselect(ctx context.Context, dir direction) {
	s.found = nil
	s.played = ""
	s.heard = 0
	s.streak = 0
	if s.engine.Index() < s.engine.Len()-1 {
		s.finished = false
	}

	if !s.engine.Listening() {
		s.det.StopAll()
		return
	}
	if s.opts.SkipRests {
		s.skipRests(dir)
	}

	if err := s.det.SelectAndStart(ctx, s.engine.TargetNotes()); err != nil {
		s.log.Errorw("starting detection", "error", err)
		s.err = err
		s.engine.SetListening(false)
		s.det.StopAll()
		return
	}
	s.err = nil
}

// skipRests moves off a rest in dir. Going back with only rests behind,
// it settles on the next note ahead instead.
func (s *Session) skipRests(dir direction) {
	rest := func() bool { return len(s.engine.TargetNotes()) == 0 }
	if dir == backward {
		for rest() && s.engine.Rewind() {
		}
		if !rest() {
			return
		}
	}
	for rest() && s.engine.Advance() {
	}
}

// Status returns what the presenter should show at now
func (s *Session) Status(now time.Time) Status {
	st := Status{
		Index:     s.engine.Index(),
		Len:       s.engine.Len(),
		Targets:   s.engine.TargetNotes(),
		Played:    s.played,
		Heard:     s.heard,
		Streak:    s.streak,
		Correct:   now.Before(s.correctUntil),
		Finished:  s.finished,
		Listening: s.engine.Listening(),
		Mode:      s.det.Active(),
		Err:       s.err,
	}
	if sc := s.engine.Score(); sc != nil {
		st.Title = sc.Title
	}
	if st.Listening {
		st.Level = s.det.Level()
	}
	if s.found != nil {
		st.Found = make(map[string]bool, len(s.found))
		for k, v := range s.found {
			st.Found[k] = v
		}
	}
	return st
}

// Close stops detection
func (s *Session) Close() {
	s.det.StopAll()
}
