package detector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-practice/audio"
	"go-practice/debug"
	"go-practice/pitch"
)

var testNow = time.Unix(1000, 0)

// countingInput wraps a generator and tracks how many streams are open at once
type countingInput struct {
	gen *audio.Generator

	mu      sync.Mutex
	open    int
	maxOpen int
	opens   int
}

func (c *countingInput) Open(ctx context.Context, frameSize int) (audio.Stream, error) {
	s, err := c.gen.Open(ctx, frameSize)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open++
	c.opens++
	if c.open > c.maxOpen {
		c.maxOpen = c.open
	}
	return &countedStream{Stream: s, in: c}, nil
}

func (c *countingInput) stats() (open, maxOpen, opens int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open, c.maxOpen, c.opens
}

type countedStream struct {
	audio.Stream
	in   *countingInput
	once sync.Once
}

func (s *countedStream) Close() error {
	s.once.Do(func() {
		s.in.mu.Lock()
		s.in.open--
		s.in.mu.Unlock()
	})
	return s.Stream.Close()
}

// slowInput hands out streams whose reads take delay, like a device that
// blocks well past the join timeout
type slowInput struct {
	*countingInput
	delay time.Duration
}

func (s slowInput) Open(ctx context.Context, frameSize int) (audio.Stream, error) {
	st, err := s.countingInput.Open(ctx, frameSize)
	if err != nil {
		return nil, err
	}
	return slowStream{Stream: st, delay: s.delay}, nil
}

type slowStream struct {
	audio.Stream
	delay time.Duration
}

func (s slowStream) Read(n int) ([]float64, error) {
	time.Sleep(s.delay)
	return s.Stream.Read(n)
}

type failingInput struct{ err error }

func (f failingInput) Open(context.Context, int) (audio.Stream, error) { return nil, f.err }

func freqs(names ...string) []float64 {
	var out []float64
	for _, n := range names {
		i, _ := pitch.Parse(n)
		out = append(out, pitch.Frequency(i))
	}
	return out
}

func newTestCoordinator(t *testing.T) (*Coordinator, *audio.Generator, *countingInput) {
	gen := audio.NewGenerator(44100, 2000)
	in := &countingInput{gen: gen}
	c := NewCoordinator(in, DefaultConfig(), nil)
	t.Cleanup(c.StopAll)
	return c, gen, in
}

// pollUntil polls until match accepts a result or the deadline passes
func pollUntil(t *testing.T, c *Coordinator, match func(Result) bool) Result {
	t.Helper()
	var got Result
	require.Eventually(t, func() bool {
		r, ok := c.Poll(time.Now())
		if ok && match(r) {
			got = r
			return true
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)
	return got
}

func TestCoordinatorRestStartsNothing(t *testing.T) {
	c, _, in := newTestCoordinator(t)
	require.NoError(t, c.SelectAndStart(context.Background(), nil))
	assert.Equal(t, None, c.Active())

	_, ok := c.Poll(time.Now())
	assert.False(t, ok)
	_, _, opens := in.stats()
	assert.Equal(t, 0, opens)
}

func TestCoordinatorSingleNote(t *testing.T) {
	c, gen, _ := newTestCoordinator(t)
	gen.Play(freqs("A4")...)

	require.NoError(t, c.SelectAndStart(context.Background(), []string{"A4"}))
	assert.Equal(t, Single, c.Active())
	assert.True(t, c.single.Running())

	r := pollUntil(t, c, func(r Result) bool { return r.Kind == Single })
	assert.Equal(t, "A4", r.Note)
}

func TestCoordinatorChordConfirms(t *testing.T) {
	c, gen, _ := newTestCoordinator(t)
	gen.Play(freqs("C4", "E4", "G4")...)

	require.NoError(t, c.SelectAndStart(context.Background(), []string{"C4", "E4", "G4"}))
	assert.Equal(t, ChordKind, c.Active())

	r := pollUntil(t, c, func(r Result) bool { return r.Confirmed })
	assert.Equal(t, ChordKind, r.Kind)
	assert.Equal(t, map[string]bool{"C4": true, "E4": true, "G4": true}, r.Found)
}

func TestCoordinatorStopAllDrainsAndReleases(t *testing.T) {
	c, gen, in := newTestCoordinator(t)
	gen.Play(freqs("C4", "E4")...)
	require.NoError(t, c.SelectAndStart(context.Background(), []string{"C4", "E4"}))
	require.Eventually(t, func() bool { return c.chordQ.Len() > 0 }, 5*time.Second, 5*time.Millisecond)

	c.StopAll()
	c.StopAll()

	assert.Equal(t, None, c.Active())
	assert.False(t, c.single.Running())
	assert.False(t, c.chord.Running())
	assert.Equal(t, 0, c.chordQ.Len())
	_, ok := c.Poll(time.Now())
	assert.False(t, ok)

	open, _, _ := in.stats()
	assert.Equal(t, 0, open)
}

func TestCoordinatorHoldsDeviceExclusively(t *testing.T) {
	c, gen, in := newTestCoordinator(t)
	gen.Play(freqs("C4")...)

	targets := [][]string{{"C4"}, {"C4", "E4"}, nil, {"D4"}, {"C4", "E4", "G4"}, {"E4"}}
	for i := 0; i < 3; i++ {
		for _, tg := range targets {
			require.NoError(t, c.SelectAndStart(context.Background(), tg))
		}
	}
	c.StopAll()

	open, maxOpen, opens := in.stats()
	assert.Equal(t, 0, open)
	assert.Equal(t, 1, maxOpen)
	assert.Equal(t, 15, opens)
}

func TestCoordinatorNoStaleResultsAfterSwitch(t *testing.T) {
	c, gen, _ := newTestCoordinator(t)
	gen.Play(freqs("C4", "E4")...)
	require.NoError(t, c.SelectAndStart(context.Background(), []string{"C4", "E4"}))
	require.Eventually(t, func() bool { return c.chordQ.Len() > 0 }, 5*time.Second, 5*time.Millisecond)

	gen.Play()
	require.NoError(t, c.SelectAndStart(context.Background(), []string{"C4"}))
	// silence produces nothing from the single detector, and no chord
	// result may leak through
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if r, ok := c.Poll(time.Now()); ok {
			t.Fatalf("unexpected result %+v", r)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCoordinatorDeviceErrorSurfacesOnce(t *testing.T) {
	log, logs := debug.NewTestLogger()
	c := NewCoordinator(failingInput{err: audio.ErrNoDevice}, DefaultConfig(), log)

	err := c.SelectAndStart(context.Background(), []string{"C4"})
	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrNoDevice)
	assert.Equal(t, None, c.Active())
	assert.False(t, c.single.Running())

	err = c.SelectAndStart(context.Background(), []string{"C4", "E4"})
	assert.ErrorIs(t, err, audio.ErrNoDevice)

	warnings := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warnings, 2)
	assert.Equal(t, "coordinator", warnings[0].LoggerName)
}

func TestCoordinatorRefusesDeviceStillHeld(t *testing.T) {
	gen := audio.NewGenerator(44100, 2000)
	in := &countingInput{gen: gen}
	cfg := DefaultConfig()
	cfg.JoinTimeout = 50 * time.Millisecond
	log, logs := debug.NewTestLogger()
	c := NewCoordinator(slowInput{countingInput: in, delay: 300 * time.Millisecond}, cfg, log)
	t.Cleanup(c.StopAll)

	require.NoError(t, c.SelectAndStart(context.Background(), []string{"C4"}))
	time.Sleep(20 * time.Millisecond) // first read is in flight

	err := c.SelectAndStart(context.Background(), []string{"C4", "E4"})
	require.ErrorIs(t, err, ErrDeviceBusy)
	assert.Equal(t, None, c.Active())
	_, maxOpen, opens := in.stats()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, maxOpen)
	assert.NotEmpty(t, logs.FilterMessageSnippet("busy").All())

	// once the old loop lets go the device opens normally
	require.Eventually(t, func() bool {
		open, _, _ := in.stats()
		return open == 0
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.SelectAndStart(context.Background(), []string{"C4", "E4"}))
	assert.Equal(t, ChordKind, c.Active())
	_, maxOpen, opens = in.stats()
	assert.Equal(t, 2, opens)
	assert.Equal(t, 1, maxOpen)
}

func TestCoordinatorPostSuccessCooldown(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	c.active = Single
	require.True(t, c.singleQ.Offer(Result{Kind: Single, Note: "C4"}, nil, time.Millisecond))

	c.CoolDown(testNow)
	assert.True(t, c.CoolingDown(testNow.Add(100*time.Millisecond)))
	_, ok := c.Poll(testNow.Add(100 * time.Millisecond))
	assert.False(t, ok)

	assert.False(t, c.CoolingDown(testNow.Add(250*time.Millisecond)))
	r, ok := c.Poll(testNow.Add(250 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "C4", r.Note)
}

func TestCoordinatorConfigure(t *testing.T) {
	c, gen, _ := newTestCoordinator(t)
	gen.Play(freqs("A4")...)
	require.NoError(t, c.SelectAndStart(context.Background(), []string{"A4"}))

	cfg := DefaultConfig()
	cfg.Single.StabilityWindow = 4
	cfg.Chord.ConfirmationSize = 6
	cfg.PostSuccessCooldown = time.Second
	cfg.QueueSize = 2
	c.Configure(cfg)

	assert.Equal(t, None, c.Active())
	assert.False(t, c.single.Running())
	assert.Equal(t, 4, c.single.Config().StabilityWindow)
	assert.Equal(t, 6, c.chord.buffer.Size())
	assert.Equal(t, time.Second, c.Config().PostSuccessCooldown)

	// the new queue is wired to the worker
	require.NoError(t, c.SelectAndStart(context.Background(), []string{"A4"}))
	r := pollUntil(t, c, func(r Result) bool { return r.Kind == Single })
	assert.Equal(t, "A4", r.Note)
}
