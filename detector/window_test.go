package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStabilityWindowMajority(t *testing.T) {
	w := NewWindow[string](3)
	var stable []string
	for _, n := range []string{"C4", "C4", "D4", "C4"} {
		w.Push(n)
		if w.Full() {
			s, _ := w.Mode()
			stable = append(stable, s)
		}
	}
	assert.Equal(t, []string{"C4", "C4"}, stable)
}

func TestWindowTieGoesToFirstToReachMax(t *testing.T) {
	w := NewWindow[string](4)
	for _, n := range []string{"C4", "D4", "D4", "C4"} {
		w.Push(n)
	}
	s, votes := w.Mode()
	assert.Equal(t, "D4", s)
	assert.Equal(t, 2, votes)

	w.Clear()
	for _, n := range []string{"E4", "F4"} {
		w.Push(n)
	}
	s, votes = w.Mode()
	assert.Equal(t, "E4", s)
	assert.Equal(t, 1, votes)
}

func TestWindowDropsOldestAndResizes(t *testing.T) {
	assert := assert.New(t)
	w := NewWindow[int](3)
	for i := 1; i <= 5; i++ {
		w.Push(i)
	}
	assert.Equal([]int{3, 4, 5}, w.items)

	w.Resize(2)
	assert.Equal([]int{4, 5}, w.items)
	assert.True(w.Full())

	w.Resize(4)
	assert.False(w.Full())
	w.Push(6)
	assert.Equal([]int{4, 5, 6}, w.items)

	_, votes := NewWindow[int](0).Mode()
	assert.Equal(0, votes)
}

func TestConfirmationNeedsFullRunOfCorrectFrames(t *testing.T) {
	b := NewConfirmationBuffer(4)
	seq := []bool{true, true, true, false, true, true, true, true}
	var got []bool
	for _, f := range seq {
		got = append(got, b.Push(f))
	}
	assert.Equal(t, []bool{false, false, false, false, false, false, false, true}, got)
	assert.Equal(t, 4, b.Streak())

	b.Push(false)
	assert.False(t, b.Confirmed())
	assert.Equal(t, 0, b.Streak())
}

func TestConfirmationBufferClear(t *testing.T) {
	b := NewConfirmationBuffer(2)
	b.Push(true)
	b.Push(true)
	require.True(t, b.Confirmed())

	b.Clear()
	assert.False(t, b.Confirmed())
	assert.False(t, b.Push(true))
	assert.True(t, b.Push(true))
}

func TestQueuePollNeverBlocks(t *testing.T) {
	q := NewQueue(2)
	_, ok := q.Poll()
	assert.False(t, ok)

	require.True(t, q.Offer(Result{Note: "C4"}, nil, time.Millisecond))
	require.True(t, q.Offer(Result{Note: "D4"}, nil, time.Millisecond))

	r, ok := q.Poll()
	require.True(t, ok)
	assert.Equal(t, "C4", r.Note)
	assert.Equal(t, 1, q.Len())
}

func TestQueueOfferGivesUp(t *testing.T) {
	q := NewQueue(1)
	require.True(t, q.Offer(Result{}, nil, time.Millisecond))

	start := time.Now()
	assert.False(t, q.Offer(Result{}, nil, 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	stop := make(chan struct{})
	close(stop)
	assert.False(t, q.Offer(Result{}, stop, time.Hour))

	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, 0, q.Drain())
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, None, KindFor(0))
	assert.Equal(t, Single, KindFor(1))
	assert.Equal(t, ChordKind, KindFor(2))
	assert.Equal(t, ChordKind, KindFor(5))
	assert.Equal(t, "chord", ChordKind.String())
}
