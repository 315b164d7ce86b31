package detector

// Window keeps the last size observations
type Window[T comparable] struct {
	items []T
	size  int
}

func NewWindow[T comparable](size int) *Window[T] {
	if size < 1 {
		size = 1
	}
	return &Window[T]{items: make([]T, 0, size), size: size}
}

// Push appends v, dropping the oldest observation when full
func (w *Window[T]) Push(v T) {
	if len(w.items) == w.size {
		copy(w.items, w.items[1:])
		w.items = w.items[:w.size-1]
	}
	w.items = append(w.items, v)
}

// Mode returns the most frequent observation and its count. Scanning from
// oldest to newest, the first value to reach the highest count wins a tie.
func (w *Window[T]) Mode() (T, int) {
	var best T
	top := 0
	counts := make(map[T]int, len(w.items))
	for _, v := range w.items {
		counts[v]++
		if counts[v] > top {
			best, top = v, counts[v]
		}
	}
	return best, top
}

func (w *Window[T]) Len() int   { return len(w.items) }
func (w *Window[T]) Size() int  { return w.size }
func (w *Window[T]) Full() bool { return len(w.items) == w.size }

func (w *Window[T]) Clear() {
	w.items = w.items[:0]
}

// Resize changes the capacity, keeping the newest observations
func (w *Window[T]) Resize(size int) {
	if size < 1 {
		size = 1
	}
	if len(w.items) > size {
		w.items = append([]T(nil), w.items[len(w.items)-size:]...)
	}
	w.size = size
}

// ConfirmationBuffer is a ring of the last size correctness flags
type ConfirmationBuffer struct {
	flags  []bool
	next   int
	filled int
}

func NewConfirmationBuffer(size int) *ConfirmationBuffer {
	if size < 1 {
		size = 1
	}
	return &ConfirmationBuffer{flags: make([]bool, size)}
}

// Push records one frame and reports whether the buffer is now confirmed
func (b *ConfirmationBuffer) Push(correct bool) bool {
	b.flags[b.next] = correct
	b.next = (b.next + 1) % len(b.flags)
	if b.filled < len(b.flags) {
		b.filled++
	}
	return b.Confirmed()
}

// Confirmed is true only when the buffer is full and every flag is set
func (b *ConfirmationBuffer) Confirmed() bool {
	if b.filled < len(b.flags) {
		return false
	}
	for _, f := range b.flags {
		if !f {
			return false
		}
	}
	return true
}

// Streak counts the trailing correct frames, for progress display
func (b *ConfirmationBuffer) Streak() int {
	n := 0
	for i := 1; i <= b.filled; i++ {
		if !b.flags[(b.next-i+len(b.flags))%len(b.flags)] {
			break
		}
		n++
	}
	return n
}

func (b *ConfirmationBuffer) Size() int { return len(b.flags) }

func (b *ConfirmationBuffer) Clear() {
	for i := range b.flags {
		b.flags[i] = false
	}
	b.next, b.filled = 0, 0
}
