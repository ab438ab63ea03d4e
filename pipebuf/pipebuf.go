// Package pipebuf provides a single-producer, single-consumer buffer for
// chaining processing stages without threads.
//
// A producer writes through a Wr view and a consumer reads through an Rd
// view. Besides data, a buffer carries three signals: push (flush what you
// have), close (normal end of stream) and abort (abnormal end; pending data
// is discarded). Stages report progress by comparing Tripwire snapshots.
//
// A Buffer is not safe for concurrent use.
package pipebuf

import "fmt"

type eofState uint8

const (
	open eofState = iota
	closed
	aborted
)

// Buffer holds the data and signals between one producer and one consumer.
type Buffer[T any] struct {
	buf         []T
	rd, wr      int
	fixed       bool
	push        bool
	eof         eofState
	eofConsumed bool

	committed uint64
	consumed  uint64
}

// New returns a buffer that grows as needed.
func New[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

// NewFixed returns a buffer that never holds more than capacity items.
func NewFixed[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("pipebuf: invalid fixed capacity %d", capacity))
	}
	return &Buffer[T]{buf: make([]T, capacity), fixed: true}
}

// Rd returns the consumer view.
func (b *Buffer[T]) Rd() Rd[T] { return Rd[T]{b: b} }

// Wr returns the producer view.
func (b *Buffer[T]) Wr() Wr[T] { return Wr[T]{b: b} }

// Reset empties the buffer and clears every signal, keeping its storage.
func (b *Buffer[T]) Reset() {
	b.rd, b.wr = 0, 0
	b.push = false
	b.eof = open
	b.eofConsumed = false
}

// SetPush sets or clears the push signal.
func (b *Buffer[T]) SetPush(push bool) { b.push = push }

// IsDone reports whether the consumer has consumed end-of-stream.
func (b *Buffer[T]) IsDone() bool { return b.eofConsumed }

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int { return b.wr - b.rd }

// Tripwire is a comparable snapshot of a buffer's state. Two snapshots of
// the same buffer differ if and only if something happened in between.
type Tripwire struct {
	committed   uint64
	consumed    uint64
	push        bool
	eof         eofState
	eofConsumed bool
}

// Tripwire returns a snapshot of the buffer's state.
func (b *Buffer[T]) Tripwire() Tripwire {
	return Tripwire{
		committed:   b.committed,
		consumed:    b.consumed,
		push:        b.push,
		eof:         b.eof,
		eofConsumed: b.eofConsumed,
	}
}

// reserve makes room for n items after wr, compacting and growing as
// allowed. It reports false if a fixed buffer cannot fit n more items.
func (b *Buffer[T]) reserve(n int) bool {
	if len(b.buf)-b.wr >= n {
		return true
	}
	if b.rd > 0 {
		copy(b.buf, b.buf[b.rd:b.wr])
		b.wr -= b.rd
		b.rd = 0
		if len(b.buf)-b.wr >= n {
			return true
		}
	}
	if b.fixed {
		return false
	}
	size := 2 * len(b.buf)
	if size < b.wr+n {
		size = b.wr + n
	}
	if size < 64 {
		size = 64
	}
	grown := make([]T, size)
	copy(grown, b.buf[:b.wr])
	b.buf = grown
	return true
}

// Rd is the consumer side of a Buffer.
type Rd[T any] struct{ b *Buffer[T] }

// Data returns the buffered items. The slice is valid until the next call
// that changes the buffer.
func (r Rd[T]) Data() []T { return r.b.buf[r.b.rd:r.b.wr] }

func (r Rd[T]) Len() int { return r.b.Len() }

func (r Rd[T]) IsEmpty() bool { return r.b.Len() == 0 }

// Consume discards the first n items.
func (r Rd[T]) Consume(n int) {
	if n < 0 || n > r.b.Len() {
		panic(fmt.Sprintf("pipebuf: consume %d of %d items", n, r.b.Len()))
	}
	r.b.rd += n
	r.b.consumed += uint64(n)
	if r.b.rd == r.b.wr {
		r.b.rd, r.b.wr = 0, 0
	}
}

// ConsumePush reports whether push was signalled and clears the signal.
func (r Rd[T]) ConsumePush() bool {
	push := r.b.push
	r.b.push = false
	return push
}

// HasPendingEOF reports whether end-of-stream was signalled and not yet
// consumed.
func (r Rd[T]) HasPendingEOF() bool {
	return r.b.eof != open && !r.b.eofConsumed
}

// IsAborted reports whether the producer aborted the stream.
func (r Rd[T]) IsAborted() bool { return r.b.eof == aborted }

// ConsumeEOF consumes a pending end-of-stream and reports whether it did.
// A closed stream is only consumed once all of its data has been consumed;
// an aborted stream is consumed at once and its data discarded.
func (r Rd[T]) ConsumeEOF() bool {
	if !r.HasPendingEOF() {
		return false
	}
	switch r.b.eof {
	case closed:
		if r.b.Len() > 0 {
			return false
		}
	case aborted:
		r.b.consumed += uint64(r.b.Len())
		r.b.rd, r.b.wr = 0, 0
	}
	r.b.eofConsumed = true
	return true
}

func (r Rd[T]) Tripwire() Tripwire { return r.b.Tripwire() }

// Wr is the producer side of a Buffer.
type Wr[T any] struct{ b *Buffer[T] }

// FreeSpace returns how many more items a fixed buffer can take. The second
// result is false for a growable buffer, which has no limit.
func (w Wr[T]) FreeSpace() (int, bool) {
	if !w.b.fixed {
		return 0, false
	}
	return len(w.b.buf) - w.b.Len(), true
}

// Space returns n writable slots after the buffered data. The slots are not
// part of the data until Commit. Space panics if a fixed buffer lacks room.
func (w Wr[T]) Space(n int) []T {
	s, ok := w.TrySpace(n)
	if !ok {
		panic(fmt.Sprintf("pipebuf: no space for %d items in fixed buffer of %d", n, len(w.b.buf)))
	}
	return s
}

// TrySpace is Space, reporting false instead of panicking.
func (w Wr[T]) TrySpace(n int) ([]T, bool) {
	w.mustBeOpen()
	if !w.b.reserve(n) {
		return nil, false
	}
	return w.b.buf[w.b.wr : w.b.wr+n], true
}

// Commit appends the first n slots of the last Space to the data.
func (w Wr[T]) Commit(n int) {
	w.mustBeOpen()
	if n < 0 || w.b.wr+n > len(w.b.buf) {
		panic(fmt.Sprintf("pipebuf: commit %d beyond reserved space", n))
	}
	w.b.wr += n
	w.b.committed += uint64(n)
}

// Append copies items into the buffer.
func (w Wr[T]) Append(items ...T) {
	copy(w.Space(len(items)), items)
	w.Commit(len(items))
}

// Push signals the consumer to process what it has.
func (w Wr[T]) Push() { w.b.push = true }

// Close signals a normal end of stream. Closing twice is a no-op.
func (w Wr[T]) Close() {
	if w.b.eof == open {
		w.b.eof = closed
	}
}

// Abort signals an abnormal end of stream.
func (w Wr[T]) Abort() {
	if w.b.eof == open {
		w.b.eof = aborted
	}
}

// IsEOF reports whether the stream was closed or aborted.
func (w Wr[T]) IsEOF() bool { return w.b.eof != open }

func (w Wr[T]) Tripwire() Tripwire { return w.b.Tripwire() }

func (w Wr[T]) mustBeOpen() {
	if w.b.eof != open {
		panic("pipebuf: write after end of stream")
	}
}
