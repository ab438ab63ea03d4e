package pipebuf

import (
	"errors"
	"io"
)

var (
	// ErrWouldBlock is returned when no data is available yet, or a fixed
	// buffer has no room, and the stream has not ended.
	ErrWouldBlock = errors.New("pipebuf: would block")
	// ErrAborted is returned when reading an aborted stream.
	ErrAborted = errors.New("pipebuf: stream aborted")
	// ErrClosed is returned when writing after end of stream.
	ErrClosed = errors.New("pipebuf: write after end of stream")
)

// Writer adapts the producer side of a byte buffer to io.Writer.
type Writer struct{ b *Buffer[byte] }

func NewWriter(b *Buffer[byte]) *Writer { return &Writer{b: b} }

// Write copies as much of p as fits. A fixed buffer that fills up returns
// the count written so far and ErrWouldBlock.
func (w *Writer) Write(p []byte) (int, error) {
	wr := w.b.Wr()
	if wr.IsEOF() {
		return 0, ErrClosed
	}
	n := len(p)
	if free, limited := wr.FreeSpace(); limited && free < n {
		n = free
	}
	if n > 0 {
		copy(wr.Space(n), p[:n])
		wr.Commit(n)
	}
	if n < len(p) {
		return n, ErrWouldBlock
	}
	return n, nil
}

// Reader adapts the consumer side of a byte buffer to io.Reader.
type Reader struct{ b *Buffer[byte] }

func NewReader(b *Buffer[byte]) *Reader { return &Reader{b: b} }

// Read returns buffered bytes, io.EOF after a close, ErrAborted after an
// abort, and ErrWouldBlock while the stream is open but empty.
func (r *Reader) Read(p []byte) (int, error) {
	rd := r.b.Rd()
	if rd.IsAborted() {
		rd.ConsumeEOF()
		return 0, ErrAborted
	}
	if !rd.IsEmpty() {
		n := copy(p, rd.Data())
		rd.Consume(n)
		return n, nil
	}
	if r.b.eof == closed {
		rd.ConsumeEOF()
		return 0, io.EOF
	}
	return 0, ErrWouldBlock
}
