package pipeline

import (
	"io"

	"xdao.co/base32768/base32768"
	"xdao.co/base32768/pipebuf"
)

// Sink drains encoder output. It returns true if it consumed anything or
// changed any signal.
type Sink[O any] func(rd pipebuf.Rd[O]) bool

// Source feeds decoder input. It returns true if it produced anything or
// changed any signal.
type Source func(wr pipebuf.Wr[uint16]) bool

// Encoder is an io.WriteCloser that runs an encoding stage between a byte
// buffer and an output buffer drained by a Sink.
type Encoder[O any] struct {
	bytes *pipebuf.Buffer[byte]
	out   *pipebuf.Buffer[O]
	in    *pipebuf.Writer
	stage func(pipebuf.Rd[byte], pipebuf.Wr[O]) bool
	sink  Sink[O]
}

// NewEncoder returns an Encoder producing code points.
func NewEncoder(sink Sink[uint16], bytes *pipebuf.Buffer[byte], units *pipebuf.Buffer[uint16]) *Encoder[uint16] {
	return newEncoder(EncodeBytesToUnits, sink, bytes, units)
}

// NewUTF8Encoder returns an Encoder producing UTF-8 text.
func NewUTF8Encoder(sink Sink[byte], bytes, text *pipebuf.Buffer[byte]) *Encoder[byte] {
	return newEncoder(EncodeBytesToUTF8, sink, bytes, text)
}

func newEncoder[O any](
	stage func(pipebuf.Rd[byte], pipebuf.Wr[O]) bool,
	sink Sink[O],
	bytes *pipebuf.Buffer[byte],
	out *pipebuf.Buffer[O],
) *Encoder[O] {
	return &Encoder[O]{
		bytes: bytes,
		out:   out,
		in:    pipebuf.NewWriter(bytes),
		stage: stage,
		sink:  sink,
	}
}

func (e *Encoder[O]) process() {
	for !(e.bytes.IsDone() && e.out.IsDone()) {
		staged := e.stage(e.bytes.Rd(), e.out.Wr())
		drained := e.sink(e.out.Rd())
		if !staged && !drained {
			return
		}
	}
}

// Write queues p, running the stages whenever the byte buffer is full.
func (e *Encoder[O]) Write(p []byte) (int, error) {
	if e.bytes.Wr().IsEOF() {
		return 0, base32768.ErrClosed
	}
	written := 0
	for written < len(p) {
		n, err := e.in.Write(p[written:])
		written += n
		switch err {
		case nil:
		case pipebuf.ErrWouldBlock:
			before := e.bytes.Len()
			e.process()
			if n == 0 && e.bytes.Len() == before {
				return written, io.ErrShortWrite
			}
		default:
			return written, err
		}
	}
	return written, nil
}

// Flush signals push and runs the stages, so the sink sees everything
// encodable so far.
func (e *Encoder[O]) Flush() error {
	e.bytes.SetPush(true)
	e.process()
	return nil
}

// Close ends the input and runs the stages to completion.
func (e *Encoder[O]) Close() error {
	wr := e.bytes.Wr()
	if !wr.IsEOF() {
		wr.Close()
	}
	e.process()
	return nil
}

// Decoder is an io.Reader that pulls code points from a Source through the
// two decoding stages.
type Decoder struct {
	source Source
	units  *pipebuf.Buffer[uint16]
	u15s   *pipebuf.Buffer[uint16]
	bytes  *pipebuf.Buffer[byte]
	out    *pipebuf.Reader
	err    error
}

// NewDecoder returns a Decoder using the given buffers.
func NewDecoder(source Source, units, u15s *pipebuf.Buffer[uint16], bytes *pipebuf.Buffer[byte]) *Decoder {
	return &Decoder{
		source: source,
		units:  units,
		u15s:   u15s,
		bytes:  bytes,
		out:    pipebuf.NewReader(bytes),
	}
}

// process pulls from the source and runs both stages until nothing moves.
func (d *Decoder) process() (bool, error) {
	progress := false
	if !d.units.Wr().IsEOF() && d.source(d.units.Wr()) {
		progress = true
	}
	for {
		a, err := DecodeUnitsToU15(d.units.Rd(), d.u15s.Wr())
		if err != nil {
			return progress, err
		}
		b, err := DecodeU15ToBytes(d.u15s.Rd(), d.bytes.Wr())
		if err != nil {
			return progress, err
		}
		if !a && !b {
			return progress, nil
		}
		progress = true
	}
}

func (d *Decoder) Read(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	for {
		n, err := d.out.Read(p)
		switch {
		case err == io.EOF && !d.u15s.IsDone():
			// Output ended at an end marker; drain the input to make sure
			// nothing follows it.
		case err != pipebuf.ErrWouldBlock:
			return n, err
		}
		progress, err := d.process()
		if err != nil {
			d.err = err
			return 0, err
		}
		if !progress {
			d.err = io.ErrNoProgress
			return 0, d.err
		}
	}
}
