package base32768

// blocksPerBatch bounds how many blocks are encoded before handing code
// points to the sink.
const blocksPerBatch = 64

// Encoder is a streaming base32768 encoder. Bytes written to it are encoded
// a block at a time; Close encodes the final partial block.
type Encoder struct {
	sink   UnitWriter
	buf    [BlockBytes]byte
	n      int
	out    [blocksPerBatch * BlockUnits]uint16
	closed bool
}

// NewEncoder returns an Encoder writing code points to sink.
func NewEncoder(sink UnitWriter) *Encoder {
	return &Encoder{sink: sink}
}

// Reset discards buffered input and directs output to sink.
func (e *Encoder) Reset(sink UnitWriter) {
	e.sink = sink
	e.n = 0
	e.closed = false
}

// Write encodes p. Up to 14 trailing bytes are held back until more input
// arrives or the Encoder is closed.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	written := len(p)

	if e.n > 0 {
		c := copy(e.buf[e.n:], p)
		e.n += c
		p = p[c:]
		if e.n < BlockBytes {
			return written, nil
		}
		EncodeBlock((*[BlockUnits]uint16)(e.out[:BlockUnits]), &e.buf)
		e.n = 0
		if err := e.sink.WriteUnits(e.out[:BlockUnits]); err != nil {
			return written - len(p), err
		}
	}

	for len(p) >= BlockBytes {
		out := 0
		for len(p) >= BlockBytes && out < len(e.out) {
			EncodeBlock((*[BlockUnits]uint16)(e.out[out:out+BlockUnits]), (*[BlockBytes]byte)(p[:BlockBytes]))
			out += BlockUnits
			p = p[BlockBytes:]
		}
		if err := e.sink.WriteUnits(e.out[:out]); err != nil {
			return written - len(p), err
		}
	}

	e.n = copy(e.buf[:], p)
	return written, nil
}

// Flush passes a flush through to the sink if it supports one. Bytes that do
// not yet fill a block stay buffered.
func (e *Encoder) Flush() error {
	if f, ok := e.sink.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close encodes the buffered tail and flushes the sink. It does not close the
// sink itself.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.n > 0 {
		k := EncodePartial(e.out[:], e.buf[:e.n])
		e.n = 0
		if err := e.sink.WriteUnits(e.out[:k]); err != nil {
			return err
		}
	}
	return e.Flush()
}
