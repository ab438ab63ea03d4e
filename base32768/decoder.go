package base32768

import (
	"fmt"
	"io"

	"xdao.co/base32768/lookup"
)

// DefaultDecoderSize is the decoded buffer size used by NewDecoder.
const DefaultDecoderSize = 1920

// Decoder is a streaming base32768 decoder. It pulls code points from a
// UnitReader in groups sized to fill its internal byte buffer.
//
// Decoding errors are sticky: once Read reports one, every later call
// returns it again.
type Decoder struct {
	src    UnitReader
	units  []uint16
	buf    []byte
	start  int
	end    int
	closed bool
	err    error
}

// NewDecoder returns a Decoder with a DefaultDecoderSize byte buffer.
func NewDecoder(src UnitReader) *Decoder {
	d, _ := NewDecoderSize(src, DefaultDecoderSize)
	return d
}

// NewDecoderSize returns a Decoder whose byte buffer holds size bytes. size
// must be a positive multiple of 15.
func NewDecoderSize(src UnitReader, size int) (*Decoder, error) {
	if size <= 0 || size%BlockBytes != 0 {
		return nil, &Error{
			Kind:    KindUsage,
			Message: fmt.Sprintf("base32768: decoder size %d is not a positive multiple of %d", size, BlockBytes),
		}
	}
	return &Decoder{
		src:   src,
		units: make([]uint16, size/BlockBytes*BlockUnits),
		buf:   make([]byte, size),
	}, nil
}

// Reset discards all state and reads from src.
func (d *Decoder) Reset(src UnitReader) {
	d.src = src
	d.start, d.end = 0, 0
	d.closed = false
	d.err = nil
}

// Buffered returns the decoded bytes not yet read.
func (d *Decoder) Buffered() int { return d.end - d.start }

func (d *Decoder) Read(p []byte) (int, error) {
	if d.start == d.end {
		if err := d.refill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, d.buf[d.start:d.end])
	d.start += n
	return n, nil
}

// WriteTo writes all decoded bytes to w.
func (d *Decoder) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		if d.start == d.end {
			if err := d.refill(); err != nil {
				if err == io.EOF {
					return total, nil
				}
				return total, err
			}
		}
		n, err := w.Write(d.buf[d.start:d.end])
		total += int64(n)
		d.start += n
		if err != nil {
			return total, err
		}
	}
}

func (d *Decoder) fail(err error) error {
	d.closed = true
	d.err = err
	return err
}

// refill decodes the next group of code points into buf. It returns io.EOF
// once the input is exhausted.
func (d *Decoder) refill() error {
	d.start, d.end = 0, 0
	if d.err != nil {
		return d.err
	}
	if d.closed {
		return io.EOF
	}

	got, srcErr := d.readUnits()
	if srcErr != nil {
		return d.fail(srcErr)
	}
	if got == 0 {
		d.closed = true
		return io.EOF
	}

	vals := d.units[:got]
	if err := translate(vals, vals); err != nil {
		return d.fail(err)
	}
	for _, v := range vals[:got-1] {
		if v&lookup.ShortFlag != 0 {
			return d.fail(ErrUnexpectedEndMarker)
		}
	}

	last := vals[got-1]
	if got == len(d.units) && last&lookup.ShortFlag == 0 {
		for i := 0; i < got/BlockUnits; i++ {
			// Flags were checked above.
			_ = DecodeBlock(
				(*[BlockBytes]byte)(d.buf[i*BlockBytes:(i+1)*BlockBytes]),
				(*[BlockUnits]uint16)(vals[i*BlockUnits:(i+1)*BlockUnits]),
			)
		}
		d.end = len(d.buf)
		return nil
	}

	d.closed = true
	full := got / BlockUnits
	if got%BlockUnits == 0 {
		full--
	}
	for i := 0; i < full; i++ {
		_ = DecodeBlock(
			(*[BlockBytes]byte)(d.buf[i*BlockBytes:(i+1)*BlockBytes]),
			(*[BlockUnits]uint16)(vals[i*BlockUnits:(i+1)*BlockUnits]),
		)
	}
	n, err := DecodePartial(d.buf[full*BlockBytes:], vals[full*BlockUnits:])
	if err != nil {
		return d.fail(err)
	}

	if got == len(d.units) {
		// The end marker filled the group exactly; anything after it is an error.
		var extra [1]uint16
		if k, _ := d.src.ReadUnits(extra[:]); k > 0 {
			return d.fail(ErrUnexpectedEndMarker)
		}
	}

	d.end = full*BlockBytes + n
	return nil
}

// readUnits fills d.units from the source, stopping early only at io.EOF.
func (d *Decoder) readUnits() (int, error) {
	got := 0
	for got < len(d.units) {
		n, err := d.src.ReadUnits(d.units[got:])
		got += n
		if err == io.EOF {
			return got, nil
		}
		if err != nil {
			return got, err
		}
	}
	return got, nil
}
