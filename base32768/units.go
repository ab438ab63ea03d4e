package base32768

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// UnitWriter receives encoded code points.
type UnitWriter interface {
	WriteUnits(units []uint16) error
}

// UnitReader supplies code points to a Decoder. It returns io.EOF once the
// input is exhausted.
type UnitReader interface {
	ReadUnits(p []uint16) (int, error)
}

// StringConverter turns code units into a string. textconv.Converter
// satisfies it.
type StringConverter interface {
	UnitsToString(units []uint16) string
}

// UnitBuffer is a growable UnitWriter.
type UnitBuffer struct {
	units []uint16
}

// NewUnitBuffer returns a buffer with room for capacity code points.
func NewUnitBuffer(capacity int) *UnitBuffer {
	return &UnitBuffer{units: make([]uint16, 0, capacity)}
}

func (b *UnitBuffer) WriteUnits(units []uint16) error {
	b.units = append(b.units, units...)
	return nil
}

// Units returns the buffered code points. The slice is valid until the next
// write or Reset.
func (b *UnitBuffer) Units() []uint16 { return b.units }

func (b *UnitBuffer) Len() int { return len(b.units) }

// Reset empties the buffer and keeps its storage.
func (b *UnitBuffer) Reset() { b.units = b.units[:0] }

// StringSink assembles a string from code points. Units are collected in a
// pending buffer of fixed size and converted a buffer at a time.
type StringSink struct {
	conv    StringConverter
	pending []uint16
	out     strings.Builder
}

// NewStringSink returns a sink that converts every size units.
func NewStringSink(conv StringConverter, size int) *StringSink {
	if size <= 0 {
		size = 1024
	}
	return &StringSink{conv: conv, pending: make([]uint16, 0, size)}
}

func (s *StringSink) WriteUnits(units []uint16) error {
	for len(units) > 0 {
		n := copy(s.pending[len(s.pending):cap(s.pending)], units)
		s.pending = s.pending[:len(s.pending)+n]
		units = units[n:]
		if len(s.pending) == cap(s.pending) {
			s.flush()
		}
	}
	return nil
}

func (s *StringSink) flush() {
	if len(s.pending) == 0 {
		return
	}
	s.out.WriteString(s.conv.UnitsToString(s.pending))
	s.pending = s.pending[:0]
}

// Flush converts any pending units.
func (s *StringSink) Flush() error {
	s.flush()
	return nil
}

// String flushes and returns everything written so far.
func (s *StringSink) String() string {
	s.flush()
	return s.out.String()
}

// Reset discards all output.
func (s *StringSink) Reset() {
	s.pending = s.pending[:0]
	s.out.Reset()
}

// RuneWriter writes code points to an io.Writer as UTF-8.
type RuneWriter struct {
	w   io.Writer
	buf []byte
}

func NewRuneWriter(w io.Writer) *RuneWriter {
	return &RuneWriter{w: w}
}

func (rw *RuneWriter) WriteUnits(units []uint16) error {
	rw.buf = rw.buf[:0]
	for _, u := range units {
		rw.buf = utf8.AppendRune(rw.buf, rune(u))
	}
	_, err := rw.w.Write(rw.buf)
	return err
}

// UnitSlice is a UnitReader over an in-memory slice.
type UnitSlice struct {
	units []uint16
}

func NewUnitSlice(units []uint16) *UnitSlice {
	return &UnitSlice{units: units}
}

func (s *UnitSlice) ReadUnits(p []uint16) (int, error) {
	if len(s.units) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.units)
	s.units = s.units[n:]
	return n, nil
}

// RuneSource is a UnitReader over text. Runes outside the basic multilingual
// plane are split into surrogate pairs so the decoder reports them as invalid
// code points.
type RuneSource struct {
	r io.RuneReader
	// SkipSpace drops Unicode white space, none of which is in the alphabet.
	SkipSpace bool
	pending   uint16
	hasLow    bool
}

func NewRuneSource(r io.RuneReader) *RuneSource {
	return &RuneSource{r: r}
}

func (s *RuneSource) ReadUnits(p []uint16) (int, error) {
	n := 0
	for n < len(p) {
		if s.hasLow {
			p[n] = s.pending
			n++
			s.hasLow = false
			continue
		}
		r, _, err := s.r.ReadRune()
		if err != nil {
			if err == io.EOF && n > 0 {
				return n, nil
			}
			return n, err
		}
		if s.SkipSpace && unicode.IsSpace(r) {
			continue
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			p[n] = uint16(hi)
			n++
			s.pending, s.hasLow = uint16(lo), true
			continue
		}
		p[n] = uint16(r)
		n++
	}
	return n, nil
}
