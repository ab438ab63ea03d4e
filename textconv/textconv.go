// Package textconv converts between UTF-16 code units and Go strings.
//
// A Converter is handed to the codec suite explicitly, so the suite never
// reaches for a process-wide helper.
package textconv

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DefaultChunkSize is the number of code units converted per step by
// UnitsToString.
const DefaultChunkSize = 256

// Converter turns code unit arrays into strings and back.
type Converter interface {
	// UnitsToString returns the text for units. Unpaired surrogates become
	// U+FFFD.
	UnitsToString(units []uint16) string
	// StringToUnits copies the UTF-16 form of s into dst, stopping when dst
	// is full, and returns the number of units copied.
	StringToUnits(s string, dst []uint16) int
}

var _ Converter = Chunked{}

// Chunked converts ChunkSize units at a time. The result does not depend on
// the chunk size: a surrogate pair straddling a chunk boundary is kept
// together.
type Chunked struct {
	ChunkSize int
}

// New returns a Chunked converter with DefaultChunkSize.
func New() Chunked {
	return Chunked{ChunkSize: DefaultChunkSize}
}

func (c Chunked) UnitsToString(units []uint16) string {
	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	var b strings.Builder
	b.Grow(len(units) * 3)
	for len(units) > 0 {
		end := min(size, len(units))
		if end < len(units) && isHighSurrogate(units[end-1]) && isLowSurrogate(units[end]) {
			end++
		}
		b.WriteString(string(utf16.Decode(units[:end])))
		units = units[end:]
	}
	return b.String()
}

func (Chunked) StringToUnits(s string, dst []uint16) int {
	n := 0
	for _, r := range s {
		if n == len(dst) {
			break
		}
		if r < 0x10000 {
			dst[n] = uint16(r)
			n++
			continue
		}
		hi, lo := utf16.EncodeRune(r)
		dst[n] = uint16(hi)
		n++
		if n < len(dst) {
			dst[n] = uint16(lo)
			n++
		}
	}
	return n
}

// UTF16Len returns the number of UTF-16 code units in s. Invalid UTF-8
// sequences count as one unit each, matching the U+FFFD they decode to.
func UTF16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func isHighSurrogate(u uint16) bool { return u >= 0xD800 && u < 0xDC00 }

func isLowSurrogate(u uint16) bool { return u >= 0xDC00 && u < 0xE000 }

// SkipUnits returns s without its first n UTF-16 code units. A surrogate
// pair is skipped whole once its first unit is counted.
func SkipUnits(s string, n int) string {
	for n > 0 && len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r >= 0x10000 {
			n -= 2
		} else {
			n--
		}
	}
	return s
}
