package base32768

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"xdao.co/base32768/lookup"
)

type identityConverter struct{ calls int }

func (c *identityConverter) UnitsToString(units []uint16) string {
	c.calls++
	return string(utf16.Decode(units))
}

func encodeChunked(t *testing.T, src []byte, sizes []int) []uint16 {
	t.Helper()
	var sink UnitBuffer
	enc := NewEncoder(&sink)
	for i := 0; len(src) > 0; i++ {
		n := 1
		if len(sizes) > 0 {
			n = sizes[i%len(sizes)]
		}
		if n > len(src) {
			n = len(src)
		}
		written, err := enc.Write(src[:n])
		require.NoError(t, err)
		require.Equal(t, n, written)
		src = src[n:]
	}
	require.NoError(t, enc.Close())
	return append([]uint16(nil), sink.Units()...)
}

func TestEncoderMatchesOneShot(t *testing.T) {
	src := make([]byte, 1000)
	for i := range src {
		src[i] = byte(i * 7)
	}
	want := EncodeToUnits(src)
	for _, sizes := range [][]int{{1}, {3, 19, 1}, {14}, {15}, {16}, {1000}, {2048}} {
		require.Equal(t, want, encodeChunked(t, src, sizes), "sizes %v", sizes)
	}
}

func TestEncoderWriteAfterClose(t *testing.T) {
	enc := NewEncoder(&UnitBuffer{})
	require.NoError(t, enc.Close())
	require.NoError(t, enc.Close())
	_, err := enc.Write([]byte{1})
	require.ErrorIs(t, err, ErrClosed)

	var sink UnitBuffer
	enc.Reset(&sink)
	_, err = enc.Write([]byte("Hello"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.Equal(t, EncodeToUnits([]byte("Hello")), sink.Units())
}

type failingSink struct{ err error }

func (f failingSink) WriteUnits([]uint16) error { return f.err }

func TestEncoderSinkError(t *testing.T) {
	boom := errors.New("boom")
	enc := NewEncoder(failingSink{boom})
	n, err := enc.Write(make([]byte, 40))
	require.ErrorIs(t, err, boom)
	require.Less(t, n, 40)
}

func TestStringSinkChunks(t *testing.T) {
	conv := &identityConverter{}
	sink := NewStringSink(conv, 16)
	enc := NewEncoder(sink)
	src := bytes.Repeat([]byte("base32768"), 50)
	_, err := enc.Write(src)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	require.Equal(t, EncodeToString(src), sink.String())
	require.Greater(t, conv.calls, 1)

	sink.Reset()
	require.Empty(t, sink.String())
}

func TestRuneWriterAndSource(t *testing.T) {
	src := []byte("a payload that spans more than one block")
	var text bytes.Buffer
	enc := NewEncoder(NewRuneWriter(&text))
	_, err := enc.Write(src)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.Equal(t, EncodeToString(src), text.String())

	rs := NewRuneSource(strings.NewReader(text.String() + "\n"))
	rs.SkipSpace = true
	got, err := io.ReadAll(NewDecoder(rs))
	require.NoError(t, err)
	require.Equal(t, src, got)
}

func TestRuneSourceSplitsAstralRunes(t *testing.T) {
	rs := NewRuneSource(strings.NewReader("😀"))
	p := make([]uint16, 1)
	n, err := rs.ReadUnits(p)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, utf16.IsSurrogate(rune(p[0])))
	n, err = rs.ReadUnits(p)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	_, err = rs.ReadUnits(p)
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoderSizeValidation(t *testing.T) {
	for _, size := range []int{0, -15, 14, 16} {
		_, err := NewDecoderSize(NewUnitSlice(nil), size)
		require.True(t, IsKind(err, KindUsage), "size %d", size)
	}
	_, err := NewDecoderSize(NewUnitSlice(nil), 15)
	require.NoError(t, err)
}

func TestDecoderEmpty(t *testing.T) {
	dec := NewDecoder(NewUnitSlice(nil))
	n, err := dec.Read(make([]byte, 10))
	require.Zero(t, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoderErrorsAreSticky(t *testing.T) {
	units := EncodeToUnits(make([]byte, 100))
	units[50] = 'x'
	dec, err := NewDecoderSize(NewUnitSlice(units), 15)
	require.NoError(t, err)

	_, err = io.ReadAll(dec)
	require.True(t, IsKind(err, KindCodePoint))
	_, err = dec.Read(make([]byte, 1))
	require.True(t, IsKind(err, KindCodePoint))
}

func TestDecoderTrailingAfterEndMarker(t *testing.T) {
	// 14 bytes end in a short code point that fills the group of 8.
	units := EncodeToUnits(make([]byte, 14))
	require.Len(t, units, 8)
	require.NotZero(t, lookup.Get().Decode[units[7]]&lookup.ShortFlag)

	units = append(units, lookup.Get().LongEncode[0])
	dec, err := NewDecoderSize(NewUnitSlice(units), 15)
	require.NoError(t, err)
	_, err = io.ReadAll(dec)
	require.ErrorIs(t, err, ErrUnexpectedEndMarker)

	_, err = DecodeUnits(units)
	require.ErrorIs(t, err, ErrUnexpectedEndMarker)
}

func TestDecoderWriteTo(t *testing.T) {
	src := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 1000)
	dec := NewDecoder(NewUnitSlice(EncodeToUnits(src)))
	var out bytes.Buffer
	n, err := dec.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(len(src)), n)
	require.Equal(t, src, out.Bytes())
	require.Zero(t, dec.Buffered())

	dec.Reset(NewUnitSlice(EncodeToUnits([]byte("again"))))
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, []byte("again"), got)
}

func TestRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("one-shot round trip", prop.ForAll(
		func(src []byte) bool {
			got, err := DecodeUnits(EncodeToUnits(src))
			return err == nil && bytes.Equal(src, got)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("streaming encode matches one-shot", prop.ForAll(
		func(src []byte, chunk int) bool {
			var sink UnitBuffer
			enc := NewEncoder(&sink)
			for rest := src; len(rest) > 0; {
				n := chunk
				if n > len(rest) {
					n = len(rest)
				}
				if _, err := enc.Write(rest[:n]); err != nil {
					return false
				}
				rest = rest[n:]
			}
			if enc.Close() != nil {
				return false
			}
			want := EncodeToUnits(src)
			if len(want) != sink.Len() {
				return false
			}
			for i := range want {
				if want[i] != sink.Units()[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(1, 40),
	))

	properties.Property("streaming decode for any buffer size", prop.ForAll(
		func(src []byte, blocks int) bool {
			dec, err := NewDecoderSize(NewUnitSlice(EncodeToUnits(src)), blocks*BlockBytes)
			if err != nil {
				return false
			}
			got, err := io.ReadAll(dec)
			return err == nil && bytes.Equal(src, got)
		},
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
