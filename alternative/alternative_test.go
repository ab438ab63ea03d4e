package alternative

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestEncodeHello(t *testing.T) {
	// "Hello" is 40 bits: two full values and a long final value.
	got := Encode([]byte("Hello"))
	require.Equal(t, []uint16{0x6548, 0x58d8, 0x01bd}, got)
	require.Equal(t, []byte("Hello"), Decode(got))
}

func TestShortFlag(t *testing.T) {
	// 16 bits leave one bit for the last value.
	got := Encode([]byte{0xff, 0xff})
	require.Len(t, got, 2)
	require.Equal(t, uint16(0x7fff), got[0])
	require.Equal(t, uint16(0x8001), got[1])
	require.Equal(t, []byte{0xff, 0xff}, Decode(got))

	got = Encode([]byte{0x01})
	require.Equal(t, []uint16{0x0001}, got)
}

func TestFullBlock(t *testing.T) {
	src := make([]byte, 15)
	for i := range src {
		src[i] = byte(i + 1)
	}
	got := Encode(src)
	require.Len(t, got, 8)
	for _, v := range got {
		require.Zero(t, v&shortFlag)
	}
	require.Equal(t, src, Decode(got))
}

func TestEmpty(t *testing.T) {
	require.Empty(t, Encode(nil))
	require.Empty(t, Decode(nil))
}

func TestRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("decode inverts encode", prop.ForAll(
		func(src []byte) bool {
			enc := Encode(src)
			return len(enc) == EncodedLen(len(src)) && bytes.Equal(src, Decode(enc))
		},
		gen.SliceOf(gen.UInt8()),
	))
	properties.TestingRun(t)
}
