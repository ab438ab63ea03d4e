// Package base32768 implements a binary-to-text encoding that stores 15 bits
// in every code point.
//
// Each code point is a single UTF-16 code unit outside the surrogate range,
// so an encoded string is 8/15 the length of its input when counted in
// UTF-16 units. Input is processed in 15 byte blocks, each producing 8 code
// points. The final block may end in a "short" code point that carries 7 bits
// and also marks the end of the stream.
package base32768

import (
	"unicode/utf16"

	"xdao.co/base32768/lookup"
)

// EncodedLen returns the number of code points needed to encode n bytes.
func EncodedLen(n int) int {
	return (n*lookup.ByteSize + lookup.CodeLen - 1) / lookup.CodeLen
}

// MaxDecodedLen returns an upper bound on the bytes decoded from n code points.
func MaxDecodedLen(n int) int {
	return n * lookup.CodeLen / lookup.ByteSize
}

// Encode encodes src into dst and returns the number of code points written.
// dst must hold at least EncodedLen(len(src)) entries.
func Encode(dst []uint16, src []byte) int {
	out := 0
	for len(src) >= BlockBytes {
		EncodeBlock((*[BlockUnits]uint16)(dst[out:out+BlockUnits]), (*[BlockBytes]byte)(src[:BlockBytes]))
		out += BlockUnits
		src = src[BlockBytes:]
	}
	return out + EncodePartial(dst[out:], src)
}

// EncodeToUnits returns the code points encoding src.
func EncodeToUnits(src []byte) []uint16 {
	dst := make([]uint16, EncodedLen(len(src)))
	return dst[:Encode(dst, src)]
}

// EncodeToString returns the base32768 text of src.
func EncodeToString(src []byte) string {
	return string(utf16.Decode(EncodeToUnits(src)))
}

// DecodeUnits decodes a complete sequence of code points.
func DecodeUnits(src []uint16) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}
	vals := make([]uint16, len(src))
	if err := translate(vals, src); err != nil {
		return nil, err
	}

	full := len(vals) / BlockUnits
	last := vals[len(vals)-1]
	if len(vals)%BlockUnits == 0 && last&lookup.ShortFlag != 0 {
		full--
	}

	dst := make([]byte, full*BlockBytes, MaxDecodedLen(len(vals)))
	for i := 0; i < full; i++ {
		err := DecodeBlock(
			(*[BlockBytes]byte)(dst[i*BlockBytes:(i+1)*BlockBytes]),
			(*[BlockUnits]uint16)(vals[i*BlockUnits:(i+1)*BlockUnits]),
		)
		if err != nil {
			return nil, err
		}
	}

	var tail [BlockBytes]byte
	n, err := DecodePartial(tail[:], vals[full*BlockUnits:])
	if err != nil {
		return nil, err
	}
	return append(dst, tail[:n]...), nil
}

// Decode decodes base32768 text. Text is handled as UTF-16 code units; any
// rune outside the basic multilingual plane is reported as an invalid code
// point.
func Decode(s string) ([]byte, error) {
	return DecodeUnits(utf16.Encode([]rune(s)))
}

// DecodeString is an alias of Decode matching the encoding/* packages.
func DecodeString(s string) ([]byte, error) {
	return Decode(s)
}
