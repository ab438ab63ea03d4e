package base32768

import "xdao.co/base32768/lookup"

const (
	// BlockBytes is the number of input bytes in one full block.
	BlockBytes = lookup.BlockBytes
	// BlockUnits is the number of code points in one full block.
	BlockUnits = lookup.BlockUnits

	u15Mask   = 1<<lookup.CodeLen - 1
	smallMask = 1<<lookup.SmallLen - 1
)

// EncodeBlock encodes one full 15 byte block into 8 code points.
// Bits are consumed least significant first.
func EncodeBlock(dst *[BlockUnits]uint16, src *[BlockBytes]byte) {
	table := &lookup.Get().LongEncode
	var acc uint32
	var used uint
	out := 0
	for _, b := range src {
		acc |= uint32(b) << used
		used += lookup.ByteSize
		if used >= lookup.CodeLen {
			dst[out] = table[acc&u15Mask]
			out++
			acc >>= lookup.CodeLen
			used -= lookup.CodeLen
		}
	}
}

// EncodePartial encodes a final block of fewer than 15 bytes into dst and
// returns the number of code points written. dst must hold at least
// EncodedLen(len(src)) entries.
//
// The unused bits of the last code point are set to 1. A tail of 1 to 7 bits
// uses a short code point; 8 to 14 bits use a long one.
func EncodePartial(dst []uint16, src []byte) int {
	tables := lookup.Get()
	var acc uint32
	var used uint
	out := 0
	for _, b := range src {
		acc |= uint32(b) << used
		used += lookup.ByteSize
		if used >= lookup.CodeLen {
			dst[out] = tables.LongEncode[acc&u15Mask]
			out++
			acc >>= lookup.CodeLen
			used -= lookup.CodeLen
		}
	}

	switch {
	case used == 0:
	case used <= lookup.SmallLen:
		acc |= 0xFFFF << used
		dst[out] = tables.ShortEncode[acc&smallMask]
		out++
	default:
		acc |= 0xFFFF << used
		dst[out] = tables.LongEncode[acc&u15Mask]
		out++
	}
	return out
}

// DecodeBlock decodes 8 u15 values (already translated through the decode
// table) into 15 bytes. A value carrying the short flag is an error.
func DecodeBlock(dst *[BlockBytes]byte, src *[BlockUnits]uint16) error {
	var acc uint32
	var used uint
	out := 0
	for _, v := range src {
		if v&lookup.ShortFlag != 0 {
			return ErrUnexpectedEndMarker
		}
		acc |= uint32(v) << used
		used += lookup.CodeLen
		for used >= lookup.ByteSize {
			dst[out] = byte(acc)
			out++
			acc >>= lookup.ByteSize
			used -= lookup.ByteSize
		}
	}
	return nil
}

// DecodePartial decodes the final group of at most 8 u15 values into dst and
// returns the number of bytes written. Only the last value may carry the
// short flag. dst must hold at least BlockBytes bytes.
func DecodePartial(dst []byte, src []uint16) (int, error) {
	var acc uint32
	var used uint
	out := 0
	for i, v := range src {
		bits := uint(lookup.CodeLen)
		if v&lookup.ShortFlag != 0 {
			if i != len(src)-1 {
				return 0, ErrUnexpectedEndMarker
			}
			v &= smallMask
			bits = lookup.SmallLen
		}
		acc |= uint32(v) << used
		used += bits
		for used >= lookup.ByteSize {
			dst[out] = byte(acc)
			out++
			acc >>= lookup.ByteSize
			used -= lookup.ByteSize
		}
	}
	// What remains is padding and must be all 1.
	if acc != 1<<used-1 {
		return 0, invalidPadding(uint16(acc))
	}
	return out, nil
}

// translate maps code points to u15 values, failing on the first code unit
// that is not in the alphabet.
func translate(dst, src []uint16) error {
	decode := &lookup.Get().Decode
	for i, cp := range src {
		if int(cp) >= lookup.DecodeSize {
			return invalidCodePoint(cp)
		}
		v := decode[cp]
		if v == lookup.Invalid {
			return invalidCodePoint(cp)
		}
		dst[i] = v
	}
	return nil
}

// Translate maps code points to u15 values (short values carry the 0x8000
// flag). dst must be at least as long as src.
func Translate(dst, src []uint16) error {
	return translate(dst[:len(src)], src)
}
