// Package alternative is a table-free variant of the base32768 layout.
//
// It emits raw 15-bit values instead of code points. The last value carries
// the 0x8000 flag when it holds 7 or fewer bits. The output is meant to be
// mapped to text by the caller; it does no validation when decoding.
package alternative

const (
	blockBytes = 15
	blockUnits = 8
	mask       = 0x7FFF
	shortFlag  = 0x8000
)

// EncodedLen returns the number of values Encode produces for n bytes.
func EncodedLen(n int) int {
	return (n*8 + 14) / 15
}

// Encode packs src into 15-bit values, least significant bits first.
func Encode(src []byte) []uint16 {
	out := make([]uint16, EncodedLen(len(src)))
	pos := 0
	for len(src) >= blockBytes {
		lo := le64(src[:8])
		hi := le64(src[8:15])
		// Values 0..3 come from lo, value 4 straddles, 5..7 come from hi.
		out[pos] = uint16(lo) & mask
		out[pos+1] = uint16(lo>>15) & mask
		out[pos+2] = uint16(lo>>30) & mask
		out[pos+3] = uint16(lo>>45) & mask
		out[pos+4] = uint16(lo>>60|hi<<4) & mask
		out[pos+5] = uint16(hi>>11) & mask
		out[pos+6] = uint16(hi>>26) & mask
		out[pos+7] = uint16(hi>>41) & mask
		pos += blockUnits
		src = src[blockBytes:]
	}

	var acc uint32
	var used uint
	for _, b := range src {
		acc |= uint32(b) << used
		used += 8
		if used >= 15 {
			out[pos] = uint16(acc) & mask
			pos++
			acc >>= 15
			used -= 15
		}
	}
	if used > 0 {
		out[pos] = uint16(acc) & mask
		if used <= 7 {
			out[pos] |= shortFlag
		}
	}
	return out
}

// Decode unpacks values produced by Encode.
func Decode(units []uint16) []byte {
	if len(units) == 0 {
		return []byte{}
	}
	bits := len(units)*15 - 15
	if units[len(units)-1]&shortFlag != 0 {
		bits += 7
	} else {
		bits += 15
	}
	n := bits / 8
	out := make([]byte, 0, n)

	body := units[:len(units)-1]
	for len(body) >= blockUnits {
		var lo, hi uint64
		lo = uint64(body[0]) | uint64(body[1])<<15 | uint64(body[2])<<30 | uint64(body[3])<<45 | uint64(body[4])<<60
		hi = uint64(body[4])>>4 | uint64(body[5])<<11 | uint64(body[6])<<26 | uint64(body[7])<<41
		out = appendLE(out, lo, 8)
		out = appendLE(out, hi, 7)
		body = body[blockUnits:]
	}

	var acc uint32
	var used uint
	tail := append(body[:len(body):len(body)], units[len(units)-1]&mask)
	for _, v := range tail {
		acc |= uint32(v) << used
		used += 15
		for used >= 8 && len(out) < n {
			out = append(out, byte(acc))
			acc >>= 8
			used -= 8
		}
	}
	return out
}

func le64(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << (8 * i)
	}
	return v
}

func appendLE(dst []byte, v uint64, n int) []byte {
	for i := 0; i < n; i++ {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}
