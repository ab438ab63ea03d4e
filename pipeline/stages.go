// Package pipeline runs base32768 encoding and decoding as stages connected
// by pipe buffers.
//
// Each stage moves as much data as it can from its input buffer to its
// output buffer, forwards push and end-of-stream signals, and reports
// whether it made progress. Decoding is split in two stages: code points to
// u15 values, then u15 values to bytes.
package pipeline

import (
	"unicode/utf8"

	"xdao.co/base32768/base32768"
	"xdao.co/base32768/lookup"
	"xdao.co/base32768/pipebuf"
)

const (
	blockBytes = base32768.BlockBytes
	blockUnits = base32768.BlockUnits

	// maxUTF8Block is the UTF-8 size of one encoded block: every code point
	// is below U+FFFF and takes at most 3 bytes.
	maxUTF8Block = 3 * blockUnits
)

type tripwire struct{ in, out pipebuf.Tripwire }

func snapshot[I, O any](in pipebuf.Rd[I], out pipebuf.Wr[O]) tripwire {
	return tripwire{in: in.Tripwire(), out: out.Tripwire()}
}

// EncodeBytesToUnits encodes bytes into code points.
func EncodeBytesToUnits(bytes pipebuf.Rd[byte], units pipebuf.Wr[uint16]) bool {
	before := snapshot(bytes, units)

	if bytes.ConsumePush() {
		units.Push()
	}

	if bytes.IsAborted() && bytes.ConsumeEOF() {
		units.Abort()
	} else {
		backpressure := false
		for bytes.Len() >= blockBytes {
			blocks := bytes.Len() / blockBytes
			if free, limited := units.FreeSpace(); limited {
				if free/blockUnits < blocks {
					blocks = free / blockUnits
				}
				if blocks == 0 {
					backpressure = true
					break
				}
			}
			space, ok := units.TrySpace(blocks * blockUnits)
			if !ok {
				backpressure = true
				break
			}
			data := bytes.Data()
			for i := 0; i < blocks; i++ {
				base32768.EncodeBlock(
					(*[blockUnits]uint16)(space[i*blockUnits:]),
					(*[blockBytes]byte)(data[i*blockBytes:]),
				)
			}
			bytes.Consume(blocks * blockBytes)
			units.Commit(blocks * blockUnits)
		}
		if !backpressure && bytes.HasPendingEOF() {
			if space, ok := units.TrySpace(blockUnits); ok {
				n := base32768.EncodePartial(space, bytes.Data())
				bytes.Consume(bytes.Len())
				units.Commit(n)
				bytes.ConsumeEOF()
				units.Close()
			}
		}
	}

	return before != snapshot(bytes, units)
}

// DecodeUnitsToU15 translates code points into u15 values. An invalid code
// point aborts the output and is returned.
func DecodeUnitsToU15(units pipebuf.Rd[uint16], u15s pipebuf.Wr[uint16]) (bool, error) {
	before := snapshot(units, u15s)

	if units.IsAborted() && units.ConsumeEOF() {
		u15s.Abort()
	} else {
		data := units.Data()
		n := len(data)
		if free, limited := u15s.FreeSpace(); limited && free < n {
			n = free
		}
		if n > 0 {
			space := u15s.Space(n)
			if err := base32768.Translate(space, data[:n]); err != nil {
				u15s.Abort()
				return true, err
			}
			units.Consume(n)
			u15s.Commit(n)
		}

		if units.ConsumePush() {
			u15s.Push()
		}

		if units.IsEmpty() && units.ConsumeEOF() {
			u15s.Close()
		}
	}

	return before != snapshot(units, u15s), nil
}

// DecodeU15ToBytes turns u15 values into bytes. A group is decoded once 8
// values are available, or earlier when the stream is known to end.
func DecodeU15ToBytes(u15s pipebuf.Rd[uint16], bytes pipebuf.Wr[byte]) (bool, error) {
	before := snapshot(u15s, bytes)

	if u15s.IsAborted() && u15s.ConsumeEOF() {
		bytes.Abort()
		return before != snapshot(u15s, bytes), nil
	}

	data := u15s.Data()
	if bytes.IsEOF() {
		// Output already ended at an end marker; only end-of-stream may follow.
		if !u15s.IsEmpty() {
			return true, base32768.ErrUnexpectedEndMarker
		}
		u15s.ConsumeEOF()
		return before != snapshot(u15s, bytes), nil
	}

	final := (len(data) > 0 && data[len(data)-1]&lookup.ShortFlag != 0) || u15s.HasPendingEOF()
	// A final group of 8 values may end in a short value; leave it to
	// DecodePartial.
	threshold := blockUnits - 1
	if final {
		threshold = blockUnits
	}

	backpressure := false
	for u15s.Len() > threshold {
		space, ok := bytes.TrySpace(blockBytes)
		if !ok {
			backpressure = true
			break
		}
		err := base32768.DecodeBlock((*[blockBytes]byte)(space), (*[blockUnits]uint16)(u15s.Data()))
		if err != nil {
			bytes.Abort()
			return true, err
		}
		bytes.Commit(blockBytes)
		u15s.Consume(blockUnits)
	}

	switch {
	case backpressure:
	case final:
		if space, ok := bytes.TrySpace(blockBytes); ok {
			n, err := base32768.DecodePartial(space, u15s.Data())
			if err != nil {
				bytes.Abort()
				return true, err
			}
			u15s.Consume(u15s.Len())
			u15s.ConsumeEOF()
			bytes.Commit(n)
			bytes.Close()
		}
	default:
		if u15s.ConsumePush() {
			bytes.Push()
		}
	}

	return before != snapshot(u15s, bytes), nil
}

// EncodeBytesToUTF8 encodes bytes straight to UTF-8 base32768 text.
func EncodeBytesToUTF8(bytes pipebuf.Rd[byte], text pipebuf.Wr[byte]) bool {
	before := snapshot(bytes, text)

	if bytes.ConsumePush() {
		text.Push()
	}

	if bytes.IsAborted() && bytes.ConsumeEOF() {
		text.Abort()
	} else {
		var units [blockUnits]uint16
		backpressure := false
		for bytes.Len() >= blockBytes {
			if !hasRoom(text, maxUTF8Block) {
				backpressure = true
				break
			}
			base32768.EncodeBlock(&units, (*[blockBytes]byte)(bytes.Data()))
			commitUTF8(text, units[:])
			bytes.Consume(blockBytes)
		}
		if !backpressure && bytes.HasPendingEOF() && hasRoom(text, maxUTF8Block) {
			n := base32768.EncodePartial(units[:], bytes.Data())
			commitUTF8(text, units[:n])
			bytes.Consume(bytes.Len())
			bytes.ConsumeEOF()
			text.Close()
		}
	}

	return before != snapshot(bytes, text)
}

func hasRoom(w pipebuf.Wr[byte], n int) bool {
	free, limited := w.FreeSpace()
	return !limited || free >= n
}

func commitUTF8(w pipebuf.Wr[byte], units []uint16) {
	space := w.Space(len(units) * 3)
	n := 0
	for _, u := range units {
		n += utf8.EncodeRune(space[n:], rune(u))
	}
	w.Commit(n)
}
