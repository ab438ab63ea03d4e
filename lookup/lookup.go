// Package lookup builds the code point tables shared by every base32768
// implementation in this module.
//
// Tables are constructed lazily on first use and are immutable afterwards.
package lookup

import (
	"sync"
	"time"
)

const (
	// CodeLen is the number of payload bits carried by a long code point.
	CodeLen = 15
	// SmallLen is the number of payload bits carried by a short code point.
	SmallLen = 7
	// ByteSize is the number of bits in a byte.
	ByteSize = 8

	// BlockBytes is the number of input bytes in one full encoding block.
	BlockBytes = CodeLen
	// BlockUnits is the number of code points produced by one full block.
	BlockUnits = ByteSize

	// DecodeSize bounds every valid code point: all of them are < DecodeSize.
	DecodeSize = 42183

	// Invalid marks decode table entries that are not base32768 code points.
	Invalid uint16 = 0xFFFF
	// ShortFlag is set on decoded values that came from a short code point.
	ShortFlag uint16 = 0x8000
)

type span struct{ lo, hi uint16 }

// Half-open ranges. Only the first 1<<CodeLen code points are used.
var longSpans = [...]span{
	{19904, 40892}, {13312, 19894}, {40960, 42125}, {5121, 5741},
	{9451, 9885}, {10224, 10627}, {9003, 9140}, {11392, 11499},
	{10765, 10868}, {10871, 10972}, {592, 688}, {4352, 4442},
	{6176, 6264}, {5024, 5109}, {11936, 12019}, {5792, 5867},
	{4608, 4681}, {1657, 1728}, {4888, 4955}, {10649, 10712},
	{8942, 9001}, {4824, 4881}, {1162, 1217}, {4547, 4602},
	{6624, 6679}, {10973, 11028}, {42128, 42183}, {11568, 11622},
	{6016, 6068}, {8656, 8708}, {3585, 3633}, {8880, 8928},
	{11264, 11311}, {11312, 11359}, {4470, 4515}, {7424, 7468},
	{4304, 4347}, {6528, 6570}, {4704, 4745}, {6272, 6313},
	{6470, 6510}, {12549, 12589}, {9216, 9255}, {1329, 1367},
	{1377, 1415}, {1920, 1958}, {4256, 4294}, {11520, 11558},
	{2308, 2345},
}

// Only the first 1<<SmallLen code points are used.
var shortSpans = [...]span{
	{9143, 9180}, {10025, 10060}, {4096, 4130}, {7545, 7579},
}

// Tables holds the encode and decode lookups.
type Tables struct {
	LongEncode  [1 << CodeLen]uint16
	ShortEncode [1 << SmallLen]uint16
	Decode      [DecodeSize]uint16
}

var (
	once      sync.Once
	tables    *Tables
	buildTime time.Duration
)

func build() *Tables {
	t := new(Tables)
	for i := range t.Decode {
		t.Decode[i] = Invalid
	}
	fill(t, longSpans[:], t.LongEncode[:], 0)
	fill(t, shortSpans[:], t.ShortEncode[:], ShortFlag)
	return t
}

func fill(t *Tables, spans []span, encode []uint16, flag uint16) {
	idx := 0
	for _, s := range spans {
		for cp := s.lo; cp < s.hi && idx < len(encode); cp++ {
			encode[idx] = cp
			t.Decode[cp] = uint16(idx) | flag
			idx++
		}
	}
}

// Get returns the shared tables, building them on first use.
func Get() *Tables {
	once.Do(func() {
		start := time.Now()
		tables = build()
		buildTime = time.Since(start)
	})
	return tables
}

// Load forces table construction and returns how long construction took.
// Later calls return the duration recorded by the first one.
func Load() time.Duration {
	Get()
	return buildTime
}

// Valid reports whether cp is a base32768 code point.
func Valid(cp uint16) bool {
	return int(cp) < DecodeSize && Get().Decode[cp] != Invalid
}
